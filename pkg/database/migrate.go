package database

import (
	"go-inventory-ledger/internal/model"

	"gorm.io/gorm"
)

// Migrate creates or updates the ledger schema. Order matters: referenced tables first.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.InventoryItem{},
		&model.Transaction{},
	)
}
