package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem holds the current state of one stock-keeping item.
//
// Quantity is a cached running total of the item's transactions and is only
// written by the transaction processor. Version counts the committed
// transactions and doubles as the per-item commit sequence.
type InventoryItem struct {
	BaseModel
	Name             string           `gorm:"type:varchar(255);not null;index" json:"name"`
	Description      string           `gorm:"type:text" json:"description"`
	CategoryID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"category_id"`
	Category         *Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Quantity         int64            `gorm:"not null;default:0;check:chk_items_quantity_nonneg,quantity >= 0" json:"quantity"`
	ReorderThreshold int64            `gorm:"not null;default:0;check:chk_items_threshold_nonneg,reorder_threshold >= 0" json:"reorder_threshold"`
	UnitPrice        *decimal.Decimal `gorm:"type:decimal(20,4)" json:"unit_price,omitempty"`
	Unit             string           `gorm:"type:varchar(20)" json:"unit"`
	SKU              *string          `gorm:"type:varchar(50);uniqueIndex:idx_items_sku,where:deleted_at IS NULL" json:"sku,omitempty"`
	Location         string           `gorm:"type:varchar(100)" json:"location"`
	Version          int64            `gorm:"not null;default:0" json:"version"`
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}

// IsLowStock reports whether the item is at or below its reorder threshold.
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.ReorderThreshold
}

// Value is quantity times unit price, zero when the item has no price.
func (i *InventoryItem) Value() decimal.Decimal {
	if i.UnitPrice == nil {
		return decimal.Zero
	}
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}
