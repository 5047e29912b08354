package repository

import (
	"context"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemFilter narrows an inventory search. Nil fields are ignored.
type ItemFilter struct {
	CategoryID  *uuid.UUID
	MinQuantity *int64
	MaxQuantity *int64
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Location    string
	Query       string
}

type ItemRepository interface {
	FindAll(ctx context.Context) ([]model.InventoryItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	FindBySKU(ctx context.Context, sku string) (*model.InventoryItem, error)
	Search(ctx context.Context, filter ItemFilter) ([]model.InventoryItem, error)
	FindLowStock(ctx context.Context) ([]model.InventoryItem, error)
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error

	// Tx-scoped primitives used by the transaction processor.
	Insert(tx *gorm.DB, item *model.InventoryItem) error
	UpdateMetadata(tx *gorm.DB, item *model.InventoryItem) error
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.InventoryItem, error)
	AdvanceStock(tx *gorm.DB, id uuid.UUID, expectedVersion, newQuantity int64, updatedBy string) (bool, error)
}

type itemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) ItemRepository {
	return &itemRepo{db}
}

func (r *itemRepo) FindAll(ctx context.Context) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).Preload("Category").Order("name ASC, id ASC").Find(&items).Error
	return items, err
}

func (r *itemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := r.db.WithContext(ctx).Preload("Category").First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) FindBySKU(ctx context.Context, sku string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) Search(ctx context.Context, f ItemFilter) ([]model.InventoryItem, error) {
	q := r.db.WithContext(ctx).Preload("Category")

	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.MinQuantity != nil {
		q = q.Where("quantity >= ?", *f.MinQuantity)
	}
	if f.MaxQuantity != nil {
		q = q.Where("quantity <= ?", *f.MaxQuantity)
	}
	if f.MinPrice != nil {
		q = q.Where("unit_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("unit_price <= ?", *f.MaxPrice)
	}
	if f.Location != "" {
		q = q.Where("LOWER(location) LIKE ? ESCAPE '\\'", likePattern(f.Location))
	}
	if f.Query != "" {
		pattern := likePattern(f.Query)
		q = q.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\' OR LOWER(sku) LIKE ? ESCAPE '\\')", pattern, pattern, pattern)
	}

	var items []model.InventoryItem
	err := q.Order("name ASC, id ASC").Find(&items).Error
	return items, err
}

// FindLowStock lists items at or below their reorder threshold, most urgent first.
func (r *itemRepo) FindLowStock(ctx context.Context) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).Preload("Category").
		Where("quantity <= reorder_threshold").
		Order("quantity ASC, id ASC").
		Find(&items).Error
	return items, err
}

// UpdateMetadata writes every column except quantity and version, which belong to the ledger.
func (r *itemRepo) UpdateMetadata(tx *gorm.DB, item *model.InventoryItem) error {
	res := tx.Model(item).
		Select("name", "description", "category_id", "reorder_threshold", "unit_price", "unit", "sku", "location", "updated_by", "updated_at").
		Updates(item)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete is a soft delete so the transaction history keeps a valid item reference.
func (r *itemRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.InventoryItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&item).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
}

func (r *itemRepo) Insert(tx *gorm.DB, item *model.InventoryItem) error {
	return tx.Omit(clause.Associations).Create(item).Error
}

// LockByID reads the item with a row lock held until tx ends.
func (r *itemRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// AdvanceStock sets the new quantity and bumps the version, but only if nobody
// committed since expectedVersion was read. It reports false on a version mismatch.
func (r *itemRepo) AdvanceStock(tx *gorm.DB, id uuid.UUID, expectedVersion, newQuantity int64, updatedBy string) (bool, error) {
	res := tx.Model(&model.InventoryItem{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"quantity":   newQuantity,
			"version":    expectedVersion + 1,
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
