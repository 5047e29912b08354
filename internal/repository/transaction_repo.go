package repository

import (
	"context"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Page selects a 1-based page of an ordered result.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to valid bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Size
}

type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindRecent(ctx context.Context, limit int) ([]model.Transaction, error)
	FindByItem(ctx context.Context, itemID uuid.UUID, page Page) ([]model.Transaction, int64, error)
	FindByUser(ctx context.Context, userID uuid.UUID, page Page) ([]model.Transaction, int64, error)

	// Tx-scoped primitives used by the transaction processor.
	Append(tx *gorm.DB, t *model.Transaction) error
	UserExists(tx *gorm.DB, userID uuid.UUID) (bool, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

// withRelations loads item and user even when they were soft-deleted later,
// since history outlives both.
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Item", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	if err := withRelations(r.db.WithContext(ctx)).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepo) FindRecent(ctx context.Context, limit int) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := withRelations(r.db.WithContext(ctx)).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&transactions).Error
	return transactions, err
}

// FindByItem returns the item's history in commit order.
func (r *transactionRepo) FindByItem(ctx context.Context, itemID uuid.UUID, page Page) ([]model.Transaction, int64, error) {
	page = page.Normalize()
	q := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("item_id = ?", itemID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transactions []model.Transaction
	err := withRelations(q).
		Order("sequence ASC").
		Offset(page.offset()).Limit(page.Size).
		Find(&transactions).Error
	return transactions, total, err
}

func (r *transactionRepo) FindByUser(ctx context.Context, userID uuid.UUID, page Page) ([]model.Transaction, int64, error) {
	page = page.Normalize()
	q := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transactions []model.Transaction
	err := withRelations(q).
		Order("created_at ASC, id ASC").
		Offset(page.offset()).Limit(page.Size).
		Find(&transactions).Error
	return transactions, total, err
}

func (r *transactionRepo) Append(tx *gorm.DB, t *model.Transaction) error {
	return tx.Omit(clause.Associations).Create(t).Error
}

// UserExists ignores soft-deleted users: a removed account cannot record new stock changes.
func (r *transactionRepo) UserExists(tx *gorm.DB, userID uuid.UUID) (bool, error) {
	var n int64
	if err := tx.Model(&model.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
