package repository

import (
	"context"
	"strings"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	FindByName(ctx context.Context, name string) (*model.Category, error)
	FindAll(ctx context.Context) ([]model.Category, error)
	Search(ctx context.Context, fragment string) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	// DeleteIfUnused soft-deletes the category unless items still reference it.
	// It returns the number of attached items; a non-zero count means nothing was deleted.
	DeleteIfUnused(ctx context.Context, id uuid.UUID, deletedBy string) (int64, error)

	// LockShared reads the category and keeps it from being deleted until tx ends.
	LockShared(tx *gorm.DB, id uuid.UUID) (*model.Category, error)
}

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db}
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) FindByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) FindAll(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

// Search matches the fragment case-insensitively against name and description.
func (r *categoryRepo) Search(ctx context.Context, fragment string) ([]model.Category, error) {
	var categories []model.Category
	pattern := likePattern(fragment)
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\'", pattern, pattern).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

// Update writes name and description of a live category; a deleted one is not revived.
func (r *categoryRepo) Update(ctx context.Context, category *model.Category) error {
	res := r.db.WithContext(ctx).Model(category).
		Select("name", "description", "updated_by", "updated_at").
		Updates(category)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *categoryRepo) DeleteIfUnused(ctx context.Context, id uuid.UUID, deletedBy string) (int64, error) {
	var attached int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Item creation takes a share lock on the category, so no item can be
		// attached between the count and the delete.
		var category model.Category
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&category, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.InventoryItem{}).Where("category_id = ?", id).Count(&attached).Error; err != nil {
			return err
		}
		if attached > 0 {
			return nil
		}

		if err := tx.Model(&category).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	return attached, err
}

func (r *categoryRepo) LockShared(tx *gorm.DB, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// likePattern lower-cases the fragment and escapes LIKE wildcards.
func likePattern(fragment string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(fragment)) + "%"
}
