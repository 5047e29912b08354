package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

type CategoryService interface {
	CreateCategory(ctx context.Context, req *CategoryRequest, userID uuid.UUID) (*model.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	SearchCategories(ctx context.Context, fragment string) ([]model.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req *CategoryRequest, userID uuid.UUID) (*model.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(cRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: cRepo}
}

func (s *categoryService) CreateCategory(ctx context.Context, req *CategoryRequest, userID uuid.UUID) (*model.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}

	category := &model.Category{Name: req.Name, Description: req.Description}
	category.CreatedBy = userID.String()
	category.UpdatedBy = userID.String()

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, req.Name)
		}
		return nil, storeError(err, nil)
	}
	return category, nil
}

func (s *categoryService) GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, ErrCategoryNotFound)
	}
	return category, nil
}

func (s *categoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	return categories, storeError(err, nil)
}

func (s *categoryService) SearchCategories(ctx context.Context, fragment string) ([]model.Category, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return s.ListCategories(ctx)
	}
	categories, err := s.categoryRepo.Search(ctx, fragment)
	return categories, storeError(err, nil)
}

func (s *categoryService) UpdateCategory(ctx context.Context, id uuid.UUID, req *CategoryRequest, userID uuid.UUID) (*model.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, ErrCategoryNotFound)
	}
	category.Name = req.Name
	category.Description = req.Description
	category.UpdatedBy = userID.String()

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, req.Name)
		}
		return nil, storeError(err, ErrCategoryNotFound)
	}
	return category, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	attached, err := s.categoryRepo.DeleteIfUnused(ctx, id, userID.String())
	if err != nil {
		return storeError(err, ErrCategoryNotFound)
	}
	if attached > 0 {
		return fmt.Errorf("%w: %d item(s) reference it", ErrCategoryInUse, attached)
	}
	return nil
}
