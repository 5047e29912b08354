package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const initialStockNote = "initial stock"

type CreateItemRequest struct {
	Name             string           `json:"name" validate:"required,max=255"`
	Description      string           `json:"description"`
	CategoryID       uuid.UUID        `json:"category_id" validate:"uuid_required"`
	Quantity         int64            `json:"quantity" validate:"gte=0"`
	ReorderThreshold *int64           `json:"reorder_threshold" validate:"omitempty,gte=0"`
	UnitPrice        *decimal.Decimal `json:"unit_price"`
	Unit             string           `json:"unit" validate:"max=20"`
	SKU              *string          `json:"sku" validate:"omitempty,max=50"`
	Location         string           `json:"location" validate:"max=100"`
}

// UpdateItemRequest replaces an item's metadata. Quantity is accepted only so a
// client echoing the item back is not rejected; it must match the current stock.
type UpdateItemRequest struct {
	Name             string           `json:"name" validate:"required,max=255"`
	Description      string           `json:"description"`
	CategoryID       uuid.UUID        `json:"category_id" validate:"uuid_required"`
	Quantity         *int64           `json:"quantity"`
	ReorderThreshold int64            `json:"reorder_threshold" validate:"gte=0"`
	UnitPrice        *decimal.Decimal `json:"unit_price"`
	Unit             string           `json:"unit" validate:"max=20"`
	SKU              *string          `json:"sku" validate:"omitempty,max=50"`
	Location         string           `json:"location" validate:"max=100"`
}

type InventoryService interface {
	CreateItem(ctx context.Context, req *CreateItemRequest, userID uuid.UUID) (*model.InventoryItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	ListItems(ctx context.Context) ([]model.InventoryItem, error)
	SearchItems(ctx context.Context, filter repository.ItemFilter) ([]model.InventoryItem, error)
	ListLowStock(ctx context.Context) ([]model.InventoryItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req *UpdateItemRequest, userID uuid.UUID) (*model.InventoryItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

type inventoryService struct {
	db               *gorm.DB
	itemRepo         repository.ItemRepository
	categoryRepo     repository.CategoryRepository
	transactionRepo  repository.TransactionRepository
	defaultThreshold int64
	notifier         Notifier
}

func NewInventoryService(db *gorm.DB, iRepo repository.ItemRepository, cRepo repository.CategoryRepository, tRepo repository.TransactionRepository, defaultThreshold int64, notifier Notifier) InventoryService {
	return &inventoryService{
		db:               db,
		itemRepo:         iRepo,
		categoryRepo:     cRepo,
		transactionRepo:  tRepo,
		defaultThreshold: defaultThreshold,
		notifier:         notifierOrNop(notifier),
	}
}

func checkPrice(p *decimal.Decimal) error {
	if p != nil && p.IsNegative() {
		return fmt.Errorf("%w: unit_price must not be negative", ErrValidation)
	}
	return nil
}

// normalizeSKU trims the SKU and treats a blank one as absent.
func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*sku)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// CreateItem stores the item and, for a non-zero starting quantity, the ADDITION
// that explains it, so the ledger accounts for every unit from the start.
func (s *inventoryService) CreateItem(ctx context.Context, req *CreateItemRequest, userID uuid.UUID) (*model.InventoryItem, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkPrice(req.UnitPrice); err != nil {
		return nil, err
	}

	threshold := s.defaultThreshold
	if req.ReorderThreshold != nil {
		threshold = *req.ReorderThreshold
	}

	item := &model.InventoryItem{
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		CategoryID:       req.CategoryID,
		Quantity:         req.Quantity,
		ReorderThreshold: threshold,
		UnitPrice:        req.UnitPrice,
		Unit:             req.Unit,
		SKU:              normalizeSKU(req.SKU),
		Location:         req.Location,
	}
	item.CreatedBy = userID.String()
	item.UpdatedBy = userID.String()
	if req.Quantity > 0 {
		item.Version = 1
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := s.categoryRepo.LockShared(tx, req.CategoryID)
		if err != nil {
			return storeError(err, ErrCategoryNotFound)
		}
		item.Category = category

		if err := s.itemRepo.Insert(tx, item); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateSKU
			}
			return err
		}

		if req.Quantity == 0 {
			return nil
		}
		return s.transactionRepo.Append(tx, &model.Transaction{
			ItemID:        item.ID,
			UserID:        userID,
			Kind:          model.TxAddition,
			Delta:         req.Quantity,
			QuantityAfter: req.Quantity,
			Sequence:      1,
			Note:          initialStockNote,
		})
	})
	if err != nil {
		return nil, storeError(err, nil)
	}

	s.notifier.Publish(EventItemCreated, item)
	if item.IsLowStock() {
		s.notifier.Publish(EventLowStock, item)
	}
	return item, nil
}

func (s *inventoryService) GetItem(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, ErrItemNotFound)
	}
	return item, nil
}

func (s *inventoryService) ListItems(ctx context.Context) ([]model.InventoryItem, error) {
	items, err := s.itemRepo.FindAll(ctx)
	return items, storeError(err, nil)
}

func (s *inventoryService) SearchItems(ctx context.Context, filter repository.ItemFilter) ([]model.InventoryItem, error) {
	if filter.MinQuantity != nil && filter.MaxQuantity != nil && *filter.MinQuantity > *filter.MaxQuantity {
		return nil, fmt.Errorf("%w: min_quantity exceeds max_quantity", ErrValidation)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, fmt.Errorf("%w: min_price exceeds max_price", ErrValidation)
	}
	items, err := s.itemRepo.Search(ctx, filter)
	return items, storeError(err, nil)
}

func (s *inventoryService) ListLowStock(ctx context.Context) ([]model.InventoryItem, error) {
	items, err := s.itemRepo.FindLowStock(ctx)
	return items, storeError(err, nil)
}

// UpdateItem never touches quantity or version; those only move through transactions.
func (s *inventoryService) UpdateItem(ctx context.Context, id uuid.UUID, req *UpdateItemRequest, userID uuid.UUID) (*model.InventoryItem, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkPrice(req.UnitPrice); err != nil {
		return nil, err
	}

	existing, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, ErrItemNotFound)
	}
	if req.Quantity != nil && *req.Quantity != existing.Quantity {
		return nil, fmt.Errorf("%w: quantity can only change through transactions", ErrValidation)
	}
	existing.Name = strings.TrimSpace(req.Name)
	existing.Description = req.Description
	existing.ReorderThreshold = req.ReorderThreshold
	existing.UnitPrice = req.UnitPrice
	existing.Unit = req.Unit
	existing.SKU = normalizeSKU(req.SKU)
	existing.Location = req.Location
	existing.UpdatedBy = userID.String()

	// A move holds the target category's share lock until the update commits,
	// the same guard CreateItem uses against a concurrent DeleteCategory.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.CategoryID != existing.CategoryID {
			category, err := s.categoryRepo.LockShared(tx, req.CategoryID)
			if err != nil {
				return storeError(err, ErrCategoryNotFound)
			}
			existing.CategoryID = category.ID
			existing.Category = category
		}
		if err := s.itemRepo.UpdateMetadata(tx, existing); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateSKU
			}
			return storeError(err, ErrItemNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, nil)
	}

	s.notifier.Publish(EventItemUpdated, existing)
	return existing, nil
}

// DeleteItem hides the item; its transactions stay in the ledger.
func (s *inventoryService) DeleteItem(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	if err := s.itemRepo.Delete(ctx, id, userID.String()); err != nil {
		return storeError(err, ErrItemNotFound)
	}
	s.notifier.Publish(EventItemDeleted, map[string]interface{}{"id": id})
	return nil
}
