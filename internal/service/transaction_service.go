package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
)

// errVersionMoved means another writer committed between our read and our update.
var errVersionMoved = errors.New("item version moved")

type RecordTransactionInput struct {
	ItemID   uuid.UUID `json:"item_id" validate:"uuid_required"`
	UserID   uuid.UUID `json:"-"`
	Kind     string    `json:"kind" validate:"required,txkind"`
	Quantity int64     `json:"quantity"`
	Note     string    `json:"note" validate:"max=500"`
}

type TransactionService interface {
	RecordTransaction(ctx context.Context, in RecordTransactionInput) (*model.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	ListRecent(ctx context.Context, limit int) ([]model.Transaction, error)
	ListByItem(ctx context.Context, itemID uuid.UUID, page repository.Page) ([]model.Transaction, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page repository.Page) ([]model.Transaction, int64, error)
}

type transactionService struct {
	db              *gorm.DB
	itemRepo        repository.ItemRepository
	transactionRepo repository.TransactionRepository
	locks           *itemLocks
	maxRetries      int
	notifier        Notifier
}

func NewTransactionService(db *gorm.DB, iRepo repository.ItemRepository, tRepo repository.TransactionRepository, maxRetries int, notifier Notifier) TransactionService {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &transactionService{
		db:              db,
		itemRepo:        iRepo,
		transactionRepo: tRepo,
		locks:           newItemLocks(defaultLockStripes),
		maxRetries:      maxRetries,
		notifier:        notifierOrNop(notifier),
	}
}

// signedDelta turns a request quantity into the change applied to stock.
func signedDelta(kind model.TransactionKind, quantity int64) (int64, error) {
	switch kind {
	case model.TxAddition:
		if quantity <= 0 {
			return 0, ErrInvalidQuantity
		}
		return quantity, nil
	case model.TxRemoval:
		if quantity <= 0 {
			return 0, ErrInvalidQuantity
		}
		return -quantity, nil
	case model.TxAdjustment:
		return quantity, nil
	}
	return 0, ErrInvalidKind
}

// RecordTransaction applies one stock change atomically: either the item's
// quantity moves and the transaction is logged, or nothing changes at all.
func (s *transactionService) RecordTransaction(ctx context.Context, in RecordTransactionInput) (*model.Transaction, error) {
	kind, ok := model.ParseTransactionKind(in.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, in.Kind)
	}
	if err := validate(&in); err != nil {
		return nil, err
	}
	delta, err := signedDelta(kind, in.Quantity)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locks.lock(ctx, in.ItemID)
	if err != nil {
		return nil, storeError(err, nil)
	}
	defer unlock()

	var (
		committed *model.Transaction
		item      *model.InventoryItem
	)
	for attempt := 1; ; attempt++ {
		committed, item, err = s.apply(ctx, in, kind, delta)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, storeError(ctx.Err(), nil)
		}
		if !retryable(err) {
			return nil, storeError(err, nil)
		}
		if attempt > s.maxRetries {
			log.Printf("transaction on item %s gave up after %d attempts: %v", in.ItemID, attempt, err)
			return nil, ErrConflict
		}
	}

	committed.Item = item
	s.notifier.Publish(EventTransactionCommitted, committed)
	if item.IsLowStock() {
		s.notifier.Publish(EventLowStock, item)
	}
	return committed, nil
}

func (s *transactionService) apply(ctx context.Context, in RecordTransactionInput, kind model.TransactionKind, delta int64) (*model.Transaction, *model.InventoryItem, error) {
	var (
		committed *model.Transaction
		item      *model.InventoryItem
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.itemRepo.LockByID(tx, in.ItemID)
		if err != nil {
			return storeError(err, ErrItemNotFound)
		}

		exists, err := s.transactionRepo.UserExists(tx, in.UserID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}

		if delta > 0 && current.Quantity > math.MaxInt64-delta {
			return fmt.Errorf("%w: quantity would overflow", ErrInvalidQuantity)
		}
		next := current.Quantity + delta
		if next < 0 {
			return fmt.Errorf("%w: %d on hand, change of %d requested", ErrInsufficientStock, current.Quantity, delta)
		}

		ok, err := s.itemRepo.AdvanceStock(tx, current.ID, current.Version, next, in.UserID.String())
		if err != nil {
			return err
		}
		if !ok {
			return errVersionMoved
		}

		t := &model.Transaction{
			ItemID:        current.ID,
			UserID:        in.UserID,
			Kind:          kind,
			Delta:         delta,
			QuantityAfter: next,
			Sequence:      current.Version + 1,
			Note:          in.Note,
		}
		if err := s.transactionRepo.Append(tx, t); err != nil {
			return err
		}

		current.Quantity = next
		current.Version++
		committed, item = t, current
		return nil
	})
	return committed, item, err
}

// retryable reports whether a failed attempt lost a race and may be run again.
func retryable(err error) bool {
	if errors.Is(err, errVersionMoved) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
	}
	return false
}

func (s *transactionService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, err := s.transactionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, ErrTransactionNotFound)
	}
	return t, nil
}

func (s *transactionService) ListRecent(ctx context.Context, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	transactions, err := s.transactionRepo.FindRecent(ctx, limit)
	return transactions, storeError(err, nil)
}

func (s *transactionService) ListByItem(ctx context.Context, itemID uuid.UUID, page repository.Page) ([]model.Transaction, int64, error) {
	transactions, total, err := s.transactionRepo.FindByItem(ctx, itemID, page)
	return transactions, total, storeError(err, nil)
}

func (s *transactionService) ListByUser(ctx context.Context, userID uuid.UUID, page repository.Page) ([]model.Transaction, int64, error) {
	transactions, total, err := s.transactionRepo.FindByUser(ctx, userID, page)
	return transactions, total, storeError(err, nil)
}
