package repository

import (
	"testing"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/testutil"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	user     *model.User
	category *model.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	user := &model.User{Username: "clerk", Password: "x", Role: model.RoleRegular}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	category := &model.Category{Name: "Hardware"}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return &fixture{db: db, user: user, category: category}
}

func (f *fixture) item(t *testing.T, name string, threshold int64, price string) *model.InventoryItem {
	t.Helper()
	item := &model.InventoryItem{
		Name:             name,
		CategoryID:       f.category.ID,
		ReorderThreshold: threshold,
	}
	if price != "" {
		p := decimal.RequireFromString(price)
		item.UnitPrice = &p
	}
	if err := NewItemRepo(f.db).Insert(f.db, item); err != nil {
		t.Fatalf("insert item: %v", err)
	}
	return item
}

// post applies a delta the way the transaction processor does, without its locking.
func (f *fixture) post(t *testing.T, item *model.InventoryItem, kind model.TransactionKind, delta int64, at time.Time) *model.Transaction {
	t.Helper()
	items := NewItemRepo(f.db)
	txs := NewTransactionRepo(f.db)

	var out *model.Transaction
	err := f.db.Transaction(func(tx *gorm.DB) error {
		current, err := items.LockByID(tx, item.ID)
		if err != nil {
			return err
		}
		next := current.Quantity + delta
		ok, err := items.AdvanceStock(tx, item.ID, current.Version, next, f.user.ID.String())
		if err != nil {
			return err
		}
		if !ok {
			t.Fatalf("unexpected version conflict")
		}
		out = &model.Transaction{
			ItemID:        item.ID,
			UserID:        f.user.ID,
			Kind:          kind,
			Delta:         delta,
			QuantityAfter: next,
			Sequence:      current.Version + 1,
			CreatedAt:     at,
		}
		return txs.Append(tx, out)
	})
	if err != nil {
		t.Fatalf("post %s %d: %v", kind, delta, err)
	}
	return out
}
