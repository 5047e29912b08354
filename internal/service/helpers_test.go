package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/testutil"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var testParams = password.Params{MemoryKiB: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type recordedEvent struct {
	name    string
	payload interface{}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) Publish(event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{event, payload})
}

func (r *eventRecorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.name == name {
			n++
		}
	}
	return n
}

type testEnv struct {
	db     *gorm.DB
	events *eventRecorder

	items        repository.ItemRepository
	transactions repository.TransactionRepository

	users      UserService
	auth       AuthService
	categories CategoryService
	inventory  InventoryService
	ledger     TransactionService
	reports    ReportService

	admin    *model.User
	clerk    *model.User
	category *model.Category
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	events := &eventRecorder{}
	hasher := password.NewHasher(testParams, 4)

	userRepo := repository.NewUserRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	itemRepo := repository.NewItemRepo(db)
	transactionRepo := repository.NewTransactionRepo(db)

	e := &testEnv{
		db:           db,
		events:       events,
		items:        itemRepo,
		transactions: transactionRepo,
		users:        NewUserService(userRepo, hasher),
		auth:         NewAuthService(userRepo, hasher, jwt.NewIssuer([]byte("test-secret"), time.Hour)),
		categories:   NewCategoryService(categoryRepo),
		inventory:    NewInventoryService(db, itemRepo, categoryRepo, transactionRepo, 0, events),
		ledger:       NewTransactionService(db, itemRepo, transactionRepo, 3, events),
		reports:      NewReportService(repository.NewReportRepo(db, nil), time.UTC),
	}

	ctx := context.Background()
	var err error
	if e.admin, err = e.users.CreateUser(ctx, &CreateUserRequest{Username: "admin", Password: "admin123", Role: "ADMIN"}, uuid.Nil); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if e.clerk, err = e.users.CreateUser(ctx, &CreateUserRequest{Username: "clerk", Password: "clerk123", Role: "REGULAR"}, e.admin.ID); err != nil {
		t.Fatalf("create clerk: %v", err)
	}
	if e.category, err = e.categories.CreateCategory(ctx, &CategoryRequest{Name: "Hardware"}, e.admin.ID); err != nil {
		t.Fatalf("create category: %v", err)
	}
	return e
}

func (e *testEnv) newItem(t *testing.T, name string, quantity, threshold int64) *model.InventoryItem {
	t.Helper()
	item, err := e.inventory.CreateItem(context.Background(), &CreateItemRequest{
		Name:             name,
		CategoryID:       e.category.ID,
		Quantity:         quantity,
		ReorderThreshold: &threshold,
	}, e.admin.ID)
	if err != nil {
		t.Fatalf("create item %s: %v", name, err)
	}
	return item
}

func (e *testEnv) quantity(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	item, err := e.items.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find item: %v", err)
	}
	return item.Quantity
}
