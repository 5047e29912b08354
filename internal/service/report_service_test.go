package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-inventory-ledger/internal/repository"
)

func TestStockMovement_IncludesToday(t *testing.T) {
	e := newTestEnv(t)
	item := e.newItem(t, "Bolt", 8, 0)
	ctx := context.Background()
	if _, err := e.ledger.RecordTransaction(ctx, RecordTransactionInput{ItemID: item.ID, UserID: e.clerk.ID, Kind: "REMOVAL", Quantity: 3}); err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}

	data, err := e.reports.StockMovement(ctx, 1)
	if err != nil {
		t.Fatalf("StockMovement: %v", err)
	}
	if len(data) != 1 {
		t.Fatalf("expected one day of movement, got %+v", data)
	}
	if data[0].Additions != 8 || data[0].Removals != 3 || data[0].NetChange != 5 {
		t.Errorf("unexpected movement %+v", data[0])
	}
	if data[0].Date != time.Now().UTC().Format("2006-01-02") {
		t.Errorf("date = %s", data[0].Date)
	}
}

func TestStockMovement_WindowExcludesOlderDays(t *testing.T) {
	e := newTestEnv(t)
	e.newItem(t, "Bolt", 8, 0)

	reports := e.reports.(*reportService)
	reports.now = func() time.Time { return time.Now().AddDate(0, 0, 10) }

	data, err := reports.StockMovement(context.Background(), 7)
	if err != nil {
		t.Fatalf("StockMovement: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected no movement in the window, got %+v", data)
	}
	if _, err := reports.StockMovement(context.Background(), MaxMovementDays+1); !errors.Is(err, ErrValidation) {
		t.Errorf("oversized window: got %v", err)
	}
}

func TestInventorySummary_AfterTransactions(t *testing.T) {
	e := newTestEnv(t)
	item := e.newItem(t, "Bolt", 8, 10)
	e.newItem(t, "Nut", 0, 0)
	ctx := context.Background()
	if _, err := e.ledger.RecordTransaction(ctx, RecordTransactionInput{ItemID: item.ID, UserID: e.clerk.ID, Kind: "ADDITION", Quantity: 4}); err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}

	s, err := e.reports.InventorySummary(ctx)
	if err != nil {
		t.Fatalf("InventorySummary: %v", err)
	}
	if s.TotalItems != 2 || s.TotalQuantity != 12 || s.ZeroStockCount != 1 || s.LowStockCount != 1 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestTransactionHistory_RejectsEmptyRange(t *testing.T) {
	e := newTestEnv(t)
	now := time.Now()
	_, _, err := e.reports.TransactionHistory(context.Background(), repository.TransactionFilter{From: &now, To: &now})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}
