package service

import (
	"context"
	"fmt"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
)

const (
	DefaultMovementDays = 7
	MaxMovementDays     = 366
)

type ReportService interface {
	InventorySummary(ctx context.Context) (*repository.InventorySummary, error)
	CategorySummary(ctx context.Context) ([]repository.CategorySummary, error)
	TransactionHistory(ctx context.Context, filter repository.TransactionFilter) ([]model.Transaction, int64, error)
	// StockMovement covers the last `days` calendar days, today included.
	StockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	LedgerAudit(ctx context.Context) ([]repository.LedgerDiscrepancy, error)
	RepairLedger(ctx context.Context) ([]repository.LedgerDiscrepancy, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
	loc        *time.Location
	now        func() time.Time
}

func NewReportService(rRepo repository.ReportRepository, loc *time.Location) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{reportRepo: rRepo, loc: loc, now: time.Now}
}

func (s *reportService) InventorySummary(ctx context.Context) (*repository.InventorySummary, error) {
	summary, err := s.reportRepo.InventorySummary(ctx)
	return summary, storeError(err, nil)
}

func (s *reportService) CategorySummary(ctx context.Context) ([]repository.CategorySummary, error) {
	summaries, err := s.reportRepo.CategorySummaries(ctx)
	return summaries, storeError(err, nil)
}

func (s *reportService) TransactionHistory(ctx context.Context, filter repository.TransactionFilter) ([]model.Transaction, int64, error) {
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, 0, fmt.Errorf("%w: from must be before to", ErrValidation)
	}
	transactions, total, err := s.reportRepo.TransactionHistory(ctx, filter)
	return transactions, total, storeError(err, nil)
}

func (s *reportService) StockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 {
		days = DefaultMovementDays
	}
	if days > MaxMovementDays {
		return nil, fmt.Errorf("%w: days must be at most %d", ErrValidation, MaxMovementDays)
	}

	now := s.now().In(s.loc)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)

	data, err := s.reportRepo.StockMovement(ctx, start, end, s.loc)
	return data, storeError(err, nil)
}

func (s *reportService) LedgerAudit(ctx context.Context) ([]repository.LedgerDiscrepancy, error) {
	found, err := s.reportRepo.LedgerAudit(ctx)
	return found, storeError(err, nil)
}

func (s *reportService) RepairLedger(ctx context.Context) ([]repository.LedgerDiscrepancy, error) {
	fixed, err := s.reportRepo.RepairLedger(ctx)
	return fixed, storeError(err, nil)
}
