package repository

import (
	"context"
	"database/sql"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventorySummary is the overview of all live items.
type InventorySummary struct {
	TotalItems      int64           `json:"total_items"`
	TotalQuantity   int64           `json:"total_quantity"`
	TotalValue      decimal.Decimal `json:"total_value"`
	CategoriesCount int64           `json:"categories_count"`
	LowStockCount   int64           `json:"low_stock_count"`
	ZeroStockCount  int64           `json:"zero_stock_count"`
}

type CategorySummary struct {
	CategoryID    uuid.UUID       `json:"category_id"`
	Name          string          `json:"name"`
	ItemCount     int64           `json:"item_count"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// TransactionFilter selects transactions for the history report. Nil fields are ignored.
// From is inclusive, To is exclusive.
type TransactionFilter struct {
	From   *time.Time
	To     *time.Time
	ItemID *uuid.UUID
	UserID *uuid.UUID
	Page   Page
}

// StockMovementData is one day of ledger activity.
type StockMovementData struct {
	Date        string `json:"date"`
	Additions   int64  `json:"additions"`
	Removals    int64  `json:"removals"`
	Adjustments int64  `json:"adjustments"`
	NetChange   int64  `json:"net_change"`
}

// LedgerDiscrepancy is an item whose cached state disagrees with its transaction log.
type LedgerDiscrepancy struct {
	ItemID         uuid.UUID `json:"item_id"`
	Name           string    `json:"name"`
	CachedQuantity int64     `json:"cached_quantity"`
	LedgerQuantity int64     `json:"ledger_quantity"`
	CachedVersion  int64     `json:"cached_version"`
	LedgerCount    int64     `json:"ledger_count"`
}

type ReportRepository interface {
	InventorySummary(ctx context.Context) (*InventorySummary, error)
	CategorySummaries(ctx context.Context) ([]CategorySummary, error)
	TransactionHistory(ctx context.Context, filter TransactionFilter) ([]model.Transaction, int64, error)
	StockMovement(ctx context.Context, from, to time.Time, loc *time.Location) ([]StockMovementData, error)
	LedgerAudit(ctx context.Context) ([]LedgerDiscrepancy, error)
	RepairLedger(ctx context.Context) ([]LedgerDiscrepancy, error)
}

type reportRepo struct {
	db       *gorm.DB
	snapshot *sql.TxOptions
}

// NewReportRepo runs every report inside one read transaction with the given options.
func NewReportRepo(db *gorm.DB, snapshot *sql.TxOptions) ReportRepository {
	return &reportRepo{db: db, snapshot: snapshot}
}

func (r *reportRepo) read(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if r.snapshot == nil {
		return r.db.WithContext(ctx).Transaction(fn)
	}
	return r.db.WithContext(ctx).Transaction(fn, r.snapshot)
}

func (r *reportRepo) InventorySummary(ctx context.Context) (*InventorySummary, error) {
	var s InventorySummary
	err := r.read(ctx, func(tx *gorm.DB) error {
		row := tx.Raw(`
			SELECT
				COUNT(*),
				COALESCE(SUM(quantity), 0),
				COALESCE(SUM(quantity * unit_price), 0),
				COALESCE(SUM(CASE WHEN quantity <= reorder_threshold THEN 1 ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN quantity = 0 THEN 1 ELSE 0 END), 0)
			FROM inventory_items
			WHERE deleted_at IS NULL`).Row()
		if err := row.Scan(&s.TotalItems, &s.TotalQuantity, &s.TotalValue, &s.LowStockCount, &s.ZeroStockCount); err != nil {
			return err
		}
		return tx.Model(&model.Category{}).Count(&s.CategoriesCount).Error
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *reportRepo) CategorySummaries(ctx context.Context) ([]CategorySummary, error) {
	var results []CategorySummary
	err := r.read(ctx, func(tx *gorm.DB) error {
		rows, err := tx.Raw(`
			SELECT
				c.id,
				c.name,
				COUNT(i.id),
				COALESCE(SUM(i.quantity), 0),
				COALESCE(SUM(i.quantity * i.unit_price), 0)
			FROM categories c
			LEFT JOIN inventory_items i ON i.category_id = c.id AND i.deleted_at IS NULL
			WHERE c.deleted_at IS NULL
			GROUP BY c.id, c.name
			ORDER BY c.name ASC`).Rows()
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s CategorySummary
			if err := rows.Scan(&s.CategoryID, &s.Name, &s.ItemCount, &s.TotalQuantity, &s.TotalValue); err != nil {
				return err
			}
			results = append(results, s)
		}
		return rows.Err()
	})
	return results, err
}

// TransactionHistory pages through matching transactions ordered by commit time.
// The id tiebreak keeps pages stable when timestamps collide.
func (r *reportRepo) TransactionHistory(ctx context.Context, f TransactionFilter) ([]model.Transaction, int64, error) {
	page := f.Page.Normalize()
	var (
		transactions []model.Transaction
		total        int64
	)
	err := r.read(ctx, func(tx *gorm.DB) error {
		q := tx.Model(&model.Transaction{})
		if f.From != nil {
			q = q.Where("created_at >= ?", f.From.UTC())
		}
		if f.To != nil {
			q = q.Where("created_at < ?", f.To.UTC())
		}
		if f.ItemID != nil {
			q = q.Where("item_id = ?", *f.ItemID)
		}
		if f.UserID != nil {
			q = q.Where("user_id = ?", *f.UserID)
		}
		q = q.Session(&gorm.Session{})

		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return withRelations(q).
			Order("created_at ASC, id ASC").
			Offset(page.offset()).Limit(page.Size).
			Find(&transactions).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// StockMovement buckets transactions in [from, to) by calendar day in loc.
func (r *reportRepo) StockMovement(ctx context.Context, from, to time.Time, loc *time.Location) ([]StockMovementData, error) {
	if loc == nil {
		loc = time.UTC
	}
	var results []StockMovementData
	err := r.read(ctx, func(tx *gorm.DB) error {
		rows, err := tx.Model(&model.Transaction{}).
			Select("created_at, kind, delta").
			Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
			Order("created_at ASC, id ASC").
			Rows()
		if err != nil {
			return err
		}
		defer rows.Close()

		index := map[string]int{}
		for rows.Next() {
			var (
				createdAt time.Time
				kind      model.TransactionKind
				delta     int64
			)
			if err := rows.Scan(&createdAt, &kind, &delta); err != nil {
				return err
			}

			day := createdAt.In(loc).Format("2006-01-02")
			i, ok := index[day]
			if !ok {
				results = append(results, StockMovementData{Date: day})
				i = len(results) - 1
				index[day] = i
			}

			switch kind {
			case model.TxAddition:
				results[i].Additions += delta
			case model.TxRemoval:
				results[i].Removals += -delta
			case model.TxAdjustment:
				results[i].Adjustments += delta
			}
			results[i].NetChange += delta
		}
		return rows.Err()
	})
	return results, err
}

const auditQuery = `
	SELECT
		i.id,
		i.name,
		i.quantity,
		COALESCE(SUM(t.delta), 0),
		i.version,
		COUNT(t.id)
	FROM inventory_items i
	LEFT JOIN transactions t ON t.item_id = i.id
	GROUP BY i.id, i.name, i.quantity, i.version
	HAVING i.quantity <> COALESCE(SUM(t.delta), 0) OR i.version <> COUNT(t.id)
	ORDER BY i.id ASC`

func scanDiscrepancies(tx *gorm.DB) ([]LedgerDiscrepancy, error) {
	rows, err := tx.Raw(auditQuery).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LedgerDiscrepancy
	for rows.Next() {
		var d LedgerDiscrepancy
		if err := rows.Scan(&d.ItemID, &d.Name, &d.CachedQuantity, &d.LedgerQuantity, &d.CachedVersion, &d.LedgerCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// LedgerAudit recomputes every item, including soft-deleted ones, from its log.
func (r *reportRepo) LedgerAudit(ctx context.Context) ([]LedgerDiscrepancy, error) {
	var out []LedgerDiscrepancy
	err := r.read(ctx, func(tx *gorm.DB) error {
		var err error
		out, err = scanDiscrepancies(tx)
		return err
	})
	return out, err
}

// RepairLedger rewrites the cached quantity and version of every drifted item
// from its transaction log and returns what it fixed.
func (r *reportRepo) RepairLedger(ctx context.Context) ([]LedgerDiscrepancy, error) {
	var fixed []LedgerDiscrepancy
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := scanDiscrepancies(tx)
		if err != nil {
			return err
		}
		for _, d := range found {
			if err := tx.Unscoped().Model(&model.InventoryItem{}).
				Where("id = ?", d.ItemID).
				Updates(map[string]interface{}{
					"quantity": d.LedgerQuantity,
					"version":  d.LedgerCount,
				}).Error; err != nil {
				return err
			}
		}
		fixed = found
		return nil
	})
	return fixed, err
}
