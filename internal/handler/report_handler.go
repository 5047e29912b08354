package handler

import (
	"time"

	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReportHandler struct {
	service service.ReportService
	loc     *time.Location
}

// NewReportHandler interprets bare dates in query parameters in loc.
func NewReportHandler(s service.ReportService, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{service: s, loc: loc}
}

// GET /api/v1/reports/inventory-summary
func (h *ReportHandler) GetInventorySummary(c *fiber.Ctx) error {
	summary, err := h.service.InventorySummary(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": summary})
}

// GET /api/v1/reports/category-summary
func (h *ReportHandler) GetCategorySummary(c *fiber.Ctx) error {
	summaries, err := h.service.CategorySummary(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": summaries})
}

// GetTransactionHistory filters by time range, item and user.
// from and to accept RFC3339 or YYYY-MM-DD; a bare "to" date includes that whole day.
// GET /api/v1/reports/transaction-history
func (h *ReportHandler) GetTransactionHistory(c *fiber.Ctx) error {
	filter := repository.TransactionFilter{Page: pageFromQuery(c)}

	if raw := c.Query("from"); raw != "" {
		from, _, err := h.parseTime(raw)
		if err != nil {
			return badRequest(c, "Invalid from")
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, dateOnly, err := h.parseTime(raw)
		if err != nil {
			return badRequest(c, "Invalid to")
		}
		if dateOnly {
			to = to.AddDate(0, 0, 1)
		}
		filter.To = &to
	}
	if raw := c.Query("item_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid item_id")
		}
		filter.ItemID = &id
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid user_id")
		}
		filter.UserID = &id
	}

	transactions, total, err := h.service.TransactionHistory(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(paged(transactions, total, filter.Page))
}

// GetStockMovement returns per-day movement for charts
// Query params: days (default 7)
// GET /api/v1/reports/stock-movement
func (h *ReportHandler) GetStockMovement(c *fiber.Ctx) error {
	days := c.QueryInt("days", service.DefaultMovementDays)

	data, err := h.service.StockMovement(c.UserContext(), days)
	if err != nil {
		return writeError(c, err)
	}
	if days <= 0 {
		days = service.DefaultMovementDays
	}
	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetLedgerAudit lists items whose stored quantity disagrees with their transactions
// GET /api/v1/reports/ledger-audit
func (h *ReportHandler) GetLedgerAudit(c *fiber.Ctx) error {
	found, err := h.service.LedgerAudit(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"consistent": len(found) == 0, "data": found})
}

func (h *ReportHandler) parseTime(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, h.loc)
	return t, true, err
}
