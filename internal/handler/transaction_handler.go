package handler

import (
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	service service.TransactionService
}

func NewTransactionHandler(s service.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

// CreateTransaction records a stock change on behalf of the caller
// POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	var req service.RecordTransactionInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	req.UserID = currentUser(c)

	tx, err := h.service.RecordTransaction(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Transaction recorded", "data": tx})
}

// GetRecent returns the newest transactions first
// GET /api/v1/transactions/recent?limit=
func (h *TransactionHandler) GetRecent(c *fiber.Ctx) error {
	transactions, err := h.service.ListRecent(c.UserContext(), c.QueryInt("limit", service.DefaultRecentLimit))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": transactions})
}

// GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid transaction ID")
	}

	tx, err := h.service.GetTransaction(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": tx})
}

// GetByItem pages through one item's history in commit order
// GET /api/v1/transactions/item/:id
func (h *TransactionHandler) GetByItem(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid item ID")
	}

	page := pageFromQuery(c)
	transactions, total, err := h.service.ListByItem(c.UserContext(), id, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(paged(transactions, total, page))
}

// GET /api/v1/transactions/user/:id
func (h *TransactionHandler) GetByUser(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid user ID")
	}

	page := pageFromQuery(c)
	transactions, total, err := h.service.ListByUser(c.UserContext(), id, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(paged(transactions, total, page))
}
