package handler

import (
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// CreateItem stores a new item; a non-zero quantity is booked as its first transaction
// POST /api/v1/inventory
func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	var req service.CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	item, err := h.service.CreateItem(c.UserContext(), &req, currentUser(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Item created", "data": item})
}

// GET /api/v1/inventory
func (h *InventoryHandler) GetItems(c *fiber.Ctx) error {
	items, err := h.service.ListItems(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": items})
}

// GET /api/v1/inventory/:id
func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid item ID")
	}

	item, err := h.service.GetItem(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": item})
}

// SearchItems filters by category, quantity and price ranges, location and free text
// GET /api/v1/inventory/search
func (h *InventoryHandler) SearchItems(c *fiber.Ctx) error {
	var (
		filter repository.ItemFilter
		err    error
	)

	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid category_id")
		}
		filter.CategoryID = &id
	}
	if filter.MinQuantity, err = optionalInt(c, "min_quantity"); err != nil {
		return badRequest(c, "Invalid min_quantity")
	}
	if filter.MaxQuantity, err = optionalInt(c, "max_quantity"); err != nil {
		return badRequest(c, "Invalid max_quantity")
	}
	if filter.MinPrice, err = optionalDecimal(c, "min_price"); err != nil {
		return badRequest(c, "Invalid min_price")
	}
	if filter.MaxPrice, err = optionalDecimal(c, "max_price"); err != nil {
		return badRequest(c, "Invalid max_price")
	}
	filter.Location = c.Query("location")
	filter.Query = c.Query("q")

	items, err := h.service.SearchItems(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetLowStock lists items at or below their own reorder threshold
// GET /api/v1/inventory/low-stock
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	items, err := h.service.ListLowStock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": items})
}

// PUT /api/v1/inventory/:id
func (h *InventoryHandler) UpdateItem(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid item ID")
	}

	var req service.UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	item, err := h.service.UpdateItem(c.UserContext(), id, &req, currentUser(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Item updated", "data": item})
}

// DELETE /api/v1/inventory/:id
func (h *InventoryHandler) DeleteItem(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid item ID")
	}

	if err := h.service.DeleteItem(c.UserContext(), id, currentUser(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Item deleted"})
}

func optionalDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
