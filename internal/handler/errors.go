package handler

import (
	"errors"
	"log"
	"strconv"

	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorTable = []errorMapping{
	{service.ErrAuthFailure, fiber.StatusUnauthorized, "auth_failure"},
	{jwt.ErrMissingToken, fiber.StatusUnauthorized, "unauthenticated"},
	{jwt.ErrMalformed, fiber.StatusUnauthorized, "unauthenticated"},
	{jwt.ErrSignatureInvalid, fiber.StatusUnauthorized, "unauthenticated"},
	{jwt.ErrExpired, fiber.StatusUnauthorized, "unauthenticated"},
	{service.ErrForbidden, fiber.StatusForbidden, "forbidden"},
	{service.ErrCannotDeleteSelf, fiber.StatusForbidden, "forbidden"},

	{service.ErrUserNotFound, fiber.StatusNotFound, "not_found"},
	{service.ErrItemNotFound, fiber.StatusNotFound, "not_found"},
	{service.ErrCategoryNotFound, fiber.StatusNotFound, "not_found"},
	{service.ErrTransactionNotFound, fiber.StatusNotFound, "not_found"},

	{service.ErrDuplicateUsername, fiber.StatusConflict, "duplicate_username"},
	{service.ErrDuplicateName, fiber.StatusConflict, "duplicate_name"},
	{service.ErrDuplicateSKU, fiber.StatusConflict, "duplicate_name"},
	{service.ErrInsufficientStock, fiber.StatusConflict, "insufficient_stock"},
	{service.ErrCategoryInUse, fiber.StatusConflict, "category_in_use"},
	{service.ErrConflict, fiber.StatusConflict, "conflict"},

	{service.ErrValidation, fiber.StatusBadRequest, "validation_failed"},
	{service.ErrInvalidKind, fiber.StatusBadRequest, "validation_failed"},
	{service.ErrInvalidQuantity, fiber.StatusBadRequest, "invalid_quantity"},

	{service.ErrResourceExhausted, fiber.StatusServiceUnavailable, "resource_exhausted"},
}

// writeError maps a service error onto its HTTP status and stable code.
// Unknown errors are logged and reported without detail.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(fiber.Map{"error": err.Error(), "code": m.code})
		}
	}
	log.Printf("ERROR %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error", "code": "internal_error"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg, "code": "validation_failed"})
}

func parseID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

// pageFromQuery reads page and limit; the repository clamps them.
func pageFromQuery(c *fiber.Ctx) repository.Page {
	return repository.Page{Number: c.QueryInt("page", 1), Size: c.QueryInt("limit", repository.DefaultPageSize)}
}

func paged(data interface{}, total int64, page repository.Page) fiber.Map {
	page = page.Normalize()
	return fiber.Map{"data": data, "total": total, "page": page.Number, "limit": page.Size}
}

// optionalInt parses an integer query parameter; absent means nil.
func optionalInt(c *fiber.Ctx, key string) (*int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func currentUser(c *fiber.Ctx) uuid.UUID {
	return middleware.UserID(c)
}
