package middleware

import (
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const claimsKey = "claims"

// RequireAuth validates the bearer token and stores its claims for downstream handlers.
// Verification is stateless; the user table is not consulted.
func RequireAuth(issuer *jwt.Issuer) fiber.Handler {
	return authenticate(issuer, false)
}

// RequireStreamAuth is RequireAuth for websocket upgrades. Browsers cannot set
// headers on an upgrade, so a "token" query value is accepted as well.
func RequireStreamAuth(issuer *jwt.Issuer) fiber.Handler {
	return authenticate(issuer, true)
}

func authenticate(issuer *jwt.Issuer, allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string

		// Get Authorization header
		if authHeader := c.Get("Authorization"); authHeader != "" {
			// Extract token from "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return unauthenticated(c, "Invalid authorization format. Use: Bearer <token>")
			}
			token = parts[1]
		} else if allowQuery {
			token = c.Query("token")
		}
		if token == "" {
			return unauthenticated(c, "Missing authorization token")
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			return unauthenticated(c, "Invalid or expired token")
		}
		if !model.Role(claims.Role).Valid() {
			return unauthenticated(c, "Invalid or expired token")
		}

		c.Locals(claimsKey, claims)
		c.Locals("user_id", claims.UserID.String())
		c.Locals("user_name", claims.Username)
		return c.Next()
	}
}

// Claims returns the verified claims of the current request, if any.
func Claims(c *fiber.Ctx) (*jwt.Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*jwt.Claims)
	return claims, ok && claims != nil
}

// UserID returns the authenticated caller, or uuid.Nil outside RequireAuth.
func UserID(c *fiber.Ctx) uuid.UUID {
	if claims, ok := Claims(c); ok {
		return claims.UserID
	}
	return uuid.Nil
}

// Authorize is the single access decision: the caller's role must rank at least required.
func Authorize(claims *jwt.Claims, required model.Role) error {
	if claims == nil || !model.Role(claims.Role).AtLeast(required) {
		return service.ErrForbidden
	}
	return nil
}

// RequireRole rejects callers below the given role before the handler runs.
func RequireRole(required model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, _ := Claims(c)
		if err := Authorize(claims, required); err != nil {
			return forbidden(c, "Forbidden: requires "+string(required)+" role")
		}
		return c.Next()
	}
}

// RequirePrivilege checks the capability table for the given privilege.
func RequirePrivilege(p model.Privilege) fiber.Handler {
	return func(c *fiber.Ctx) error {
		required, ok := model.Capabilities[p]
		if !ok {
			return forbidden(c, "Forbidden: unknown privilege '"+string(p)+"'")
		}
		claims, _ := Claims(c)
		if err := Authorize(claims, required); err != nil {
			return forbidden(c, "Forbidden: requires '"+string(p)+"' privilege")
		}
		return c.Next()
	}
}

func unauthenticated(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg, "code": "unauthenticated"})
}

func forbidden(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": msg, "code": "forbidden"})
}
