package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func TestAuthorize(t *testing.T) {
	admin := &jwt.Claims{UserID: uuid.New(), Role: string(model.RoleAdmin)}
	regular := &jwt.Claims{UserID: uuid.New(), Role: string(model.RoleRegular)}
	bogus := &jwt.Claims{UserID: uuid.New(), Role: "ROOT"}

	tests := []struct {
		name     string
		claims   *jwt.Claims
		required model.Role
		allowed  bool
	}{
		{"admin on admin route", admin, model.RoleAdmin, true},
		{"admin on regular route", admin, model.RoleRegular, true},
		{"regular on regular route", regular, model.RoleRegular, true},
		{"regular on admin route", regular, model.RoleAdmin, false},
		{"unknown role", bogus, model.RoleRegular, false},
		{"no claims", nil, model.RoleRegular, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.claims, tt.required)
			if tt.allowed && err != nil {
				t.Errorf("expected allowed, got %v", err)
			}
			if !tt.allowed && !errors.Is(err, service.ErrForbidden) {
				t.Errorf("expected ErrForbidden, got %v", err)
			}
		})
	}
}

func newTestApp(issuer *jwt.Issuer) *fiber.App {
	app := fiber.New()
	protected := app.Group("", RequireAuth(issuer))
	protected.Get("/items", RequirePrivilege(model.PrivItemView), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c).String())
	})
	protected.Delete("/users/:id", RequireRole(model.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestRequireAuthAndRole(t *testing.T) {
	issuer := jwt.NewIssuer([]byte("secret"), time.Hour)
	app := newTestApp(issuer)

	regularToken, _, _ := issuer.Issue(uuid.New(), "clerk", string(model.RoleRegular))
	adminToken, _, _ := issuer.Issue(uuid.New(), "boss", string(model.RoleAdmin))
	foreign, _, _ := jwt.NewIssuer([]byte("other"), time.Hour).Issue(uuid.New(), "eve", string(model.RoleAdmin))

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"no token", "GET", "/items", "", fiber.StatusUnauthorized},
		{"not bearer", "GET", "/items", "Token " + regularToken, fiber.StatusUnauthorized},
		{"foreign signature", "GET", "/items", "Bearer " + foreign, fiber.StatusUnauthorized},
		{"regular reads", "GET", "/items", "Bearer " + regularToken, fiber.StatusOK},
		{"regular deletes user", "DELETE", "/users/" + uuid.NewString(), "Bearer " + regularToken, fiber.StatusForbidden},
		{"admin deletes user", "DELETE", "/users/" + uuid.NewString(), "Bearer " + adminToken, fiber.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestTimeout_SetsDeadline(t *testing.T) {
	app := fiber.New()
	app.Use(Timeout(time.Second))
	app.Get("/", func(c *fiber.Ctx) error {
		if _, ok := c.UserContext().Deadline(); !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRequireStreamAuth(t *testing.T) {
	issuer := jwt.NewIssuer([]byte("secret"), time.Hour)
	token, _, _ := issuer.Issue(uuid.New(), "clerk", string(model.RoleRegular))

	stream := fiber.New()
	stream.Get("/ws", RequireStreamAuth(issuer), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	plain := fiber.New()
	plain.Get("/ws", RequireAuth(issuer), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	tests := []struct {
		name   string
		app    *fiber.App
		path   string
		header string
		want   int
	}{
		{"anonymous", stream, "/ws", "", fiber.StatusUnauthorized},
		{"query token", stream, "/ws?token=" + token, "", fiber.StatusOK},
		{"bad query token", stream, "/ws?token=garbage", "", fiber.StatusUnauthorized},
		{"bearer header", stream, "/ws", "Bearer " + token, fiber.StatusOK},
		{"query token on plain route", plain, "/ws?token=" + token, "", fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := tt.app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
