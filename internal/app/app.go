// Package app wires configuration, storage, services and routes into a Fiber application.
package app

import (
	"context"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/handler"
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/password"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// Services groups the business layer so the API and the CLI share one wiring.
type Services struct {
	Users        service.UserService
	Auth         service.AuthService
	Categories   service.CategoryService
	Inventory    service.InventoryService
	Transactions service.TransactionService
	Reports      service.ReportService
}

// NewHasher builds the password hasher from the configured argon2id costs.
func NewHasher(cfg *config.Config) *password.Hasher {
	return password.NewHasher(password.Params{
		MemoryKiB:   cfg.Argon2.MemoryKiB,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}, cfg.HashWorkers)
}

// NewServices builds every service over db. notifier may be nil.
func NewServices(cfg *config.Config, db *gorm.DB, issuer *jwt.Issuer, notifier service.Notifier) *Services {
	hasher := NewHasher(cfg)

	userRepo := repository.NewUserRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	itemRepo := repository.NewItemRepo(db)
	transactionRepo := repository.NewTransactionRepo(db)
	reportRepo := repository.NewReportRepo(db, database.SnapshotTxOptions(db))

	return &Services{
		Users:        service.NewUserService(userRepo, hasher),
		Auth:         service.NewAuthService(userRepo, hasher, issuer),
		Categories:   service.NewCategoryService(categoryRepo),
		Inventory:    service.NewInventoryService(db, itemRepo, categoryRepo, transactionRepo, cfg.DefaultReorderThreshold, notifier),
		Transactions: service.NewTransactionService(db, itemRepo, transactionRepo, cfg.TxMaxRetries, notifier),
		Reports:      service.NewReportService(reportRepo, cfg.Location()),
	}
}

// App is the assembled HTTP server.
type App struct {
	Fiber    *fiber.App
	Hub      *ws.Hub
	Issuer   *jwt.Issuer
	Services *Services
}

// New wires the application. The caller runs Hub and owns db.
func New(cfg *config.Config, db *gorm.DB) *App {
	hub := ws.NewHub()
	issuer := jwt.NewIssuer(cfg.JWTSecret, cfg.JWTExpiration)
	svc := NewServices(cfg, db, issuer, hub)

	authHandler := handler.NewAuthHandler(svc.Auth)
	userHandler := handler.NewUserHandler(svc.Users)
	categoryHandler := handler.NewCategoryHandler(svc.Categories)
	invHandler := handler.NewInventoryHandler(svc.Inventory)
	txHandler := handler.NewTransactionHandler(svc.Transactions)
	reportHandler := handler.NewReportHandler(svc.Reports, cfg.Location())

	app := fiber.New(fiber.Config{
		AppName: "Inventory Ledger v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS
	app.Use(middleware.Timeout(cfg.RequestTimeout))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down"})
		}
		if err := sqlDB.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/validate-token", authHandler.ValidateToken)

	// ============ PROTECTED ROUTES ============
	requireAuth := middleware.RequireAuth(issuer)
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Post("/change-password", requireAuth, authHandler.ChangePassword)

	protected := api.Group("", requireAuth)

	// User Management Routes
	protected.Get("/users", middleware.RequirePrivilege(model.PrivUserView), userHandler.GetUsers)
	protected.Post("/users", middleware.RequirePrivilege(model.PrivUserCreate), userHandler.CreateUser)
	protected.Get("/users/:id", middleware.RequirePrivilege(model.PrivUserView), userHandler.GetUser)
	protected.Put("/users/:id", middleware.RequirePrivilege(model.PrivUserUpdate), userHandler.UpdateUser)
	protected.Delete("/users/:id", middleware.RequirePrivilege(model.PrivUserDelete), userHandler.DeleteUser)

	// Category Routes
	protected.Get("/categories", middleware.RequirePrivilege(model.PrivCategoryView), categoryHandler.GetCategories)
	protected.Post("/categories", middleware.RequirePrivilege(model.PrivCategoryCreate), categoryHandler.CreateCategory)
	protected.Get("/categories/search", middleware.RequirePrivilege(model.PrivCategoryView), categoryHandler.SearchCategories)
	protected.Get("/categories/:id", middleware.RequirePrivilege(model.PrivCategoryView), categoryHandler.GetCategory)
	protected.Put("/categories/:id", middleware.RequirePrivilege(model.PrivCategoryUpdate), categoryHandler.UpdateCategory)
	protected.Delete("/categories/:id", middleware.RequirePrivilege(model.PrivCategoryDelete), categoryHandler.DeleteCategory)

	// Inventory Routes
	protected.Get("/inventory", middleware.RequirePrivilege(model.PrivItemView), invHandler.GetItems)
	protected.Post("/inventory", middleware.RequirePrivilege(model.PrivItemCreate), invHandler.CreateItem)
	protected.Get("/inventory/search", middleware.RequirePrivilege(model.PrivItemView), invHandler.SearchItems)
	protected.Get("/inventory/low-stock", middleware.RequirePrivilege(model.PrivItemView), invHandler.GetLowStock)
	protected.Get("/inventory/:id", middleware.RequirePrivilege(model.PrivItemView), invHandler.GetItem)
	protected.Put("/inventory/:id", middleware.RequirePrivilege(model.PrivItemUpdate), invHandler.UpdateItem)
	protected.Delete("/inventory/:id", middleware.RequirePrivilege(model.PrivItemDelete), invHandler.DeleteItem)

	// Transaction Routes
	protected.Post("/transactions", middleware.RequirePrivilege(model.PrivTransactionCreate), txHandler.CreateTransaction)
	protected.Get("/transactions/recent", middleware.RequirePrivilege(model.PrivTransactionView), txHandler.GetRecent)
	protected.Get("/transactions/item/:id", middleware.RequirePrivilege(model.PrivTransactionView), txHandler.GetByItem)
	protected.Get("/transactions/user/:id", middleware.RequirePrivilege(model.PrivTransactionView), txHandler.GetByUser)
	protected.Get("/transactions/:id", middleware.RequirePrivilege(model.PrivTransactionView), txHandler.GetTransaction)

	// Report Routes
	protected.Get("/reports/inventory-summary", middleware.RequirePrivilege(model.PrivReportView), reportHandler.GetInventorySummary)
	protected.Get("/reports/category-summary", middleware.RequirePrivilege(model.PrivReportView), reportHandler.GetCategorySummary)
	protected.Get("/reports/transaction-history", middleware.RequirePrivilege(model.PrivReportView), reportHandler.GetTransactionHistory)
	protected.Get("/reports/stock-movement", middleware.RequirePrivilege(model.PrivReportView), reportHandler.GetStockMovement)
	protected.Get("/reports/ledger-audit", middleware.RequirePrivilege(model.PrivLedgerAudit), reportHandler.GetLedgerAudit)

	// WebSocket Route: events carry item and user data, so the upgrade needs a Regular token
	app.Use("/ws", middleware.RequireStreamAuth(issuer), middleware.RequirePrivilege(model.PrivItemView), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(hub.Serve))

	return &App{Fiber: app, Hub: hub, Issuer: issuer, Services: svc}
}

// Bootstrap seeds the configured administrator when no users exist yet.
func (a *App) Bootstrap(ctx context.Context, cfg *config.Config) error {
	_, err := a.Services.Users.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	return err
}
