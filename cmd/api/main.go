package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go-inventory-ledger/internal/app"
	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/pkg/database"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// 3. Wire layers and seed the first administrator
	server := app.New(cfg, db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := server.Bootstrap(ctx, cfg); err != nil {
		log.Fatalf("Failed to seed administrator: %v", err)
	}
	cancel()

	// 4. Setup WebSocket Hub
	go server.Hub.Run()

	// 5. Graceful Shutdown
	go func() {
		if err := server.Fiber.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := server.Fiber.ShutdownWithTimeout(cfg.RequestTimeout); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	server.Hub.Stop()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("Server exited")
}
