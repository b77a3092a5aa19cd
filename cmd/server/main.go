package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/libraryhub/circulation/internal/adapters/http/middleware"
	"github.com/libraryhub/circulation/internal/adapters/http/routes"
	"github.com/libraryhub/circulation/internal/adapters/persistence/models"
	"github.com/libraryhub/circulation/internal/adapters/persistence/repositories"
	"github.com/libraryhub/circulation/internal/config"
	"github.com/libraryhub/circulation/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "github.com/libraryhub/circulation/docs" // Swagger docs
)

// @title Library Circulation API
// @version 1.0
// @description Catalog, patrons and the borrow/return/extend/fine lifecycle.

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables and the active-loan unique index)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed bootstrap admin and, in dev, sample data
	if err := config.NewSeeder(db, cfg.Seed).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	store := repositories.NewStore(db)
	svc := services.NewContainer(store, cfg)

	// Start Cron Service (overdue sweep + counter reconciliation)
	if err := svc.Cron.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron service: %v", err)
	}
	defer svc.Cron.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Library Circulation API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, store, svc, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
