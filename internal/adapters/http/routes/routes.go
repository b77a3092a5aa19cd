package routes

import (
	"github.com/libraryhub/circulation/internal/adapters/http/handlers"
	"github.com/libraryhub/circulation/internal/adapters/http/middleware"
	"github.com/libraryhub/circulation/internal/adapters/persistence/repositories"
	"github.com/libraryhub/circulation/internal/config"
	"github.com/libraryhub/circulation/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, store repositories.Store, svc *services.Container, cfg *config.Config) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(store, cfg.AppMode)
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg.IsProd())
	bookHandler := handlers.NewBookHandler(svc.Catalog)
	patronHandler := handlers.NewPatronHandler(svc.Patrons, svc.Loans)
	borrowHandler := handlers.NewBorrowHandler(svc.Loans)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard, svc.Loans)
	fineHandler := handlers.NewFineHandler(svc.Loans.FinePolicy(), svc.Loans.Now)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	auth := middleware.AuthMiddleware(cfg.JWT.Secret)

	// Auth routes
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/login", middleware.AuthRateLimiter(cfg.HTTP.LoginLimitPerMinute), authHandler.Login)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Get("/me", auth, authHandler.Me)

	// Catalog routes: reads are public, writes are staff only
	bookRoutes := apiV1.Group("/books")
	setupBookRoutes(bookRoutes, bookHandler, auth)

	// Patron routes (Staff only)
	patronRoutes := apiV1.Group("/patrons", auth, middleware.StaffOnly(), middleware.NoCacheHeaders())
	setupPatronRoutes(patronRoutes, patronHandler)

	// Loan ledger routes (Staff only)
	borrowRoutes := apiV1.Group("/borrows", auth, middleware.StaffOnly(), middleware.NoCacheHeaders())
	setupBorrowRoutes(borrowRoutes, borrowHandler)

	// Dashboard routes (Staff only)
	dashboardRoutes := apiV1.Group("/dashboard", auth, middleware.StaffOnly(), middleware.NoCacheHeaders())
	dashboardRoutes.Get("/stats", dashboardHandler.GetStats)
	dashboardRoutes.Get("/overdue", dashboardHandler.GetOverdue)

	// Fine calculator (public)
	apiV1.Get("/fines/calculate", fineHandler.Calculate)

	// Admin routes
	adminRoutes := apiV1.Group("/admin", auth, middleware.AdminOnly())
	adminRoutes.Post("/reconcile", borrowHandler.Reconcile)
	adminRoutes.Post("/staff", authHandler.CreateStaff)
}

// setupBookRoutes configures catalog routes
func setupBookRoutes(router fiber.Router, handler *handlers.BookHandler, auth fiber.Handler) {
	cached := func(h fiber.Handler) []fiber.Handler {
		return append(middleware.CatalogCache(), h)
	}

	// Public routes
	router.Get("/", cached(handler.List)...)
	router.Get("/search", cached(handler.Search)...)
	router.Get("/:id", cached(handler.Get)...)

	// Staff routes
	router.Post("/", auth, middleware.StaffOnly(), handler.Create)
	router.Put("/:id", auth, middleware.StaffOnly(), handler.Update)
	router.Delete("/:id", auth, middleware.StaffOnly(), handler.Delete)
}

// setupPatronRoutes configures patron routes
func setupPatronRoutes(router fiber.Router, handler *handlers.PatronHandler) {
	router.Post("/", handler.Register)
	router.Get("/", handler.List)
	router.Get("/:ref", handler.Get)
	router.Get("/:ref/borrows", handler.Borrows)
}

// setupBorrowRoutes configures loan ledger routes
func setupBorrowRoutes(router fiber.Router, handler *handlers.BorrowHandler) {
	router.Post("/", handler.Borrow)
	router.Get("/", handler.List)
	router.Get("/:id", handler.Get)
	router.Get("/:id/fine", handler.Fine)
	router.Post("/:id/return", handler.Return)
	router.Post("/:id/extend", handler.Extend)
}
