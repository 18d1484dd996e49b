package routes

import (
	"loansuite/internal/adapters/http/handlers"
	"loansuite/internal/adapters/http/middleware"
	"loansuite/internal/adapters/persistence/repositories"
	"loansuite/internal/config"
	"loansuite/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup configures all routes for the application and returns the sweeper
// so the caller owns its lifecycle.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.SweeperService {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	loanTypeRepo := repositories.NewLoanTypeRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	eventRepo := repositories.NewLoanEventRepository(db)
	scheduleRepo := repositories.NewEmiScheduleRepository(db)
	paymentRepo := repositories.NewEmiPaymentRepository(db)

	// Initialize services
	notifyService := services.NewNotificationService(cfg.Notify)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, customerRepo, cfg)
	userService := services.NewUserService(userRepo, customerRepo)

	emiService := services.NewEmiService(scheduleRepo, paymentRepo, notifyService, cfg.Engine.PaymentTolerance)
	loanService := services.NewLoanService(loanRepo, loanTypeRepo, customerRepo, eventRepo, emiService, notifyService)

	// The engine closes a loan once its last installment settles
	emiService.SetLoanCloser(loanService)

	dashboardService := services.NewDashboardService(db)
	sweeperService := services.NewSweeperService(emiService, notifyService, refreshTokenRepo, cfg.Engine)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	loanHandler := handlers.NewLoanHandler(loanService)
	emiHandler := handlers.NewEmiHandler(emiService, loanService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, healthHandler, authHandler, userHandler,
		loanHandler, emiHandler, dashboardHandler, cfg)

	return sweeperService
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	loanHandler *handlers.LoanHandler,
	emiHandler *handlers.EmiHandler,
	dashboardHandler *handlers.DashboardHandler,
	cfg *config.Config,
) {
	// API Info
	router.Get("/", healthHandler.APIInfo)

	// Auth routes (public)
	authRoutes := router.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// User management routes (Admin only)
	userRoutes := router.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Use(middleware.AdminOnly())
	setupUserRoutes(userRoutes, userHandler)

	// Profile routes (Authenticated users)
	profileRoutes := router.Group("/profile")
	profileRoutes.Use(middleware.AuthMiddleware(cfg))
	setupProfileRoutes(profileRoutes, userHandler)

	// Loan routes
	loanRoutes := router.Group("/loans")
	loanRoutes.Use(middleware.AuthMiddleware(cfg))
	setupLoanRoutes(loanRoutes, loanHandler)

	// EMI routes
	emiRoutes := router.Group("/emis")
	emiRoutes.Use(middleware.AuthMiddleware(cfg))
	setupEmiRoutes(emiRoutes, emiHandler)

	// Dashboard routes (Officer/Admin)
	dashboardRoutes := router.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg))
	dashboardRoutes.Use(middleware.OfficerOrAdmin())
	setupDashboardRoutes(dashboardRoutes, dashboardHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes, rate limited against brute force
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupUserRoutes configures user management routes (Admin only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Get("/:id", handler.GetUser)
	router.Put("/:id", handler.UpdateUser)
}

// setupProfileRoutes configures profile routes (Authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Put("/password", handler.ChangePassword)
}

// setupLoanRoutes configures loan lifecycle routes
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler) {
	// Any authenticated user
	router.Post("/", handler.Apply)
	router.Get("/my", handler.MyLoans)
	router.Get("/types", handler.ListLoanTypes)
	router.Get("/:id", handler.Get)
	router.Get("/:id/history", handler.History)

	// Officer/Admin routes
	officerRoutes := router.Group("")
	officerRoutes.Use(middleware.OfficerOrAdmin())

	officerRoutes.Get("/", handler.List)
	officerRoutes.Put("/:id/approve", handler.Approve)
	officerRoutes.Put("/:id/reject", handler.Reject)
	officerRoutes.Put("/:id/disburse", handler.Disburse)
}

// setupEmiRoutes configures EMI schedule and payment routes
func setupEmiRoutes(router fiber.Router, handler *handlers.EmiHandler) {
	// Any authenticated user (own-data scoping inside the handler)
	router.Get("/loan/:loanId", handler.GetLoanSchedule)
	router.Get("/loan/:loanId/summary", handler.Summary)
	router.Get("/loan/:loanId/payments", handler.GetPayments)
	router.Get("/customer/:customerId", handler.GetCustomerSchedule)

	// Officer/Admin routes
	officerRoutes := router.Group("")
	officerRoutes.Use(middleware.OfficerOrAdmin())

	officerRoutes.Post("/schedule", handler.GenerateSchedule)
	officerRoutes.Get("/upcoming", handler.Upcoming)
	officerRoutes.Post("/:id/payment", handler.RecordPayment)
	officerRoutes.Get("/:id/payments", handler.InstallmentPayments)
	officerRoutes.Post("/sweep", handler.Sweep)
}

// setupDashboardRoutes configures reporting routes (Officer/Admin)
func setupDashboardRoutes(router fiber.Router, handler *handlers.DashboardHandler) {
	router.Get("/portfolio", handler.Portfolio)
	router.Get("/collections", handler.Collections)
	router.Get("/overdue", handler.OverdueExposure)
}
