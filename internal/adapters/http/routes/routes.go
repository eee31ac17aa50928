package routes

import (
	"time"

	"aidmap-api/internal/adapters/http/handlers"
	"aidmap-api/internal/adapters/http/middleware"
	"aidmap-api/internal/adapters/persistence/repositories"
	"aidmap-api/internal/adapters/realtime"
	"aidmap-api/internal/adapters/storage"
	"aidmap-api/internal/config"
	"aidmap-api/internal/core/services"
	"aidmap-api/internal/pkg/geo"
	"aidmap-api/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Dependencies are the infrastructure adapters built by main
type Dependencies struct {
	Hub *realtime.Hub
	// Publisher is the hub itself or a bridge that also forwards to Redis
	Publisher realtime.Publisher
	Payments  services.PaymentProvider
	// Proofs may be nil when no bucket is configured
	Proofs storage.ProofStore
}

// Runtime holds what main must start and stop around the server
type Runtime struct {
	Cron    *services.CronService
	Streams *handlers.StreamHandler
}

// Handlers groups every HTTP handler
type Handlers struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Profile      *handlers.ProfileHandler
	Neighborhood *handlers.NeighborhoodHandler
	Map          *handlers.MapHandler
	AidRequest   *handlers.AidRequestHandler
	Message      *handlers.MessageHandler
	Stream       *handlers.StreamHandler
	Trust        *handlers.TrustHandler
	Admin        *handlers.AdminHandler
	Dashboard    *handlers.DashboardHandler
}

// Setup wires repositories, services and handlers and registers all routes
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, deps Dependencies) *Runtime {
	// Repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	neighborhoodRepo := repositories.NewNeighborhoodRepository(db)
	aidRequestRepo := repositories.NewAidRequestRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	communityRepo := repositories.NewCommunityMessageRepository(db)
	directRepo := repositories.NewDirectMessageRepository(db)
	requestMsgRepo := repositories.NewRequestMessageRepository(db)
	verificationRepo := repositories.NewVerificationRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	// Services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, profileRepo, cfg)
	profileService := services.NewProfileService(profileRepo)
	neighborhoodService := services.NewNeighborhoodService(neighborhoodRepo, profileRepo, geo.DefaultCityCenters())
	offsetter := geo.NewOffsetter()
	aidService := services.NewAidRequestService(aidRequestRepo, profileRepo, transactionRepo, deps.Payments, deps.Proofs, deps.Publisher, offsetter)
	fundingService := services.NewFundingService(aidRequestRepo, profileRepo, deps.Payments, deps.Publisher)
	mapService := services.NewMapService(aidRequestRepo, profileRepo, neighborhoodRepo, offsetter)
	messagingService := services.NewMessagingService(communityRepo, directRepo, requestMsgRepo, aidRequestRepo, profileRepo, deps.Publisher, cfg.Chat.RatePerMinute)
	verificationService := services.NewVerificationService(verificationRepo, profileRepo)
	moderationService := services.NewModerationService(reportRepo, communityRepo, directRepo)
	dashboardService := services.NewDashboardService(db, aidRequestRepo, transactionRepo)
	adminService := services.NewAdminService(aidRequestRepo, profileRepo, authService, aidService, deps.Publisher)
	cronService := services.NewCronService(authService, messagingService, aidRequestRepo)

	h := &Handlers{
		Health:       handlers.NewHealthHandler(cfg),
		Auth:         handlers.NewAuthHandler(authService, cfg),
		Profile:      handlers.NewProfileHandler(profileService),
		Neighborhood: handlers.NewNeighborhoodHandler(neighborhoodService),
		Map:          handlers.NewMapHandler(mapService),
		AidRequest:   handlers.NewAidRequestHandler(aidService, fundingService),
		Message:      handlers.NewMessageHandler(messagingService),
		Stream:       handlers.NewStreamHandler(deps.Hub, messagingService),
		Trust:        handlers.NewTrustHandler(verificationService, moderationService),
		Admin:        handlers.NewAdminHandler(adminService),
		Dashboard:    handlers.NewDashboardHandler(dashboardService),
	}

	Register(app, cfg, h)

	return &Runtime{Cron: cronService, Streams: h.Stream}
}

// Register mounts every route on app
func Register(app *fiber.App, cfg *config.Config, h *Handlers) {
	app.Get("/", h.Health.Root)
	app.Get("/health", h.Health.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", h.Health.APIInfo)

	auth := middleware.AuthMiddleware(cfg)
	optional := middleware.OptionalAuth(cfg)

	setupAuthRoutes(apiV1.Group("/auth"), h.Auth, auth)
	setupProfileRoutes(apiV1.Group("/profiles"), h.Profile, auth)
	setupNeighborhoodRoutes(apiV1.Group("/neighborhoods"), h, auth)
	setupMapRoutes(apiV1.Group("/map"), h.Map, auth, optional)
	setupAidRequestRoutes(apiV1.Group("/aid-requests"), h, auth, optional)
	setupMessageRoutes(apiV1.Group("/messages", auth), h)
	setupTrustRoutes(apiV1, h.Trust, auth)

	apiV1.Get("/stream/map", middleware.NoCacheHeaders(), h.Stream.Map)

	dashboard := apiV1.Group("/dashboard", auth)
	dashboard.Get("/user", middleware.PrivateCacheHeaders(30*time.Second), h.Dashboard.GetUserDashboard)
	dashboard.Get("/admin", middleware.AdminOnly(), h.Dashboard.GetAdminDashboard)

	setupAdminRoutes(apiV1.Group("/admin", auth, middleware.AdminOnly()), h)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, auth fiber.Handler) {
	// Public routes
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", auth, handler.Me)
	router.Post("/logout-all", auth, handler.LogoutAll)
}

func setupProfileRoutes(router fiber.Router, handler *handlers.ProfileHandler, auth fiber.Handler) {
	router.Get("/me", auth, handler.GetMine)
	router.Put("/me", auth, handler.Update)
	router.Get("/me/welcome", auth, handler.WelcomeStatus)
	router.Post("/me/welcome", auth, handler.MarkWelcomeSeen)
	router.Get("/:id", handler.Get)
}

func setupNeighborhoodRoutes(router fiber.Router, h *Handlers, auth fiber.Handler) {
	router.Get("/", middleware.CacheControl(time.Minute), h.Neighborhood.List)
	router.Post("/", auth, h.Neighborhood.Create)
	router.Get("/:id", h.Neighborhood.Get)
	router.Post("/:id/join", auth, h.Neighborhood.Join)

	// Community chat
	router.Get("/:id/messages", auth, h.Message.ListCommunity)
	router.Post("/:id/messages", auth, h.Message.PostCommunity)
	router.Get("/:id/messages/stream", auth, h.Stream.Community)
}

func setupMapRoutes(router fiber.Router, handler *handlers.MapHandler, auth, optional fiber.Handler) {
	router.Get("/", optional, middleware.NoCacheHeaders(), handler.Snapshot)
	router.Post("/draft", auth, handler.BeginPost)
	router.Get("/requests/:id", optional, handler.Detail)
}

func setupAidRequestRoutes(router fiber.Router, h *Handlers, auth, optional fiber.Handler) {
	router.Post("/", auth, h.AidRequest.Post)
	router.Get("/mine", auth, h.AidRequest.ListMine)
	router.Get("/funded", auth, h.AidRequest.ListFunded)
	router.Get("/:id", optional, h.AidRequest.Get)
	router.Put("/:id", auth, h.AidRequest.Edit)
	router.Post("/:id/close", auth, h.AidRequest.Close)
	router.Post("/:id/confirm", auth, h.AidRequest.ConfirmReceipt)
	router.Post("/:id/start", auth, h.AidRequest.StartProgress)
	router.Post("/:id/cancel", auth, h.AidRequest.Cancel)
	router.Post("/:id/proof", auth, h.AidRequest.UploadProof)
	router.Post("/:id/fund", auth, middleware.StrictRateLimiter(), middleware.NoCacheHeaders(), h.AidRequest.Fund)

	// Requester/donor thread
	router.Get("/:id/messages", auth, h.Message.RequestThread)
	router.Post("/:id/messages", auth, h.Message.SendRequestMessage)
	router.Get("/:id/messages/stream", auth, h.Stream.Request)
}

func setupMessageRoutes(router fiber.Router, h *Handlers) {
	router.Post("/community/:id/resolve", h.Message.ResolveCommunity)

	router.Get("/direct", h.Message.Conversations)
	router.Get("/direct/:userId", h.Message.DirectThread)
	router.Post("/direct/:userId", h.Message.SendDirect)
	router.Post("/direct/:userId/read", h.Message.MarkRead)
	router.Get("/direct/:userId/stream", h.Stream.Direct)

	router.Get("/requests", h.Message.RequestConversations)
}

func setupTrustRoutes(router fiber.Router, handler *handlers.TrustHandler, auth fiber.Handler) {
	router.Post("/verifications", auth, handler.SubmitVerification)
	router.Get("/verifications/mine", auth, handler.MyVerifications)
	router.Post("/reports", auth, handler.Report)
}

// setupAdminRoutes configures admin routes (AuthMiddleware + AdminOnly applied by caller)
func setupAdminRoutes(router fiber.Router, h *Handlers) {
	router.Get("/aid-requests", h.Admin.ListRequests)
	router.Put("/aid-requests/:id/status", h.Admin.SetRequestStatus)
	router.Delete("/aid-requests/:id", h.Admin.DeleteRequest)

	router.Get("/users", h.Admin.ListUsers)
	router.Post("/users/:id/ban", h.Admin.Ban)
	router.Post("/users/:id/unban", h.Admin.Unban)

	router.Get("/verifications", h.Trust.PendingVerifications)
	router.Put("/verifications/:id", h.Trust.ReviewVerification)

	router.Get("/reports", h.Trust.ListReports)
	router.Put("/reports/:id", h.Trust.ReviewReport)
}
