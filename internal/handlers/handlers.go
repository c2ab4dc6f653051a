package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"shutterhub/api/internal/config"
	"shutterhub/api/internal/middleware"
	"shutterhub/api/internal/onboarding"
	"shutterhub/api/internal/repository"
	"shutterhub/api/internal/service"
	"shutterhub/api/internal/session"
	"shutterhub/api/internal/storage"
)

type HandlerSet struct {
	log           zerolog.Logger
	cfg           *config.AppConfig
	authService   *service.AuthService
	adminService  *service.AdminService
	onboardingSvc *onboarding.Service
	watcher       *onboarding.Watcher
	sessions      *session.Manager
	db            *pgxpool.Pool
	cache         *redis.Client
	store         *storage.ObjectStore
	partners      *repository.PartnerRepository
	dashboards    *repository.DashboardRepository
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	cache *redis.Client,
	store *storage.ObjectStore,
	sessions *session.Manager,
	cfg *config.AppConfig,
) HandlerSet {
	partnerRepo := repository.NewPartnerRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	onboardingRepo := repository.NewOnboardingRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	statusCache := onboarding.NewRedisStatusCache(cache, cfg.Onboarding.StatusCacheTTL, log)
	onboardingSvc := onboarding.NewService(onboardingRepo, statusCache, cache, cfg.Onboarding.EventStream, log)
	watcher := onboarding.NewWatcher(onboardingSvc, cfg.Identity.StatusPollInterval, log)

	auth := service.NewAuthService(partnerRepo, sessions, cfg, log)
	admin := service.NewAdminService(adminRepo, partnerRepo, onboardingSvc, log)

	return HandlerSet{
		log:           log,
		cfg:           cfg,
		authService:   auth,
		adminService:  admin,
		onboardingSvc: onboardingSvc,
		watcher:       watcher,
		sessions:      sessions,
		db:            db,
		cache:         cache,
		store:         store,
		partners:      partnerRepo,
		dashboards:    dashboardRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/signup", h.Signup)
		auth.POST("/logout", h.Logout)
		auth.POST("/password-reset", h.PasswordReset)

		withSession := v1.Group("/auth")
		withSession.Use(middleware.Auth(h.partners))
		withSession.GET("/session", h.Session)
	}

	admin := v1.Group("/admin")
	{
		admin.POST("/login", h.AdminLogin)
		admin.POST("/logout", h.AdminLogout)

		console := admin.Group("")
		console.Use(middleware.RequireAdmin())
		console.GET("/partners", h.AdminListPartners)
		console.POST("/partners/:id/approve", h.AdminApprove)
		console.POST("/partners/:id/reject", h.AdminReject)
		console.POST("/partners/:id/request-changes", h.AdminRequestChanges)
	}

	ob := v1.Group("/onboarding")
	ob.Use(middleware.Auth(h.partners))
	{
		ob.GET("/status", h.OnboardingStatus)
		ob.PUT("/basic-info", h.SubmitBasicInfo)
		ob.POST("/services", h.AddService)
		ob.PUT("/locations", h.SetLocations)
		ob.POST("/portfolio", h.UploadPortfolio)
		ob.POST("/documents", h.UploadDocuments)
		ob.POST("/complete", h.CompleteOnboarding)
		ob.GET("/verification/wait", h.WaitForVerification)
	}

	dash := v1.Group("/dashboard")
	dash.Use(middleware.Auth(h.partners))
	{
		dash.GET("/leads", h.DashboardLeads)
		dash.GET("/bookings", h.DashboardBookings)
		dash.GET("/reviews", h.DashboardReviews)
	}
}
