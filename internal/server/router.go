package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/treasury-api/internal/handler"
	"github.com/noah-isme/treasury-api/internal/middleware"
	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/service"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
	"github.com/noah-isme/treasury-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/treasury-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/treasury-api/pkg/middleware/requestid"
	"github.com/noah-isme/treasury-api/pkg/response"
)

type accountLoader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth      *service.AuthService
	Authz     *service.AuthorizationService
	Users     *service.UserService
	Profiles  *service.ProfileService
	Audit     *service.AuditService
	Reference *service.ReferenceService
	CashFlow  *service.CashFlowService
	Imports   *service.ImportService
	Forecasts *service.ForecastService
	Dashboard *service.DashboardService
	Reports   *service.ReportService
	Metrics   *service.MetricsService
	// Accounts backs guard lookups of the authenticated user.
	Accounts accountLoader
}

// Options tunes the router.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	LoginLimiter   *middleware.IPRateLimiter
	Readiness      map[string]handler.ReadinessCheck
	Logger         *zap.Logger
}

// NewRouter wires every route with its permission guard.
func NewRouter(svc Services, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(svc.Metrics))
	r.Use(middleware.WithResponseMeta())
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	metricsHandler := handler.NewMetricsHandler(svc.Metrics, opts.Readiness, log)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	guard := middleware.NewGuard(svc.Authz, svc.Accounts, log)
	api := r.Group(normalizePrefix(opts.APIPrefix))

	authHandler := handler.NewAuthHandler(svc.Auth, svc.Authz)
	auth := api.Group("/auth")
	auth.POST("/login", middleware.RateLimit(opts.LoginLimiter), authHandler.Login)
	auth.POST("/refresh", middleware.RateLimit(opts.LoginLimiter), authHandler.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(svc.Auth))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.PUT("/auth/password", authHandler.ChangePassword)
	secured.GET("/auth/me", authHandler.Me)
	secured.GET("/auth/me/permissions", guard.Authenticated(), authHandler.Permissions)

	userHandler := handler.NewUserHandler(svc.Users)
	users := secured.Group("/users")
	users.GET("", guard.RequireView(models.ResourceUsers), userHandler.List)
	users.POST("", guard.RequirePermission(models.ResourceUsers, models.ActionCreate), userHandler.Create)
	users.GET("/:id", guard.RequireView(models.ResourceUsers), userHandler.Get)
	users.PUT("/:id", guard.RequirePermission(models.ResourceUsers, models.ActionEdit), userHandler.Update)
	users.PUT("/:id/profile", guard.RequirePermission(models.ResourceUsers, models.ActionEdit), userHandler.AssignProfile)
	users.DELETE("/:id", guard.RequirePermission(models.ResourceUsers, models.ActionDelete), userHandler.Delete)

	profileHandler := handler.NewProfileHandler(svc.Profiles)
	profiles := secured.Group("/profiles")
	profiles.GET("", guard.RequireView(models.ResourceProfiles), profileHandler.List)
	profiles.GET("/catalog", guard.RequireView(models.ResourceProfiles), profileHandler.Catalog)
	profiles.POST("", guard.RequirePermission(models.ResourceProfiles, models.ActionCreate), profileHandler.Create)
	profiles.GET("/:id", guard.RequireView(models.ResourceProfiles), profileHandler.Get)
	profiles.PUT("/:id", guard.RequirePermission(models.ResourceProfiles, models.ActionEdit), profileHandler.Update)
	profiles.PUT("/:id/permissions", guard.RequirePermission(models.ResourceProfiles, models.ActionEdit), profileHandler.SetPermission)
	profiles.PUT("/:id/resources", guard.RequirePermission(models.ResourceProfiles, models.ActionEdit), profileHandler.SetResource)
	profiles.POST("/:id/duplicate", guard.RequirePermission(models.ResourceProfiles, models.ActionCreate), profileHandler.Duplicate)
	profiles.DELETE("/:id", guard.RequirePermission(models.ResourceProfiles, models.ActionDelete), profileHandler.Delete)

	auditHandler := handler.NewAuditHandler(svc.Audit)
	secured.GET("/audit-logs", guard.RequireView(models.ResourceUsers), auditHandler.List)

	referenceHandler := handler.NewReferenceHandler(svc.Reference)
	reference := secured.Group("/reference")
	reference.GET("", guard.RequireView(models.ResourcePlan), referenceHandler.List)
	reference.POST("", guard.RequirePermission(models.ResourcePlan, models.ActionCreate), referenceHandler.Create)
	reference.GET("/:id", guard.RequireView(models.ResourcePlan), referenceHandler.Get)
	reference.PUT("/:id", guard.RequirePermission(models.ResourcePlan, models.ActionEdit), referenceHandler.Update)
	reference.DELETE("/:id", guard.RequirePermission(models.ResourcePlan, models.ActionDelete), referenceHandler.Delete)

	settings := secured.Group("/settings")
	settings.GET("", guard.RequireView(models.ResourceSettings), referenceHandler.ListSettings)
	settings.GET("/:key", guard.RequireView(models.ResourceSettings), referenceHandler.GetSetting)
	settings.PUT("/:key", guard.RequirePermission(models.ResourceSettings, models.ActionEdit), referenceHandler.UpsertSetting)

	cashFlowHandler := handler.NewCashFlowHandler(svc.CashFlow)
	entries := secured.Group("/entries")
	entries.GET("", guard.RequireView(models.ResourceSaisie), cashFlowHandler.List)
	entries.POST("", guard.RequirePermission(models.ResourceSaisie, models.ActionCreate), cashFlowHandler.Create)
	entries.GET("/:id", guard.RequireView(models.ResourceSaisie), cashFlowHandler.Get)
	entries.PUT("/:id", guard.RequirePermission(models.ResourceSaisie, models.ActionEdit), cashFlowHandler.Update)
	entries.DELETE("/:id", guard.RequirePermission(models.ResourceSaisie, models.ActionDelete), cashFlowHandler.Delete)

	importHandler := handler.NewImportHandler(svc.Imports)
	imports := secured.Group("/imports")
	imports.GET("", guard.RequireView(models.ResourceImports), importHandler.List)
	imports.POST("", guard.RequirePermission(models.ResourceImports, models.ActionCreate), importHandler.Submit)
	imports.GET("/:id", guard.RequireView(models.ResourceImports), importHandler.Get)
	imports.DELETE("/:id", guard.RequirePermission(models.ResourceImports, models.ActionDelete), importHandler.Delete)

	forecastHandler := handler.NewForecastHandler(svc.Forecasts)
	scenarios := secured.Group("/scenarios")
	scenarios.GET("", guard.RequireView(models.ResourceForecast), forecastHandler.ListScenarios)
	scenarios.POST("", guard.RequirePermission(models.ResourceForecast, models.ActionCreate), forecastHandler.CreateScenario)
	scenarios.GET("/:id", guard.RequireView(models.ResourceForecast), forecastHandler.GetScenario)
	scenarios.PUT("/:id", guard.RequirePermission(models.ResourceForecast, models.ActionEdit), forecastHandler.UpdateScenario)
	scenarios.DELETE("/:id", guard.RequirePermission(models.ResourceForecast, models.ActionDelete), forecastHandler.DeleteScenario)
	scenarios.POST("/:id/forecasts", guard.RequirePermission(models.ResourceForecast, models.ActionCreate), forecastHandler.Generate)
	scenarios.GET("/:id/forecasts/latest", guard.RequireView(models.ResourceForecast), forecastHandler.Latest)

	dashboardHandler := handler.NewDashboardHandler(svc.Dashboard)
	secured.GET("/dashboard", guard.RequireView(models.ResourceDashboard), dashboardHandler.Metrics)

	reportHandler := handler.NewReportHandler(svc.Reports)
	secured.GET("/reports",
		guard.RequireView(models.ResourceReporting),
		middleware.Audit(svc.Audit, models.AuditActionReportGenerate, models.ResourceReporting),
		reportHandler.Generate,
	)

	secured.GET("/metrics/snapshot", guard.RequireView(models.ResourceSettings), metricsHandler.Snapshot)

	return r
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || prefix == "/" {
		return "/"
	}
	return "/" + strings.Trim(prefix, "/")
}

// NewHTTPServer wraps the router in an http.Server the caller can shut down gracefully.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
