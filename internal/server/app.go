package server

import (
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/treasury-api/internal/repository"
	"github.com/noah-isme/treasury-api/internal/service"
	"github.com/noah-isme/treasury-api/pkg/jobs"
)

// Dependencies are the infrastructure pieces the services are built on.
type Dependencies struct {
	Store        *repository.Store
	Cache        service.CacheRepository
	Metrics      *service.MetricsService
	Logger       *zap.Logger
	Auth         service.AuthConfig
	AuthzTTL     time.Duration
	DashboardTTL time.Duration
	ImportQueue  jobs.QueueConfig
}

// App is the assembled service graph plus its background workers.
type App struct {
	Services    Services
	ImportQueue *jobs.Queue
	Maintenance *service.MaintenanceService
	Cache       *service.CacheService
}

// Build wires every service over the store. The import queue is created but
// not started.
func Build(deps Dependencies) *App {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	store := deps.Store
	validate := validator.New()

	cache := service.NewCacheService(deps.Cache, deps.Metrics, deps.DashboardTTL, log, deps.Cache != nil)
	audit := service.NewAuditService(store.Audit, log)
	authz := service.NewAuthorizationService(store.Profiles, cache, deps.Metrics, deps.AuthzTTL, log)
	imports := service.NewImportService(store.Imports, store.CashFlow, store.Reference, cache, deps.Metrics, audit, validate, log)

	queueCfg := deps.ImportQueue
	queueCfg.Logger = log
	queueCfg.OnGiveUp = imports.GiveUp
	queue := jobs.NewQueue(service.ImportJobType, imports.Process, queueCfg)
	imports.AttachQueue(queue)

	return &App{
		Services: Services{
			Auth:      service.NewAuthService(store.Users, store.Tokens, audit, validate, log, deps.Auth),
			Authz:     authz,
			Users:     service.NewUserService(store.Users, store.Profiles, store.Tokens, audit, validate, log),
			Profiles:  service.NewProfileService(store.Profiles, store.Users, authz, audit, validate, log),
			Audit:     audit,
			Reference: service.NewReferenceService(store.Reference, store.CashFlow, audit, validate, log),
			CashFlow:  service.NewCashFlowService(store.CashFlow, store.Reference, cache, audit, validate, log),
			Imports:   imports,
			Forecasts: service.NewForecastService(store.Forecasts, store.Dashboard, store.Reference, audit, validate, log),
			Dashboard: service.NewDashboardService(service.DashboardServiceParams{
				Aggregates: store.Dashboard,
				Entries:    store.CashFlow,
				Cache:      cache,
				Logger:     log,
				Config:     service.DashboardServiceConfig{CacheTTL: deps.DashboardTTL},
			}),
			Reports:  service.NewReportService(store.Reports, store.Reference, log),
			Metrics:  deps.Metrics,
			Accounts: store.Users,
		},
		ImportQueue: queue,
		Maintenance: service.NewMaintenanceService(store.Tokens, log),
		Cache:       cache,
	}
}
