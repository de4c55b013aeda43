package repository

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/treasury-api/internal/models"
)

// Sentinel errors shared by every backing. Reads of absent records return
// (nil, nil) instead of ErrNotFound; ErrNotFound is reserved for mutations.
var (
	ErrNotFound        = errors.New("repository: record not found")
	ErrConflict        = errors.New("repository: unique constraint violated")
	ErrVersionConflict = errors.New("repository: stale version")
	ErrProtected       = errors.New("repository: record is protected")
	ErrInUse           = errors.New("repository: record is still referenced")
)

// UserStore persists user accounts.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) (models.Page[models.User], error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	CountByProfile(ctx context.Context, profileID string) (int, error)
}

// ProfileStore persists profiles and their permission grants.
type ProfileStore interface {
	List(ctx context.Context) ([]models.Profile, error)
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	FindByName(ctx context.Context, name string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	// Update replaces name, description and permissions when the stored version
	// equals expectedVersion, then increments the version.
	Update(ctx context.Context, profile *models.Profile, expectedVersion int) (*models.Profile, error)
	Delete(ctx context.Context, id string) error
}

// TokenStore persists refresh tokens.
type TokenStore interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) error
	PruneExpired(ctx context.Context, before time.Time) (int64, error)
}

// AuditStore is the append-only audit trail. Listings are newest first.
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) (models.Page[models.AuditLog], error)
}

// ReferenceStore persists configuration lookups and key/value settings.
type ReferenceStore interface {
	List(ctx context.Context, filter models.ReferenceFilter) ([]models.ReferenceItem, error)
	FindByID(ctx context.Context, id string) (*models.ReferenceItem, error)
	FindByCode(ctx context.Context, kind models.ReferenceKind, code string) (*models.ReferenceItem, error)
	Create(ctx context.Context, item *models.ReferenceItem) (*models.ReferenceItem, error)
	Update(ctx context.Context, item *models.ReferenceItem) (*models.ReferenceItem, error)
	Delete(ctx context.Context, id string) error
	ListSettings(ctx context.Context) ([]models.Setting, error)
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	UpsertSetting(ctx context.Context, setting *models.Setting) (*models.Setting, error)
}

// CashFlowStore persists cash-flow entries.
type CashFlowStore interface {
	List(ctx context.Context, filter models.CashFlowFilter) (models.Page[models.CashFlowEntry], error)
	FindByID(ctx context.Context, id string) (*models.CashFlowEntry, error)
	Create(ctx context.Context, entry *models.CashFlowEntry) (*models.CashFlowEntry, error)
	CreateBatch(ctx context.Context, entries []models.CashFlowEntry) error
	Update(ctx context.Context, entry *models.CashFlowEntry) (*models.CashFlowEntry, error)
	Delete(ctx context.Context, id string) error
	DeleteByImport(ctx context.Context, importID string) (int64, error)
	CountByReference(ctx context.Context, referenceID string) (int, error)
}

// ImportStore persists import batches.
type ImportStore interface {
	Create(ctx context.Context, batch *models.ImportBatch) (*models.ImportBatch, error)
	FindByID(ctx context.Context, id string) (*models.ImportBatch, error)
	List(ctx context.Context, filter models.ImportFilter) (models.Page[models.ImportBatch], error)
	Update(ctx context.Context, batch *models.ImportBatch) (*models.ImportBatch, error)
	Delete(ctx context.Context, id string) error
}

// ForecastStore persists scenarios and their generated forecasts.
type ForecastStore interface {
	ListScenarios(ctx context.Context, planID string) ([]models.Scenario, error)
	FindScenario(ctx context.Context, id string) (*models.Scenario, error)
	CreateScenario(ctx context.Context, scenario *models.Scenario) (*models.Scenario, error)
	UpdateScenario(ctx context.Context, scenario *models.Scenario) (*models.Scenario, error)
	DeleteScenario(ctx context.Context, id string) error
	SaveForecast(ctx context.Context, forecast *models.Forecast) (*models.Forecast, error)
	LatestForecast(ctx context.Context, scenarioID string) (*models.Forecast, error)
}

// DashboardStore answers dashboard aggregations over cash-flow entries.
type DashboardStore interface {
	MonthlyTotals(ctx context.Context, filter models.CashFlowFilter) ([]models.MonthlyTotal, error)
	CategoryTotals(ctx context.Context, filter models.CashFlowFilter) ([]models.CategoryTotal, error)
}

// ReportStore answers report aggregations over cash-flow entries.
type ReportStore interface {
	CategoryMonthTotals(ctx context.Context, filter models.CashFlowFilter) ([]models.CategoryMonthTotal, error)
}

// Store bundles one implementation of every aggregate store.
type Store struct {
	Users     UserStore
	Profiles  ProfileStore
	Tokens    TokenStore
	Audit     AuditStore
	Reference ReferenceStore
	CashFlow  CashFlowStore
	Imports   ImportStore
	Forecasts ForecastStore
	Dashboard DashboardStore
	Reports   ReportStore
}
