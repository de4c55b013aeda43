package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultMaintenanceSchedule runs housekeeping at the top of every hour.
const DefaultMaintenanceSchedule = "0 * * * *"

type tokenPruner interface {
	PruneExpired(ctx context.Context, before time.Time) (int64, error)
}

// MaintenanceService runs periodic housekeeping jobs.
type MaintenanceService struct {
	tokens tokenPruner
	logger *zap.Logger
	now    func() time.Time
}

// NewMaintenanceService constructs a MaintenanceService.
func NewMaintenanceService(tokens tokenPruner, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{tokens: tokens, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// PruneTokens deletes revoked refresh tokens and those already expired.
func (s *MaintenanceService) PruneTokens(ctx context.Context) (int64, error) {
	removed, err := s.tokens.PruneExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("pruned refresh tokens", zap.Int64("removed", removed))
	}
	return removed, nil
}

// Schedule registers the housekeeping jobs on a new cron scheduler. The caller
// starts and stops it.
func (s *MaintenanceService) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	if spec == "" {
		spec = DefaultMaintenanceSchedule
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if _, err := s.PruneTokens(runCtx); err != nil {
			s.logger.Error("refresh token pruning failed", zap.Error(err))
		}
	}); err != nil {
		return nil, err
	}
	return c, nil
}
