package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tavern-pos/tavern/internal/reports"
	"github.com/tavern-pos/tavern/internal/shared"
)

const (
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency-cleanup"
	// TaskReportCacheBump orphans cached report aggregates so the
	// next dashboard read recomputes against fresh figures.
	TaskReportCacheBump = "reports:cache-bump"

	idempotencyRetention = 48 * time.Hour
)

// MaintenancePayload carries scheduling metadata.
type MaintenancePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

func newMaintenanceTask(taskType string, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(MaintenancePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault)), nil
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(at time.Time) (*asynq.Task, error) {
	return newMaintenanceTask(TaskIdempotencyCleanup, at)
}

// NewReportCacheBumpTask constructs the cache bump task.
func NewReportCacheBumpTask(at time.Time) (*asynq.Task, error) {
	return newMaintenanceTask(TaskReportCacheBump, at)
}

// Maintenance bundles the housekeeping handlers.
type Maintenance struct {
	logger      *slog.Logger
	idempotency *shared.IdempotencyStore
	cache       *reports.Cache
}

// NewMaintenance constructs the maintenance handlers.
func NewMaintenance(logger *slog.Logger, idempotency *shared.IdempotencyStore, cache *reports.Cache) *Maintenance {
	return &Maintenance{logger: logger, idempotency: idempotency, cache: cache}
}

// HandleIdempotencyCleanup processes TaskIdempotencyCleanup tasks.
func (m *Maintenance) HandleIdempotencyCleanup(ctx context.Context, t *asynq.Task) error {
	if m.idempotency == nil {
		return nil
	}
	if err := m.idempotency.Cleanup(ctx, idempotencyRetention); err != nil {
		return err
	}
	m.logger.Info("idempotency cleanup complete")
	return nil
}

// HandleReportCacheBump processes TaskReportCacheBump tasks.
func (m *Maintenance) HandleReportCacheBump(ctx context.Context, t *asynq.Task) error {
	if err := m.cache.Bump(ctx); err != nil {
		return err
	}
	m.logger.Info("report cache bumped")
	return nil
}
