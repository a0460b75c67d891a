package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Job prunes login history rows past their retention period.
type Job struct {
	history   historyPruner
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

type historyPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

func NewLoginHistoryJob(history historyPruner, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		history:   history,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.history == nil {
		return nil
	}

	cutoff := j.now().Add(-j.retention)
	rows, err := j.history.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune login history: %w", err)
	}
	if rows > 0 {
		j.logger.Info("login history pruned", zap.Int64("deleted", rows))
	}

	return nil
}
