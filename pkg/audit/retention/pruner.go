package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Prunable is the slice of the audit store the pruner needs.
type Prunable interface {
	Count(ctx context.Context) (int64, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	PruneToCount(ctx context.Context, max int64) (int64, error)
}

// Config contains retention limits and the pruning schedule.
type Config struct {
	// RetentionDays is how many days of records to keep.
	// 0 disables age-based pruning.
	RetentionDays int

	// MaxRecords caps the total record count.
	// 0 disables count-based pruning.
	MaxRecords int64

	// PruneSchedule is a cron expression; empty disables scheduling.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 90,
		MaxRecords:    0,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner enforces the retention policy against an audit store.
type Pruner struct {
	store     Prunable
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a pruner for store. A nil config uses the defaults.
func NewPruner(store Prunable, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	p := &Pruner{
		store:  store,
		config: config,
		logger: slog.Default().With("component", "audit.retention"),
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune runs both retention phases and returns the total records removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)
		deleted, err := p.store.PruneOlderThan(ctx, cutoff)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
		if deleted > 0 {
			p.logger.Info("pruned audit records by age",
				"deleted_count", deleted,
				"retention_days", p.config.RetentionDays,
			)
		}
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.store.PruneToCount(ctx, p.config.MaxRecords)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
		if deleted > 0 {
			p.logger.Info("pruned audit records by count",
				"deleted_count", deleted,
				"max_records", p.config.MaxRecords,
			)
		}
	}

	return total, nil
}

// Start begins scheduled pruning; a no-op when no schedule is configured.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop halts scheduled pruning and waits for a running cycle to finish.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the next scheduled run, or nil when unscheduled.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
