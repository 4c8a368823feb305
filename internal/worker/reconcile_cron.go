package worker

// Scheduled reconciliation: every Interval one replica (whoever wins the Redis lock for that
// tick) enqueues a reconciliation job. Ticks are skipped while the breaker is open.

import (
	"context"
	"time"

	"hotelbilling/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const reconcileLockKey = "lock:cron:reconciliation"

// ReconciliationEnqueuer is satisfied by *Dispatcher.
type ReconciliationEnqueuer interface {
	EnqueueReconciliation(ctx context.Context, trigger string) error
}

// ReconcileCronConfig holds all dependencies for the cron goroutine.
type ReconcileCronConfig struct {
	Interval time.Duration
	Queue    ReconciliationEnqueuer
	CB       *infra.CircuitBreaker
	RDB      *redis.Client // nil: no cross-replica lock
}

// StartReconcileCron launches the ticker goroutine. A non-positive interval disables it.
// It stops when ctx is cancelled.
func StartReconcileCron(ctx context.Context, cfg ReconcileCronConfig) {
	if cfg.Interval <= 0 {
		log.Info().Msg("reconcile_cron: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("reconcile_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconcile_cron: shutting down")
				return
			case <-ticker.C:
				reconcileTick(ctx, cfg)
			}
		}
	}()
}

// reconcileTick reports whether a job was enqueued.
func reconcileTick(ctx context.Context, cfg ReconcileCronConfig) bool {
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("reconcile_cron: circuit breaker is open, skipping tick")
		return false
	}

	if cfg.RDB != nil {
		ttl := cfg.Interval * 9 / 10
		if ttl < time.Second {
			ttl = time.Second
		}
		acquired, err := cfg.RDB.SetNX(ctx, reconcileLockKey, time.Now().UTC().Format(time.RFC3339), ttl).Result()
		if err != nil {
			log.Error().Err(err).Msg("reconcile_cron: lock unavailable, skipping tick")
			return false
		}
		if !acquired {
			log.Debug().Msg("reconcile_cron: another replica holds the lock")
			return false
		}
	}

	if err := cfg.Queue.EnqueueReconciliation(ctx, TriggerCron); err != nil {
		log.Error().Err(err).Msg("reconcile_cron: failed to enqueue job")
		return false
	}
	log.Info().Msg("reconcile_cron: reconciliation job enqueued")
	return true
}
