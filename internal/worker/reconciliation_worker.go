package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hotelbilling/internal/infra"
	"hotelbilling/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Reconciliation job triggers.
const (
	TriggerCron   = "cron"
	TriggerManual = "manual"
)

// ReconciliationJobPayload is the body of a QueueReconciliation job.
type ReconciliationJobPayload struct {
	Trigger    string `json:"trigger"` // TriggerCron or TriggerManual
	EnqueuedAt string `json:"enqueued_at"`
}

// ReconciliationWorker runs queued reconciliation sweeps through the circuit breaker,
// retrying with exponential backoff and dead-lettering jobs that exhaust their attempts.
type ReconciliationWorker struct {
	svc         service.ReconciliationService
	cb          *infra.CircuitBreaker
	rdb         *redis.Client
	maxAttempts int
	baseBackoff time.Duration
}

func NewReconciliationWorker(svc service.ReconciliationService, cb *infra.CircuitBreaker, rdb *redis.Client, maxAttempts int) *ReconciliationWorker {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &ReconciliationWorker{
		svc:         svc,
		cb:          cb,
		rdb:         rdb,
		maxAttempts: maxAttempts,
		baseBackoff: time.Second,
	}
}

// Process handles one reconciliation job:
//  1. Parse the payload (malformed jobs go straight to the DLQ)
//  2. Skip when the breaker is open; the next tick enqueues again
//  3. Run the sweep with backoff 1s, 2s, …
//  4. Dead-letter the job once every attempt failed
func (w *ReconciliationWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReconciliationJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		SendToDLQ(ctx, w.rdb, QueueReconciliation, JobReconciliation, raw, "invalid payload: "+err.Error(), 0)
		return
	}

	if w.cb != nil && w.cb.State() == infra.CBOpen {
		log.Warn().Str("trigger", payload.Trigger).Msg("reconciliation_worker: circuit breaker open, skipping job")
		return
	}

	attempts := 0
	err := withRetry(ctx, w.maxAttempts, w.baseBackoff, func(attempt int) error {
		attempts = attempt
		return w.run(ctx)
	})
	if err == nil {
		return
	}
	if errors.Is(err, infra.ErrCircuitOpen) {
		log.Warn().Str("trigger", payload.Trigger).Msg("reconciliation_worker: circuit breaker opened, giving up")
		return
	}

	log.Error().Err(err).Int("attempts", attempts).Str("trigger", payload.Trigger).Msg("reconciliation_worker: sweep failed")
	SendToDLQ(ctx, w.rdb, QueueReconciliation, JobReconciliation, raw,
		fmt.Sprintf("max attempts (%d) exceeded: %v", w.maxAttempts, err), attempts)
}

func (w *ReconciliationWorker) run(ctx context.Context) error {
	sweep := func(ctx context.Context) error {
		res, err := w.svc.RepairInvoices(ctx)
		if err != nil {
			return err
		}
		log.Info().
			Int("orphaned", res.Orphaned).
			Int("incomplete", res.Incomplete).
			Int("valid", res.Valid).
			Msg("reconciliation_worker: sweep complete")
		return nil
	}
	if w.cb == nil {
		return sweep(ctx)
	}
	return w.cb.Execute(ctx, sweep)
}

// withRetry calls fn up to maxAttempts times, waiting base, 2·base, 4·base … between attempts.
// An open circuit breaker stops the loop. Returns nil on the first success, the last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := base * time.Duration(1<<uint(i-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		lastErr = fn(i + 1)
		if lastErr == nil || errors.Is(lastErr, infra.ErrCircuitOpen) {
			return lastErr
		}
		log.Warn().Err(lastErr).Int("attempt", i+1).Msg("attempt failed")
	}
	return lastErr
}
