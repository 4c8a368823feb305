package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReconciliation = "jobs:reconciliation"

	JobReconciliation = "reconciliation"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Processor handles the payload of one job type.
type Processor interface {
	Process(ctx context.Context, payload json.RawMessage)
}

// WorkerHandlers maps job types to their processors. Nil entries drop the job with a log line.
type WorkerHandlers struct {
	Reconciliation Processor
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReconciliation pushes a reconciliation sweep request.
func (d *Dispatcher) EnqueueReconciliation(ctx context.Context, trigger string) error {
	payload := ReconciliationJobPayload{
		Trigger:    trigger,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return d.enqueue(ctx, QueueReconciliation, JobReconciliation, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, id int) {
	queues := []string{QueueReconciliation}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop; wakes every 5s to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				waitAfterPopError(ctx, id, err)
				continue
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, handlers, result[0], result[1])
		}
	}
}

// popRetryDelay throttles a worker while Redis is failing pops.
var popRetryDelay = time.Second

// waitAfterPopError returns immediately for redis.Nil (the pop timed out on an empty queue)
// and for a cancelled ctx; any other error is logged and followed by popRetryDelay.
func waitAfterPopError(ctx context.Context, id int, err error) {
	if errors.Is(err, redis.Nil) || ctx.Err() != nil {
		return
	}
	log.Warn().Err(err).Int("worker", id).Msg("queue pop failed")
	select {
	case <-ctx.Done():
	case <-time.After(popRetryDelay):
	}
}

func processJob(ctx context.Context, handlers *WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	var p Processor
	switch job.Type {
	case JobReconciliation:
		p = handlers.Reconciliation
	}
	if p == nil {
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("no handler for job type, dropping")
		return
	}

	log.Info().Str("type", job.Type).Str("queue", queue).Msg("processing job")
	p.Process(ctx, job.Payload)
}
