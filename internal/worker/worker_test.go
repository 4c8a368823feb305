package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"hotelbilling/internal/dto"
	"hotelbilling/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSweep = errors.New("database unavailable")

type stubReconciler struct {
	mu       sync.Mutex
	calls    int
	failures int // first N calls fail
}

func (s *stubReconciler) RepairInvoices(context.Context) (*dto.RepairResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return nil, errSweep
	}
	return &dto.RepairResponse{Message: "Verification complete"}, nil
}

func (s *stubReconciler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubEnqueuer struct {
	triggers []string
	err      error
}

func (s *stubEnqueuer) EnqueueReconciliation(_ context.Context, trigger string) error {
	if s.err != nil {
		return s.err
	}
	s.triggers = append(s.triggers, trigger)
	return nil
}

func newTestWorker(svc *stubReconciler, cb *infra.CircuitBreaker, attempts int) *ReconciliationWorker {
	w := NewReconciliationWorker(svc, cb, nil, attempts)
	w.baseBackoff = time.Millisecond
	return w
}

func payload(t *testing.T) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(ReconciliationJobPayload{Trigger: "manual"})
	require.NoError(t, err)
	return raw
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func(attempt int) error {
		calls++
		if attempt < 3 {
			return errSweep
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, time.Millisecond, func(int) error {
		calls++
		return errSweep
	})
	assert.ErrorIs(t, err, errSweep)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_StopsOnOpenCircuit(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 5, time.Millisecond, func(int) error {
		calls++
		return infra.ErrCircuitOpen
	})
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, 3, time.Hour, func(int) error { return errSweep })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReconciliationWorker_RetriesUntilSuccess(t *testing.T) {
	svc := &stubReconciler{failures: 1}
	w := newTestWorker(svc, nil, 3)

	w.Process(context.Background(), payload(t))

	assert.Equal(t, 2, svc.count())
}

func TestReconciliationWorker_ExhaustsAttempts(t *testing.T) {
	svc := &stubReconciler{failures: 10}
	w := newTestWorker(svc, nil, 3)

	w.Process(context.Background(), payload(t))

	assert.Equal(t, 3, svc.count())
}

func TestReconciliationWorker_SkipsWhenBreakerOpen(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{Name: "test", FailureThreshold: 1, OpenTimeout: time.Hour})
	_ = cb.Execute(context.Background(), func(context.Context) error { return errSweep })
	require.Equal(t, infra.CBOpen, cb.State())

	svc := &stubReconciler{}
	w := newTestWorker(svc, cb, 3)
	w.Process(context.Background(), payload(t))

	assert.Zero(t, svc.count())
}

func TestReconciliationWorker_BreakerTripsMidRetry(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{Name: "test", FailureThreshold: 2, OpenTimeout: time.Hour})
	svc := &stubReconciler{failures: 10}
	w := newTestWorker(svc, cb, 5)

	w.Process(context.Background(), payload(t))

	assert.Equal(t, 2, svc.count())
	assert.Equal(t, infra.CBOpen, cb.State())
}

func TestReconciliationWorker_InvalidPayload(t *testing.T) {
	svc := &stubReconciler{}
	w := newTestWorker(svc, nil, 3)

	w.Process(context.Background(), json.RawMessage(`{not json`))

	assert.Zero(t, svc.count())
}

func TestProcessJob_RoutesByType(t *testing.T) {
	svc := &stubReconciler{}
	handlers := &WorkerHandlers{Reconciliation: newTestWorker(svc, nil, 1)}

	raw, err := json.Marshal(Job{Type: JobReconciliation, Payload: payload(t)})
	require.NoError(t, err)
	processJob(context.Background(), handlers, QueueReconciliation, string(raw))
	assert.Equal(t, 1, svc.count())

	processJob(context.Background(), handlers, QueueReconciliation, `{"type":"unknown","payload":{}}`)
	processJob(context.Background(), handlers, QueueReconciliation, `garbage`)
	assert.Equal(t, 1, svc.count())
}

func TestWaitAfterPopError(t *testing.T) {
	orig := popRetryDelay
	popRetryDelay = 50 * time.Millisecond
	t.Cleanup(func() { popRetryDelay = orig })

	start := time.Now()
	waitAfterPopError(context.Background(), 1, redis.Nil)
	assert.Less(t, time.Since(start), popRetryDelay)

	start = time.Now()
	waitAfterPopError(context.Background(), 1, errors.New("connection refused"))
	assert.GreaterOrEqual(t, time.Since(start), popRetryDelay)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start = time.Now()
	waitAfterPopError(ctx, 1, context.Canceled)
	assert.Less(t, time.Since(start), popRetryDelay)
}

func TestReconcileTick_EnqueuesWithoutLock(t *testing.T) {
	q := &stubEnqueuer{}
	ok := reconcileTick(context.Background(), ReconcileCronConfig{Interval: time.Hour, Queue: q})

	assert.True(t, ok)
	assert.Equal(t, []string{"cron"}, q.triggers)
}

func TestReconcileTick_SkipsWhenBreakerOpen(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour})
	_ = cb.Execute(context.Background(), func(context.Context) error { return errSweep })

	q := &stubEnqueuer{}
	ok := reconcileTick(context.Background(), ReconcileCronConfig{Interval: time.Hour, Queue: q, CB: cb})

	assert.False(t, ok)
	assert.Empty(t, q.triggers)
}

func TestReconcileTick_EnqueueFailure(t *testing.T) {
	q := &stubEnqueuer{err: errors.New("redis down")}
	assert.False(t, reconcileTick(context.Background(), ReconcileCronConfig{Interval: time.Hour, Queue: q}))
}
