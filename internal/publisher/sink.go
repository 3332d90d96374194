package publisher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// deliverFunc performs one delivery attempt for a sink.
type deliverFunc func(ctx context.Context, sig *models.Signal) error

// retryPolicy is attempts plus the backoff before each retry (so
// len(backoffs) == attempts-1) and the deadline given to every individual
// attempt.
type retryPolicy struct {
	attempts          int
	backoffs          []time.Duration
	perAttemptTimeout time.Duration
}

// busRetryPolicy: rely on the NATS client's own reconnect logic, one
// in-process attempt (spec.md §4.6).
func busRetryPolicy() retryPolicy {
	return retryPolicy{attempts: 1, perAttemptTimeout: 5 * time.Second}
}

// httpRetryPolicy: three attempts, 100ms/400ms/1.6s backoff, 5s per
// attempt (spec.md §4.6).
func httpRetryPolicy() retryPolicy {
	return retryPolicy{
		attempts:          3,
		backoffs:          []time.Duration{100 * time.Millisecond, 400 * time.Millisecond, 1600 * time.Millisecond},
		perAttemptTimeout: 5 * time.Second,
	}
}

// auditRetryPolicy: best-effort, one retry, the 2s signal-store write
// deadline spec.md §5 names.
func auditRetryPolicy() retryPolicy {
	return retryPolicy{
		attempts:          2,
		backoffs:          []time.Duration{200 * time.Millisecond},
		perAttemptTimeout: 2 * time.Second,
	}
}

// SinkMetrics are one sink's running delivery counters.
type SinkMetrics struct {
	Delivered int64
	Failed    int64
	Dropped   int64
}

type sinkMetrics struct {
	mu sync.Mutex
	m  SinkMetrics
}

func (s *sinkMetrics) incDelivered() { s.mu.Lock(); s.m.Delivered++; s.mu.Unlock() }
func (s *sinkMetrics) incFailed()    { s.mu.Lock(); s.m.Failed++; s.mu.Unlock() }
func (s *sinkMetrics) incDropped()   { s.mu.Lock(); s.m.Dropped++; s.mu.Unlock() }
func (s *sinkMetrics) Snapshot() SinkMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m
}

// sinkWorker is one of C6's three independent delivery paths: a bounded
// FIFO queue, a drop-oldest overflow policy, and a single goroutine
// applying the sink's retry policy per signal -- generalized from the
// teacher's Hub broadcast channel (one queue, one consumer goroutine,
// select/default enqueue) to a named, independently retried sink.
type sinkWorker struct {
	name    string
	queue   chan *models.Signal
	enqMu   sync.Mutex
	send    deliverFunc
	policy  retryPolicy
	metrics sinkMetrics
	logger  zerolog.Logger
	done    chan struct{}
}

func newSinkWorker(name string, depth int, logger zerolog.Logger, send deliverFunc, policy retryPolicy) *sinkWorker {
	w := &sinkWorker{
		name:   name,
		queue:  make(chan *models.Signal, depth),
		send:   send,
		policy: policy,
		logger: logger.With().Str("sink", name).Logger(),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

// enqueue never blocks: on a full queue it drops the oldest pending
// signal and increments a counter, the overflow policy spec.md §4.6
// specifies.
func (w *sinkWorker) enqueue(sig *models.Signal) {
	w.enqMu.Lock()
	defer w.enqMu.Unlock()

	select {
	case w.queue <- sig:
		return
	default:
	}

	select {
	case <-w.queue:
		w.metrics.incDropped()
	default:
	}

	select {
	case w.queue <- sig:
	default:
		w.metrics.incDropped()
	}
}

func (w *sinkWorker) run() {
	defer close(w.done)
	for sig := range w.queue {
		w.deliver(sig)
	}
}

func (w *sinkWorker) deliver(sig *models.Signal) {
	var lastErr error
	for attempt := 0; attempt < w.policy.attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(w.policy.backoffs[attempt-1])
		}
		ctx, cancel := context.WithTimeout(context.Background(), w.policy.perAttemptTimeout)
		err := w.send(ctx, sig)
		cancel()
		if err == nil {
			w.metrics.incDelivered()
			return
		}
		lastErr = err
		if errors.Is(err, ErrTerminalStatus) {
			break
		}
	}
	w.metrics.incFailed()
	w.logger.Error().Err(lastErr).Str("strategy_id", sig.StrategyID).Str("symbol", sig.Symbol).
		Msg("signal delivery failed, giving up for this sink")
}

// shutdown closes the queue and waits up to softDeadline for the worker
// to drain it.
func (w *sinkWorker) shutdown(softDeadline time.Duration) {
	close(w.queue)
	select {
	case <-w.done:
	case <-time.After(softDeadline):
		w.logger.Warn().Msg("sink shutdown deadline exceeded, remaining queued signals dropped")
	}
}
