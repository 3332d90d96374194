package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSignal(strategyID string) *models.Signal {
	return models.NewSignal(strategyID, "BTCUSDT", "1h", models.ActionBuy, 0.8, 100)
}

func TestSinkWorkerDeliversOnFirstSuccess(t *testing.T) {
	var mu sync.Mutex
	var delivered []string
	send := func(ctx context.Context, sig *models.Signal) error {
		mu.Lock()
		delivered = append(delivered, sig.StrategyID)
		mu.Unlock()
		return nil
	}

	w := newSinkWorker("test", 4, zerolog.Nop(), send, retryPolicy{attempts: 1, perAttemptTimeout: time.Second})
	w.enqueue(testSignal("s1"))
	w.shutdown(time.Second)

	assert.Equal(t, []string{"s1"}, delivered)
	assert.EqualValues(t, 1, w.metrics.Snapshot().Delivered)
}

func TestSinkWorkerRetriesTransientErrorsThenSucceeds(t *testing.T) {
	var attempts int
	var mu sync.Mutex
	send := func(ctx context.Context, sig *models.Signal) error {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 2 {
			return errors.New("transient failure")
		}
		return nil
	}

	policy := retryPolicy{attempts: 3, backoffs: []time.Duration{time.Millisecond, time.Millisecond}, perAttemptTimeout: time.Second}
	w := newSinkWorker("test", 4, zerolog.Nop(), send, policy)
	w.enqueue(testSignal("s1"))
	w.shutdown(time.Second)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts)
	assert.EqualValues(t, 1, w.metrics.Snapshot().Delivered)
}

func TestSinkWorkerGivesUpAfterExhaustingRetries(t *testing.T) {
	send := func(ctx context.Context, sig *models.Signal) error {
		return errors.New("permanent failure")
	}
	policy := retryPolicy{attempts: 2, backoffs: []time.Duration{time.Millisecond}, perAttemptTimeout: time.Second}
	w := newSinkWorker("test", 4, zerolog.Nop(), send, policy)
	w.enqueue(testSignal("s1"))
	w.shutdown(time.Second)

	assert.EqualValues(t, 1, w.metrics.Snapshot().Failed)
	assert.EqualValues(t, 0, w.metrics.Snapshot().Delivered)
}

func TestSinkWorkerStopsRetryingOnTerminalStatus(t *testing.T) {
	var attempts int
	send := func(ctx context.Context, sig *models.Signal) error {
		attempts++
		return ErrTerminalStatus
	}
	policy := retryPolicy{attempts: 3, backoffs: []time.Duration{time.Millisecond, time.Millisecond}, perAttemptTimeout: time.Second}
	w := newSinkWorker("test", 4, zerolog.Nop(), send, policy)
	w.enqueue(testSignal("s1"))
	w.shutdown(time.Second)

	assert.Equal(t, 1, attempts, "a terminal status must not be retried")
	assert.EqualValues(t, 1, w.metrics.Snapshot().Failed)
}

func TestSinkWorkerDropsOldestOnQueueOverflow(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	var mu sync.Mutex
	var delivered []string
	send := func(ctx context.Context, sig *models.Signal) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		mu.Lock()
		delivered = append(delivered, sig.StrategyID)
		mu.Unlock()
		return nil
	}

	w := newSinkWorker("test", 2, zerolog.Nop(), send, retryPolicy{attempts: 1, perAttemptTimeout: time.Second})
	w.enqueue(testSignal("first")) // picked up by run() immediately, blocks on <-block
	<-started

	// Queue depth is 2; fill it, then overflow it.
	w.enqueue(testSignal("second"))
	w.enqueue(testSignal("third"))
	w.enqueue(testSignal("fourth")) // should drop "second", the oldest still queued

	close(block)
	w.shutdown(time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, delivered, 3)
	assert.Equal(t, "first", delivered[0])
	assert.Contains(t, delivered, "third")
	assert.Contains(t, delivered, "fourth")
	assert.NotContains(t, delivered, "second")
	assert.EqualValues(t, 1, w.metrics.Snapshot().Dropped)
}
