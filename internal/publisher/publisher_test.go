package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	mu       sync.Mutex
	subjects []string
}

func (b *fakeBus) Publish(subject string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subjects = append(b.subjects, subject)
	return nil
}

type fakeHTTPPoster struct {
	mu    sync.Mutex
	calls int
}

func (p *fakeHTTPPoster) Post(ctx context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return nil
}

type fakeSignalStore struct {
	mu      sync.Mutex
	signals []*models.Signal
}

func (s *fakeSignalStore) AppendSignal(ctx context.Context, sig *models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, sig)
	return nil
}

func TestPublisherFansOutToEveryEnabledSink(t *testing.T) {
	bus := &fakeBus{}
	http := &fakeHTTPPoster{}
	audit := &fakeSignalStore{}

	p := New(Config{}, bus, http, audit, zerolog.Nop())
	sig := models.NewSignal("momentum_pulse", "BTCUSDT", "1h", models.ActionBuy, 0.8, 100)
	p.Publish(sig)
	p.Shutdown(time.Second)

	bus.mu.Lock()
	require.Len(t, bus.subjects, 1)
	assert.Equal(t, "signals.momentum_pulse", bus.subjects[0])
	bus.mu.Unlock()

	http.mu.Lock()
	assert.Equal(t, 1, http.calls)
	http.mu.Unlock()

	audit.mu.Lock()
	require.Len(t, audit.signals, 1)
	assert.Equal(t, "momentum_pulse", audit.signals[0].StrategyID)
	audit.mu.Unlock()

	metrics := p.Metrics()
	assert.EqualValues(t, 1, metrics["bus"].Delivered)
	assert.EqualValues(t, 1, metrics["http"].Delivered)
	assert.EqualValues(t, 1, metrics["audit"].Delivered)
}

func TestPublisherSkipsDisabledSinks(t *testing.T) {
	bus := &fakeBus{}
	p := New(Config{}, bus, nil, nil, zerolog.Nop())
	p.Publish(models.NewSignal("s1", "BTCUSDT", "1h", models.ActionBuy, 0.8, 100))
	p.Shutdown(time.Second)

	bus.mu.Lock()
	defer bus.mu.Unlock()
	require.Len(t, bus.subjects, 1)

	metrics := p.Metrics()
	_, hasHTTP := metrics["http"]
	_, hasAudit := metrics["audit"]
	assert.False(t, hasHTTP)
	assert.False(t, hasAudit)
}
