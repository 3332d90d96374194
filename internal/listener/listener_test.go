package listener

import (
	"sync"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

type fakeEngine struct {
	mu       sync.Mutex
	received []*models.InboundMessage
}

func (f *fakeEngine) Submit(msg *models.InboundMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, msg)
}

func TestListenerHandleDispatchesValidMessage(t *testing.T) {
	fe := &fakeEngine{}
	l := New(nil, "candles.>", "ta-signal-bot", fe, zerolog.Nop())

	l.handle(&nats.Msg{Data: []byte(`{"symbol":"BTCUSDT","timeframe":"1h","close_time":"2026-01-01T00:00:00Z"}`)})

	fe.mu.Lock()
	defer fe.mu.Unlock()
	require.Len(t, fe.received, 1)
	assert.Equal(t, "BTCUSDT", fe.received[0].Symbol)
	assert.EqualValues(t, 1, l.Metrics().Received)
	assert.EqualValues(t, 1, l.Metrics().Dispatched)
	assert.EqualValues(t, 0, l.Metrics().DecodeErrors)
}

func TestListenerHandleDropsUndecodableMessage(t *testing.T) {
	fe := &fakeEngine{}
	l := New(nil, "candles.>", "ta-signal-bot", fe, zerolog.Nop())

	l.handle(&nats.Msg{Data: []byte(`not json`)})

	fe.mu.Lock()
	defer fe.mu.Unlock()
	assert.Len(t, fe.received, 0)
	assert.EqualValues(t, 1, l.Metrics().DecodeErrors)
}

func TestListenerHandleDropsMessageFailingMinimalValidation(t *testing.T) {
	fe := &fakeEngine{}
	l := New(nil, "candles.>", "ta-signal-bot", fe, zerolog.Nop())

	l.handle(&nats.Msg{Data: []byte(`{"symbol":"","timeframe":"1h"}`)})

	fe.mu.Lock()
	defer fe.mu.Unlock()
	assert.Len(t, fe.received, 0)
	assert.EqualValues(t, 1, l.Metrics().DecodeErrors)
}
