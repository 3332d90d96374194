// Package listener implements C1: a durable NATS subscription to candle
// update events, minimal decode/validate, and hand-off to the Signal
// Engine. Grounded on the teacher's alpaca.StreamClient reconnect-loop
// shape (exponential backoff, resubscribe, never block downstream on a
// slow consumer) but retargeted from a hand-rolled WebSocket read loop to
// nats.go's connection, which already owns the dial/redial state machine;
// this package supplies the backoff curve, queue-group subscription and
// decode/validate/dispatch pipeline around it.
package listener

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// MaxReconnectBackoff caps the exponential reconnect delay spec.md §4.1
// specifies ("reconnect with exponential backoff capped at ~30s").
const MaxReconnectBackoff = 30 * time.Second

// EngineSubmitter is the subset of the Signal Engine the listener depends
// on: hand a decoded message to the engine's own sharded queue and return
// immediately.
type EngineSubmitter interface {
	Submit(msg *models.InboundMessage)
}

// Connect dials NATS with infinite reconnect attempts and an exponential
// backoff curve capped at MaxReconnectBackoff, logging each transition the
// way the teacher's attemptReconnect/connect pair does.
func Connect(url string, reconnectWaitBase time.Duration, logger zerolog.Logger) (*nats.Conn, error) {
	logger = logger.With().Str("component", "nats_connection").Logger()

	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(reconnectWaitBase),
		nats.CustomReconnectDelay(func(attempts int) time.Duration {
			delay := reconnectWaitBase
			for i := 0; i < attempts && delay < MaxReconnectBackoff; i++ {
				delay *= 2
			}
			if delay > MaxReconnectBackoff {
				delay = MaxReconnectBackoff
			}
			return delay
		}),
		nats.DisconnectErrHandler(func(c *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("nats connection lost, reconnecting with backoff")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("nats connection restored")
		}),
		nats.ClosedHandler(func(c *nats.Conn) {
			logger.Error().Msg("nats connection permanently closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Metrics are the listener's running counters.
type Metrics struct {
	Received    int64
	DecodeErrors int64
	Dispatched  int64
}

// Listener subscribes to a candle-update subject under a queue group --
// replicas of this process share the group so each message is delivered
// to exactly one replica, spreading load -- and forwards every decoded
// message to the Signal Engine.
type Listener struct {
	conn       *nats.Conn
	sub        *nats.Subscription
	subject    string
	queueGroup string
	engine     EngineSubmitter
	logger     zerolog.Logger
	metrics    Metrics
}

// New builds a Listener. Call Start to begin the subscription.
func New(conn *nats.Conn, subject, queueGroup string, engine EngineSubmitter, logger zerolog.Logger) *Listener {
	return &Listener{
		conn:       conn,
		subject:    subject,
		queueGroup: queueGroup,
		engine:     engine,
		logger:     logger.With().Str("component", "message_listener").Logger(),
	}
}

// Start subscribes to the configured subject. Each message is handled
// inline on NATS's own delivery goroutine; handling is just decode,
// validate, and Engine.Submit, none of which block on I/O, so this never
// back-pressures the connection (spec.md §4.1: "the listener never blocks
// on the engine").
func (l *Listener) Start() error {
	sub, err := l.conn.QueueSubscribe(l.subject, l.queueGroup, l.handle)
	if err != nil {
		return err
	}
	l.sub = sub
	l.logger.Info().Str("subject", l.subject).Str("queue_group", l.queueGroup).
		Msg("message listener subscribed")
	return nil
}

// Stop unsubscribes. It does not close the underlying connection, which
// may be shared with the Publisher's bus sink.
func (l *Listener) Stop() error {
	if l.sub == nil {
		return nil
	}
	return l.sub.Unsubscribe()
}

// Metrics returns a snapshot of the listener's running counters.
func (l *Listener) Metrics() Metrics {
	return Metrics{
		Received:     atomic.LoadInt64(&l.metrics.Received),
		DecodeErrors: atomic.LoadInt64(&l.metrics.DecodeErrors),
		Dispatched:   atomic.LoadInt64(&l.metrics.Dispatched),
	}
}

func (l *Listener) handle(msg *nats.Msg) {
	atomic.AddInt64(&l.metrics.Received, 1)

	var decoded models.InboundMessage
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		atomic.AddInt64(&l.metrics.DecodeErrors, 1)
		l.logger.Warn().Err(err).Msg("candle update decode failed, dropping (no retry: upstream replays)")
		return
	}
	if err := decoded.Validate(); err != nil {
		atomic.AddInt64(&l.metrics.DecodeErrors, 1)
		l.logger.Warn().Err(err).Str("symbol", decoded.Symbol).Str("timeframe", decoded.Timeframe).
			Msg("candle update failed minimal validation, dropping")
		return
	}

	l.engine.Submit(&decoded)
	atomic.AddInt64(&l.metrics.Dispatched, 1)
}
