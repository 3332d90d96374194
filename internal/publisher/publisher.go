// Package publisher implements C6: delivering every surviving Signal to
// the pub/sub bus, the downstream HTTP execution service, and the signal
// audit store. Grounded on the teacher's internal/stream Hub -- a central
// dispatcher with one bounded channel per concern and a dedicated
// goroutine consuming it -- generalized from client fan-out to the three
// independent sinks spec.md §4.6 names, and from "drop newest on overflow"
// to the spec's "drop oldest on overflow" policy.
package publisher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// DefaultQueueDepth is the bounded queue size for every sink absent an
// override.
const DefaultQueueDepth = 1000

// Bus is the pub/sub publish surface C1 also depends on for subscribing;
// *nats.Conn satisfies this directly.
type Bus interface {
	Publish(subject string, data []byte) error
}

// HTTPPoster posts a signal's JSON body to the execution service. Kept
// narrow so tests can fake it without standing up a real HTTP server.
type HTTPPoster interface {
	Post(ctx context.Context, body []byte) error
}

// SignalStore appends a Signal to the audit trail.
type SignalStore interface {
	AppendSignal(ctx context.Context, sig *models.Signal) error
}

// Publisher fans each Signal out to its three sinks. Publish is
// non-blocking and fire-and-forget from the Engine's perspective: it
// enqueues onto each sink's own bounded channel and returns.
type Publisher struct {
	bus    *sinkWorker
	http   *sinkWorker
	audit  *sinkWorker
	logger zerolog.Logger
}

// Config configures sink queue depths; zero values fall back to
// DefaultQueueDepth.
type Config struct {
	BusSubject string
	QueueDepth int
}

// New wires a Publisher over the three sinks. Any of busClient,
// httpPoster, or signalStore may be nil to disable that sink (useful in
// tests and in degraded-mode boot).
func New(cfg Config, busClient Bus, httpPoster HTTPPoster, signalStore SignalStore, logger zerolog.Logger) *Publisher {
	logger = logger.With().Str("component", "signal_publisher").Logger()
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	subject := cfg.BusSubject
	if subject == "" {
		subject = "signals"
	}

	p := &Publisher{logger: logger}

	if busClient != nil {
		p.bus = newSinkWorker("bus", depth, logger, func(ctx context.Context, sig *models.Signal) error {
			return publishToBus(busClient, subject, sig)
		}, busRetryPolicy())
	}
	if httpPoster != nil {
		p.http = newSinkWorker("http", depth, logger, func(ctx context.Context, sig *models.Signal) error {
			body, err := json.Marshal(sig)
			if err != nil {
				return err
			}
			return httpPoster.Post(ctx, body)
		}, httpRetryPolicy())
	}
	if signalStore != nil {
		p.audit = newSinkWorker("audit", depth, logger, func(ctx context.Context, sig *models.Signal) error {
			return signalStore.AppendSignal(ctx, sig)
		}, auditRetryPolicy())
	}

	return p
}

// Publish hands sig to every enabled sink. It never blocks on delivery and
// never returns an error: failures are the sink worker's concern, logged
// and counted there, never propagated to the Engine (spec.md §4.6).
func (p *Publisher) Publish(sig *models.Signal) {
	if p.bus != nil {
		p.bus.enqueue(sig)
	}
	if p.http != nil {
		p.http.enqueue(sig)
	}
	if p.audit != nil {
		p.audit.enqueue(sig)
	}
}

// Metrics aggregates the running counters across all enabled sinks.
func (p *Publisher) Metrics() map[string]SinkMetrics {
	out := make(map[string]SinkMetrics, 3)
	for _, w := range []*sinkWorker{p.bus, p.http, p.audit} {
		if w != nil {
			out[w.name] = w.metrics.Snapshot()
		}
	}
	return out
}

// Shutdown stops every sink worker, giving in-flight and queued
// deliveries up to softDeadline to drain.
func (p *Publisher) Shutdown(softDeadline time.Duration) {
	var wg sync.WaitGroup
	for _, w := range []*sinkWorker{p.bus, p.http, p.audit} {
		if w == nil {
			continue
		}
		wg.Add(1)
		go func(w *sinkWorker) {
			defer wg.Done()
			w.shutdown(softDeadline)
		}(w)
	}
	wg.Wait()
}

func publishToBus(bus Bus, subject string, sig *models.Signal) error {
	body, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	return bus.Publish(subject+"."+sig.StrategyID, body)
}
