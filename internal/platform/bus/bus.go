// Package bus provides the in-process signal bus that decouples CRM writes
// from scoring, sequencing, and workflow triggering. Each subscriber owns a
// bounded queue drained by a fixed pool of worker goroutines; publishing
// never blocks the caller.
package bus

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/platform/config"
	"github.com/salesforge/platform/internal/platform/telemetry"
	"github.com/salesforge/platform/internal/ports"
)

// Compile-time check that Bus implements ports.SignalBus.
var _ ports.SignalBus = (*Bus)(nil)

// subscription couples a handler with its type filter and bounded queue.
type subscription struct {
	handler ports.SignalHandler
	types   map[string]bool // empty means all types
	queue   chan domain.Signal
}

func (s *subscription) wants(sigType string) bool {
	return len(s.types) == 0 || s.types[sigType]
}

// Bus is the in-process signal dispatcher. Subscribe before calling Start;
// Publish after Start. Close drains the queues and stops the workers.
type Bus struct {
	cfg     config.BusConfig
	logger  *slog.Logger
	metrics *telemetry.Metrics

	mu      sync.RWMutex
	subs    []*subscription
	started bool
	closed  bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Bus. If metrics is nil, metric recording is skipped.
func New(cfg config.BusConfig, metrics *telemetry.Metrics, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Subscribe registers a handler for the given signal types. An empty type
// list subscribes to all signals. Panics if called after Start; the
// subscriber set is fixed once dispatch begins.
func (b *Bus) Subscribe(handler ports.SignalHandler, types ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		panic("bus: Subscribe called after Start")
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	b.subs = append(b.subs, &subscription{
		handler: handler,
		types:   typeSet,
		queue:   make(chan domain.Signal, b.cfg.QueueSize),
	})
}

// Start launches the worker pools. Each subscriber gets cfg.Workers drain
// goroutines so one slow handler cannot starve the others.
func (b *Bus) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return
	}
	b.started = true

	for _, sub := range b.subs {
		for range b.cfg.Workers {
			b.wg.Add(1)
			go b.drain(sub)
		}
	}

	names := make([]string, 0, len(b.subs))
	for _, sub := range b.subs {
		names = append(names, sub.handler.Name())
	}
	b.logger.Info("signal bus started",
		slog.Int("subscribers", len(b.subs)),
		slog.String("names", strings.Join(names, ",")),
	)
}

// Publish dispatches the signal to all matching subscribers. When a
// subscriber's queue is full the signal is dropped for that subscriber with
// a warning log and a dropped-signal metric; other subscribers are
// unaffected.
func (b *Bus) Publish(ctx context.Context, sig domain.Signal) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	if b.metrics != nil {
		b.metrics.SignalsPublished.Add(ctx, 1,
			metric.WithAttributes(telemetry.AttrSignalType.String(sig.Type)))
	}

	for _, sub := range b.subs {
		if !sub.wants(sig.Type) {
			continue
		}

		select {
		case sub.queue <- sig:
		default:
			b.logger.WarnContext(ctx, "subscriber queue full, dropping signal",
				slog.String("subscriber", sub.handler.Name()),
				slog.String("signal_type", sig.Type),
				slog.String("signal_id", sig.ID),
			)
			if b.metrics != nil {
				b.metrics.SignalsDropped.Add(ctx, 1, metric.WithAttributes(
					telemetry.AttrSignalType.String(sig.Type),
					telemetry.AttrSubscriber.String(sub.handler.Name()),
				))
			}
		}
	}
}

// Close stops accepting new signals, then waits until every signal already
// accepted into a subscriber queue has been handled. Safe to call more than
// once.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.queue)
	}
	b.mu.Unlock()

	b.wg.Wait()
	b.cancel()
	b.logger.Info("signal bus stopped")
}

// drain is the worker loop for one subscriber queue. It exits once Close has
// closed the queue and every buffered signal has been handled.
func (b *Bus) drain(sub *subscription) {
	defer b.wg.Done()

	for sig := range sub.queue {
		if err := sub.handler.Handle(b.ctx, sig); err != nil {
			b.logger.Error("signal handler failed",
				slog.String("subscriber", sub.handler.Name()),
				slog.String("signal_type", sig.Type),
				slog.String("signal_id", sig.ID),
				slog.Any("error", err),
			)
		}
	}
}
