package ports

import (
	"context"

	"github.com/salesforge/platform/internal/domain"
)

// SignalHandler processes one signal delivered by the bus. Handlers run on
// bus worker goroutines; a returned error is logged and counted but does not
// trigger redelivery.
type SignalHandler interface {
	// Name identifies the subscriber in logs and metrics.
	Name() string

	// Handle processes the signal. The context is the bus's run context and
	// is canceled on shutdown.
	Handle(ctx context.Context, sig domain.Signal) error
}

// SignalBus is the in-process pub/sub decoupling CRM writes from scoring,
// sequencing, and workflow triggering.
type SignalBus interface {
	// Publish dispatches the signal to all matching subscribers without
	// blocking the caller. When a subscriber's queue is full the signal is
	// dropped for that subscriber.
	Publish(ctx context.Context, sig domain.Signal)

	// Subscribe registers a handler for the given signal types. An empty
	// type list subscribes to all signals. Must be called before the first
	// Publish.
	Subscribe(handler SignalHandler, types ...string)
}
