package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/ports"
)

// Compile-time check that SignalService implements ports.SignalService.
var _ ports.SignalService = (*SignalService)(nil)

// SignalService implements ports.SignalService: the ingestion point for
// engagement signals from external systems (email provider webhooks, form
// backends). Only whitelisted types are accepted; internal types like
// lead.created cannot be injected from outside.
type SignalService struct {
	bus    ports.SignalBus
	logger *slog.Logger
}

// NewSignalService creates a SignalService.
func NewSignalService(bus ports.SignalBus, logger *slog.Logger) *SignalService {
	return &SignalService{
		bus:    bus,
		logger: logger,
	}
}

// Ingest validates the signal and publishes it on the bus. The caller's
// org identity must already be stamped on the signal.
func (s *SignalService) Ingest(ctx context.Context, sig domain.Signal) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	if !domain.IngestableSignalTypes[sig.Type] {
		return &domain.ValidationError{Fields: map[string]string{
			"type": fmt.Sprintf("%q is not an ingestable signal type", sig.Type),
		}}
	}

	s.logger.InfoContext(ctx, "signal ingested",
		slog.String("org_id", sig.OrgID),
		slog.String("signal_type", sig.Type),
		slog.String("signal_id", sig.ID),
	)
	s.bus.Publish(ctx, sig)
	return nil
}
