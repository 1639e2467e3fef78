package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/deal"
	"github.com/salesforge/platform/internal/ports"
)

// Compile-time check that DealService implements ports.DealService.
var _ ports.DealService = (*DealService)(nil)

// DealService implements ports.DealService. Stage transitions publish
// deal.stage_changed with from/to fields so pipeline workflows can react to
// specific movements (e.g. anything entering "won").
type DealService struct {
	deals  ports.DealStore
	bus    ports.SignalBus
	logger *slog.Logger
}

// NewDealService creates a DealService.
func NewDealService(deals ports.DealStore, bus ports.SignalBus, logger *slog.Logger) *DealService {
	return &DealService{
		deals:  deals,
		bus:    bus,
		logger: logger,
	}
}

// ListDeals returns the org's deals matching the filter.
func (s *DealService) ListDeals(ctx context.Context, orgID string, filter deal.Filter) ([]deal.Deal, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	deals, err := s.deals.ListDeals(ctx, orgID, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list deals",
			slog.String("operation", "ListDeals"),
			slog.String("org_id", orgID),
			slog.Any("error", err),
		)
		return nil, err
	}
	return deals, nil
}

// GetDeal returns a single deal by ID.
func (s *DealService) GetDeal(ctx context.Context, orgID, id string) (*deal.Deal, error) {
	d, err := s.deals.GetDeal(ctx, orgID, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch deal",
			slog.String("operation", "GetDeal"),
			slog.String("org_id", orgID),
			slog.String("deal_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}
	return d, nil
}

// CreateDeal validates and creates a deal, then publishes deal.created.
func (s *DealService) CreateDeal(ctx context.Context, d *deal.Deal) (*deal.Deal, error) {
	if d.Stage == "" {
		d.Stage = deal.StageProspect
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	d.ID = uuid.NewString()
	d.CreatedAt = now
	d.UpdatedAt = now

	created, err := s.deals.CreateDeal(ctx, d)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create deal",
			slog.String("operation", "CreateDeal"),
			slog.String("org_id", d.OrgID),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "deal created",
		slog.String("org_id", created.OrgID),
		slog.String("deal_id", created.ID),
	)
	s.bus.Publish(ctx, domain.NewSignal(
		domain.SignalDealCreated, created.OrgID, domain.SubjectDeal, created.ID, created.SignalFields()))
	return created, nil
}

// UpdateDeal validates and updates a deal. A stage change additionally
// publishes deal.stage_changed carrying the from/to stages.
func (s *DealService) UpdateDeal(ctx context.Context, orgID, id string, d *deal.Deal) (*deal.Deal, error) {
	existing, err := s.deals.GetDeal(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	fromStage := existing.Stage

	existing.ContactID = d.ContactID
	existing.Name = d.Name
	existing.AmountCents = d.AmountCents
	existing.Currency = d.Currency
	existing.CloseDate = d.CloseDate
	if d.Stage != "" {
		existing.Stage = d.Stage
	}

	if err := existing.Validate(); err != nil {
		return nil, err
	}
	existing.UpdatedAt = time.Now().UTC()

	updated, err := s.deals.UpdateDeal(ctx, existing)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update deal",
			slog.String("operation", "UpdateDeal"),
			slog.String("org_id", orgID),
			slog.String("deal_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}

	if updated.Stage != fromStage {
		s.logger.InfoContext(ctx, "deal stage changed",
			slog.String("org_id", orgID),
			slog.String("deal_id", id),
			slog.String("from", fromStage.String()),
			slog.String("to", updated.Stage.String()),
		)
		fields := updated.SignalFields()
		fields["from"] = fromStage.String()
		fields["to"] = updated.Stage.String()
		s.bus.Publish(ctx, domain.NewSignal(
			domain.SignalDealStageChanged, orgID, domain.SubjectDeal, updated.ID, fields))
	}
	return updated, nil
}

// DeleteDeal removes a deal.
func (s *DealService) DeleteDeal(ctx context.Context, orgID, id string) error {
	if err := s.deals.DeleteDeal(ctx, orgID, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete deal",
			slog.String("operation", "DeleteDeal"),
			slog.String("org_id", orgID),
			slog.String("deal_id", id),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
