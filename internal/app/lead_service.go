package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/contact"
	"github.com/salesforge/platform/internal/domain/lead"
	"github.com/salesforge/platform/internal/ports"
)

// Compile-time check that LeadService implements ports.LeadService.
var _ ports.LeadService = (*LeadService)(nil)

// LeadService implements ports.LeadService. Every successful write publishes
// the corresponding signal on the bus so scoring, sequences, and workflows
// observe the change.
type LeadService struct {
	leads     ports.LeadStore
	contacts  ports.ContactStore
	sequences ports.SequenceStore
	bus       ports.SignalBus
	logger    *slog.Logger
}

// NewLeadService creates a LeadService.
func NewLeadService(
	leads ports.LeadStore,
	contacts ports.ContactStore,
	sequences ports.SequenceStore,
	bus ports.SignalBus,
	logger *slog.Logger,
) *LeadService {
	return &LeadService{
		leads:     leads,
		contacts:  contacts,
		sequences: sequences,
		bus:       bus,
		logger:    logger,
	}
}

// ListLeads returns the org's leads matching the filter.
func (s *LeadService) ListLeads(ctx context.Context, orgID string, filter lead.Filter) ([]lead.Lead, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	leads, err := s.leads.ListLeads(ctx, orgID, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list leads",
			slog.String("operation", "ListLeads"),
			slog.String("org_id", orgID),
			slog.Any("error", err),
		)
		return nil, err
	}
	return leads, nil
}

// GetLead returns a single lead by ID.
func (s *LeadService) GetLead(ctx context.Context, orgID, id string) (*lead.Lead, error) {
	l, err := s.leads.GetLead(ctx, orgID, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch lead",
			slog.String("operation", "GetLead"),
			slog.String("org_id", orgID),
			slog.String("lead_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}
	return l, nil
}

// CreateLead validates and creates a lead, then publishes lead.created.
func (s *LeadService) CreateLead(ctx context.Context, l *lead.Lead) (*lead.Lead, error) {
	if l.Status == "" {
		l.Status = lead.StatusNew
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	l.ID = uuid.NewString()
	l.CreatedAt = now
	l.UpdatedAt = now

	created, err := s.leads.CreateLead(ctx, l)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create lead",
			slog.String("operation", "CreateLead"),
			slog.String("org_id", l.OrgID),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "lead created",
		slog.String("org_id", created.OrgID),
		slog.String("lead_id", created.ID),
	)
	s.bus.Publish(ctx, domain.NewSignal(
		domain.SignalLeadCreated, created.OrgID, domain.SubjectLead, created.ID, created.SignalFields()))
	return created, nil
}

// UpdateLead applies the mutable fields of l to the stored lead and
// publishes lead.updated. Score and conversion status are not updatable
// here; they move through AdjustScore and ConvertLead.
func (s *LeadService) UpdateLead(ctx context.Context, orgID, id string, l *lead.Lead) (*lead.Lead, error) {
	existing, err := s.leads.GetLead(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	existing.Email = l.Email
	existing.FirstName = l.FirstName
	existing.LastName = l.LastName
	existing.Company = l.Company
	existing.Phone = l.Phone
	existing.Source = l.Source
	existing.Attributes = l.Attributes
	if l.Status != "" && existing.Status != lead.StatusConverted {
		existing.Status = l.Status
	}

	if err := existing.Validate(); err != nil {
		return nil, err
	}
	existing.UpdatedAt = time.Now().UTC()

	updated, err := s.leads.UpdateLead(ctx, existing)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update lead",
			slog.String("operation", "UpdateLead"),
			slog.String("org_id", orgID),
			slog.String("lead_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.bus.Publish(ctx, domain.NewSignal(
		domain.SignalLeadUpdated, updated.OrgID, domain.SubjectLead, updated.ID, updated.SignalFields()))
	return updated, nil
}

// DeleteLead removes a lead and exits its active sequence enrollments.
func (s *LeadService) DeleteLead(ctx context.Context, orgID, id string) error {
	if err := s.leads.DeleteLead(ctx, orgID, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete lead",
			slog.String("operation", "DeleteLead"),
			slog.String("org_id", orgID),
			slog.String("lead_id", id),
			slog.Any("error", err),
		)
		return err
	}
	if err := s.sequences.ExitActiveEnrollmentsForLead(ctx, orgID, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to exit enrollments for deleted lead",
			slog.String("operation", "DeleteLead"),
			slog.String("org_id", orgID),
			slog.String("lead_id", id),
			slog.Any("error", err),
		)
	}
	return nil
}

// ConvertLead promotes the lead into a contact, marks the lead converted,
// exits its sequence enrollments, and publishes lead.converted followed by
// contact.created. Returns domain.ErrConflict if already converted.
func (s *LeadService) ConvertLead(ctx context.Context, orgID, id string) (*contact.Contact, error) {
	l, err := s.leads.GetLead(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if l.Status == lead.StatusConverted {
		return nil, fmt.Errorf("lead %s already converted: %w", id, domain.ErrConflict)
	}

	now := time.Now().UTC()
	c := &contact.Contact{
		ID:        uuid.NewString(),
		OrgID:     orgID,
		LeadID:    l.ID,
		Email:     l.Email,
		FirstName: l.FirstName,
		LastName:  l.LastName,
		Company:   l.Company,
		Phone:     l.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.contacts.CreateContact(ctx, c)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create contact from lead",
			slog.String("operation", "ConvertLead"),
			slog.String("org_id", orgID),
			slog.String("lead_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}

	l.Status = lead.StatusConverted
	l.UpdatedAt = now
	if _, err := s.leads.UpdateLead(ctx, l); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark lead converted",
			slog.String("operation", "ConvertLead"),
			slog.String("org_id", orgID),
			slog.String("lead_id", id),
			slog.Any("error", err),
		)
		// Undo the contact create so a retried conversion does not leave
		// an orphaned duplicate.
		if derr := s.contacts.DeleteContact(ctx, orgID, created.ID); derr != nil {
			s.logger.ErrorContext(ctx, "failed to remove contact after conversion failure",
				slog.String("operation", "ConvertLead"),
				slog.String("org_id", orgID),
				slog.String("contact_id", created.ID),
				slog.Any("error", derr),
			)
		}
		return nil, err
	}

	if err := s.sequences.ExitActiveEnrollmentsForLead(ctx, orgID, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to exit enrollments for converted lead",
			slog.String("operation", "ConvertLead"),
			slog.String("org_id", orgID),
			slog.String("lead_id", id),
			slog.Any("error", err),
		)
	}

	s.logger.InfoContext(ctx, "lead converted",
		slog.String("org_id", orgID),
		slog.String("lead_id", id),
		slog.String("contact_id", created.ID),
	)

	fields := l.SignalFields()
	fields["contact_id"] = created.ID
	s.bus.Publish(ctx, domain.NewSignal(
		domain.SignalLeadConverted, orgID, domain.SubjectLead, l.ID, fields))
	s.bus.Publish(ctx, domain.NewSignal(
		domain.SignalContactCreated, orgID, domain.SubjectContact, created.ID, map[string]string{
			"email":      created.Email,
			"first_name": created.FirstName,
			"last_name":  created.LastName,
			"company":    created.Company,
			"lead_id":    created.LeadID,
		}))
	return created, nil
}

// AdjustScore applies a delta to the lead's score and publishes
// lead.score_changed when the score actually moved.
func (s *LeadService) AdjustScore(ctx context.Context, orgID, id string, delta int) (*lead.Lead, error) {
	before, err := s.leads.GetLead(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	l, err := s.leads.AdjustScore(ctx, orgID, id, delta)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to adjust lead score",
			slog.String("operation", "AdjustScore"),
			slog.String("org_id", orgID),
			slog.String("lead_id", id),
			slog.Int("delta", delta),
			slog.Any("error", err),
		)
		return nil, err
	}

	if l.Score != before.Score {
		fields := l.SignalFields()
		fields["from"] = fmt.Sprintf("%d", before.Score)
		fields["to"] = fmt.Sprintf("%d", l.Score)
		fields["delta"] = fmt.Sprintf("%d", delta)
		s.bus.Publish(ctx, domain.NewSignal(
			domain.SignalLeadScoreChanged, orgID, domain.SubjectLead, l.ID, fields))
	}
	return l, nil
}
