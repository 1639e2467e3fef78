package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/contact"
	"github.com/salesforge/platform/internal/ports"
)

// Compile-time check that ContactService implements ports.ContactService.
var _ ports.ContactService = (*ContactService)(nil)

// ContactService implements ports.ContactService.
type ContactService struct {
	contacts ports.ContactStore
	bus      ports.SignalBus
	logger   *slog.Logger
}

// NewContactService creates a ContactService.
func NewContactService(contacts ports.ContactStore, bus ports.SignalBus, logger *slog.Logger) *ContactService {
	return &ContactService{
		contacts: contacts,
		bus:      bus,
		logger:   logger,
	}
}

// ListContacts returns the org's contacts matching the filter.
func (s *ContactService) ListContacts(ctx context.Context, orgID string, filter contact.Filter) ([]contact.Contact, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	contacts, err := s.contacts.ListContacts(ctx, orgID, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list contacts",
			slog.String("operation", "ListContacts"),
			slog.String("org_id", orgID),
			slog.Any("error", err),
		)
		return nil, err
	}
	return contacts, nil
}

// GetContact returns a single contact by ID.
func (s *ContactService) GetContact(ctx context.Context, orgID, id string) (*contact.Contact, error) {
	c, err := s.contacts.GetContact(ctx, orgID, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch contact",
			slog.String("operation", "GetContact"),
			slog.String("org_id", orgID),
			slog.String("contact_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}
	return c, nil
}

// CreateContact validates and creates a contact, then publishes
// contact.created.
func (s *ContactService) CreateContact(ctx context.Context, c *contact.Contact) (*contact.Contact, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now

	created, err := s.contacts.CreateContact(ctx, c)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create contact",
			slog.String("operation", "CreateContact"),
			slog.String("org_id", c.OrgID),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.bus.Publish(ctx, domain.NewSignal(
		domain.SignalContactCreated, created.OrgID, domain.SubjectContact, created.ID, map[string]string{
			"email":      created.Email,
			"first_name": created.FirstName,
			"last_name":  created.LastName,
			"company":    created.Company,
			"lead_id":    created.LeadID,
		}))
	return created, nil
}

// UpdateContact validates and updates a contact's mutable fields.
func (s *ContactService) UpdateContact(ctx context.Context, orgID, id string, c *contact.Contact) (*contact.Contact, error) {
	existing, err := s.contacts.GetContact(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	existing.Email = c.Email
	existing.FirstName = c.FirstName
	existing.LastName = c.LastName
	existing.Company = c.Company
	existing.Phone = c.Phone

	if err := existing.Validate(); err != nil {
		return nil, err
	}
	existing.UpdatedAt = time.Now().UTC()

	updated, err := s.contacts.UpdateContact(ctx, existing)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update contact",
			slog.String("operation", "UpdateContact"),
			slog.String("org_id", orgID),
			slog.String("contact_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}
	return updated, nil
}

// DeleteContact removes a contact.
func (s *ContactService) DeleteContact(ctx context.Context, orgID, id string) error {
	if err := s.contacts.DeleteContact(ctx, orgID, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete contact",
			slog.String("operation", "DeleteContact"),
			slog.String("org_id", orgID),
			slog.String("contact_id", id),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
