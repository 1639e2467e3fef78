package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/lead"
	"github.com/salesforge/platform/internal/domain/sequence"
	"github.com/salesforge/platform/internal/ports"
)

// Compile-time check that SequenceService implements ports.SequenceService.
var _ ports.SequenceService = (*SequenceService)(nil)

// SequenceService implements ports.SequenceService: CRUD over sequences and
// the enrollment lifecycle. Step sending is driven by the engine's scheduler,
// not by this service.
type SequenceService struct {
	sequences ports.SequenceStore
	leads     ports.LeadStore
	logger    *slog.Logger
}

// NewSequenceService creates a SequenceService.
func NewSequenceService(sequences ports.SequenceStore, leads ports.LeadStore, logger *slog.Logger) *SequenceService {
	return &SequenceService{
		sequences: sequences,
		leads:     leads,
		logger:    logger,
	}
}

// ListSequences returns the org's sequences.
func (s *SequenceService) ListSequences(ctx context.Context, orgID string, limit, offset int) ([]sequence.Sequence, error) {
	limit, offset = clampPage(limit, offset)

	sequences, err := s.sequences.ListSequences(ctx, orgID, limit, offset)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list sequences",
			slog.String("operation", "ListSequences"),
			slog.String("org_id", orgID),
			slog.Any("error", err),
		)
		return nil, err
	}
	return sequences, nil
}

// GetSequence returns a single sequence by ID.
func (s *SequenceService) GetSequence(ctx context.Context, orgID, id string) (*sequence.Sequence, error) {
	seq, err := s.sequences.GetSequence(ctx, orgID, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch sequence",
			slog.String("operation", "GetSequence"),
			slog.String("org_id", orgID),
			slog.String("sequence_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}
	return seq, nil
}

// CreateSequence validates and creates a sequence.
func (s *SequenceService) CreateSequence(ctx context.Context, seq *sequence.Sequence) (*sequence.Sequence, error) {
	if err := seq.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	seq.ID = uuid.NewString()
	seq.CreatedAt = now
	seq.UpdatedAt = now

	created, err := s.sequences.CreateSequence(ctx, seq)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create sequence",
			slog.String("operation", "CreateSequence"),
			slog.String("org_id", seq.OrgID),
			slog.Any("error", err),
		)
		return nil, err
	}
	return created, nil
}

// UpdateSequence validates and replaces a sequence's steps and name. Active
// enrollments pick up the new steps from their current position.
func (s *SequenceService) UpdateSequence(ctx context.Context, orgID, id string, seq *sequence.Sequence) (*sequence.Sequence, error) {
	existing, err := s.sequences.GetSequence(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	existing.Name = seq.Name
	existing.Steps = seq.Steps

	if err := existing.Validate(); err != nil {
		return nil, err
	}
	existing.UpdatedAt = time.Now().UTC()

	updated, err := s.sequences.UpdateSequence(ctx, existing)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update sequence",
			slog.String("operation", "UpdateSequence"),
			slog.String("org_id", orgID),
			slog.String("sequence_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}
	return updated, nil
}

// DeleteSequence removes a sequence.
func (s *SequenceService) DeleteSequence(ctx context.Context, orgID, id string) error {
	if err := s.sequences.DeleteSequence(ctx, orgID, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete sequence",
			slog.String("operation", "DeleteSequence"),
			slog.String("org_id", orgID),
			slog.String("sequence_id", id),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// Enroll starts the lead on the sequence with the first step scheduled at
// now + the step's delay. Converted leads cannot be enrolled; a lead with
// an active enrollment in the same sequence returns domain.ErrConflict.
func (s *SequenceService) Enroll(ctx context.Context, orgID, sequenceID, leadID string) (*sequence.Enrollment, error) {
	seq, err := s.sequences.GetSequence(ctx, orgID, sequenceID)
	if err != nil {
		return nil, err
	}
	l, err := s.leads.GetLead(ctx, orgID, leadID)
	if err != nil {
		return nil, err
	}
	if l.Status == lead.StatusConverted {
		return nil, fmt.Errorf("lead %s is converted: %w", leadID, domain.ErrConflict)
	}

	now := time.Now().UTC()
	firstSend := now.Add(seq.Steps[0].Delay)
	e := &sequence.Enrollment{
		ID:          uuid.NewString(),
		OrgID:       orgID,
		SequenceID:  sequenceID,
		LeadID:      leadID,
		Status:      sequence.EnrollmentActive,
		CurrentStep: 0,
		NextSendAt:  &firstSend,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.sequences.CreateEnrollment(ctx, e)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to enroll lead",
			slog.String("operation", "Enroll"),
			slog.String("org_id", orgID),
			slog.String("sequence_id", sequenceID),
			slog.String("lead_id", leadID),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "lead enrolled",
		slog.String("org_id", orgID),
		slog.String("sequence_id", sequenceID),
		slog.String("lead_id", leadID),
	)
	return created, nil
}

// Exit marks an active enrollment as exited. Exiting a completed or already
// exited enrollment returns domain.ErrConflict.
func (s *SequenceService) Exit(ctx context.Context, orgID, enrollmentID string) error {
	e, err := s.sequences.GetEnrollment(ctx, orgID, enrollmentID)
	if err != nil {
		return err
	}
	if e.Status != sequence.EnrollmentActive {
		return fmt.Errorf("enrollment %s is %s: %w", enrollmentID, e.Status, domain.ErrConflict)
	}

	e.Status = sequence.EnrollmentExited
	e.NextSendAt = nil
	e.UpdatedAt = time.Now().UTC()

	if _, err := s.sequences.UpdateEnrollment(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "failed to exit enrollment",
			slog.String("operation", "Exit"),
			slog.String("org_id", orgID),
			slog.String("enrollment_id", enrollmentID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// ListEnrollments returns a sequence's enrollments, newest first.
func (s *SequenceService) ListEnrollments(ctx context.Context, orgID, sequenceID string, limit, offset int) ([]sequence.Enrollment, error) {
	limit, offset = clampPage(limit, offset)

	enrollments, err := s.sequences.ListEnrollments(ctx, orgID, sequenceID, limit, offset)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list enrollments",
			slog.String("operation", "ListEnrollments"),
			slog.String("org_id", orgID),
			slog.String("sequence_id", sequenceID),
			slog.Any("error", err),
		)
		return nil, err
	}
	return enrollments, nil
}
