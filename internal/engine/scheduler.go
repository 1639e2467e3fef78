package engine

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/salesforge/platform/internal/app/fanout"
	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/lead"
	"github.com/salesforge/platform/internal/domain/sequence"
	"github.com/salesforge/platform/internal/platform/config"
	"github.com/salesforge/platform/internal/ports"
)

// Scheduler sends due sequence steps. Each tick it claims a batch of active
// enrollments whose next send time has passed, emails the step to the lead,
// publishes sequence.step_sent, and schedules the following step. Leads that
// converted or disappeared mid-sequence are exited.
type Scheduler struct {
	sequences ports.SequenceStore
	leads     ports.LeadStore
	email     ports.EmailClient
	bus       ports.SignalBus
	cfg       config.EngineConfig
	logger    *slog.Logger
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler.
func NewScheduler(sequences ports.SequenceStore, leads ports.LeadStore, email ports.EmailClient, bus ports.SignalBus, cfg config.EngineConfig, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sequences: sequences,
		leads:     leads,
		email:     email,
		bus:       bus,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the scheduling loop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.loop()
	s.logger.Info("sequence scheduler started",
		slog.Duration("poll_interval", s.cfg.PollInterval),
		slog.Int("batch_size", s.cfg.PollBatchSize),
	)
}

// Close stops the scheduling loop and waits for in-flight sends to finish.
func (s *Scheduler) Close() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info("sequence scheduler stopped")
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick(s.ctx)
		}
	}
}

// tick claims one batch of due enrollments and processes them with bounded
// concurrency. Per-enrollment failures are logged; the tick never fails.
func (s *Scheduler) tick(ctx context.Context) {
	claimed, err := s.sequences.ClaimDueEnrollments(ctx, s.now().UTC(), s.cfg.PollBatchSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to claim due enrollments",
			slog.String("operation", "Scheduler.tick"),
			slog.Any("error", err),
		)
		return
	}
	if len(claimed) == 0 {
		return
	}

	s.logger.DebugContext(ctx, "sending sequence steps", slog.Int("count", len(claimed)))

	fanout.Run(ctx, s.cfg.ResumeWorkers, claimed, func(ctx context.Context, e sequence.Enrollment) (struct{}, error) {
		if err := s.sendStep(ctx, &e); err != nil {
			s.logger.ErrorContext(ctx, "failed to send sequence step",
				slog.String("org_id", e.OrgID),
				slog.String("enrollment_id", e.ID),
				slog.Any("error", err),
			)
		}
		return struct{}{}, nil
	})
}

// sendStep delivers the enrollment's current step and advances the cursor.
// A send failure leaves the enrollment active with the step rescheduled for
// the next tick.
func (s *Scheduler) sendStep(ctx context.Context, e *sequence.Enrollment) error {
	seq, err := s.sequences.GetSequence(ctx, e.OrgID, e.SequenceID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.finish(ctx, e, sequence.EnrollmentExited)
	}
	if err != nil {
		return err
	}

	l, err := s.leads.GetLead(ctx, e.OrgID, e.LeadID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.finish(ctx, e, sequence.EnrollmentExited)
	}
	if err != nil {
		return err
	}
	if l.Status == lead.StatusConverted {
		return s.finish(ctx, e, sequence.EnrollmentExited)
	}

	// Steps can shrink while an enrollment is in flight.
	if e.CurrentStep >= len(seq.Steps) {
		return s.finish(ctx, e, sequence.EnrollmentCompleted)
	}
	step := seq.Steps[e.CurrentStep]

	if err := s.email.Send(ctx, ports.EmailMessage{
		To:       l.Email,
		Subject:  step.Subject,
		Template: step.Template,
		Vars:     l.SignalFields(),
	}); err != nil {
		retry := s.now().UTC().Add(s.cfg.PollInterval)
		e.NextSendAt = &retry
		e.UpdatedAt = s.now().UTC()
		if _, uerr := s.sequences.UpdateEnrollment(ctx, e); uerr != nil {
			return errors.Join(err, uerr)
		}
		return err
	}

	s.bus.Publish(ctx, domain.NewSignal(
		domain.SignalSequenceStepSent, e.OrgID, domain.SubjectLead, e.LeadID,
		map[string]string{
			"sequence_id":   e.SequenceID,
			"enrollment_id": e.ID,
			"step":          strconv.Itoa(e.CurrentStep),
			"subject":       step.Subject,
			"email":         l.Email,
		},
	))

	e.CurrentStep++
	if e.CurrentStep >= len(seq.Steps) {
		return s.finish(ctx, e, sequence.EnrollmentCompleted)
	}
	next := s.now().UTC().Add(seq.Steps[e.CurrentStep].Delay)
	e.NextSendAt = &next
	e.UpdatedAt = s.now().UTC()
	_, err = s.sequences.UpdateEnrollment(ctx, e)
	return err
}

// finish moves the enrollment to a terminal status.
func (s *Scheduler) finish(ctx context.Context, e *sequence.Enrollment, status sequence.EnrollmentStatus) error {
	e.Status = status
	e.NextSendAt = nil
	e.UpdatedAt = s.now().UTC()
	if _, err := s.sequences.UpdateEnrollment(ctx, e); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "enrollment finished",
		slog.String("org_id", e.OrgID),
		slog.String("enrollment_id", e.ID),
		slog.String("sequence_id", e.SequenceID),
		slog.String("status", status.String()),
	)
	return nil
}
