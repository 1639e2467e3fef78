// Package scoring implements the engagement scoring subscriber: a rule table
// mapping engagement signals to score deltas applied to the subject lead.
// Score changes go through the lead service, which publishes
// lead.score_changed; the subscriber never listens to that type, so scoring
// cannot feed back into itself.
package scoring

import (
	"context"
	"errors"
	"log/slog"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/deal"
	"github.com/salesforge/platform/internal/ports"
)

// Deltas applied per signal type. Deal wins score the originating lead of
// the deal's contact.
const (
	DeltaEmailOpened   = 5
	DeltaEmailClicked  = 10
	DeltaFormSubmitted = 20
	DeltaDealWon       = 50
)

// SubscribedTypes are the signal types the subscriber registers for.
var SubscribedTypes = []string{
	domain.SignalEmailOpened,
	domain.SignalEmailClicked,
	domain.SignalFormSubmitted,
	domain.SignalDealStageChanged,
}

// Compile-time check that Subscriber implements ports.SignalHandler.
var _ ports.SignalHandler = (*Subscriber)(nil)

// Subscriber applies the scoring rules. Register it on the bus with
// SubscribedTypes.
type Subscriber struct {
	leads    ports.LeadService
	contacts ports.ContactStore
	logger   *slog.Logger
}

// NewSubscriber creates a scoring Subscriber.
func NewSubscriber(leads ports.LeadService, contacts ports.ContactStore, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		leads:    leads,
		contacts: contacts,
		logger:   logger,
	}
}

// Name identifies the subscriber in logs and metrics.
func (s *Subscriber) Name() string { return "scoring" }

// Handle applies the rule for the signal type. Signals about leads that no
// longer exist are ignored.
func (s *Subscriber) Handle(ctx context.Context, sig domain.Signal) error {
	leadID, delta := s.resolve(ctx, sig)
	if leadID == "" || delta == 0 {
		return nil
	}

	l, err := s.leads.AdjustScore(ctx, sig.OrgID, leadID, delta)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	s.logger.InfoContext(ctx, "lead scored",
		slog.String("org_id", sig.OrgID),
		slog.String("lead_id", leadID),
		slog.String("signal_type", sig.Type),
		slog.Int("delta", delta),
		slog.Int("score", l.Score),
	)
	return nil
}

// resolve maps the signal to a target lead and delta.
func (s *Subscriber) resolve(ctx context.Context, sig domain.Signal) (string, int) {
	switch sig.Type {
	case domain.SignalEmailOpened:
		return s.subjectLead(sig), DeltaEmailOpened
	case domain.SignalEmailClicked:
		return s.subjectLead(sig), DeltaEmailClicked
	case domain.SignalFormSubmitted:
		return s.subjectLead(sig), DeltaFormSubmitted
	case domain.SignalDealStageChanged:
		if sig.Fields["to"] != deal.StageWon.String() {
			return "", 0
		}
		return s.dealLead(ctx, sig), DeltaDealWon
	default:
		return "", 0
	}
}

func (s *Subscriber) subjectLead(sig domain.Signal) string {
	if sig.SubjectKind != domain.SubjectLead {
		return ""
	}
	return sig.SubjectID
}

// dealLead traces a deal signal back to the contact's originating lead.
func (s *Subscriber) dealLead(ctx context.Context, sig domain.Signal) string {
	contactID := sig.Fields["contact_id"]
	if contactID == "" {
		return ""
	}
	c, err := s.contacts.GetContact(ctx, sig.OrgID, contactID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to resolve deal contact",
				slog.String("org_id", sig.OrgID),
				slog.String("contact_id", contactID),
				slog.Any("error", err),
			)
		}
		return ""
	}
	return c.LeadID
}
