package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Signal types published by the platform. External systems may ingest the
// engagement types (email.opened, email.clicked, form.submitted) through the
// signal API; the rest are emitted internally by application services.
const (
	SignalLeadCreated      = "lead.created"
	SignalLeadUpdated      = "lead.updated"
	SignalLeadConverted    = "lead.converted"
	SignalLeadScoreChanged = "lead.score_changed"
	SignalContactCreated   = "contact.created"
	SignalDealCreated      = "deal.created"
	SignalDealStageChanged = "deal.stage_changed"
	SignalTaskCompleted    = "task.completed"
	SignalSequenceStepSent = "sequence.step_sent"
	SignalEmailOpened      = "email.opened"
	SignalEmailClicked     = "email.clicked"
	SignalFormSubmitted    = "form.submitted"
)

// IngestableSignalTypes is the whitelist of signal types that external
// systems may publish through the signal ingestion endpoint.
var IngestableSignalTypes = map[string]bool{
	SignalEmailOpened:   true,
	SignalEmailClicked:  true,
	SignalFormSubmitted: true,
}

// SubjectKind identifies the entity a signal is about.
type SubjectKind string

const (
	SubjectLead    SubjectKind = "lead"
	SubjectContact SubjectKind = "contact"
	SubjectDeal    SubjectKind = "deal"
	SubjectTask    SubjectKind = "task"
)

// Signal is an event flowing through the in-process bus. Fields carries the
// flattened event payload that workflow conditions evaluate against; values
// are strings so that equality and numeric comparison have one code path.
type Signal struct {
	ID          string
	Type        string
	OrgID       string
	SubjectKind SubjectKind
	SubjectID   string
	Fields      map[string]string
	OccurredAt  time.Time
}

// NewSignal creates a Signal with a fresh UUID and the current time.
// The fields map may be nil.
func NewSignal(sigType, orgID string, kind SubjectKind, subjectID string, fields map[string]string) Signal {
	if fields == nil {
		fields = map[string]string{}
	}
	return Signal{
		ID:          uuid.NewString(),
		Type:        sigType,
		OrgID:       orgID,
		SubjectKind: kind,
		SubjectID:   subjectID,
		Fields:      fields,
		OccurredAt:  time.Now().UTC(),
	}
}

// Validate checks that the signal is well-formed enough to dispatch.
func (s *Signal) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(s.Type) == "" {
		fields["type"] = MsgRequired
	} else if !strings.Contains(s.Type, ".") {
		fields["type"] = "must be a dotted name like lead.created"
	}
	if strings.TrimSpace(s.OrgID) == "" {
		fields["org_id"] = MsgRequired
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
