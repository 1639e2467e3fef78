// Package sequence defines multi-step outreach: a Sequence is an ordered list
// of timed email steps, and an Enrollment tracks one lead's progress through
// those steps.
package sequence

import (
	"fmt"
	"strings"
	"time"

	"github.com/salesforge/platform/internal/domain"
)

// Step is a single timed email in a sequence. Delay is the offset from the
// previous step (or from enrollment for the first step).
type Step struct {
	Subject  string        `json:"subject"`
	Template string        `json:"template"`
	Delay    time.Duration `json:"delay"`
}

// Sequence is an org-scoped outreach cadence.
type Sequence struct {
	ID        string
	OrgID     string
	Name      string
	Steps     []Step
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks business rules for the Sequence entity.
func (s *Sequence) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(s.Name) == "" {
		fields["name"] = domain.MsgRequired
	}
	if len(s.Steps) == 0 {
		fields["steps"] = "must contain at least one step"
	}
	for i, step := range s.Steps {
		if strings.TrimSpace(step.Subject) == "" {
			fields[fmt.Sprintf("steps[%d].subject", i)] = domain.MsgRequired
		}
		if strings.TrimSpace(step.Template) == "" {
			fields[fmt.Sprintf("steps[%d].template", i)] = domain.MsgRequired
		}
		if step.Delay < 0 {
			fields[fmt.Sprintf("steps[%d].delay", i)] = fmt.Sprintf("must be >= 0, got %s", step.Delay)
		}
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// EnrollmentStatus represents the lifecycle state of an Enrollment.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentExited    EnrollmentStatus = "exited"
)

// IsValid returns true if the status is one of the defined constants.
func (s EnrollmentStatus) IsValid() bool {
	switch s {
	case EnrollmentActive, EnrollmentCompleted, EnrollmentExited:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (s EnrollmentStatus) String() string {
	return string(s)
}

// Enrollment tracks one lead moving through a sequence. CurrentStep is the
// index of the next step to send; NextSendAt is when it becomes due.
type Enrollment struct {
	ID          string
	OrgID       string
	SequenceID  string
	LeadID      string
	Status      EnrollmentStatus
	CurrentStep int
	NextSendAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
