// Package task defines the Task entity: a unit of follow-up work, created
// manually or by workflow actions.
package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/salesforge/platform/internal/domain"
)

// Status represents the completion state of a Task.
type Status string

const (
	StatusOpen Status = "open"
	StatusDone Status = "done"
)

// IsValid returns true if the status is one of the defined constants.
func (s Status) IsValid() bool {
	return s == StatusOpen || s == StatusDone
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// Task represents a follow-up item, optionally related to a lead, deal, or
// contact through RelatedKind/RelatedID.
type Task struct {
	ID          string
	OrgID       string
	Title       string
	Status      Status
	DueAt       *time.Time
	RelatedKind domain.SubjectKind
	RelatedID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks business rules for the Task entity.
func (t *Task) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(t.Title) == "" {
		fields["title"] = domain.MsgRequired
	}
	if !t.Status.IsValid() {
		fields["status"] = fmt.Sprintf("invalid: %q", t.Status)
	}
	if t.RelatedKind != "" && t.RelatedID == "" {
		fields["related_id"] = "required when related_kind is set"
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// Filter holds optional filter criteria for listing tasks.
type Filter struct {
	Status    Status
	RelatedID string
	Limit     int
	Offset    int
}
