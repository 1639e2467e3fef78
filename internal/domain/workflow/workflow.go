// Package workflow defines the automation model: a Workflow couples a trigger
// signal type with a condition tree and an ordered action list, and a Run
// records one execution of that list against a concrete signal.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/salesforge/platform/internal/domain"
)

// Workflow is an org-scoped automation definition. When a signal of type
// Trigger arrives and Conditions match its fields, the Actions execute in
// order as a new Run.
type Workflow struct {
	ID         string
	OrgID      string
	Name       string
	Enabled    bool
	Trigger    string
	Conditions ConditionGroup
	Actions    []Action
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks business rules for the Workflow entity.
// Returns a *domain.ValidationError (wrapping domain.ErrValidation) with
// per-field details, or nil if all rules pass.
func (w *Workflow) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(w.Name) == "" {
		fields["name"] = domain.MsgRequired
	}
	if strings.TrimSpace(w.Trigger) == "" {
		fields["trigger"] = domain.MsgRequired
	} else if !strings.Contains(w.Trigger, ".") {
		fields["trigger"] = fmt.Sprintf("must be a dotted signal type, got %q", w.Trigger)
	}
	w.Conditions.validate("conditions", fields)
	if len(w.Actions) == 0 {
		fields["actions"] = "must contain at least one action"
	}
	for i := range w.Actions {
		w.Actions[i].validate(fmt.Sprintf("actions[%d]", i), fields)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// Filter holds optional filter criteria for listing workflows.
type Filter struct {
	Trigger string
	Enabled *bool
	Limit   int
	Offset  int
}
