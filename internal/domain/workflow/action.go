package workflow

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ActionType identifies an action handler in the engine's registry.
type ActionType string

const (
	ActionSendEmail       ActionType = "send_email"
	ActionCallWebhook     ActionType = "call_webhook"
	ActionCreateTask      ActionType = "create_task"
	ActionUpdateLeadField ActionType = "update_lead_field"
	ActionAdjustScore     ActionType = "adjust_score"
	ActionEnrollSequence  ActionType = "enroll_sequence"
	ActionWait            ActionType = "wait"
)

// IsValid returns true if the action type is one of the defined constants.
func (t ActionType) IsValid() bool {
	switch t {
	case ActionSendEmail, ActionCallWebhook, ActionCreateTask,
		ActionUpdateLeadField, ActionAdjustScore, ActionEnrollSequence, ActionWait:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (t ActionType) String() string {
	return string(t)
}

// Action is one step of a workflow. Params are interpreted by the handler for
// the action's type:
//
//	send_email:        to (optional, defaults to the signal subject's email),
//	                   subject, template
//	call_webhook:      url
//	create_task:       title, due_in (Go duration, optional)
//	update_lead_field: field, value
//	adjust_score:      delta (signed integer)
//	enroll_sequence:   sequence_id
//	wait:              duration (Go duration string, e.g. "48h")
type Action struct {
	Type   ActionType        `json:"type"`
	Params map[string]string `json:"params,omitempty"`
}

// Param returns the named parameter or the empty string.
func (a Action) Param(name string) string {
	return a.Params[name]
}

// WaitDuration parses the wait action's duration parameter.
func (a Action) WaitDuration() (time.Duration, error) {
	d, err := time.ParseDuration(a.Param("duration"))
	if err != nil {
		return 0, fmt.Errorf("parsing wait duration: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("wait duration must be positive, got %s", d)
	}
	return d, nil
}

// validate records per-field validation failures under the given prefix.
func (a Action) validate(prefix string, fields map[string]string) {
	if !a.Type.IsValid() {
		fields[prefix+".type"] = fmt.Sprintf("invalid: %q", a.Type)
		return
	}

	requireParam := func(name string) {
		if strings.TrimSpace(a.Param(name)) == "" {
			fields[fmt.Sprintf("%s.params.%s", prefix, name)] = "is required"
		}
	}

	switch a.Type {
	case ActionSendEmail:
		requireParam("subject")
		requireParam("template")
	case ActionCallWebhook:
		requireParam("url")
	case ActionCreateTask:
		requireParam("title")
		if v := a.Param("due_in"); v != "" {
			if _, err := time.ParseDuration(v); err != nil {
				fields[prefix+".params.due_in"] = fmt.Sprintf("invalid duration: %q", v)
			}
		}
	case ActionUpdateLeadField:
		requireParam("field")
		requireParam("value")
	case ActionAdjustScore:
		if _, err := strconv.Atoi(a.Param("delta")); err != nil {
			fields[prefix+".params.delta"] = fmt.Sprintf("must be an integer, got %q", a.Param("delta"))
		}
	case ActionEnrollSequence:
		requireParam("sequence_id")
	case ActionWait:
		if _, err := a.WaitDuration(); err != nil {
			fields[prefix+".params.duration"] = fmt.Sprintf("invalid duration: %q", a.Param("duration"))
		}
	}
}
