package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/deal"
	"github.com/salesforge/platform/internal/domain/lead"
	"github.com/salesforge/platform/internal/domain/task"
	"github.com/salesforge/platform/internal/domain/workflow"
)

const msgRequired = "is required"

// TokenRequest represents the JSON body for exchanging an API key for a
// bearer token. Email is optional; when set the token carries the matching
// user's identity and role.
type TokenRequest struct {
	APIKey string `json:"api_key"`
	Email  string `json:"email,omitempty"`
}

// Validate checks that required fields are present.
// Returns a *domain.ValidationError if any checks fail.
func (r *TokenRequest) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(r.APIKey) == "" {
		fields["api_key"] = msgRequired
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// CreateLeadRequest represents the JSON body for creating a new lead.
type CreateLeadRequest struct {
	Email      string            `json:"email"`
	FirstName  string            `json:"first_name,omitempty"`
	LastName   string            `json:"last_name,omitempty"`
	Company    string            `json:"company,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Source     string            `json:"source,omitempty"`
	Status     string            `json:"status,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Validate checks that required fields are present and optional fields have
// valid values. Returns a *domain.ValidationError if any checks fail.
func (r *CreateLeadRequest) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(r.Email) == "" {
		fields["email"] = msgRequired
	}
	if r.Status != "" && !lead.Status(r.Status).IsValid() {
		fields["status"] = fmt.Sprintf("invalid: %q", r.Status)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// UpdateLeadRequest represents the JSON body for replacing a lead's mutable
// fields. Updates are full replacements; omitted fields are cleared. An
// empty status leaves the stored status untouched.
type UpdateLeadRequest struct {
	Email      string            `json:"email"`
	FirstName  string            `json:"first_name,omitempty"`
	LastName   string            `json:"last_name,omitempty"`
	Company    string            `json:"company,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Source     string            `json:"source,omitempty"`
	Status     string            `json:"status,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Validate checks that required fields are present and optional fields have
// valid values. Returns a *domain.ValidationError if any checks fail.
func (r *UpdateLeadRequest) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(r.Email) == "" {
		fields["email"] = msgRequired
	}
	if r.Status != "" && !lead.Status(r.Status).IsValid() {
		fields["status"] = fmt.Sprintf("invalid: %q", r.Status)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// AdjustScoreRequest represents the JSON body for a manual score adjustment.
type AdjustScoreRequest struct {
	Delta int `json:"delta"`
}

// Validate checks that the delta is meaningful.
// Returns a *domain.ValidationError if any checks fail.
func (r *AdjustScoreRequest) Validate() error {
	if r.Delta == 0 {
		return &domain.ValidationError{Fields: map[string]string{"delta": "must be non-zero"}}
	}
	return nil
}

// CreateContactRequest represents the JSON body for creating a contact
// directly, without a lead conversion.
type CreateContactRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Validate checks that required fields are present.
// Returns a *domain.ValidationError if any checks fail.
func (r *CreateContactRequest) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(r.Email) == "" {
		fields["email"] = msgRequired
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// UpdateContactRequest represents the JSON body for replacing a contact's
// mutable fields. Updates are full replacements; omitted fields are cleared.
type UpdateContactRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Validate checks that required fields are present.
// Returns a *domain.ValidationError if any checks fail.
func (r *UpdateContactRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return &domain.ValidationError{Fields: map[string]string{"email": msgRequired}}
	}
	return nil
}

// CreateDealRequest represents the JSON body for creating a new deal.
type CreateDealRequest struct {
	Name        string     `json:"name"`
	ContactID   string     `json:"contact_id"`
	Stage       string     `json:"stage,omitempty"`
	AmountCents int64      `json:"amount_cents,omitempty"`
	Currency    string     `json:"currency"`
	CloseDate   *time.Time `json:"close_date,omitempty"`
}

// Validate checks that required fields are present and optional fields have
// valid values. Returns a *domain.ValidationError if any checks fail.
func (r *CreateDealRequest) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = msgRequired
	}
	if strings.TrimSpace(r.ContactID) == "" {
		fields["contact_id"] = msgRequired
	}
	if r.Stage != "" && !deal.Stage(r.Stage).IsValid() {
		fields["stage"] = fmt.Sprintf("invalid: %q", r.Stage)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// UpdateDealRequest represents the JSON body for replacing a deal's mutable
// fields. Updates are full replacements; an empty stage leaves the stored
// stage untouched.
type UpdateDealRequest struct {
	Name        string     `json:"name"`
	ContactID   string     `json:"contact_id"`
	Stage       string     `json:"stage,omitempty"`
	AmountCents int64      `json:"amount_cents,omitempty"`
	Currency    string     `json:"currency"`
	CloseDate   *time.Time `json:"close_date,omitempty"`
}

// Validate checks that required fields are present and optional fields have
// valid values. Returns a *domain.ValidationError if any checks fail.
func (r *UpdateDealRequest) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = msgRequired
	}
	if strings.TrimSpace(r.ContactID) == "" {
		fields["contact_id"] = msgRequired
	}
	if r.Stage != "" && !deal.Stage(r.Stage).IsValid() {
		fields["stage"] = fmt.Sprintf("invalid: %q", r.Stage)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// CreateTaskRequest represents the JSON body for creating a new task.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	RelatedKind string     `json:"related_kind,omitempty"`
	RelatedID   string     `json:"related_id,omitempty"`
}

// Validate checks that required fields are present.
// Returns a *domain.ValidationError if any checks fail.
func (r *CreateTaskRequest) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(r.Title) == "" {
		fields["title"] = msgRequired
	}
	if r.RelatedKind != "" && r.RelatedID == "" {
		fields["related_id"] = "required when related_kind is set"
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// UpdateTaskRequest represents the JSON body for replacing a task's mutable
// fields. Updates are full replacements; an empty status leaves the stored
// status untouched.
type UpdateTaskRequest struct {
	Title       string     `json:"title"`
	Status      string     `json:"status,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	RelatedKind string     `json:"related_kind,omitempty"`
	RelatedID   string     `json:"related_id,omitempty"`
}

// Validate checks that required fields are present and optional fields have
// valid values. Returns a *domain.ValidationError if any checks fail.
func (r *UpdateTaskRequest) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(r.Title) == "" {
		fields["title"] = msgRequired
	}
	if r.Status != "" && !task.Status(r.Status).IsValid() {
		fields["status"] = fmt.Sprintf("invalid: %q", r.Status)
	}
	if r.RelatedKind != "" && r.RelatedID == "" {
		fields["related_id"] = "required when related_kind is set"
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// WorkflowRequest represents the JSON body for creating or replacing a
// workflow definition. Conditions and actions use the domain JSON shapes;
// full structural validation happens in the application layer.
type WorkflowRequest struct {
	Name       string                  `json:"name"`
	Enabled    bool                    `json:"enabled"`
	Trigger    string                  `json:"trigger"`
	Conditions workflow.ConditionGroup `json:"conditions,omitempty"`
	Actions    []workflow.Action       `json:"actions"`
}

// Validate checks that required fields are present.
// Returns a *domain.ValidationError if any checks fail.
func (r *WorkflowRequest) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = msgRequired
	}
	if strings.TrimSpace(r.Trigger) == "" {
		fields["trigger"] = msgRequired
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// SequenceStepRequest represents one step of a sequence. Delay is a Go
// duration string ("0s", "72h") offset from the previous step.
type SequenceStepRequest struct {
	Subject  string `json:"subject"`
	Template string `json:"template"`
	Delay    string `json:"delay"`
}

// SequenceRequest represents the JSON body for creating or replacing a
// sequence.
type SequenceRequest struct {
	Name  string                `json:"name"`
	Steps []SequenceStepRequest `json:"steps"`
}

// Validate checks that required fields are present and delays parse.
// Returns a *domain.ValidationError if any checks fail.
func (r *SequenceRequest) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = msgRequired
	}
	if len(r.Steps) == 0 {
		fields["steps"] = "must contain at least one step"
	}
	for i, step := range r.Steps {
		if step.Delay == "" {
			continue
		}
		if _, err := time.ParseDuration(step.Delay); err != nil {
			fields[fmt.Sprintf("steps[%d].delay", i)] = fmt.Sprintf("invalid duration: %q", step.Delay)
		}
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// EnrollRequest represents the JSON body for enrolling a lead in a sequence.
type EnrollRequest struct {
	LeadID string `json:"lead_id"`
}

// Validate checks that required fields are present.
// Returns a *domain.ValidationError if any checks fail.
func (r *EnrollRequest) Validate() error {
	if strings.TrimSpace(r.LeadID) == "" {
		return &domain.ValidationError{Fields: map[string]string{"lead_id": msgRequired}}
	}
	return nil
}

// IngestSignalRequest represents the JSON body for external signal
// ingestion. Only whitelisted engagement types are accepted.
type IngestSignalRequest struct {
	Type      string            `json:"type"`
	SubjectID string            `json:"subject_id"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Validate checks that required fields are present. Whitelist enforcement
// happens in the application layer.
func (r *IngestSignalRequest) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(r.Type) == "" {
		fields["type"] = msgRequired
	}
	if strings.TrimSpace(r.SubjectID) == "" {
		fields["subject_id"] = msgRequired
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
