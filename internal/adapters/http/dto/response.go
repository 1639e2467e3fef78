// Package dto provides HTTP request/response data transfer objects and
// RFC 9457 Problem Details error responses for the inbound HTTP adapter layer.
package dto

import (
	"time"

	"github.com/salesforge/platform/internal/domain/contact"
	"github.com/salesforge/platform/internal/domain/deal"
	"github.com/salesforge/platform/internal/domain/lead"
	"github.com/salesforge/platform/internal/domain/sequence"
	"github.com/salesforge/platform/internal/domain/task"
	"github.com/salesforge/platform/internal/domain/workflow"
)

// TokenResponse represents an issued bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// LeadResponse represents a single lead in HTTP responses.
type LeadResponse struct {
	ID         string            `json:"id"`
	Email      string            `json:"email"`
	FirstName  string            `json:"first_name,omitempty"`
	LastName   string            `json:"last_name,omitempty"`
	Company    string            `json:"company,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Source     string            `json:"source,omitempty"`
	Status     string            `json:"status"`
	Score      int               `json:"score"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  string            `json:"created_at"`
	UpdatedAt  string            `json:"updated_at"`
}

// LeadListResponse represents a list of leads in HTTP responses.
type LeadListResponse struct {
	Leads []LeadResponse `json:"leads"`
	Count int            `json:"count"`
}

// ToLeadResponse converts a domain Lead entity to an HTTP response DTO.
func ToLeadResponse(l *lead.Lead) LeadResponse {
	return LeadResponse{
		ID:         l.ID,
		Email:      l.Email,
		FirstName:  l.FirstName,
		LastName:   l.LastName,
		Company:    l.Company,
		Phone:      l.Phone,
		Source:     l.Source,
		Status:     l.Status.String(),
		Score:      l.Score,
		Attributes: l.Attributes,
		CreatedAt:  l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  l.UpdatedAt.Format(time.RFC3339),
	}
}

// ToLeadListResponse converts a slice of domain Lead entities to an HTTP
// list response DTO.
func ToLeadListResponse(leads []lead.Lead) LeadListResponse {
	items := make([]LeadResponse, len(leads))
	for i := range leads {
		items[i] = ToLeadResponse(&leads[i])
	}
	return LeadListResponse{Leads: items, Count: len(items)}
}

// ContactResponse represents a single contact in HTTP responses.
type ContactResponse struct {
	ID        string `json:"id"`
	LeadID    string `json:"lead_id,omitempty"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ContactListResponse represents a list of contacts in HTTP responses.
type ContactListResponse struct {
	Contacts []ContactResponse `json:"contacts"`
	Count    int               `json:"count"`
}

// ToContactResponse converts a domain Contact entity to an HTTP response DTO.
func ToContactResponse(c *contact.Contact) ContactResponse {
	return ContactResponse{
		ID:        c.ID,
		LeadID:    c.LeadID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Company:   c.Company,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

// ToContactListResponse converts a slice of domain Contact entities to an
// HTTP list response DTO.
func ToContactListResponse(contacts []contact.Contact) ContactListResponse {
	items := make([]ContactResponse, len(contacts))
	for i := range contacts {
		items[i] = ToContactResponse(&contacts[i])
	}
	return ContactListResponse{Contacts: items, Count: len(items)}
}

// DealResponse represents a single deal in HTTP responses.
type DealResponse struct {
	ID          string     `json:"id"`
	ContactID   string     `json:"contact_id"`
	Name        string     `json:"name"`
	Stage       string     `json:"stage"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	CloseDate   *time.Time `json:"close_date,omitempty"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
}

// DealListResponse represents a list of deals in HTTP responses.
type DealListResponse struct {
	Deals []DealResponse `json:"deals"`
	Count int            `json:"count"`
}

// ToDealResponse converts a domain Deal entity to an HTTP response DTO.
func ToDealResponse(d *deal.Deal) DealResponse {
	return DealResponse{
		ID:          d.ID,
		ContactID:   d.ContactID,
		Name:        d.Name,
		Stage:       d.Stage.String(),
		AmountCents: d.AmountCents,
		Currency:    d.Currency,
		CloseDate:   d.CloseDate,
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   d.UpdatedAt.Format(time.RFC3339),
	}
}

// ToDealListResponse converts a slice of domain Deal entities to an HTTP
// list response DTO.
func ToDealListResponse(deals []deal.Deal) DealListResponse {
	items := make([]DealResponse, len(deals))
	for i := range deals {
		items[i] = ToDealResponse(&deals[i])
	}
	return DealListResponse{Deals: items, Count: len(items)}
}

// TaskResponse represents a single task in HTTP responses.
type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	RelatedKind string     `json:"related_kind,omitempty"`
	RelatedID   string     `json:"related_id,omitempty"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
}

// TaskListResponse represents a list of tasks in HTTP responses.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Count int            `json:"count"`
}

// ToTaskResponse converts a domain Task entity to an HTTP response DTO.
func ToTaskResponse(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Status:      t.Status.String(),
		DueAt:       t.DueAt,
		RelatedKind: string(t.RelatedKind),
		RelatedID:   t.RelatedID,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
}

// ToTaskListResponse converts a slice of domain Task entities to an HTTP
// list response DTO.
func ToTaskListResponse(tasks []task.Task) TaskListResponse {
	items := make([]TaskResponse, len(tasks))
	for i := range tasks {
		items[i] = ToTaskResponse(&tasks[i])
	}
	return TaskListResponse{Tasks: items, Count: len(items)}
}

// WorkflowResponse represents a single workflow definition in HTTP responses.
type WorkflowResponse struct {
	ID         string                  `json:"id"`
	Name       string                  `json:"name"`
	Enabled    bool                    `json:"enabled"`
	Trigger    string                  `json:"trigger"`
	Conditions workflow.ConditionGroup `json:"conditions,omitempty"`
	Actions    []workflow.Action       `json:"actions"`
	CreatedAt  string                  `json:"created_at"`
	UpdatedAt  string                  `json:"updated_at"`
}

// WorkflowListResponse represents a list of workflows in HTTP responses.
type WorkflowListResponse struct {
	Workflows []WorkflowResponse `json:"workflows"`
	Count     int                `json:"count"`
}

// ToWorkflowResponse converts a domain Workflow entity to an HTTP response DTO.
func ToWorkflowResponse(w *workflow.Workflow) WorkflowResponse {
	return WorkflowResponse{
		ID:         w.ID,
		Name:       w.Name,
		Enabled:    w.Enabled,
		Trigger:    w.Trigger,
		Conditions: w.Conditions,
		Actions:    w.Actions,
		CreatedAt:  w.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  w.UpdatedAt.Format(time.RFC3339),
	}
}

// ToWorkflowListResponse converts a slice of domain Workflow entities to an
// HTTP list response DTO.
func ToWorkflowListResponse(workflows []workflow.Workflow) WorkflowListResponse {
	items := make([]WorkflowResponse, len(workflows))
	for i := range workflows {
		items[i] = ToWorkflowResponse(&workflows[i])
	}
	return WorkflowListResponse{Workflows: items, Count: len(items)}
}

// StepResultResponse represents one executed action within a run.
type StepResultResponse struct {
	Index      int    `json:"index"`
	Type       string `json:"type"`
	Attempts   int    `json:"attempts"`
	Error      string `json:"error,omitempty"`
	FinishedAt string `json:"finished_at"`
}

// RunResponse represents a single workflow run in HTTP responses.
type RunResponse struct {
	ID          string               `json:"id"`
	WorkflowID  string               `json:"workflow_id"`
	SignalType  string               `json:"signal_type"`
	SubjectID   string               `json:"subject_id,omitempty"`
	Status      string               `json:"status"`
	CurrentStep int                  `json:"current_step"`
	Steps       []StepResultResponse `json:"steps,omitempty"`
	Error       string               `json:"error,omitempty"`
	ResumeAt    *time.Time           `json:"resume_at,omitempty"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
}

// RunListResponse represents a list of runs in HTTP responses.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// ToRunResponse converts a domain Run entity to an HTTP response DTO.
func ToRunResponse(r *workflow.Run) RunResponse {
	resp := RunResponse{
		ID:          r.ID,
		WorkflowID:  r.WorkflowID,
		SignalType:  r.SignalType,
		SubjectID:   r.SubjectID,
		Status:      r.Status.String(),
		CurrentStep: r.CurrentStep,
		Error:       r.Error,
		ResumeAt:    r.ResumeAt,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   r.UpdatedAt.Format(time.RFC3339),
	}

	if len(r.Steps) > 0 {
		resp.Steps = make([]StepResultResponse, len(r.Steps))
		for i, s := range r.Steps {
			resp.Steps[i] = StepResultResponse{
				Index:      s.Index,
				Type:       s.Type.String(),
				Attempts:   s.Attempts,
				Error:      s.Error,
				FinishedAt: s.FinishedAt.Format(time.RFC3339),
			}
		}
	}

	return resp
}

// ToRunListResponse converts a slice of domain Run entities to an HTTP list
// response DTO.
func ToRunListResponse(runs []workflow.Run) RunListResponse {
	items := make([]RunResponse, len(runs))
	for i := range runs {
		items[i] = ToRunResponse(&runs[i])
	}
	return RunListResponse{Runs: items, Count: len(items)}
}

// SequenceStepResponse represents one step of a sequence.
type SequenceStepResponse struct {
	Subject  string `json:"subject"`
	Template string `json:"template"`
	Delay    string `json:"delay"`
}

// SequenceResponse represents a single sequence in HTTP responses.
type SequenceResponse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Steps     []SequenceStepResponse `json:"steps"`
	CreatedAt string                 `json:"created_at"`
	UpdatedAt string                 `json:"updated_at"`
}

// SequenceListResponse represents a list of sequences in HTTP responses.
type SequenceListResponse struct {
	Sequences []SequenceResponse `json:"sequences"`
	Count     int                `json:"count"`
}

// ToSequenceResponse converts a domain Sequence entity to an HTTP response DTO.
func ToSequenceResponse(s *sequence.Sequence) SequenceResponse {
	steps := make([]SequenceStepResponse, len(s.Steps))
	for i, step := range s.Steps {
		steps[i] = SequenceStepResponse{
			Subject:  step.Subject,
			Template: step.Template,
			Delay:    step.Delay.String(),
		}
	}
	return SequenceResponse{
		ID:        s.ID,
		Name:      s.Name,
		Steps:     steps,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}

// ToSequenceListResponse converts a slice of domain Sequence entities to an
// HTTP list response DTO.
func ToSequenceListResponse(sequences []sequence.Sequence) SequenceListResponse {
	items := make([]SequenceResponse, len(sequences))
	for i := range sequences {
		items[i] = ToSequenceResponse(&sequences[i])
	}
	return SequenceListResponse{Sequences: items, Count: len(items)}
}

// EnrollmentResponse represents a single sequence enrollment in HTTP
// responses.
type EnrollmentResponse struct {
	ID          string     `json:"id"`
	SequenceID  string     `json:"sequence_id"`
	LeadID      string     `json:"lead_id"`
	Status      string     `json:"status"`
	CurrentStep int        `json:"current_step"`
	NextSendAt  *time.Time `json:"next_send_at,omitempty"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
}

// EnrollmentListResponse represents a list of enrollments in HTTP responses.
type EnrollmentListResponse struct {
	Enrollments []EnrollmentResponse `json:"enrollments"`
	Count       int                  `json:"count"`
}

// ToEnrollmentResponse converts a domain Enrollment entity to an HTTP
// response DTO.
func ToEnrollmentResponse(e *sequence.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:          e.ID,
		SequenceID:  e.SequenceID,
		LeadID:      e.LeadID,
		Status:      e.Status.String(),
		CurrentStep: e.CurrentStep,
		NextSendAt:  e.NextSendAt,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   e.UpdatedAt.Format(time.RFC3339),
	}
}

// ToEnrollmentListResponse converts a slice of domain Enrollment entities to
// an HTTP list response DTO.
func ToEnrollmentListResponse(enrollments []sequence.Enrollment) EnrollmentListResponse {
	items := make([]EnrollmentResponse, len(enrollments))
	for i := range enrollments {
		items[i] = ToEnrollmentResponse(&enrollments[i])
	}
	return EnrollmentListResponse{Enrollments: items, Count: len(items)}
}

// SignalAcceptedResponse acknowledges an ingested signal.
type SignalAcceptedResponse struct {
	ID string `json:"id"`
}
