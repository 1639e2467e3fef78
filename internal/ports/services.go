package ports

import (
	"context"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/contact"
	"github.com/salesforge/platform/internal/domain/deal"
	"github.com/salesforge/platform/internal/domain/lead"
	"github.com/salesforge/platform/internal/domain/sequence"
	"github.com/salesforge/platform/internal/domain/task"
	"github.com/salesforge/platform/internal/domain/workflow"
)

// AuthService exchanges org API keys for bearer tokens.
// Implemented by the application layer; called by the auth handler.
type AuthService interface {
	// IssueToken validates the API key, optionally resolves the user by
	// email for role attribution, and returns a signed JWT plus its
	// lifetime in seconds. Returns domain.ErrUnauthorized for an unknown
	// key and domain.ErrNotFound for an unknown user email.
	IssueToken(ctx context.Context, apiKey, userEmail string) (token string, expiresIn int64, err error)
}

// LeadService defines the service port for lead operations, including
// conversion into contacts.
type LeadService interface {
	ListLeads(ctx context.Context, orgID string, filter lead.Filter) ([]lead.Lead, error)

	// GetLead returns a single lead.
	// Returns domain.ErrNotFound if the lead does not exist.
	GetLead(ctx context.Context, orgID, id string) (*lead.Lead, error)

	// CreateLead validates and creates a lead, then publishes lead.created.
	CreateLead(ctx context.Context, l *lead.Lead) (*lead.Lead, error)

	// UpdateLead validates and updates a lead, then publishes lead.updated.
	UpdateLead(ctx context.Context, orgID, id string, l *lead.Lead) (*lead.Lead, error)

	DeleteLead(ctx context.Context, orgID, id string) error

	// ConvertLead creates a contact from the lead, marks the lead
	// converted, exits its active sequence enrollments, and publishes
	// lead.converted and contact.created. Returns domain.ErrConflict if
	// the lead is already converted.
	ConvertLead(ctx context.Context, orgID, id string) (*contact.Contact, error)

	// AdjustScore applies a delta to the lead's score and publishes
	// lead.score_changed when the score actually moved.
	AdjustScore(ctx context.Context, orgID, id string, delta int) (*lead.Lead, error)
}

// ContactService defines the service port for contact CRUD.
type ContactService interface {
	ListContacts(ctx context.Context, orgID string, filter contact.Filter) ([]contact.Contact, error)
	GetContact(ctx context.Context, orgID, id string) (*contact.Contact, error)
	CreateContact(ctx context.Context, c *contact.Contact) (*contact.Contact, error)
	UpdateContact(ctx context.Context, orgID, id string, c *contact.Contact) (*contact.Contact, error)
	DeleteContact(ctx context.Context, orgID, id string) error
}

// DealService defines the service port for deal operations.
type DealService interface {
	ListDeals(ctx context.Context, orgID string, filter deal.Filter) ([]deal.Deal, error)
	GetDeal(ctx context.Context, orgID, id string) (*deal.Deal, error)

	// CreateDeal validates and creates a deal, then publishes deal.created.
	CreateDeal(ctx context.Context, d *deal.Deal) (*deal.Deal, error)

	// UpdateDeal validates and updates a deal. A stage change additionally
	// publishes deal.stage_changed with from/to fields.
	UpdateDeal(ctx context.Context, orgID, id string, d *deal.Deal) (*deal.Deal, error)

	DeleteDeal(ctx context.Context, orgID, id string) error
}

// TaskService defines the service port for task operations.
type TaskService interface {
	ListTasks(ctx context.Context, orgID string, filter task.Filter) ([]task.Task, error)
	GetTask(ctx context.Context, orgID, id string) (*task.Task, error)
	CreateTask(ctx context.Context, t *task.Task) (*task.Task, error)

	// UpdateTask validates and updates a task. Completing a task publishes
	// task.completed.
	UpdateTask(ctx context.Context, orgID, id string, t *task.Task) (*task.Task, error)

	DeleteTask(ctx context.Context, orgID, id string) error
}

// WorkflowService defines the service port for workflow definitions and runs.
type WorkflowService interface {
	ListWorkflows(ctx context.Context, orgID string, filter workflow.Filter) ([]workflow.Workflow, error)
	GetWorkflow(ctx context.Context, orgID, id string) (*workflow.Workflow, error)
	CreateWorkflow(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error)
	UpdateWorkflow(ctx context.Context, orgID, id string, w *workflow.Workflow) (*workflow.Workflow, error)
	DeleteWorkflow(ctx context.Context, orgID, id string) error

	// SetEnabled enables or disables a workflow.
	SetEnabled(ctx context.Context, orgID, id string, enabled bool) error

	ListRuns(ctx context.Context, orgID, workflowID string, limit, offset int) ([]workflow.Run, error)
	GetRun(ctx context.Context, orgID, runID string) (*workflow.Run, error)
}

// SequenceService defines the service port for sequences and enrollments.
type SequenceService interface {
	ListSequences(ctx context.Context, orgID string, limit, offset int) ([]sequence.Sequence, error)
	GetSequence(ctx context.Context, orgID, id string) (*sequence.Sequence, error)
	CreateSequence(ctx context.Context, s *sequence.Sequence) (*sequence.Sequence, error)
	UpdateSequence(ctx context.Context, orgID, id string, s *sequence.Sequence) (*sequence.Sequence, error)
	DeleteSequence(ctx context.Context, orgID, id string) error

	// Enroll starts the lead on the sequence, scheduling the first step.
	// Returns domain.ErrConflict if the lead already has an active
	// enrollment in the sequence.
	Enroll(ctx context.Context, orgID, sequenceID, leadID string) (*sequence.Enrollment, error)

	// Exit removes the enrollment from the active set.
	Exit(ctx context.Context, orgID, enrollmentID string) error

	ListEnrollments(ctx context.Context, orgID, sequenceID string, limit, offset int) ([]sequence.Enrollment, error)
}

// SignalService defines the service port for external signal ingestion.
type SignalService interface {
	// Ingest validates the signal against the ingestable type whitelist
	// and publishes it on the bus. Returns domain.ErrValidation for types
	// outside the whitelist.
	Ingest(ctx context.Context, sig domain.Signal) error
}
