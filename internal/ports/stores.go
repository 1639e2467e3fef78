package ports

import (
	"context"
	"time"

	"github.com/salesforge/platform/internal/domain/contact"
	"github.com/salesforge/platform/internal/domain/deal"
	"github.com/salesforge/platform/internal/domain/lead"
	"github.com/salesforge/platform/internal/domain/org"
	"github.com/salesforge/platform/internal/domain/sequence"
	"github.com/salesforge/platform/internal/domain/task"
	"github.com/salesforge/platform/internal/domain/workflow"
)

// OrgStore persists organizations and their users.
// Implemented by the postgres adapter; called by the application layer.
type OrgStore interface {
	// GetOrg returns an organization by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetOrg(ctx context.Context, id string) (*org.Organization, error)

	// GetOrgByAPIKeyHash returns the organization whose API key hash matches.
	// Returns domain.ErrNotFound if no org matches.
	GetOrgByAPIKeyHash(ctx context.Context, hash string) (*org.Organization, error)

	// CreateOrg creates an organization. Returns domain.ErrConflict if the
	// slug is already taken.
	CreateOrg(ctx context.Context, o *org.Organization) (*org.Organization, error)

	// GetUserByEmail returns the org's user with the given email.
	// Returns domain.ErrNotFound if no user matches.
	GetUserByEmail(ctx context.Context, orgID, email string) (*org.User, error)

	// CreateUser creates a user within an organization. Returns
	// domain.ErrConflict if the email is already taken within the org.
	CreateUser(ctx context.Context, u *org.User) (*org.User, error)
}

// LeadStore persists leads. All reads and writes are org-scoped.
type LeadStore interface {
	ListLeads(ctx context.Context, orgID string, filter lead.Filter) ([]lead.Lead, error)

	// GetLead returns a single lead. Returns domain.ErrNotFound if no lead
	// with the ID exists in the org.
	GetLead(ctx context.Context, orgID, id string) (*lead.Lead, error)

	CreateLead(ctx context.Context, l *lead.Lead) (*lead.Lead, error)

	// UpdateLead persists all mutable fields of the lead.
	// Returns domain.ErrNotFound if the lead does not exist.
	UpdateLead(ctx context.Context, l *lead.Lead) (*lead.Lead, error)

	DeleteLead(ctx context.Context, orgID, id string) error

	// AdjustScore atomically applies a delta to the lead's score, clamping
	// at zero, and returns the updated lead.
	AdjustScore(ctx context.Context, orgID, id string, delta int) (*lead.Lead, error)
}

// ContactStore persists contacts.
type ContactStore interface {
	ListContacts(ctx context.Context, orgID string, filter contact.Filter) ([]contact.Contact, error)
	GetContact(ctx context.Context, orgID, id string) (*contact.Contact, error)
	CreateContact(ctx context.Context, c *contact.Contact) (*contact.Contact, error)
	UpdateContact(ctx context.Context, c *contact.Contact) (*contact.Contact, error)
	DeleteContact(ctx context.Context, orgID, id string) error
}

// DealStore persists deals.
type DealStore interface {
	ListDeals(ctx context.Context, orgID string, filter deal.Filter) ([]deal.Deal, error)
	GetDeal(ctx context.Context, orgID, id string) (*deal.Deal, error)
	CreateDeal(ctx context.Context, d *deal.Deal) (*deal.Deal, error)
	UpdateDeal(ctx context.Context, d *deal.Deal) (*deal.Deal, error)
	DeleteDeal(ctx context.Context, orgID, id string) error
}

// TaskStore persists tasks.
type TaskStore interface {
	ListTasks(ctx context.Context, orgID string, filter task.Filter) ([]task.Task, error)
	GetTask(ctx context.Context, orgID, id string) (*task.Task, error)
	CreateTask(ctx context.Context, t *task.Task) (*task.Task, error)
	UpdateTask(ctx context.Context, t *task.Task) (*task.Task, error)
	DeleteTask(ctx context.Context, orgID, id string) error
}

// WorkflowStore persists workflow definitions.
type WorkflowStore interface {
	ListWorkflows(ctx context.Context, orgID string, filter workflow.Filter) ([]workflow.Workflow, error)

	// ListEnabledByTrigger returns the org's enabled workflows whose trigger
	// matches the given signal type. Used on the bus hot path.
	ListEnabledByTrigger(ctx context.Context, orgID, trigger string) ([]workflow.Workflow, error)

	GetWorkflow(ctx context.Context, orgID, id string) (*workflow.Workflow, error)
	CreateWorkflow(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error)
	UpdateWorkflow(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error)
	DeleteWorkflow(ctx context.Context, orgID, id string) error

	// SetEnabled flips the enabled flag.
	// Returns domain.ErrNotFound if the workflow does not exist.
	SetEnabled(ctx context.Context, orgID, id string, enabled bool) error
}

// RunStore persists workflow runs and supports the waiting-run poller.
type RunStore interface {
	CreateRun(ctx context.Context, r *workflow.Run) (*workflow.Run, error)

	// UpdateRun persists status, step cursor, step results, error, and
	// resume time.
	UpdateRun(ctx context.Context, r *workflow.Run) (*workflow.Run, error)

	GetRun(ctx context.Context, orgID, id string) (*workflow.Run, error)
	ListRuns(ctx context.Context, orgID, workflowID string, limit, offset int) ([]workflow.Run, error)

	// ClaimDueRuns atomically leases up to limit waiting runs whose resume
	// time has passed and returns them. Two concurrent pollers never claim
	// the same run; a claim whose holder crashes expires and the run
	// becomes due again.
	ClaimDueRuns(ctx context.Context, now time.Time, limit int) ([]workflow.Run, error)
}

// SequenceStore persists sequences and enrollments.
type SequenceStore interface {
	ListSequences(ctx context.Context, orgID string, limit, offset int) ([]sequence.Sequence, error)
	GetSequence(ctx context.Context, orgID, id string) (*sequence.Sequence, error)
	CreateSequence(ctx context.Context, s *sequence.Sequence) (*sequence.Sequence, error)
	UpdateSequence(ctx context.Context, s *sequence.Sequence) (*sequence.Sequence, error)
	DeleteSequence(ctx context.Context, orgID, id string) error

	// CreateEnrollment enrolls a lead. Returns domain.ErrConflict if the
	// lead already has an active enrollment in the sequence.
	CreateEnrollment(ctx context.Context, e *sequence.Enrollment) (*sequence.Enrollment, error)

	UpdateEnrollment(ctx context.Context, e *sequence.Enrollment) (*sequence.Enrollment, error)
	GetEnrollment(ctx context.Context, orgID, id string) (*sequence.Enrollment, error)
	ListEnrollments(ctx context.Context, orgID, sequenceID string, limit, offset int) ([]sequence.Enrollment, error)

	// ClaimDueEnrollments atomically leases up to limit active enrollments
	// whose next send time has passed and returns them. An expired lease
	// makes the enrollment due again.
	ClaimDueEnrollments(ctx context.Context, now time.Time, limit int) ([]sequence.Enrollment, error)

	// ExitActiveEnrollmentsForLead exits every active enrollment of the
	// lead. Used on conversion and unsubscribe.
	ExitActiveEnrollmentsForLead(ctx context.Context, orgID, leadID string) error
}
