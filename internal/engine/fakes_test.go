package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/lead"
	"github.com/salesforge/platform/internal/domain/sequence"
	"github.com/salesforge/platform/internal/domain/task"
	"github.com/salesforge/platform/internal/domain/workflow"
	"github.com/salesforge/platform/internal/platform/config"
	"github.com/salesforge/platform/internal/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// testRetry keeps retry delays negligible in tests.
func testRetry() config.RetryConfig {
	return config.RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2,
	}
}

// stubRunStore is an in-memory ports.RunStore with a configurable due batch.
type stubRunStore struct {
	mu   sync.Mutex
	runs map[string]*workflow.Run // keyed by orgID/id
	due  []workflow.Run
}

var _ ports.RunStore = (*stubRunStore)(nil)

func newStubRunStore() *stubRunStore {
	return &stubRunStore{runs: map[string]*workflow.Run{}}
}

func runKey(orgID, id string) string { return orgID + "/" + id }

func (s *stubRunStore) CreateRun(_ context.Context, r *workflow.Run) (*workflow.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.runs[runKey(r.OrgID, r.ID)] = &cp
	return r, nil
}

func (s *stubRunStore) UpdateRun(_ context.Context, r *workflow.Run) (*workflow.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runKey(r.OrgID, r.ID)]; !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	cp.Steps = append([]workflow.StepResult(nil), r.Steps...)
	s.runs[runKey(r.OrgID, r.ID)] = &cp
	return r, nil
}

func (s *stubRunStore) GetRun(_ context.Context, orgID, id string) (*workflow.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runKey(orgID, id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *stubRunStore) ListRuns(_ context.Context, orgID, workflowID string, _, _ int) ([]workflow.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []workflow.Run{}
	for _, r := range s.runs {
		if r.OrgID == orgID && r.WorkflowID == workflowID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *stubRunStore) ClaimDueRuns(_ context.Context, _ time.Time, _ int) ([]workflow.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	due := s.due
	s.due = nil
	return due, nil
}

// all returns every stored run.
func (s *stubRunStore) all() []workflow.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []workflow.Run{}
	for _, r := range s.runs {
		out = append(out, *r)
	}
	return out
}

// stubWorkflowStore serves a fixed workflow set.
type stubWorkflowStore struct {
	ports.WorkflowStore

	workflows []workflow.Workflow
}

func (s *stubWorkflowStore) ListEnabledByTrigger(_ context.Context, orgID, trigger string) ([]workflow.Workflow, error) {
	out := []workflow.Workflow{}
	for _, w := range s.workflows {
		if w.OrgID == orgID && w.Enabled && w.Trigger == trigger {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *stubWorkflowStore) GetWorkflow(_ context.Context, orgID, id string) (*workflow.Workflow, error) {
	for _, w := range s.workflows {
		if w.OrgID == orgID && w.ID == id {
			cp := w
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// stubLeadStore is a minimal in-memory ports.LeadStore.
type stubLeadStore struct {
	ports.LeadStore

	mu    sync.Mutex
	leads map[string]*lead.Lead // keyed by orgID/id
}

func newStubLeadStore(leads ...*lead.Lead) *stubLeadStore {
	s := &stubLeadStore{leads: map[string]*lead.Lead{}}
	for _, l := range leads {
		cp := *l
		s.leads[runKey(l.OrgID, l.ID)] = &cp
	}
	return s
}

func (s *stubLeadStore) GetLead(_ context.Context, orgID, id string) (*lead.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[runKey(orgID, id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *stubLeadStore) UpdateLead(_ context.Context, l *lead.Lead) (*lead.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[runKey(l.OrgID, l.ID)]; !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	s.leads[runKey(l.OrgID, l.ID)] = &cp
	return l, nil
}

// scoreCall records one AdjustScore invocation.
type scoreCall struct {
	orgID, leadID string
	delta         int
}

// stubLeadService records AdjustScore calls.
type stubLeadService struct {
	ports.LeadService

	mu    sync.Mutex
	calls []scoreCall
	err   error
}

func (s *stubLeadService) AdjustScore(_ context.Context, orgID, id string, delta int) (*lead.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scoreCall{orgID: orgID, leadID: id, delta: delta})
	return nil, s.err
}

// stubTaskService records created tasks.
type stubTaskService struct {
	ports.TaskService

	mu      sync.Mutex
	created []task.Task
}

func (s *stubTaskService) CreateTask(_ context.Context, t *task.Task) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, *t)
	return t, nil
}

// enrollCall records one Enroll invocation.
type enrollCall struct {
	orgID, sequenceID, leadID string
}

// stubSequenceService records Enroll calls.
type stubSequenceService struct {
	ports.SequenceService

	mu    sync.Mutex
	calls []enrollCall
	err   error
}

func (s *stubSequenceService) Enroll(_ context.Context, orgID, sequenceID, leadID string) (*sequence.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, enrollCall{orgID: orgID, sequenceID: sequenceID, leadID: leadID})
	if s.err != nil {
		return nil, s.err
	}
	return &sequence.Enrollment{}, nil
}

// stubEmailClient records sent messages, failing the first failures sends.
type stubEmailClient struct {
	mu       sync.Mutex
	sent     []ports.EmailMessage
	failures int
	err      error
}

func (c *stubEmailClient) Send(_ context.Context, msg ports.EmailMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures > 0 {
		c.failures--
		if c.err != nil {
			return c.err
		}
		return domain.ErrUnavailable
	}
	c.sent = append(c.sent, msg)
	return nil
}

// stubWebhookClient records posted payloads.
type stubWebhookClient struct {
	mu       sync.Mutex
	urls     []string
	payloads []map[string]string
	err      error
}

func (c *stubWebhookClient) Post(_ context.Context, url string, payload map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.urls = append(c.urls, url)
	c.payloads = append(c.payloads, payload)
	return nil
}

// stubBus records published signals synchronously.
type stubBus struct {
	mu        sync.Mutex
	published []domain.Signal
}

func (b *stubBus) Publish(_ context.Context, sig domain.Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, sig)
}

func (b *stubBus) Subscribe(ports.SignalHandler, ...string) {}

func (b *stubBus) signals() []domain.Signal {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Signal, len(b.published))
	copy(out, b.published)
	return out
}

// stubSequenceStore serves sequences and enrollments for the scheduler.
type stubSequenceStore struct {
	ports.SequenceStore

	mu          sync.Mutex
	sequences   map[string]*sequence.Sequence   // keyed by orgID/id
	enrollments map[string]*sequence.Enrollment // keyed by orgID/id
	due         []sequence.Enrollment
}

func newStubSequenceStore() *stubSequenceStore {
	return &stubSequenceStore{
		sequences:   map[string]*sequence.Sequence{},
		enrollments: map[string]*sequence.Enrollment{},
	}
}

func (s *stubSequenceStore) addSequence(seq *sequence.Sequence) {
	cp := *seq
	s.sequences[runKey(seq.OrgID, seq.ID)] = &cp
}

func (s *stubSequenceStore) addEnrollment(e *sequence.Enrollment) {
	cp := *e
	s.enrollments[runKey(e.OrgID, e.ID)] = &cp
}

func (s *stubSequenceStore) GetSequence(_ context.Context, orgID, id string) (*sequence.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.sequences[runKey(orgID, id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *seq
	return &cp, nil
}

func (s *stubSequenceStore) UpdateEnrollment(_ context.Context, e *sequence.Enrollment) (*sequence.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.enrollments[runKey(e.OrgID, e.ID)]; !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	s.enrollments[runKey(e.OrgID, e.ID)] = &cp
	return e, nil
}

func (s *stubSequenceStore) ClaimDueEnrollments(_ context.Context, _ time.Time, _ int) ([]sequence.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	due := s.due
	s.due = nil
	return due, nil
}

func (s *stubSequenceStore) enrollment(orgID, id string) *sequence.Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.enrollments[runKey(orgID, id)]
	cp := *e
	return &cp
}
