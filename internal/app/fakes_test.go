package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/contact"
	"github.com/salesforge/platform/internal/domain/deal"
	"github.com/salesforge/platform/internal/domain/lead"
	"github.com/salesforge/platform/internal/domain/org"
	"github.com/salesforge/platform/internal/domain/sequence"
	"github.com/salesforge/platform/internal/domain/task"
	"github.com/salesforge/platform/internal/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeBus records published signals synchronously.
type fakeBus struct {
	mu        sync.Mutex
	published []domain.Signal
}

func (b *fakeBus) Publish(_ context.Context, sig domain.Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, sig)
}

func (b *fakeBus) Subscribe(ports.SignalHandler, ...string) {}

func (b *fakeBus) signals() []domain.Signal {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Signal, len(b.published))
	copy(out, b.published)
	return out
}

func (b *fakeBus) signalTypes() []string {
	types := []string{}
	for _, sig := range b.signals() {
		types = append(types, sig.Type)
	}
	return types
}

// fakeLeadStore is an in-memory ports.LeadStore.
type fakeLeadStore struct {
	mu        sync.Mutex
	leads     map[string]*lead.Lead // keyed by orgID/id
	updateErr error                 // when set, UpdateLead fails with it
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{leads: map[string]*lead.Lead{}}
}

func leadStoreKey(orgID, id string) string { return orgID + "/" + id }

func (s *fakeLeadStore) ListLeads(_ context.Context, orgID string, filter lead.Filter) ([]lead.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []lead.Lead{}
	for _, l := range s.leads {
		if l.OrgID != orgID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.Source != "" && l.Source != filter.Source {
			continue
		}
		if filter.MinScore != nil && l.Score < *filter.MinScore {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (s *fakeLeadStore) GetLead(_ context.Context, orgID, id string) (*lead.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[leadStoreKey(orgID, id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *fakeLeadStore) CreateLead(_ context.Context, l *lead.Lead) (*lead.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.leads[leadStoreKey(l.OrgID, l.ID)] = &cp
	return l, nil
}

func (s *fakeLeadStore) UpdateLead(_ context.Context, l *lead.Lead) (*lead.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	if _, ok := s.leads[leadStoreKey(l.OrgID, l.ID)]; !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	s.leads[leadStoreKey(l.OrgID, l.ID)] = &cp
	return l, nil
}

func (s *fakeLeadStore) DeleteLead(_ context.Context, orgID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[leadStoreKey(orgID, id)]; !ok {
		return domain.ErrNotFound
	}
	delete(s.leads, leadStoreKey(orgID, id))
	return nil
}

func (s *fakeLeadStore) AdjustScore(_ context.Context, orgID, id string, delta int) (*lead.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[leadStoreKey(orgID, id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	l.Score += delta
	if l.Score < 0 {
		l.Score = 0
	}
	cp := *l
	return &cp, nil
}

// fakeContactStore is an in-memory ports.ContactStore.
type fakeContactStore struct {
	mu       sync.Mutex
	contacts map[string]*contact.Contact
}

func newFakeContactStore() *fakeContactStore {
	return &fakeContactStore{contacts: map[string]*contact.Contact{}}
}

func (s *fakeContactStore) ListContacts(_ context.Context, orgID string, _ contact.Filter) ([]contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []contact.Contact{}
	for _, c := range s.contacts {
		if c.OrgID == orgID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *fakeContactStore) GetContact(_ context.Context, orgID, id string) (*contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[orgID+"/"+id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *fakeContactStore) CreateContact(_ context.Context, c *contact.Contact) (*contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.contacts[c.OrgID+"/"+c.ID] = &cp
	return c, nil
}

func (s *fakeContactStore) UpdateContact(_ context.Context, c *contact.Contact) (*contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[c.OrgID+"/"+c.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	s.contacts[c.OrgID+"/"+c.ID] = &cp
	return c, nil
}

func (s *fakeContactStore) DeleteContact(_ context.Context, orgID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[orgID+"/"+id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.contacts, orgID+"/"+id)
	return nil
}

// fakeDealStore is an in-memory ports.DealStore.
type fakeDealStore struct {
	mu    sync.Mutex
	deals map[string]*deal.Deal
}

func newFakeDealStore() *fakeDealStore {
	return &fakeDealStore{deals: map[string]*deal.Deal{}}
}

func (s *fakeDealStore) ListDeals(_ context.Context, orgID string, _ deal.Filter) ([]deal.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []deal.Deal{}
	for _, d := range s.deals {
		if d.OrgID == orgID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *fakeDealStore) GetDeal(_ context.Context, orgID, id string) (*deal.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deals[orgID+"/"+id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *fakeDealStore) CreateDeal(_ context.Context, d *deal.Deal) (*deal.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.deals[d.OrgID+"/"+d.ID] = &cp
	return d, nil
}

func (s *fakeDealStore) UpdateDeal(_ context.Context, d *deal.Deal) (*deal.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deals[d.OrgID+"/"+d.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	s.deals[d.OrgID+"/"+d.ID] = &cp
	return d, nil
}

func (s *fakeDealStore) DeleteDeal(_ context.Context, orgID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deals[orgID+"/"+id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.deals, orgID+"/"+id)
	return nil
}

// fakeTaskStore is an in-memory ports.TaskStore.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[string]*task.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: map[string]*task.Task{}}
}

func (s *fakeTaskStore) ListTasks(_ context.Context, orgID string, _ task.Filter) ([]task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []task.Task{}
	for _, t := range s.tasks {
		if t.OrgID == orgID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *fakeTaskStore) GetTask(_ context.Context, orgID, id string) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[orgID+"/"+id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTaskStore) CreateTask(_ context.Context, t *task.Task) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tasks[t.OrgID+"/"+t.ID] = &cp
	return t, nil
}

func (s *fakeTaskStore) UpdateTask(_ context.Context, t *task.Task) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.OrgID+"/"+t.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	s.tasks[t.OrgID+"/"+t.ID] = &cp
	return t, nil
}

func (s *fakeTaskStore) DeleteTask(_ context.Context, orgID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[orgID+"/"+id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.tasks, orgID+"/"+id)
	return nil
}

// fakeSequenceStore is an in-memory ports.SequenceStore.
type fakeSequenceStore struct {
	mu          sync.Mutex
	sequences   map[string]*sequence.Sequence
	enrollments map[string]*sequence.Enrollment
}

func newFakeSequenceStore() *fakeSequenceStore {
	return &fakeSequenceStore{
		sequences:   map[string]*sequence.Sequence{},
		enrollments: map[string]*sequence.Enrollment{},
	}
}

func (s *fakeSequenceStore) ListSequences(_ context.Context, orgID string, _, _ int) ([]sequence.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []sequence.Sequence{}
	for _, seq := range s.sequences {
		if seq.OrgID == orgID {
			out = append(out, *seq)
		}
	}
	return out, nil
}

func (s *fakeSequenceStore) GetSequence(_ context.Context, orgID, id string) (*sequence.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.sequences[orgID+"/"+id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *seq
	return &cp, nil
}

func (s *fakeSequenceStore) CreateSequence(_ context.Context, seq *sequence.Sequence) (*sequence.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *seq
	s.sequences[seq.OrgID+"/"+seq.ID] = &cp
	return seq, nil
}

func (s *fakeSequenceStore) UpdateSequence(_ context.Context, seq *sequence.Sequence) (*sequence.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sequences[seq.OrgID+"/"+seq.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	cp := *seq
	s.sequences[seq.OrgID+"/"+seq.ID] = &cp
	return seq, nil
}

func (s *fakeSequenceStore) DeleteSequence(_ context.Context, orgID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sequences[orgID+"/"+id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sequences, orgID+"/"+id)
	return nil
}

func (s *fakeSequenceStore) CreateEnrollment(_ context.Context, e *sequence.Enrollment) (*sequence.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.enrollments {
		if existing.OrgID == e.OrgID && existing.SequenceID == e.SequenceID &&
			existing.LeadID == e.LeadID && existing.Status == sequence.EnrollmentActive {
			return nil, domain.ErrConflict
		}
	}
	cp := *e
	s.enrollments[e.OrgID+"/"+e.ID] = &cp
	return e, nil
}

func (s *fakeSequenceStore) UpdateEnrollment(_ context.Context, e *sequence.Enrollment) (*sequence.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.enrollments[e.OrgID+"/"+e.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	s.enrollments[e.OrgID+"/"+e.ID] = &cp
	return e, nil
}

func (s *fakeSequenceStore) GetEnrollment(_ context.Context, orgID, id string) (*sequence.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[orgID+"/"+id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *fakeSequenceStore) ListEnrollments(_ context.Context, orgID, sequenceID string, _, _ int) ([]sequence.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []sequence.Enrollment{}
	for _, e := range s.enrollments {
		if e.OrgID == orgID && e.SequenceID == sequenceID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeSequenceStore) ClaimDueEnrollments(_ context.Context, now time.Time, limit int) ([]sequence.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []sequence.Enrollment{}
	for _, e := range s.enrollments {
		if len(out) >= limit {
			break
		}
		if e.Status == sequence.EnrollmentActive && e.NextSendAt != nil && !e.NextSendAt.After(now) {
			e.NextSendAt = nil
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeSequenceStore) ExitActiveEnrollmentsForLead(_ context.Context, orgID, leadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.enrollments {
		if e.OrgID == orgID && e.LeadID == leadID && e.Status == sequence.EnrollmentActive {
			e.Status = sequence.EnrollmentExited
			e.NextSendAt = nil
		}
	}
	return nil
}

// fakeOrgStore is an in-memory ports.OrgStore.
type fakeOrgStore struct {
	mu    sync.Mutex
	orgs  map[string]*org.Organization
	users map[string]*org.User
}

func newFakeOrgStore() *fakeOrgStore {
	return &fakeOrgStore{
		orgs:  map[string]*org.Organization{},
		users: map[string]*org.User{},
	}
}

func (s *fakeOrgStore) GetOrg(_ context.Context, id string) (*org.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orgs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *fakeOrgStore) GetOrgByAPIKeyHash(_ context.Context, hash string) (*org.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orgs {
		if o.APIKeyHash == hash {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeOrgStore) CreateOrg(_ context.Context, o *org.Organization) (*org.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.orgs[o.ID] = &cp
	return o, nil
}

func (s *fakeOrgStore) GetUserByEmail(_ context.Context, orgID, email string) (*org.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[orgID+"/"+email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeOrgStore) CreateUser(_ context.Context, u *org.User) (*org.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.OrgID+"/"+u.Email] = &cp
	return u, nil
}

// Interface checks for the fakes.
var (
	_ ports.SignalBus     = (*fakeBus)(nil)
	_ ports.LeadStore     = (*fakeLeadStore)(nil)
	_ ports.ContactStore  = (*fakeContactStore)(nil)
	_ ports.DealStore     = (*fakeDealStore)(nil)
	_ ports.TaskStore     = (*fakeTaskStore)(nil)
	_ ports.SequenceStore = (*fakeSequenceStore)(nil)
	_ ports.OrgStore      = (*fakeOrgStore)(nil)
)
