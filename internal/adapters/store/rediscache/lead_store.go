package rediscache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/salesforge/platform/internal/domain/lead"
	"github.com/salesforge/platform/internal/ports"
)

var _ ports.LeadStore = (*LeadStore)(nil)

// LeadStore caches individual lead reads. List queries always hit the
// underlying store; their result sets are filter-dependent and not worth
// the invalidation complexity.
type LeadStore struct {
	next  ports.LeadStore
	cache cache
}

// NewLeadStore wraps next with a Redis cache.
func NewLeadStore(next ports.LeadStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) *LeadStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LeadStore{
		next:  next,
		cache: cache{client: client, ttl: ttl, logger: logger},
	}
}

func leadKey(orgID, id string) string {
	return fmt.Sprintf("lead:%s:%s", orgID, id)
}

func (s *LeadStore) ListLeads(ctx context.Context, orgID string, filter lead.Filter) ([]lead.Lead, error) {
	return s.next.ListLeads(ctx, orgID, filter)
}

func (s *LeadStore) GetLead(ctx context.Context, orgID, id string) (*lead.Lead, error) {
	key := leadKey(orgID, id)

	var cached lead.Lead
	if s.cache.get(ctx, key, &cached) {
		return &cached, nil
	}

	l, err := s.next.GetLead(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, key, l)
	return l, nil
}

func (s *LeadStore) CreateLead(ctx context.Context, l *lead.Lead) (*lead.Lead, error) {
	return s.next.CreateLead(ctx, l)
}

func (s *LeadStore) UpdateLead(ctx context.Context, l *lead.Lead) (*lead.Lead, error) {
	updated, err := s.next.UpdateLead(ctx, l)
	if err != nil {
		return nil, err
	}
	s.cache.del(ctx, leadKey(l.OrgID, l.ID))
	return updated, nil
}

func (s *LeadStore) DeleteLead(ctx context.Context, orgID, id string) error {
	if err := s.next.DeleteLead(ctx, orgID, id); err != nil {
		return err
	}
	s.cache.del(ctx, leadKey(orgID, id))
	return nil
}

func (s *LeadStore) AdjustScore(ctx context.Context, orgID, id string, delta int) (*lead.Lead, error) {
	l, err := s.next.AdjustScore(ctx, orgID, id, delta)
	if err != nil {
		return nil, err
	}
	s.cache.del(ctx, leadKey(orgID, id))
	return l, nil
}
