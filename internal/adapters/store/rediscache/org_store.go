package rediscache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/salesforge/platform/internal/domain/org"
	"github.com/salesforge/platform/internal/ports"
)

var _ ports.OrgStore = (*OrgStore)(nil)

// OrgStore caches org lookups. GetOrgByAPIKeyHash sits on the token issue
// path and GetOrg on every authenticated request, so both are cached.
type OrgStore struct {
	next  ports.OrgStore
	cache cache
}

// NewOrgStore wraps next with a Redis cache.
func NewOrgStore(next ports.OrgStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) *OrgStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &OrgStore{
		next:  next,
		cache: cache{client: client, ttl: ttl, logger: logger},
	}
}

func orgKey(id string) string {
	return "org:" + id
}

func orgByKeyHashKey(hash string) string {
	return "org:keyhash:" + hash
}

func (s *OrgStore) GetOrg(ctx context.Context, id string) (*org.Organization, error) {
	key := orgKey(id)

	var cached org.Organization
	if s.cache.get(ctx, key, &cached) {
		return &cached, nil
	}

	o, err := s.next.GetOrg(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, key, o)
	return o, nil
}

func (s *OrgStore) GetOrgByAPIKeyHash(ctx context.Context, hash string) (*org.Organization, error) {
	key := orgByKeyHashKey(hash)

	var cached org.Organization
	if s.cache.get(ctx, key, &cached) {
		return &cached, nil
	}

	o, err := s.next.GetOrgByAPIKeyHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, key, o)
	return o, nil
}

func (s *OrgStore) CreateOrg(ctx context.Context, o *org.Organization) (*org.Organization, error) {
	return s.next.CreateOrg(ctx, o)
}

func (s *OrgStore) GetUserByEmail(ctx context.Context, orgID, email string) (*org.User, error) {
	key := fmt.Sprintf("user:%s:%s", orgID, email)

	var cached org.User
	if s.cache.get(ctx, key, &cached) {
		return &cached, nil
	}

	u, err := s.next.GetUserByEmail(ctx, orgID, email)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, key, u)
	return u, nil
}

func (s *OrgStore) CreateUser(ctx context.Context, u *org.User) (*org.User, error) {
	created, err := s.next.CreateUser(ctx, u)
	if err != nil {
		return nil, err
	}
	s.cache.del(ctx, fmt.Sprintf("user:%s:%s", u.OrgID, u.Email))
	return created, nil
}
