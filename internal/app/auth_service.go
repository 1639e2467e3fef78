// Package app provides application services that orchestrate use cases by
// coordinating between domain logic and infrastructure through port
// interfaces. Services validate input, drive the stores, and publish the
// signals the automation layer reacts to.
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/org"
	"github.com/salesforge/platform/internal/platform/authtoken"
	"github.com/salesforge/platform/internal/ports"
)

// Compile-time check that AuthService implements ports.AuthService.
var _ ports.AuthService = (*AuthService)(nil)

// AuthService exchanges org API keys for signed bearer tokens. The API key
// identifies the organization; an optional user email attributes the token
// to a member of that organization.
type AuthService struct {
	orgs   ports.OrgStore
	tokens *authtoken.Manager
	logger *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(orgs ports.OrgStore, tokens *authtoken.Manager, logger *slog.Logger) *AuthService {
	return &AuthService{
		orgs:   orgs,
		tokens: tokens,
		logger: logger,
	}
}

// IssueToken validates the API key and returns a signed JWT plus its
// lifetime in seconds. An unknown key maps to domain.ErrUnauthorized so the
// handler cannot leak whether the key exists.
func (s *AuthService) IssueToken(ctx context.Context, apiKey, userEmail string) (string, int64, error) {
	o, err := s.orgs.GetOrgByAPIKeyHash(ctx, org.HashAPIKey(apiKey))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", 0, domain.ErrUnauthorized
		}
		s.logger.ErrorContext(ctx, "failed to resolve api key",
			slog.String("operation", "IssueToken"),
			slog.Any("error", err),
		)
		return "", 0, err
	}

	identity := authtoken.Identity{OrgID: o.ID}
	if userEmail != "" {
		u, err := s.orgs.GetUserByEmail(ctx, o.ID, userEmail)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to resolve user",
				slog.String("operation", "IssueToken"),
				slog.String("org_id", o.ID),
				slog.Any("error", err),
			)
			return "", 0, err
		}
		identity.UserID = u.ID
		identity.Email = u.Email
		identity.Role = u.Role.String()
	}

	token, ttl, err := s.tokens.Issue(identity)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to sign token",
			slog.String("operation", "IssueToken"),
			slog.String("org_id", o.ID),
			slog.Any("error", err),
		)
		return "", 0, err
	}

	s.logger.InfoContext(ctx, "token issued",
		slog.String("org_id", o.ID),
		slog.String("user_email", userEmail),
	)
	return token, int64(ttl.Seconds()), nil
}
