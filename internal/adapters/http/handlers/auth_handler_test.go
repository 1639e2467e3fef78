package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/salesforge/platform/internal/adapters/http/dto"
	"github.com/salesforge/platform/internal/adapters/http/handlers"
	"github.com/salesforge/platform/internal/domain"
)

// stubAuthService returns a canned token.
type stubAuthService struct {
	token     string
	expiresIn int64
	err       error
	gotAPIKey string
	gotEmail  string
}

func (s *stubAuthService) IssueToken(_ context.Context, apiKey, userEmail string) (string, int64, error) {
	s.gotAPIKey, s.gotEmail = apiKey, userEmail
	return s.token, s.expiresIn, s.err
}

func TestIssueToken_Success(t *testing.T) {
	t.Parallel()
	svc := &stubAuthService{token: "signed.jwt.token", expiresIn: 3600}
	h := handlers.NewAuthHandler(svc)

	body := jsonBody(t, dto.TokenRequest{APIKey: "sk_live_abc", Email: "ada@initech.com"})
	rec := httptest.NewRecorder()
	h.IssueToken(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", body))

	requireStatus(t, rec, http.StatusOK)
	resp := decodeJSON[dto.TokenResponse](t, rec)
	if resp.AccessToken != "signed.jwt.token" {
		t.Errorf("AccessToken = %q", resp.AccessToken)
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("TokenType = %q, want Bearer", resp.TokenType)
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", resp.ExpiresIn)
	}
	if svc.gotAPIKey != "sk_live_abc" || svc.gotEmail != "ada@initech.com" {
		t.Errorf("service got (%q, %q)", svc.gotAPIKey, svc.gotEmail)
	}
}

func TestIssueToken_MissingAPIKey(t *testing.T) {
	t.Parallel()
	h := handlers.NewAuthHandler(&stubAuthService{})

	body := jsonBody(t, dto.TokenRequest{Email: "ada@initech.com"})
	rec := httptest.NewRecorder()
	h.IssueToken(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", body))

	requireStatus(t, rec, http.StatusBadRequest)
}

func TestIssueToken_UnknownKey(t *testing.T) {
	t.Parallel()
	h := handlers.NewAuthHandler(&stubAuthService{err: domain.ErrUnauthorized})

	body := jsonBody(t, dto.TokenRequest{APIKey: "bogus"})
	rec := httptest.NewRecorder()
	h.IssueToken(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", body))

	requireStatus(t, rec, http.StatusUnauthorized)
}
