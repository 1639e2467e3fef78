package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salesforge/platform/internal/adapters/http/middleware"
	"github.com/salesforge/platform/internal/domain/contact"
	"github.com/salesforge/platform/internal/domain/lead"
	"github.com/salesforge/platform/internal/platform/authtoken"
)

const testOrgID = "org-1"

var testTime = time.Date(2026, 2, 12, 15, 4, 5, 0, time.UTC)

// authedRequest builds a request carrying the authenticated test org, as the
// auth middleware would after verifying a token.
func authedRequest(method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	ctx := middleware.WithIdentity(r.Context(), authtoken.Identity{OrgID: testOrgID})
	return r.WithContext(ctx)
}

func withChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func validLead() lead.Lead {
	return lead.Lead{
		ID:        "lead-1",
		OrgID:     testOrgID,
		Email:     "ada@initech.com",
		FirstName: "Ada",
		Company:   "Initech",
		Source:    "webinar",
		Status:    lead.StatusNew,
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
}

func validContact() contact.Contact {
	return contact.Contact{
		ID:        "contact-1",
		OrgID:     testOrgID,
		LeadID:    "lead-1",
		Email:     "ada@initech.com",
		FirstName: "Ada",
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("failed to encode JSON body: %v", err)
	}
	return buf
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var result T
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
	return result
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}
