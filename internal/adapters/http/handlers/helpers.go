// Package handlers implements the inbound HTTP handlers, translating between
// the JSON API and the application service ports.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/salesforge/platform/internal/adapters/http/dto"
	"github.com/salesforge/platform/internal/adapters/http/middleware"
	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/deal"
	"github.com/salesforge/platform/internal/domain/lead"
	"github.com/salesforge/platform/internal/domain/task"
)

// orgID extracts the authenticated org from the request context. The auth
// middleware guarantees it is present on protected routes.
func orgID(r *http.Request) string {
	id, _ := middleware.IdentityFromContext(r.Context())
	return id.OrgID
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

// maxJSONBodyBytes is the maximum allowed size for a JSON request body (1 MB).
const maxJSONBodyBytes = 1 << 20

// decodeJSONBody decodes the request body as JSON into dst. The body is
// limited to maxJSONBodyBytes to prevent resource exhaustion. On failure,
// it writes a 400 error response and returns false.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		dto.WriteErrorResponse(w, r, &domain.ValidationError{
			Fields: map[string]string{"body": "invalid JSON"},
		})
		return false
	}
	return true
}

// validatable is implemented by request DTOs that support validation.
type validatable interface {
	Validate() error
}

// decodeAndValidate decodes the JSON request body into dst and validates it.
// On decode or validation failure it writes an error response and returns false.
func decodeAndValidate[T validatable](w http.ResponseWriter, r *http.Request, dst T) bool {
	if !decodeJSONBody(w, r, dst) {
		return false
	}
	if err := dst.Validate(); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return false
	}
	return true
}

// parsePage extracts limit/offset query parameters. Invalid values fall back
// to zero, which the application layer replaces with its defaults.
func parsePage(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// parseLeadFilter builds a lead filter from query parameters.
func parseLeadFilter(r *http.Request) (lead.Filter, error) {
	q := r.URL.Query()
	filter := lead.Filter{Source: q.Get("source")}
	filter.Limit, filter.Offset = parsePage(r)

	if raw := q.Get("status"); raw != "" {
		status := lead.Status(raw)
		if !status.IsValid() {
			return lead.Filter{}, &domain.ValidationError{
				Fields: map[string]string{"status": "invalid: " + strconv.Quote(raw)},
			}
		}
		filter.Status = status
	}
	if raw := q.Get("min_score"); raw != "" {
		min, err := strconv.Atoi(raw)
		if err != nil {
			return lead.Filter{}, &domain.ValidationError{
				Fields: map[string]string{"min_score": "must be an integer"},
			}
		}
		filter.MinScore = &min
	}
	return filter, nil
}

// parseDealFilter builds a deal filter from query parameters.
func parseDealFilter(r *http.Request) (deal.Filter, error) {
	q := r.URL.Query()
	filter := deal.Filter{ContactID: q.Get("contact_id")}
	filter.Limit, filter.Offset = parsePage(r)

	if raw := q.Get("stage"); raw != "" {
		stage := deal.Stage(raw)
		if !stage.IsValid() {
			return deal.Filter{}, &domain.ValidationError{
				Fields: map[string]string{"stage": "invalid: " + strconv.Quote(raw)},
			}
		}
		filter.Stage = stage
	}
	return filter, nil
}

// parseTaskFilter builds a task filter from query parameters.
func parseTaskFilter(r *http.Request) (task.Filter, error) {
	q := r.URL.Query()
	filter := task.Filter{RelatedID: q.Get("related_id")}
	filter.Limit, filter.Offset = parsePage(r)

	if raw := q.Get("status"); raw != "" {
		status := task.Status(raw)
		if !status.IsValid() {
			return task.Filter{}, &domain.ValidationError{
				Fields: map[string]string{"status": "invalid: " + strconv.Quote(raw)},
			}
		}
		filter.Status = status
	}
	return filter, nil
}

// mapCreateLeadRequest converts a CreateLeadRequest DTO to a domain Lead.
func mapCreateLeadRequest(orgID string, req *dto.CreateLeadRequest) *lead.Lead {
	l := &lead.Lead{
		OrgID:      orgID,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Company:    req.Company,
		Phone:      req.Phone,
		Source:     req.Source,
		Attributes: req.Attributes,
	}
	if req.Status != "" {
		l.Status = lead.Status(req.Status)
	}
	return l
}

// mapUpdateLeadRequest converts an UpdateLeadRequest DTO to the replacement
// domain Lead the service merges onto the stored entity.
func mapUpdateLeadRequest(req *dto.UpdateLeadRequest) *lead.Lead {
	return &lead.Lead{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Company:    req.Company,
		Phone:      req.Phone,
		Source:     req.Source,
		Status:     lead.Status(req.Status),
		Attributes: req.Attributes,
	}
}
