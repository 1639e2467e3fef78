package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salesforge/platform/internal/adapters/http/dto"
	"github.com/salesforge/platform/internal/domain/sequence"
	"github.com/salesforge/platform/internal/ports"
)

// SequenceHandler handles HTTP requests for sequences and enrollments.
type SequenceHandler struct {
	sequences ports.SequenceService
}

// NewSequenceHandler creates a new SequenceHandler with the given service port.
func NewSequenceHandler(sequences ports.SequenceService) *SequenceHandler {
	return &SequenceHandler{sequences: sequences}
}

// mapSequenceRequest converts a SequenceRequest DTO to a domain Sequence.
// Delays were validated by the DTO, so parse errors are ignored here.
func mapSequenceRequest(orgID string, req *dto.SequenceRequest) *sequence.Sequence {
	steps := make([]sequence.Step, len(req.Steps))
	for i, step := range req.Steps {
		delay, _ := time.ParseDuration(step.Delay)
		steps[i] = sequence.Step{
			Subject:  step.Subject,
			Template: step.Template,
			Delay:    delay,
		}
	}
	return &sequence.Sequence{
		OrgID: orgID,
		Name:  req.Name,
		Steps: steps,
	}
}

// ListSequences handles GET /api/v1/sequences.
func (h *SequenceHandler) ListSequences(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)

	sequences, err := h.sequences.ListSequences(r.Context(), orgID(r), limit, offset)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSequenceListResponse(sequences))
}

// CreateSequence handles POST /api/v1/sequences.
func (h *SequenceHandler) CreateSequence(w http.ResponseWriter, r *http.Request) {
	var req dto.SequenceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.sequences.CreateSequence(r.Context(), mapSequenceRequest(orgID(r), &req))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToSequenceResponse(created))
}

// GetSequence handles GET /api/v1/sequences/{id}.
func (h *SequenceHandler) GetSequence(w http.ResponseWriter, r *http.Request) {
	s, err := h.sequences.GetSequence(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSequenceResponse(s))
}

// UpdateSequence handles PUT /api/v1/sequences/{id}.
func (h *SequenceHandler) UpdateSequence(w http.ResponseWriter, r *http.Request) {
	var req dto.SequenceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.sequences.UpdateSequence(r.Context(), orgID(r), chi.URLParam(r, "id"), mapSequenceRequest(orgID(r), &req))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSequenceResponse(updated))
}

// DeleteSequence handles DELETE /api/v1/sequences/{id}.
func (h *SequenceHandler) DeleteSequence(w http.ResponseWriter, r *http.Request) {
	if err := h.sequences.DeleteSequence(r.Context(), orgID(r), chi.URLParam(r, "id")); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Enroll handles POST /api/v1/sequences/{id}/enrollments.
func (h *SequenceHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req dto.EnrollRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	enrollment, err := h.sequences.Enroll(r.Context(), orgID(r), chi.URLParam(r, "id"), req.LeadID)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToEnrollmentResponse(enrollment))
}

// ListEnrollments handles GET /api/v1/sequences/{id}/enrollments.
func (h *SequenceHandler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)

	enrollments, err := h.sequences.ListEnrollments(r.Context(), orgID(r), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToEnrollmentListResponse(enrollments))
}

// ExitEnrollment handles DELETE /api/v1/enrollments/{id}.
func (h *SequenceHandler) ExitEnrollment(w http.ResponseWriter, r *http.Request) {
	if err := h.sequences.Exit(r.Context(), orgID(r), chi.URLParam(r, "id")); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
