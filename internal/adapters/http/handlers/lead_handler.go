package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/salesforge/platform/internal/adapters/http/dto"
	"github.com/salesforge/platform/internal/ports"
)

// LeadHandler handles HTTP requests for lead operations, including
// conversion and manual score adjustment.
type LeadHandler struct {
	leads ports.LeadService
}

// NewLeadHandler creates a new LeadHandler with the given service port.
func NewLeadHandler(leads ports.LeadService) *LeadHandler {
	return &LeadHandler{leads: leads}
}

// ListLeads handles GET /api/v1/leads.
func (h *LeadHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	filter, err := parseLeadFilter(r)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	leads, err := h.leads.ListLeads(r.Context(), orgID(r), filter)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLeadListResponse(leads))
}

// CreateLead handles POST /api/v1/leads.
func (h *LeadHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLeadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.leads.CreateLead(r.Context(), mapCreateLeadRequest(orgID(r), &req))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToLeadResponse(created))
}

// GetLead handles GET /api/v1/leads/{id}.
func (h *LeadHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	l, err := h.leads.GetLead(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLeadResponse(l))
}

// UpdateLead handles PUT /api/v1/leads/{id}.
func (h *LeadHandler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateLeadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.leads.UpdateLead(r.Context(), orgID(r), chi.URLParam(r, "id"), mapUpdateLeadRequest(&req))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLeadResponse(updated))
}

// DeleteLead handles DELETE /api/v1/leads/{id}.
func (h *LeadHandler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := h.leads.DeleteLead(r.Context(), orgID(r), chi.URLParam(r, "id")); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ConvertLead handles POST /api/v1/leads/{id}/convert.
func (h *LeadHandler) ConvertLead(w http.ResponseWriter, r *http.Request) {
	c, err := h.leads.ConvertLead(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToContactResponse(c))
}

// AdjustScore handles POST /api/v1/leads/{id}/score.
func (h *LeadHandler) AdjustScore(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustScoreRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.leads.AdjustScore(r.Context(), orgID(r), chi.URLParam(r, "id"), req.Delta)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLeadResponse(updated))
}
