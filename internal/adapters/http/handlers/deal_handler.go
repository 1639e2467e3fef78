package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/salesforge/platform/internal/adapters/http/dto"
	"github.com/salesforge/platform/internal/domain/deal"
	"github.com/salesforge/platform/internal/ports"
)

// DealHandler handles HTTP requests for deal operations.
type DealHandler struct {
	deals ports.DealService
}

// NewDealHandler creates a new DealHandler with the given service port.
func NewDealHandler(deals ports.DealService) *DealHandler {
	return &DealHandler{deals: deals}
}

// ListDeals handles GET /api/v1/deals.
func (h *DealHandler) ListDeals(w http.ResponseWriter, r *http.Request) {
	filter, err := parseDealFilter(r)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	deals, err := h.deals.ListDeals(r.Context(), orgID(r), filter)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToDealListResponse(deals))
}

// CreateDeal handles POST /api/v1/deals.
func (h *DealHandler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDealRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.deals.CreateDeal(r.Context(), &deal.Deal{
		OrgID:       orgID(r),
		ContactID:   req.ContactID,
		Name:        req.Name,
		Stage:       deal.Stage(req.Stage),
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		CloseDate:   req.CloseDate,
	})
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToDealResponse(created))
}

// GetDeal handles GET /api/v1/deals/{id}.
func (h *DealHandler) GetDeal(w http.ResponseWriter, r *http.Request) {
	d, err := h.deals.GetDeal(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToDealResponse(d))
}

// UpdateDeal handles PUT /api/v1/deals/{id}. Moving a deal to a new stage
// publishes deal.stage_changed, which the scoring subscriber and workflow
// triggers react to.
func (h *DealHandler) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateDealRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.deals.UpdateDeal(r.Context(), orgID(r), chi.URLParam(r, "id"), &deal.Deal{
		ContactID:   req.ContactID,
		Name:        req.Name,
		Stage:       deal.Stage(req.Stage),
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		CloseDate:   req.CloseDate,
	})
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToDealResponse(updated))
}

// DeleteDeal handles DELETE /api/v1/deals/{id}.
func (h *DealHandler) DeleteDeal(w http.ResponseWriter, r *http.Request) {
	if err := h.deals.DeleteDeal(r.Context(), orgID(r), chi.URLParam(r, "id")); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
