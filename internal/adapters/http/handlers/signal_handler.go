package handlers

import (
	"net/http"

	"github.com/salesforge/platform/internal/adapters/http/dto"
	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/ports"
)

// SignalHandler handles external signal ingestion.
type SignalHandler struct {
	signals ports.SignalService
}

// NewSignalHandler creates a new SignalHandler with the given service port.
func NewSignalHandler(signals ports.SignalService) *SignalHandler {
	return &SignalHandler{signals: signals}
}

// Ingest handles POST /api/v1/signals. Accepted signals are dispatched
// asynchronously; the response only acknowledges receipt. Ingestable types
// are all lead engagement events, so the subject is always a lead.
func (h *SignalHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req dto.IngestSignalRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sig := domain.NewSignal(req.Type, orgID(r), domain.SubjectLead, req.SubjectID, req.Fields)
	if err := h.signals.Ingest(r.Context(), sig); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.SignalAcceptedResponse{ID: sig.ID})
}
