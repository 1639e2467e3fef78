package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/salesforge/platform/internal/adapters/http/dto"
	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/workflow"
	"github.com/salesforge/platform/internal/ports"
)

// WorkflowHandler handles HTTP requests for workflow definitions and their
// runs.
type WorkflowHandler struct {
	workflows ports.WorkflowService
}

// NewWorkflowHandler creates a new WorkflowHandler with the given service port.
func NewWorkflowHandler(workflows ports.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflows: workflows}
}

// mapWorkflowRequest converts a WorkflowRequest DTO to a domain Workflow.
func mapWorkflowRequest(orgID string, req *dto.WorkflowRequest) *workflow.Workflow {
	return &workflow.Workflow{
		OrgID:      orgID,
		Name:       req.Name,
		Enabled:    req.Enabled,
		Trigger:    req.Trigger,
		Conditions: req.Conditions,
		Actions:    req.Actions,
	}
}

// ListWorkflows handles GET /api/v1/workflows.
func (h *WorkflowHandler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := workflow.Filter{Trigger: q.Get("trigger")}
	filter.Limit, filter.Offset = parsePage(r)

	if raw := q.Get("enabled"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			dto.WriteErrorResponse(w, r, &domain.ValidationError{
				Fields: map[string]string{"enabled": "must be true or false"},
			})
			return
		}
		filter.Enabled = &enabled
	}

	workflows, err := h.workflows.ListWorkflows(r.Context(), orgID(r), filter)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToWorkflowListResponse(workflows))
}

// CreateWorkflow handles POST /api/v1/workflows.
func (h *WorkflowHandler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req dto.WorkflowRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.workflows.CreateWorkflow(r.Context(), mapWorkflowRequest(orgID(r), &req))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToWorkflowResponse(created))
}

// GetWorkflow handles GET /api/v1/workflows/{id}.
func (h *WorkflowHandler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := h.workflows.GetWorkflow(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToWorkflowResponse(wf))
}

// UpdateWorkflow handles PUT /api/v1/workflows/{id}.
func (h *WorkflowHandler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req dto.WorkflowRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.workflows.UpdateWorkflow(r.Context(), orgID(r), chi.URLParam(r, "id"), mapWorkflowRequest(orgID(r), &req))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToWorkflowResponse(updated))
}

// DeleteWorkflow handles DELETE /api/v1/workflows/{id}.
func (h *WorkflowHandler) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	if err := h.workflows.DeleteWorkflow(r.Context(), orgID(r), chi.URLParam(r, "id")); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// EnableWorkflow handles POST /api/v1/workflows/{id}/enable.
func (h *WorkflowHandler) EnableWorkflow(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, true)
}

// DisableWorkflow handles POST /api/v1/workflows/{id}/disable.
func (h *WorkflowHandler) DisableWorkflow(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, false)
}

func (h *WorkflowHandler) setEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	if err := h.workflows.SetEnabled(r.Context(), orgID(r), chi.URLParam(r, "id"), enabled); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRuns handles GET /api/v1/workflows/{id}/runs.
func (h *WorkflowHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)

	runs, err := h.workflows.ListRuns(r.Context(), orgID(r), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToRunListResponse(runs))
}

// GetRun handles GET /api/v1/runs/{id}.
func (h *WorkflowHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.workflows.GetRun(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToRunResponse(run))
}
