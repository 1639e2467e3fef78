package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/salesforge/platform/internal/adapters/http/dto"
	"github.com/salesforge/platform/internal/domain/contact"
	"github.com/salesforge/platform/internal/ports"
)

// ContactHandler handles HTTP requests for contact CRUD.
type ContactHandler struct {
	contacts ports.ContactService
}

// NewContactHandler creates a new ContactHandler with the given service port.
func NewContactHandler(contacts ports.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// ListContacts handles GET /api/v1/contacts.
func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	filter := contact.Filter{Company: r.URL.Query().Get("company")}
	filter.Limit, filter.Offset = parsePage(r)

	contacts, err := h.contacts.ListContacts(r.Context(), orgID(r), filter)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToContactListResponse(contacts))
}

// CreateContact handles POST /api/v1/contacts.
func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.contacts.CreateContact(r.Context(), &contact.Contact{
		OrgID:     orgID(r),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
		Phone:     req.Phone,
	})
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToContactResponse(created))
}

// GetContact handles GET /api/v1/contacts/{id}.
func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	c, err := h.contacts.GetContact(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToContactResponse(c))
}

// UpdateContact handles PUT /api/v1/contacts/{id}.
func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.contacts.UpdateContact(r.Context(), orgID(r), chi.URLParam(r, "id"), &contact.Contact{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
		Phone:     req.Phone,
	})
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToContactResponse(updated))
}

// DeleteContact handles DELETE /api/v1/contacts/{id}.
func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.contacts.DeleteContact(r.Context(), orgID(r), chi.URLParam(r, "id")); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
