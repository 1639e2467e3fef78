package handlers

import (
	"net/http"

	"github.com/salesforge/platform/internal/adapters/http/dto"
	"github.com/salesforge/platform/internal/ports"
)

// AuthHandler handles token issuance.
type AuthHandler struct {
	auth ports.AuthService
}

// NewAuthHandler creates a new AuthHandler with the given service port.
func NewAuthHandler(auth ports.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// IssueToken handles POST /api/v1/auth/token. It exchanges an org API key
// (plus an optional user email) for a bearer token.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, expiresIn, err := h.auth.IssueToken(r.Context(), req.APIKey, req.Email)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
	})
}
