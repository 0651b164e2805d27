package app

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/louisbranch/weekplan/internal/auth/identity"
)

type loginRequest struct {
	Token string `json:"token"`
}

type loginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// handleGoogleLogin exchanges a Google ID token for a first-party session.
func (h *handlers) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var request loginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, identity.ErrInvalidToken)
		return
	}
	if strings.TrimSpace(request.Token) == "" {
		writeError(w, identity.ErrInvalidToken)
		return
	}

	result, err := h.gateway.Login(r.Context(), request.Token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		Email: result.Email,
		Name:  result.Name,
	})
}
