package server

import (
	"net/http"

	"starterapp/internal/auth"
	"starterapp/internal/i18n"
)

func userPayload(user *auth.User) map[string]interface{} {
	return map[string]interface{}{
		"id":            user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"language":      user.Language,
		"role":          user.Role,
		"activated":     user.Activated,
		"emailVerified": user.EmailVerified,
		"createdAt":     user.CreatedAt,
	}
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, userPayload(user))
}

type updateAccountRequest struct {
	Name     *string `json:"name"`
	Language *string `json:"language"`
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Language != nil {
		normalized := i18n.NormalizeLocale(*req.Language)
		req.Language = &normalized
	}

	updated, err := s.Users.Update(r.Context(), user.ID, auth.UpdateUserParams{
		Name:     req.Name,
		Language: req.Language,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update account")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	writeJSON(w, http.StatusOK, userPayload(updated))
}
