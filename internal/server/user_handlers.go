package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"starterapp/internal/auth"
	"starterapp/internal/i18n"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	offset, limit := parsePagination(r)

	users, total, err := s.Users.List(r.Context(), offset, limit)
	if err != nil {
		log.Printf("list users failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	items := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		items = append(items, userPayload(&users[i]))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": items,
		"total": total,
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.Users.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, userPayload(user))
}

type createUserRequest struct {
	Email    string  `json:"email"`
	Name     *string `json:"name"`
	Language string  `json:"language"`
	Role     string  `json:"role"`
}

// handleCreateUser creates an account without a password; the user sets one
// through the password-reset flow. Admin-created accounts start activated.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validateEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email format")
		return
	}
	if req.Role == "" {
		req.Role = auth.RoleUser
	}
	if req.Role != auth.RoleUser && req.Role != auth.RoleAdmin {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	user, err := s.Users.Create(r.Context(), auth.CreateUserParams{
		Email:         req.Email,
		Name:          req.Name,
		Language:      i18n.NormalizeLocale(req.Language),
		Role:          req.Role,
		Activated:     true,
		EmailVerified: true,
	})
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "A user with this email already exists.")
			return
		}
		log.Printf("create user failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, userPayload(user))
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Language *string `json:"language"`
	Role     *string `json:"role"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Role != nil && *req.Role != auth.RoleUser && *req.Role != auth.RoleAdmin {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}
	if req.Language != nil {
		normalized := i18n.NormalizeLocale(*req.Language)
		req.Language = &normalized
	}

	user, err := s.Users.Update(r.Context(), chi.URLParam(r, "id"), auth.UpdateUserParams{
		Name:     req.Name,
		Language: req.Language,
		Role:     req.Role,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, userPayload(user))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if admin := userFromContext(r.Context()); admin != nil && admin.ID == id {
		writeError(w, http.StatusBadRequest, "You cannot delete your own account.")
		return
	}

	if err := s.Users.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivateUser(w http.ResponseWriter, r *http.Request) {
	s.setUserActivated(w, r, true)
}

func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	s.setUserActivated(w, r, false)
}

func (s *Server) setUserActivated(w http.ResponseWriter, r *http.Request, activated bool) {
	id := chi.URLParam(r, "id")
	if admin := userFromContext(r.Context()); !activated && admin != nil && admin.ID == id {
		writeError(w, http.StatusBadRequest, "You cannot deactivate your own account.")
		return
	}

	if err := s.Users.SetActivated(r.Context(), id, activated); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
