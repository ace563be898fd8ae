package server

import (
	"context"
	"net/http"

	"starterapp/internal/auth"
)

type ctxKey string

const userContextKey ctxKey = "user"

// requireAuth resolves the session token (bearer header before cookie),
// verifies its signature and loads the user. Accounts that are gone or not
// activated are rejected the same way as a bad token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.currentUser(r)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load user")
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if user.Role != auth.RoleAdmin {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser returns the authenticated user, or nil when the request
// carries no usable credential. The error return is reserved for storage
// failures.
func (s *Server) currentUser(r *http.Request) (*auth.User, error) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		return nil, nil
	}

	userID, err := s.Tokens.Verify(token)
	if err != nil {
		return nil, nil
	}

	user, err := s.Users.FindByID(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Activated {
		return nil, nil
	}
	return user, nil
}

func userFromContext(ctx context.Context) *auth.User {
	if val, ok := ctx.Value(userContextKey).(*auth.User); ok {
		return val
	}
	return nil
}
