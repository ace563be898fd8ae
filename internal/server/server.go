package server

import (
	"context"
	"log"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"starterapp/internal/auth"
	"starterapp/internal/config"
)

// UserDirectory covers the user reads and writes the HTTP layer performs
// outside of the account lifecycle flows. *auth.UserRepository implements it.
type UserDirectory interface {
	Create(ctx context.Context, p auth.CreateUserParams) (*auth.User, error)
	FindByID(ctx context.Context, id string) (*auth.User, error)
	FindByEmail(ctx context.Context, email string) (*auth.User, error)
	List(ctx context.Context, offset, limit int) ([]auth.User, int, error)
	Update(ctx context.Context, id string, p auth.UpdateUserParams) (*auth.User, error)
	SetActivated(ctx context.Context, id string, activated bool) error
	Delete(ctx context.Context, id string) error
}

// RepositoryDirectory is implemented by *auth.RepositoryStore.
type RepositoryDirectory interface {
	Create(ctx context.Context, name, link string, description *string) (*auth.Repository, error)
	FindByID(ctx context.Context, id string) (*auth.Repository, error)
	List(ctx context.Context, offset, limit int) ([]auth.Repository, int, error)
	Update(ctx context.Context, id, name, link string, description *string) (*auth.Repository, error)
	Delete(ctx context.Context, id string) error
}

type Server struct {
	Config         config.Config
	Auth           *auth.Service
	Tokens         *auth.TokenIssuer
	Users          UserDirectory
	Repositories   RepositoryDirectory
	RateLimiter    *auth.RateLimiter
	trustedProxies []net.IPNet
}

func NewServer(cfg config.Config, svc *auth.Service, tokens *auth.TokenIssuer, users UserDirectory, repos RepositoryDirectory, rl *auth.RateLimiter) *Server {
	return &Server{
		Config:         cfg,
		Auth:           svc,
		Tokens:         tokens,
		Users:          users,
		Repositories:   repos,
		RateLimiter:    rl,
		trustedProxies: parseProxyCIDRs(cfg.TrustedProxies),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	formatter := &middleware.DefaultLogFormatter{
		Logger:  log.New(log.Writer(), "", log.Flags()),
		NoColor: true,
	}
	r.Use(middleware.RequestLogger(formatter))
	r.Use(middleware.Recoverer)
	r.Use(secureHeaders)

	r.Post("/api/auth/register", s.handleRegister)
	r.Post("/api/auth/register/activate", s.handleActivate)
	r.Post("/api/auth/register/resend", s.handleResendActivation)
	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/logout", s.handleLogout)
	r.Post("/api/auth/reset-password/request", s.handleResetPasswordRequest)
	r.Post("/api/auth/reset-password/confirm", s.handleResetPasswordConfirm)
	r.Get("/api/auth/check", s.handleCheck)

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireAuth)

		pr.Get("/api/account", s.handleGetAccount)
		pr.Put("/api/account", s.handleUpdateAccount)

		pr.Get("/api/repositories", s.handleListRepositories)
		pr.Post("/api/repositories", s.handleCreateRepository)
		pr.Get("/api/repositories/{id}", s.handleGetRepository)
		pr.Put("/api/repositories/{id}", s.handleUpdateRepository)
		pr.Delete("/api/repositories/{id}", s.handleDeleteRepository)

		pr.Group(func(ar chi.Router) {
			ar.Use(s.requireAdmin)

			ar.Get("/api/users", s.handleListUsers)
			ar.Post("/api/users", s.handleCreateUser)
			ar.Get("/api/users/{id}", s.handleGetUser)
			ar.Put("/api/users/{id}", s.handleUpdateUser)
			ar.Delete("/api/users/{id}", s.handleDeleteUser)
			ar.Post("/api/users/{id}/activate", s.handleActivateUser)
			ar.Post("/api/users/{id}/deactivate", s.handleDeactivateUser)
		})
	})

	return r
}

// secureHeaders adds common security headers. Adjust CSP as needed for your UI.
func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		next.ServeHTTP(w, r)
	})
}
