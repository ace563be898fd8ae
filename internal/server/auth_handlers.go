package server

import (
	"errors"
	"log"
	"net/http"

	"starterapp/internal/auth"
	"starterapp/internal/i18n"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !validateEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email format")
		return
	}
	if err := validatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Language == "" {
		req.Language = i18n.LocaleFromRequest(r)
	}

	ctx := r.Context()
	ip := clientIP(r, s.trustedProxies)
	if locked, ttl, err := s.RateLimiter.RegisterRegisterAttempt(ctx, req.Email, ip); err != nil {
		log.Printf("register: rate limit check failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Registration throttled")
		return
	} else if locked {
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"message":  "Too many signup attempts. Try again later.",
			"cooldown": int64(ttl.Seconds()),
		})
		return
	}

	if err := s.Auth.Register(ctx, req.Email, req.Password, req.Name, req.Language); err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			// Generic wording so the endpoint cannot confirm which
			// addresses hold an account.
			writeError(w, http.StatusConflict, "Could not create the account.")
			return
		}
		log.Printf("register failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Registration successful! Please check your email to activate your account.",
	})
}

type activateRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "Missing token")
		return
	}

	if err := s.Auth.Activate(r.Context(), req.Token); err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			writeError(w, http.StatusBadRequest, "Invalid or expired token.")
			return
		}
		log.Printf("activate failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Activation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Account activated."})
}

type resendActivationRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleResendActivation(w http.ResponseWriter, r *http.Request) {
	var req resendActivationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validateEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	ctx := r.Context()
	cooldownKey := "resend_cooldown:" + auth.NormalizeEmail(req.Email)
	if ttl := s.RateLimiter.CooldownTTL(ctx, cooldownKey); ttl > 0 {
		writeJSON(w, http.StatusTooManyRequests, map[string]int64{"cooldown": int64(ttl.Seconds())})
		return
	}

	if err := s.Auth.ResendActivation(ctx, req.Email); err != nil {
		log.Printf("resend activation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}
	s.RateLimiter.SetCooldown(ctx, cooldownKey, auth.EmailCooldown)

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "If the account exists and is not activated, a new activation email has been sent.",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validateEmail(req.Email) || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	ctx := r.Context()
	ip := clientIP(r, s.trustedProxies)
	if s.RateLimiter.IsIPBanned(ctx, ip) {
		writeError(w, http.StatusForbidden, "IP_BANNED")
		return
	}

	token, user, err := s.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			_ = s.RateLimiter.RegisterLoginFailure(ctx, ip)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		log.Printf("login failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	s.RateLimiter.ResetLogin(ctx, ip)
	auth.SetAuthCookie(w, token, s.Config.Production())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":       user.ID,
			"email":    user.Email,
			"name":     user.Name,
			"role":     user.Role,
			"language": user.Language,
		},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearAuthCookie(w, s.Config.Production())
	w.WriteHeader(http.StatusNoContent)
}

// handleCheck reports whether the request carries a valid credential for an
// activated account. It is public and always answers 200.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		log.Printf("auth check failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to check authentication")
		return
	}
	writeJSON(w, http.StatusOK, user != nil)
}
