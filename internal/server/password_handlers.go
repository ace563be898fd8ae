package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"starterapp/internal/auth"
)

type resetPasswordRequestRequest struct {
	Email string `json:"email"`
}

// handleResetPasswordRequest always answers with the same success shape,
// whether or not the address has an account. Only the registered case sends
// an email.
func (s *Server) handleResetPasswordRequest(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validateEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	ctx := r.Context()
	cooldownKey := "forgot_password_cooldown:" + auth.NormalizeEmail(req.Email)
	if ttl := s.RateLimiter.CooldownTTL(ctx, cooldownKey); ttl > 0 {
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"cooldown": int64(ttl.Seconds()),
			"message":  fmt.Sprintf("Please wait %d seconds before making another request.", int(ttl.Seconds())),
		})
		return
	}

	ip := clientIP(r, s.trustedProxies)
	if locked, ttl, err := s.RateLimiter.RegisterResetAttempt(ctx, req.Email, ip); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	} else if locked {
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"cooldown": int64(ttl.Seconds()),
			"message":  "Too many reset requests. Try again later.",
		})
		return
	}

	if err := s.Auth.RequestReset(ctx, req.Email); err != nil {
		log.Printf("reset request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}
	s.RateLimiter.SetCooldown(ctx, cooldownKey, auth.EmailCooldown)

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "If the email address exists, a password reset email has been sent with instructions.",
	})
}

type resetPasswordConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) handleResetPasswordConfirm(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "Token is required")
		return
	}
	if err := validatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.Auth.ConfirmReset(r.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			writeError(w, http.StatusBadRequest, "Invalid or expired token.")
			return
		}
		log.Printf("reset confirm failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset successfully."})
}
