package auth

import (
	"strings"
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID            string
	Email         string
	PasswordHash  *string
	Name          *string
	Language      string
	Role          string
	Activated     bool
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// VerificationToken is a single-use, time-limited credential proving control
// of an email address. Rows are only ever created and deleted, never updated.
type VerificationToken struct {
	Token   string
	UserID  string
	Expires time.Time
}

// NormalizeEmail lowercases and trims an address. Emails are stored and
// compared in this form everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
