package auth

import (
	"context"
	"fmt"
	"log"
	"time"

	"starterapp/internal/i18n"
)

// UserStore is the persistence dependency of the account lifecycle flows.
// *UserRepository implements it against postgres.
type UserStore interface {
	Create(ctx context.Context, p CreateUserParams) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	CreateVerificationToken(ctx context.Context, userID, token string, expires time.Time) error
	DeleteExpiredTokens(ctx context.Context) error
	ConsumeActivation(ctx context.Context, token string) (string, error)
	ConsumePasswordReset(ctx context.Context, token, passwordHash string) (string, error)
}

type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Service orchestrates the register -> activate, login -> session and
// forgot-password -> reset flows.
type Service struct {
	store    UserStore
	hasher   PasswordHasher
	issuer   *TokenIssuer
	verifier *Verifier
	mailer   Mailer
	baseURL  string
	tokenTTL time.Duration
}

func NewService(store UserStore, hasher PasswordHasher, issuer *TokenIssuer, mailer Mailer, baseURL string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Service{
		store:    store,
		hasher:   hasher,
		issuer:   issuer,
		verifier: NewVerifier(store, hasher),
		mailer:   mailer,
		baseURL:  baseURL,
		tokenTTL: tokenTTL,
	}
}

// Register creates an unactivated user and emails an activation link. The
// email is normalized and the password hashed before anything is stored.
// A failure past user creation is reported to the caller; the stuck account
// can recover through ResendActivation.
func (s *Service) Register(ctx context.Context, email, password, name, language string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.Create(ctx, CreateUserParams{
		Email:        NormalizeEmail(email),
		PasswordHash: &hash,
		Name:         optional(name),
		Language:     i18n.NormalizeLocale(language),
	})
	if err != nil {
		return err
	}

	return s.sendActivation(ctx, user)
}

// ResendActivation issues a fresh activation token for an account stuck
// without its email. Unknown or already-activated addresses succeed silently
// so the endpoint cannot be used to probe for accounts.
func (s *Service) ResendActivation(ctx context.Context, email string) error {
	user, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil || user.Activated {
		return nil
	}
	return s.sendActivation(ctx, user)
}

// Activate consumes a verification token and marks the owning user activated
// and email-verified. Expired tokens are swept first; a failing sweep is
// logged but never blocks consuming a still-valid token.
func (s *Service) Activate(ctx context.Context, token string) error {
	if token == "" {
		return ErrTokenNotFound
	}

	if err := s.store.DeleteExpiredTokens(ctx); err != nil {
		log.Printf("activate: token sweep failed: %v", err)
	}

	_, err := s.store.ConsumeActivation(ctx, token)
	return err
}

// Login verifies the credential pair and issues a session token. Every
// failure mode is reported as ErrUnauthorized; the underlying reason is
// logged only.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, failure, err := s.verifier.Verify(ctx, NormalizeEmail(email), password)
	if err != nil {
		return "", nil, err
	}
	if failure != FailureNone {
		log.Printf("login rejected: %s", failure)
		return "", nil, ErrUnauthorized
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue session token: %w", err)
	}
	return token, user, nil
}

// RequestReset issues a password-reset token and emails a reset link. An
// unknown address succeeds silently, sending nothing.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	user, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		log.Printf("password reset requested for unknown address")
		return nil
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password/confirm?token=%s", s.baseURL, token)
	content := i18n.PasswordResetEmail(user.Language, displayName(user), link, int(s.tokenTTL.Hours()))
	return s.mailer.Send(ctx, user.Email, content.Subject, content.Text, content.HTML)
}

// ConfirmReset consumes a reset token and writes the new password hash in
// the same transaction.
func (s *Service) ConfirmReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrTokenNotFound
	}

	if err := s.store.DeleteExpiredTokens(ctx); err != nil {
		log.Printf("reset confirm: token sweep failed: %v", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.store.ConsumePasswordReset(ctx, token, hash)
	return err
}

func (s *Service) sendActivation(ctx context.Context, user *User) error {
	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/register/activate?token=%s", s.baseURL, token)
	content := i18n.ActivationEmail(user.Language, displayName(user), link, int(s.tokenTTL.Hours()))
	return s.mailer.Send(ctx, user.Email, content.Subject, content.Text, content.HTML)
}

func (s *Service) issueToken(ctx context.Context, userID string) (string, error) {
	token, err := NewTokenValue()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	if err := s.store.CreateVerificationToken(ctx, userID, token, time.Now().Add(s.tokenTTL)); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func displayName(user *User) string {
	if user.Name != nil {
		return *user.Name
	}
	return user.Email
}
