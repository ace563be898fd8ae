package auth

import "context"

// UserLookup is the read-only dependency of the credential verifier.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// VerifyFailure tags the internal reason a credential check failed. It is
// meant for logging only; callers must report every failure uniformly so
// responses do not leak which check rejected the attempt.
type VerifyFailure string

const (
	FailureNone               VerifyFailure = ""
	FailureNotFound           VerifyFailure = "not_found"
	FailureInvalidAccount     VerifyFailure = "invalid_account"
	FailureInvalidCredentials VerifyFailure = "invalid_credentials"
)

// Verifier checks email/password pairs against stored password hashes.
// It is read-only and never mutates user state.
type Verifier struct {
	users  UserLookup
	hasher PasswordHasher
}

func NewVerifier(users UserLookup, hasher PasswordHasher) *Verifier {
	return &Verifier{users: users, hasher: hasher}
}

// Verify returns the matched user, or a non-empty VerifyFailure naming the
// check that rejected the pair. A user that has no password set, or whose
// registration was never completed, must not authenticate regardless of the
// password supplied. The error return is reserved for storage failures.
func (v *Verifier) Verify(ctx context.Context, email, password string) (*User, VerifyFailure, error) {
	user, err := v.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, FailureNone, err
	}
	if user == nil {
		return nil, FailureNotFound, nil
	}
	if user.PasswordHash == nil || !user.Activated || !user.EmailVerified {
		return nil, FailureInvalidAccount, nil
	}
	if !v.hasher.Compare(*user.PasswordHash, password) {
		return nil, FailureInvalidCredentials, nil
	}
	return user, FailureNone, nil
}
