package domain

import "errors"

// Sentinel errors, grouped by how the HTTP boundary maps them:
// validation (400), auth (401), config (500), dependency (500).
var (
	ErrInvalidEmail = errors.New("invalid email")
	ErrInvalidCode  = errors.New("invalid code format")

	ErrVerificationExpired = errors.New("verification expired")
	ErrVerificationInvalid = errors.New("verification invalid")
	ErrCodeMismatch        = errors.New("incorrect code")
	ErrTokenInvalid        = errors.New("token is invalid")
	ErrTokenExpired        = errors.New("token is expired")

	ErrNotConfigured = errors.New("server not configured")
)

// Identity is the principal proven by a session token. Name may be empty.
type Identity struct {
	Email string
	Name  string
}
