package auth

import "errors"

var (
	ErrNotFound         = errors.New("auth: account not found")
	ErrInactive         = errors.New("auth: account inactive")
	ErrPasswordMismatch = errors.New("auth: password mismatch")
	ErrStoreUnavailable = errors.New("auth: store unavailable")
	ErrInvalidClass     = errors.New("auth: invalid account class")
	ErrUnauthorized     = errors.New("auth: unauthorized")
)

// ErrInvalidToken indicates a bearer token failed validation.
var ErrInvalidToken = errors.New("invalid token")

// IsCredentialFailure reports whether err is one of the per-account failure
// modes that are surfaced to the user as a single generic message.
func IsCredentialFailure(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInactive) ||
		errors.Is(err, ErrPasswordMismatch)
}
