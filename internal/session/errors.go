package session

import "errors"

var (
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike
	// so callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when signup finds an identity for the email.
	ErrEmailTaken = errors.New("an account with this email already exists")

	// ErrInvalidRole is returned for role strings outside the known set.
	ErrInvalidRole = errors.New("invalid role")

	// ErrPasswordMismatch is returned when the signup confirmation does
	// not match the password. Checked locally, before any store call.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrTokenInvalid covers expired, malformed, and badly signed tokens.
	ErrTokenInvalid = errors.New("invalid session token")

	// ErrIdentityNotFound is returned by identity stores on a miss.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrProfileNotFound is returned by profile stores on a miss.
	ErrProfileNotFound = errors.New("profile not found")
)
