package auth

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeInvalidCredentials flags a failed signin without revealing cause
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	// TextCodeNotAuthenticated flags operations that need a session
	TextCodeNotAuthenticated = "NOT_AUTHENTICATED"
	// TextCodeUserNotFound flags missing records, including id/token misses
	TextCodeUserNotFound = "USER_NOT_FOUND"
	// TextCodeTokenExpired flags expired bearer or one-time tokens
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed flags forged or undecodable bearer tokens
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
)

// ErrInvalidCredentials is returned for any failed signin. It deliberately
// does not distinguish a wrong email from a wrong password.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCredentials)

// ErrNotAuthenticated is returned by operations that require a session
var ErrNotAuthenticated = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeNotAuthenticated)

// ErrNotFound is returned when a user record cannot be resolved
var ErrNotFound = goerrors.New("user could not be found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode(TextCodeUserNotFound)

// ErrTokenExpired is returned for expired bearer and one-time tokens
var ErrTokenExpired = goerrors.New("token has expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned for tampered or undecodable bearer tokens
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrMissingSigningKey halts construction when the process has no secret.
// Producing unsigned tokens is never an acceptable fallback.
var ErrMissingSigningKey = goerrors.New("signing key is required", goerrors.CategoryInternal)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password must not be empty")

// ErrMismatchedHashAndPassword is the normalized bcrypt mismatch error
var ErrMismatchedHashAndPassword = errors.New("password does not match hash")

// IsNotFoundError checks for missing-record errors from the flow or the store
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrNotFound) || goerrors.IsNotFound(err)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenExpired) || strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
