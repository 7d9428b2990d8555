package auth

import (
	"errors"

	"github.com/hlms/hlms-client/internal/authapi"
)

var (
	// ErrRequestPending is returned when a login/register call is issued
	// while another is still in flight.
	ErrRequestPending = errors.New("authentication request already pending")

	// ErrSuperseded is returned when a response arrives after the session
	// it belonged to was torn down. The result is discarded.
	ErrSuperseded = errors.New("session superseded before response arrived")
)

// AuthError reasons. The Message carried alongside is the inline text the
// UI shows; raw transport errors never reach it.
const (
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonDuplicateEmail     = "duplicate_email"
	ReasonInvalidRole        = "invalid_role"
	ReasonNetwork            = "network"
	ReasonServer             = "server"
)

// AuthError is the user-facing failure of a login or register attempt.
// Session state is untouched when one is returned.
type AuthError struct {
	Reason  string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// newAuthError converts an auth API failure into a displayable AuthError.
func newAuthError(err error) *AuthError {
	switch {
	case errors.Is(err, authapi.ErrInvalidCredentials):
		return &AuthError{Reason: ReasonInvalidCredentials, Message: "invalid credentials", Err: err}
	case errors.Is(err, authapi.ErrDuplicateEmail):
		return &AuthError{Reason: ReasonDuplicateEmail, Message: "email already registered", Err: err}
	case errors.Is(err, authapi.ErrNetwork):
		return &AuthError{Reason: ReasonNetwork, Message: "network error", Err: err}
	default:
		return &AuthError{Reason: ReasonServer, Message: "something went wrong, try again", Err: err}
	}
}
