package internal

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotConnected     = errors.New("no google account connected")
	ErrInvalidLink      = errors.New("invalid RSVP link")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("event was modified concurrently")
	ErrNoRefreshToken   = errors.New("access token expired and no refresh token is stored")
)

// RefreshFailedError means the stored grant can no longer produce an access
// token; the user has to go through the OAuth consent again.
type RefreshFailedError struct {
	Err error
}

func (e *RefreshFailedError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *RefreshFailedError) Unwrap() error {
	return e.Err
}

type RemoteAPIError struct {
	Status  int
	Message string
}

func (e *RemoteAPIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("google calendar api error: %d", e.Status)
	}
	return fmt.Sprintf("google calendar api error: %d: %s", e.Status, e.Message)
}

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// IsAuthError reports whether err means no usable Google credential exists
// for the user, in which case retrying the same operation cannot succeed.
func IsAuthError(err error) bool {
	var refreshErr *RefreshFailedError
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrNotConnected) ||
		errors.As(err, &refreshErr)
}
