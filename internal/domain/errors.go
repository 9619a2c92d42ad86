package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAuthFailure     = errors.New("authentication failed")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidSession  = errors.New("invalid session")
)

// RemoteError wraps a failure reported by the remote service. Transient
// marks rate limits and server-side hiccups that deserve a long cooldown
// and a retry rather than abandonment.
type RemoteError struct {
	StatusCode int
	Message    string
	Transient  bool
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote error (status %d)", e.StatusCode)
	}

	return fmt.Sprintf("remote error (status %d): %s", e.StatusCode, e.Message)
}

// IsTransient reports whether err is a remote failure worth retrying after
// a cooldown. Session expiry is deliberately not transient; it has its own
// reload path.
func IsTransient(err error) bool {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Transient
	}

	return false
}
