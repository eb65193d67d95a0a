// Package apperr defines the domain error taxonomy shared by the
// repository, service, and handler layers. Handlers map these to HTTP
// statuses with errors.Is; everything else wraps with %w.
package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a resource does not exist or is outside the
// caller's visible scope. The two cases are deliberately indistinguishable
// so cross-scope existence never leaks.
var ErrNotFound = errors.New("not found")

// ErrFull is returned when a capacity-bounded resource has no remaining
// slots. Distinct from ErrAlreadyClaimed.
var ErrFull = errors.New("no slots remaining")

// ErrAlreadyClaimed is returned when the requester already holds an
// admission record on the resource. A benign, expected outcome.
var ErrAlreadyClaimed = errors.New("already claimed")

// ErrInvalidState is returned when the resource or claim is not in a state
// that permits the requested transition.
var ErrInvalidState = errors.New("invalid state for this operation")

// ErrForbidden is returned when the caller is authenticated but lacks
// ownership or a role permitting the action.
var ErrForbidden = errors.New("forbidden")

// ErrConflictRetry is returned when a serializable transaction was aborted
// by the database and the retry also failed. Callers should retry the
// request; this is an infrastructure outcome, never a business one.
var ErrConflictRetry = errors.New("transient conflict, retry")

// AuthReason classifies why an authentication attempt failed. The reason
// is for internal diagnostics; callers only ever see a generic 401.
type AuthReason string

const (
	ReasonMissingHeaders   AuthReason = "missing headers"
	ReasonExpired          AuthReason = "expired"
	ReasonReplay           AuthReason = "replay"
	ReasonInvalidSignature AuthReason = "invalid signature"
	ReasonInvalidToken     AuthReason = "invalid token"
)

// AuthError is an authentication failure with a loggable reason.
type AuthError struct {
	Reason AuthReason
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// IsAuth reports whether err is an AuthError and, if so, returns it.
func IsAuth(err error) (*AuthError, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// ConfigError is a server misconfiguration (e.g. no signing secret). It
// maps to a 5xx, never a client error.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Msg)
}
