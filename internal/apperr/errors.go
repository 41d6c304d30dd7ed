// Package apperr holds the error taxonomy shared by the client flows.
// Callers branch on these types with errors.As.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fc-integration/inventory/types"
)

// AuthError reports rejected credentials or a rejected two-factor code.
// It is recoverable: the caller keeps the form open and shows Message.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// ValidationError reports local input that was rejected before any
// network call was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RequestError is any failed call that is not an expired session.
// Status is 0 when no response was received.
type RequestError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s %s: request failed", e.Method, e.Path)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the server answered 401.
func (e *RequestError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// ErrSessionExpired matches any SessionExpiredError via errors.Is.
var ErrSessionExpired = errors.New("session expired")

// SessionExpiredError is returned after a 401 tore the session down. It
// wraps the original failure.
type SessionExpiredError struct {
	Cause *RequestError
}

func (e *SessionExpiredError) Error() string {
	if e.Cause == nil {
		return ErrSessionExpired.Error()
	}
	return fmt.Sprintf("%s: %v", ErrSessionExpired, e.Cause)
}

func (e *SessionExpiredError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrSessionExpired}
	}
	return []error{ErrSessionExpired, e.Cause}
}

// PartialMutationError reports a quantity update that reached the server
// while the matching audit log append did not. Product holds the state
// after the first phase; nothing was rolled back.
type PartialMutationError struct {
	Product types.Product
	Err     error
}

func (e *PartialMutationError) Error() string {
	return fmt.Sprintf("quantity of product %d updated but log append failed: %v", e.Product.ID, e.Err)
}

func (e *PartialMutationError) Unwrap() error {
	return e.Err
}
