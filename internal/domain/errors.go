package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrQueryTooVague signals that interpretation left no searchable text.
	ErrQueryTooVague = errors.New("query too vague")
	// ErrFilterIncompatible signals filters incompatible with the chosen mode or engine.
	ErrFilterIncompatible = errors.New("filter incompatible with search mode")
	// ErrEngineUnavailable signals that every engine attempt failed.
	ErrEngineUnavailable = errors.New("search engine unavailable")
	// ErrSessionClosed signals a submission against a closed search session.
	ErrSessionClosed = errors.New("session closed")
)

// BackendStatusError wraps a non-success HTTP status from a backend engine.
type BackendStatusError struct {
	Engine string
	Status int
}

func (e *BackendStatusError) Error() string {
	return fmt.Sprintf("%s engine returned status %d", e.Engine, e.Status)
}

func (e *BackendStatusError) Unwrap() error { return ErrEngineUnavailable }

// NewBackendStatus creates a backend status error.
func NewBackendStatus(engine string, status int) error {
	return &BackendStatusError{Engine: engine, Status: status}
}
