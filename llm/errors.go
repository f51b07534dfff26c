package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when no API key is available.
	ErrNotConfigured = errors.New("llm: no API key configured")

	// ErrUnreachable matches upstream errors where no response was received.
	ErrUnreachable = errors.New("llm: upstream unreachable")

	// ErrUpstreamStatus matches upstream errors carrying a non-2xx status.
	ErrUpstreamStatus = errors.New("llm: upstream returned an error status")
)

type ErrorKind string

const (
	KindUnreachable ErrorKind = "unreachable"
	KindStatus      ErrorKind = "status"
)

// UpstreamError describes a failed call to the completion API.
type UpstreamError struct {
	Kind       ErrorKind
	StatusCode int
	Detail     string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("llm: upstream status %d: %s", e.StatusCode, e.Detail)
	}
	return "llm: upstream unreachable: " + e.Detail
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUnreachable:
		return e.Kind == KindUnreachable
	case ErrUpstreamStatus:
		return e.Kind == KindStatus
	}
	return false
}
