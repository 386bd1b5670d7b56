package device

import (
	"errors"
	"fmt"
	"strings"
)

// Stage errors that are not tied to an open link.
var (
	ErrAdapterUnavailable = errors.New("bluetooth adapter unavailable")
	ErrNoMatchingDevice   = errors.New("no matching bonded device")
)

// TransportErrorKind identifies the stage of a link's lifecycle that failed.
type TransportErrorKind string

const (
	ConnectFailed TransportErrorKind = "connect_failed"
	WriteFailed   TransportErrorKind = "write_failed"
	ReadFailed    TransportErrorKind = "read_failed"
	CloseFailed   TransportErrorKind = "close_failed"
)

// Resource names a releasable part of a Link.
type Resource string

const (
	ResourceInput  Resource = "input"
	ResourceOutput Resource = "output"
	ResourceSocket Resource = "socket"
)

// TransportError is any failure of an open or opening link.
// Resource is only set for CloseFailed.
type TransportError struct {
	Kind     TransportErrorKind
	Resource Resource
	Cause    error
}

// Error returns the cause's message so it reads naturally after "Error: ".
func (e *TransportError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		if e.Resource != "" {
			return fmt.Sprintf("%s (%s)", e.Kind, e.Resource)
		}
		return string(e.Kind)
	}
	if e.Resource != "" {
		return fmt.Sprintf("close %s: %v", e.Resource, e.Cause)
	}
	return e.Cause.Error()
}

// Unwrap exposes the cause.
func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is allows errors.Is to compare TransportError values by Kind
func (e *TransportError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*TransportError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Predefined sentinel errors for transport failures
var (
	ErrConnectFailed = &TransportError{Kind: ConnectFailed}
	ErrWriteFailed   = &TransportError{Kind: WriteFailed}
	ErrReadFailed    = &TransportError{Kind: ReadFailed}
	ErrCloseFailed   = &TransportError{Kind: CloseFailed}
)

// NewTransportError wraps cause as a TransportError of the given kind.
// A cause that already is a TransportError of the same kind is returned unchanged.
func NewTransportError(kind TransportErrorKind, cause error) *TransportError {
	var te *TransportError
	if errors.As(cause, &te) && te.Kind == kind && te.Resource == "" {
		return te
	}
	return &TransportError{Kind: kind, Cause: cause}
}

// NewCloseError reports the failed release of a single resource.
func NewCloseError(resource Resource, cause error) *TransportError {
	return &TransportError{Kind: CloseFailed, Resource: resource, Cause: cause}
}

// IsTransportKind reports whether err is a TransportError of the given kind
func IsTransportKind(err error, kind TransportErrorKind) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}

// NormalizeError maps well-known platform error messages onto the taxonomy.
// The original error is kept in the chain.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case containsIgnoreCase(msg, "org.bluez.Error.NotReady"),
		containsIgnoreCase(msg, "adapter not found"),
		containsIgnoreCase(msg, "no such adapter"):
		return fmt.Errorf("%w: %w", ErrAdapterUnavailable, err)
	default:
		return err
	}
}

// containsIgnoreCase checks the substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
