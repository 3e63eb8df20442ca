package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrTransport     = errors.New("transport error")
	ErrSemantic      = errors.New("unexpected response")
	ErrPersistence   = errors.New("persistence error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrConflict      = errors.New("conflict")
)

// Kind names the error class a failure belongs to.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindTransport     Kind = "transport"
	KindSemantic      Kind = "semantic"
	KindPersistence   Kind = "persistence"
	KindConfiguration Kind = "configuration"
	KindNotFound      Kind = "not_found"
	KindTimeout       Kind = "timeout"
	KindConflict      Kind = "conflict"
	KindUnknown       Kind = "unknown"
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps err onto its Kind. Timeouts win over transport because a
// deadline is usually surfaced through the HTTP client as a transport failure.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrSemantic):
		return KindSemantic
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	default:
		return KindUnknown
	}
}

// Marker returns the sentinel for k, or nil for KindUnknown. Clients use it
// to rebuild a classifiable error from a kind received over the wire.
func (k Kind) Marker() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindTransport:
		return ErrTransport
	case KindSemantic:
		return ErrSemantic
	case KindPersistence:
		return ErrPersistence
	case KindConfiguration:
		return ErrConfiguration
	case KindNotFound:
		return ErrNotFound
	case KindTimeout:
		return ErrTimeout
	case KindConflict:
		return ErrConflict
	default:
		return nil
	}
}

// Failure carries a user-facing message alongside its taxonomy marker. The
// gateway and its clients use it for structured {success:false, message}
// responses so the message survives wrapping verbatim.
type Failure struct {
	Marker  error
	Message string
}

// NewFailure builds a Failure tagged with marker.
func NewFailure(marker error, message string) *Failure {
	return &Failure{Marker: marker, Message: message}
}

func (f *Failure) Error() string {
	if f.Message == "" && f.Marker != nil {
		return f.Marker.Error()
	}
	return f.Message
}

func (f *Failure) Unwrap() error { return f.Marker }

// Reason returns the message a user should see for err: the innermost
// Failure message when one exists, otherwise the full error text.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var failure *Failure
	if errors.As(err, &failure) && failure.Message != "" {
		return failure.Message
	}
	return err.Error()
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
