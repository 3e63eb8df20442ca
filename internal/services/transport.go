package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// StatusError is a non-2xx answer from an upstream service.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s: http %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Service, e.StatusCode, body)
}

// WrapTransport tags a failed upstream call. Deadline and network timeouts
// become ErrTimeout; everything else, including non-2xx statuses, becomes
// ErrTransport.
func WrapTransport(component, operation string, err error) error {
	if err == nil {
		return nil
	}
	marker := ErrTransport
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		marker = ErrTimeout
	}
	return Wrap(marker, component, operation, "", err)
}
