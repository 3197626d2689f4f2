package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks invalid or contradictory filter input. Never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks a network or retryable API failure. Retried with
	// backoff before escalating to a fatal run failure.
	ErrTransient = errors.New("transient failure")
	// ErrDataShape marks a record whose structure cannot be flattened. The
	// record is skipped and counted; the run continues.
	ErrDataShape = errors.New("data shape error")
	// ErrWrite marks a filesystem failure during checkpoint or finalize.
	ErrWrite = errors.New("write error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error to the classification label reported in terminal
// events and recorded in the run journal.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrWrite):
		return "write"
	case errors.Is(err, ErrDataShape):
		return "data_shape"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "unknown"
	}
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
