package services

import (
	"errors"
	"fmt"
	"strings"

	"shelfmark/internal/queue"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrUnavailable   = errors.New("source unavailable")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes layer context while tagging it
// with the provided marker for later status classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, layer, operation, message string, err error) error {
	detail := buildDetail(layer, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a layer error to the queue status the workflow manager
// should persist after the layer fails. Validation and configuration problems
// need a human; everything else stays retryable.
func FailureStatus(err error) queue.ItemStatus {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return queue.StatusNeedsAttention
	default:
		return queue.StatusError
	}
}

func buildDetail(layer, operation, message string) string {
	parts := make([]string, 0, 3)
	if layer = strings.TrimSpace(layer); layer != "" {
		parts = append(parts, layer)
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
