package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConnection marks transport-level failures; the remote was unreachable.
	ErrConnection = errors.New("connection error")
	// ErrValidation marks remote responses with an unexpected status code.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing credentials or settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks referenced content that no longer exists.
	ErrNotFound = errors.New("not found")
	// ErrInvalidJob marks malformed job arguments that can never succeed.
	ErrInvalidJob = errors.New("invalid job data")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether an error should send a job back to pending.
// Only connection-class failures are worth retrying; everything else either
// needs operator attention or will never succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsSkippable reports whether a job failure should be discarded silently
// rather than surfaced as a terminal failure.
func IsSkippable(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidJob)
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
