package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAuth marks a failed credential exchange.
	ErrAuth = errors.New("auth error")
	// ErrValidation marks a missing or malformed caller-supplied parameter.
	ErrValidation = errors.New("validation error")
	// ErrResource marks a failed list, create, or delete against a remote
	// resource collection (policies, assets, locators).
	ErrResource = errors.New("resource error")
	// ErrUpload marks a failed block upload or block-list commit.
	ErrUpload = errors.New("upload error")
	// ErrJob marks a failed job submission or a transport failure while
	// polling job state.
	ErrJob = errors.New("job error")
	// ErrTimeout marks a poll loop that exceeded its wait bound.
	ErrTimeout = errors.New("timeout")
	// ErrConfiguration marks unusable local configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrResource
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
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
