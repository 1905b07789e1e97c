package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a widget or integration id is not present
	ErrNotFound = errors.New("not found")

	// ErrUnknownWidgetType is returned for a widget type outside the closed set
	ErrUnknownWidgetType = errors.New("unknown widget type")

	// ErrUnknownIntegrationType is returned for an integration type outside the closed set
	ErrUnknownIntegrationType = errors.New("unknown integration type")

	// ErrSettingsMismatch is returned when a settings payload does not belong to the widget type
	ErrSettingsMismatch = errors.New("settings do not match widget type")

	// ErrInvalidWidget wraps structural problems with a widget record
	ErrInvalidWidget = errors.New("invalid widget")

	// ErrInvalidIntegration wraps structural problems with an integration record
	ErrInvalidIntegration = errors.New("invalid integration")
)

// ValidationReason classifies why an integration credential could not be confirmed
type ValidationReason string

const (
	ReasonInvalidCredential ValidationReason = "invalid-credential"
	ReasonRemoteError       ValidationReason = "remote-error"
	ReasonUnreachable       ValidationReason = "unreachable"
	ReasonInvalidInput      ValidationReason = "invalid-input"
)

// ValidationError is the failure side of credential validation and remote fetches.
// It is surfaced to the caller and never persisted as a fatal condition.
type ValidationError struct {
	Reason     ValidationReason
	StatusCode int    // Set for ReasonRemoteError
	Message    string // Human readable, shown next to the form field or widget
	Err        error
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Reason {
	case ReasonInvalidCredential:
		return "Invalid token"
	case ReasonRemoteError:
		return fmt.Sprintf("API error: %d", e.StatusCode)
	case ReasonUnreachable:
		return "Failed to connect to GitHub"
	default:
		return "Validation failed"
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewInputError builds a ValidationError for a rejected form field
func NewInputError(message string) *ValidationError {
	return &ValidationError{Reason: ReasonInvalidInput, Message: message}
}

// IsValidationError reports whether err carries a ValidationError and returns it
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
