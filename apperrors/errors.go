// Package apperrors provides the error taxonomy shared by the model provider,
// the scoring adapter and the HTTP surface.
package apperrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure.
type Code string

const (
	CodeArtifactMissing     Code = "ARTIFACT_MISSING"
	CodeArtifactLoadFailure Code = "ARTIFACT_LOAD_FAILURE"
	CodeModelUnavailable    Code = "MODEL_UNAVAILABLE"
	CodeInferenceFailure    Code = "INFERENCE_FAILURE"
	CodeInvalidRecord       Code = "INVALID_RECORD"
)

// Error is a structured application error. Message is safe to show to a user
// verbatim; Details carries the underlying cause.
type Error struct {
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable"`

	cause error
}

func (e *Error) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Details)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewArtifactMissing reports that the model file cannot be located.
func NewArtifactMissing(path string, err error) *Error {
	return &Error{
		Code:    CodeArtifactMissing,
		Message: fmt.Sprintf("Model file '%s' not found. Please ensure the file is available at the configured location.", path),
		Details: causeText(err),
		cause:   err,
	}
}

// NewArtifactLoadFailure reports that the model file exists but could not be
// decoded into a usable classifier.
func NewArtifactLoadFailure(path string, err error) *Error {
	return &Error{
		Code:    CodeArtifactLoadFailure,
		Message: fmt.Sprintf("Error loading model '%s'", path),
		Details: causeText(err),
		cause:   err,
	}
}

// NewModelUnavailable is returned when inference is attempted before the
// provider reached the ready state.
func NewModelUnavailable(reason string) *Error {
	return &Error{
		Code:      CodeModelUnavailable,
		Message:   "Model not loaded",
		Details:   reason,
		Retryable: true,
	}
}

// NewInferenceFailure wraps an error raised by the classifier.
func NewInferenceFailure(err error) *Error {
	return &Error{
		Code:    CodeInferenceFailure,
		Message: "Error making prediction",
		Details: causeText(err),
		cause:   err,
	}
}

// NewInvalidRecord reports a field value outside its declared domain.
func NewInvalidRecord(field, reason string) *Error {
	return &Error{
		Code:    CodeInvalidRecord,
		Message: "Invalid claim record",
		Details: fmt.Sprintf("%s: %s", field, reason),
		Field:   field,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsUnavailable reports whether err means the model cannot serve requests.
func IsUnavailable(err error) bool {
	switch CodeOf(err) {
	case CodeArtifactMissing, CodeArtifactLoadFailure, CodeModelUnavailable:
		return true
	}
	return false
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
