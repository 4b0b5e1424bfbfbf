package errors

import (
	"errors"
	"fmt"
)

// Error codes for programmatic handling.
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeUnknownLane      = "UNKNOWN_LANE"
	CodeUnknownRole      = "UNKNOWN_ROLE"
	CodeInvalidAgentID   = "INVALID_AGENT_ID"
	CodeStateNotFound    = "STATE_NOT_FOUND"
	CodeStateIO          = "STATE_IO"
	CodeToolNotFound     = "TOOL_NOT_FOUND"
	CodeInvalidArguments = "INVALID_ARGUMENTS"
)

// AgentMindError is a structured error with a code and actionable suggestion.
type AgentMindError struct {
	Code       string // machine-readable code (e.g. UNKNOWN_LANE)
	Message    string // human-readable description
	Suggestion string // actionable fix
	Err        error  // wrapped underlying error
}

// Error implements the error interface.
func (e *AgentMindError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap supports errors.Is / errors.As.
func (e *AgentMindError) Unwrap() error {
	return e.Err
}

// New creates an AgentMindError with the given code and message.
func New(code, message string) *AgentMindError {
	return &AgentMindError{Code: code, Message: message}
}

// Newf creates an AgentMindError with a formatted message.
func Newf(code, format string, args ...any) *AgentMindError {
	return &AgentMindError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an AgentMindError wrapping an existing error.
func Wrap(code, message string, err error) *AgentMindError {
	return &AgentMindError{Code: code, Message: message, Err: err}
}

// WithSuggestion sets the suggestion and returns the same error.
func (e *AgentMindError) WithSuggestion(suggestion string) *AgentMindError {
	e.Suggestion = suggestion
	return e
}

// Is checks whether target matches this error's code.
func (e *AgentMindError) Is(target error) bool {
	var ae *AgentMindError
	if errors.As(target, &ae) {
		return e.Code == ae.Code
	}
	return false
}

// AsCode extracts the AgentMindError code from an error, or "" if not an AgentMindError.
func AsCode(err error) string {
	var ae *AgentMindError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code string) bool {
	return AsCode(err) == code
}

// Suggestion extracts the suggestion from an error, or "" if not an AgentMindError.
func Suggestion(err error) string {
	var ae *AgentMindError
	if errors.As(err, &ae) {
		return ae.Suggestion
	}
	return ""
}
