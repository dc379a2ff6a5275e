package entity

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaViolation     = errors.New("schema violation")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrStepBudgetExceeded  = errors.New("step budget exceeded")
	ErrNoPage              = errors.New("session has no open page")
	ErrURLNotAllowed       = errors.New("url not allowed")
	ErrInvocationResolved  = errors.New("tool invocation already resolved")
	ErrUnknownTool         = errors.New("unknown tool")
)

// SchemaViolationError names the argument that failed validation.
type SchemaViolationError struct {
	Tool   ToolName
	Field  string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: field %q: %s", e.Tool, e.Field, e.Reason)
}

func (e *SchemaViolationError) Unwrap() error {
	return ErrSchemaViolation
}

// ProviderError reports a failed call to an external provider: the session
// API, the remote-control channel or the text-generation service.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrProviderUnavailable, e.Err}
}
