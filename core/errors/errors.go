// Package errors provides standardized error types and helpers for the Apparatus codebase.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a requested document element was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfig indicates inconsistent invocation configuration
	ErrConfig = errors.New("configuration error")
	// ErrStructural indicates an operation that would leave the document
	// structurally inconsistent and was therefore aborted
	ErrStructural = errors.New("structural error")
)

// NotFoundError represents a missing document element with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "variation unit", "witness list")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "TEI XML")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// ConfigError represents an invocation whose inputs cannot be combined,
// such as merging variation units drawn from collations with different
// canonical witness lists.
type ConfigError struct {
	Operation string // Operation that was attempted (e.g., "merge")
	Message   string // Human-readable description of the mismatch
	Err       error  // Underlying error, if any
}

func (e *ConfigError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("%s: %s", e.Operation, e.Message)
	}
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrConfig
}

// StructuralError represents an operation aborted because any partial result
// would desynchronize identifiers across the document. The Want and Got sets
// are carried so the caller sees exactly what mismatched.
type StructuralError struct {
	UnitID  string   // Variation unit involved, if any
	Message string   // Human-readable description
	Want    []string // Expected identifier set
	Got     []string // Supplied identifier set
	Err     error    // Underlying error, if any
}

func (e *StructuralError) Error() string {
	msg := e.Message
	if e.UnitID != "" {
		msg = fmt.Sprintf("variation unit %s: %s", e.UnitID, msg)
	}
	if len(e.Want) > 0 || len(e.Got) > 0 {
		msg = fmt.Sprintf("%s (want {%s}, got {%s})", msg,
			strings.Join(e.Want, ", "), strings.Join(e.Got, ", "))
	}
	return msg
}

func (e *StructuralError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrStructural
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// NewConfig creates a ConfigError
func NewConfig(operation, message string) *ConfigError {
	return &ConfigError{
		Operation: operation,
		Message:   message,
	}
}

// Is reports whether any error in err's chain matches target.
// Re-exported so callers don't need to import both packages.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// Re-exported so callers don't need to import both packages.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
