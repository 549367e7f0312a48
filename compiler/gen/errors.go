package gen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/crudgen/compiler/typeexpr"
)

// Sentinel errors for common failure cases.
var (
	// ErrValidationFailed indicates a project spec that cannot be generated.
	ErrValidationFailed = errors.New("crudgen: validation failed")
	// ErrMalformedType indicates a field type expression that does not parse.
	ErrMalformedType = errors.New("crudgen: malformed type expression")
	// ErrWriteFailed indicates a file-system failure while materializing output.
	ErrWriteFailed = errors.New("crudgen: write failed")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("crudgen: code generation failed")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("crudgen: missing configuration")
)

// Validation codes.
const (
	CodeMissingPath     = "missing_path"
	CodeMissingName     = "missing_name"
	CodeNoEntities      = "no_entities"
	CodeCompositeID     = "composite_id"
	CodeNamingConflict  = "naming_conflict"
	CodeImportCycle     = "import_cycle"
	CodeUnknownEntity   = "unknown_entity"
	CodeUnknownOption   = "unknown_option"
	CodeRecursiveType   = "recursive_type"
	CodeIncomparableKey = "incomparable_key"
)

// Error categories reported by Category.
const (
	CategoryValidation    = "validation"
	CategoryMalformedType = "malformed_type"
	CategoryIO            = "io"
	CategoryUnexpected    = "unexpected"
)

// ValidationError reports a project spec rejected before anything is written.
type ValidationError struct {
	Entity  string
	Field   string
	Code    string // machine readable, e.g. "no_entities"
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("crudgen: validation error")
	if e.Entity != "" {
		b.WriteString(" on entity ")
		b.WriteString(e.Entity)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Code != "" {
		b.WriteString(" [")
		b.WriteString(e.Code)
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// NewValidationError creates a new ValidationError.
func NewValidationError(entity, field, code, message string) *ValidationError {
	return &ValidationError{
		Entity:  entity,
		Field:   field,
		Code:    code,
		Message: message,
	}
}

// TypeError reports a malformed field type expression.
type TypeError struct {
	Entity string
	Field  string
	Cause  *typeexpr.SyntaxError
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	var b strings.Builder
	b.WriteString("crudgen: malformed type")
	if e.Entity != "" {
		b.WriteString(" on entity ")
		b.WriteString(e.Entity)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying syntax error.
func (e *TypeError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether the target matches the sentinel error for TypeError.
func (e *TypeError) Is(target error) bool {
	return target == ErrMalformedType
}

// NewTypeError creates a new TypeError.
func NewTypeError(entity, field string, cause *typeexpr.SyntaxError) *TypeError {
	return &TypeError{
		Entity: entity,
		Field:  field,
		Cause:  cause,
	}
}

// WriteError reports a failure to create a directory or write a file.
type WriteError struct {
	Artifact string // artifact or file kind, e.g. "OrderService"
	Path     string
	Cause    error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	var b strings.Builder
	b.WriteString("crudgen: write error")
	if e.Artifact != "" {
		b.WriteString(" for ")
		b.WriteString(e.Artifact)
	}
	if e.Path != "" {
		b.WriteString(" (path: ")
		b.WriteString(e.Path)
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for WriteError.
func (e *WriteError) Is(target error) bool {
	return target == ErrWriteFailed
}

// NewWriteError creates a new WriteError.
func NewWriteError(artifact, path string, cause error) *WriteError {
	return &WriteError{
		Artifact: artifact,
		Path:     path,
		Cause:    cause,
	}
}

// GenerationError represents a code generation error.
type GenerationError struct {
	Phase   string // "domain", "service", "manifest", etc.
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("crudgen: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("crudgen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("crudgen: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// IsValidationError reports whether the error is a ValidationError.
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// IsTypeError reports whether the error is a TypeError.
func IsTypeError(err error) bool {
	var typeErr *TypeError
	return errors.As(err, &typeErr)
}

// IsWriteError reports whether the error is a WriteError.
func IsWriteError(err error) bool {
	var writeErr *WriteError
	return errors.As(err, &writeErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// Category maps an error returned by Generate to one of the categories
// validation, malformed_type, io and unexpected.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidationFailed):
		return CategoryValidation
	case errors.Is(err, ErrMalformedType):
		return CategoryMalformedType
	case errors.Is(err, ErrWriteFailed):
		return CategoryIO
	default:
		return CategoryUnexpected
	}
}
