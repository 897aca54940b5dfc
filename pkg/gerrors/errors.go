package gerrors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by every toolkit operation. Neither kind is retried.
var (
	ErrValidation = errors.New("validation failed")
	ErrLookup     = errors.New("attribute not found")
)

// missingField is the cause used when a required field is absent. It matches
// both kinds: callers validating inputs and callers looking up attributes
// treat it as theirs.
var missingField = &kindError{msg: "required field missing", kinds: []error{ErrValidation, ErrLookup}}

type kindError struct {
	msg   string
	kinds []error
}

func (k *kindError) Error() string { return k.msg }

func (k *kindError) Is(target error) bool {
	for _, kind := range k.kinds {
		if target == kind {
			return true
		}
	}
	return false
}

// OpError provides structured error information for toolkit operations.
type OpError struct {
	Op      string // Operation that failed (e.g., "ContainsCounter", "ByValue")
	Entity  string // Entity kind (e.g., "layer", "matrix", "linkage")
	Name    string // Entity name, usually a layer name
	Field   string // Attribute name, if any
	Cause   error  // Underlying error, usually one of the kinds above
	Context string // Human-readable detail
}

// Error implements the error interface.
func (e *OpError) Error() string {
	subject := e.Op
	if e.Entity != "" {
		subject += " " + e.Entity
	}
	if e.Name != "" {
		subject += " " + e.Name
	}
	if e.Field != "" {
		subject += fmt.Sprintf(" (field %s)", e.Field)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %v", subject, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %v", subject, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *OpError) Unwrap() error {
	return e.Cause
}

// Builder provides a fluent interface for building OpErrors.
type Builder struct {
	err OpError
}

// New creates a new error builder for the given operation.
func New(op string) *Builder {
	return &Builder{err: OpError{Op: op}}
}

// Layer sets the entity to "layer" with the given name.
func (b *Builder) Layer(name string) *Builder {
	b.err.Entity = "layer"
	b.err.Name = name
	return b
}

// Entity sets an arbitrary entity kind.
func (b *Builder) Entity(kind string) *Builder {
	b.err.Entity = kind
	return b
}

// Field sets the attribute name.
func (b *Builder) Field(name string) *Builder {
	b.err.Field = name
	return b
}

// Context sets additional context information.
func (b *Builder) Context(format string, args ...any) *Builder {
	b.err.Context = fmt.Sprintf(format, args...)
	return b
}

// Cause sets the underlying error cause.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Validation finishes the error as a validation failure.
func (b *Builder) Validation(format string, args ...any) error {
	b.err.Cause = ErrValidation
	b.err.Context = fmt.Sprintf(format, args...)
	return &b.err
}

// Lookup finishes the error as a missing attribute.
func (b *Builder) Lookup(format string, args ...any) error {
	b.err.Cause = ErrLookup
	b.err.Context = fmt.Sprintf(format, args...)
	return &b.err
}

// Missing finishes the error as a required field that is absent.
func (b *Builder) Missing(format string, args ...any) error {
	b.err.Cause = missingField
	b.err.Context = fmt.Sprintf(format, args...)
	return &b.err
}

// Err returns the error as an error interface.
func (b *Builder) Err() error {
	return &b.err
}

// Validationf creates a bare validation error for op.
func Validationf(op, format string, args ...any) error {
	return New(op).Validation(format, args...)
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsLookup reports whether err is a missing attribute failure.
func IsLookup(err error) bool {
	return errors.Is(err, ErrLookup)
}
