// Package errors provides enhanced errors carrying a component, a category
// and structured context, built with a fluent builder. It re-exports the
// standard library helpers so callers never need both packages.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Category classifies an error for handling and metrics.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryNetwork    Category = "network"
	CategoryNotFound   Category = "not-found"
	CategoryDatabase   Category = "database"
	CategoryState      Category = "state"
)

// EnhancedError wraps an error with component, category and context metadata.
type EnhancedError struct {
	err       error
	component string
	category  Category
	context   map[string]any
}

// Error implements the error interface.
func (e *EnhancedError) Error() string {
	return e.err.Error()
}

// Unwrap exposes the wrapped error to errors.Is/As chains.
func (e *EnhancedError) Unwrap() error {
	return e.err
}

// GetComponent returns the component that produced the error.
func (e *EnhancedError) GetComponent() string { return e.component }

// GetCategory returns the error's category.
func (e *EnhancedError) GetCategory() Category { return e.category }

// GetContext returns the context value stored under key, if any.
func (e *EnhancedError) GetContext(key string) (any, bool) {
	v, ok := e.context[key]
	return v, ok
}

// Builder assembles an EnhancedError.
type Builder struct {
	e *EnhancedError
}

// New starts a builder wrapping err.
func New(err error) *Builder {
	return &Builder{e: &EnhancedError{err: err, context: make(map[string]any)}}
}

// Newf starts a builder from a formatted message.
func Newf(format string, args ...any) *Builder {
	return New(fmt.Errorf(format, args...))
}

// Component records which component produced the error.
func (b *Builder) Component(name string) *Builder {
	b.e.component = name
	return b
}

// Category records the error category.
func (b *Builder) Category(c Category) *Builder {
	b.e.category = c
	return b
}

// Context attaches a key/value pair to the error.
func (b *Builder) Context(key string, value any) *Builder {
	b.e.context[key] = value
	return b
}

// Build returns the assembled error.
func (b *Builder) Build() error {
	return b.e
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain matching target's type.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Join wraps stderrors.Join.
func Join(errs ...error) error { return stderrors.Join(errs...) }

// Sentinel returns a plain sentinel error, for package-level error values.
func Sentinel(text string) error { return stderrors.New(text) }
