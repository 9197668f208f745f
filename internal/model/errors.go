package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode classifies failures so callers can decide how to recover.
type ErrorCode string

const (
	// ErrCodeValidation means input failed field constraints; nothing changed.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeNotFound means a referenced task does not exist.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeTransport means the seed fetch failed.
	ErrCodeTransport ErrorCode = "transport"
	// ErrCodeStorage means the local store could not be read or written.
	ErrCodeStorage ErrorCode = "storage"
)

// Error is the coded error returned across package boundaries.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string

	// Fields maps a field name to its problem for validation errors.
	Fields map[string]string

	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = name + ": " + e.Fields[name]
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, "; "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewValidationError builds a validation error from per-field messages.
func NewValidationError(op string, fields map[string]string) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Op:      op,
		Message: "invalid input",
		Fields:  fields,
	}
}

// NewNotFoundError reports a missing task id.
func NewNotFoundError(op, id string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Op:      op,
		Message: fmt.Sprintf("task %s not found", id),
	}
}

// WrapTransport classifies err as a seed transport failure.
func WrapTransport(op string, err error) *Error {
	return &Error{Code: ErrCodeTransport, Op: op, Message: "fetching seed tasks", Err: err}
}

// WrapStorage classifies err as a local persistence failure.
func WrapStorage(op string, err error) *Error {
	return &Error{Code: ErrCodeStorage, Op: op, Message: "local storage", Err: err}
}

// IsCode reports whether err (or any error in its chain) is an *Error
// with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return IsCode(err, ErrCodeValidation) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return IsCode(err, ErrCodeNotFound) }

// IsTransport reports whether err is a seed transport error.
func IsTransport(err error) bool { return IsCode(err, ErrCodeTransport) }

// IsStorage reports whether err is a local storage error.
func IsStorage(err error) bool { return IsCode(err, ErrCodeStorage) }

// FieldErrors returns the per-field messages carried by a validation error,
// or nil.
func FieldErrors(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) && e.Code == ErrCodeValidation {
		return e.Fields
	}
	return nil
}
