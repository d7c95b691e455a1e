package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies an error independently of any transport.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindDependencyFailure Kind = "dependency_failure"
)

// ErrUndoFailed is the cause of a DependencyFailure raised when a compensating action could not be applied.
var ErrUndoFailed = errors.New("compensating action failed")

// Error is an error carrying a Kind.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func NewError(kind Kind, op, msg string, err ...error) error {
	e := &Error{Kind: kind, Op: strings.TrimSpace(op), Message: strings.TrimSpace(msg)}
	if len(err) > 0 {
		e.Err = err[0]
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(msg string) error        { return NewError(KindNotFound, "", msg) }
func Forbidden(msg string) error       { return NewError(KindForbidden, "", msg) }
func Conflict(msg string) error        { return NewError(KindConflict, "", msg) }
func InvalidArgument(msg string) error { return NewValidationError(errors.New(msg)) }
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// KindOf extracts the Kind of err, or "" when err is not a kinded error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.Kind
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return KindValidation
	}
	return ""
}

// NewPartialFailure reports a cascade step failing after earlier steps were committed and kept.
func NewPartialFailure(op, step string, err error) error {
	return &Error{
		Kind:    KindDependencyFailure,
		Op:      op,
		Message: fmt.Sprintf("%s failed: %v (previous steps were not rolled back)", step, err),
		Err:     err,
	}
}

// Compensate runs undo after primary failed.
// When undo succeeds the primary error is returned as is; otherwise a DependencyFailure wrapping ErrUndoFailed.
func Compensate(op string, primary error, undo func() error) error {
	if primary == nil {
		return nil
	}
	if uerr := undo(); uerr != nil {
		return &Error{
			Kind:    KindDependencyFailure,
			Op:      op,
			Message: fmt.Sprintf("%v; undo failed: %v", primary, uerr),
			Err:     errors.Wrap(ErrUndoFailed, uerr.Error()),
		}
	}
	return primary
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
