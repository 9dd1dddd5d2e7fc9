// Package apperr defines the typed failures surfaced by the scheduling core.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindValidation      Kind = "validation"
	KindConflict        Kind = "conflict"
	KindInvalidTimezone Kind = "invalid_timezone"
	KindStorage         Kind = "storage"
)

// Sentinels for errors.Is matching on kind alone.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrInvalidTimezone = &Error{Kind: KindInvalidTimezone}
	ErrStorage         = &Error{Kind: KindStorage}
)

type Error struct {
	Kind Kind
	Msg  string
	// Field names the offending input for validation failures.
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func Validation(field, format string, args ...any) error {
	return &Error{Kind: KindValidation, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func InvalidTimezone(name string, cause error) error {
	return &Error{Kind: KindInvalidTimezone, Msg: fmt.Sprintf("unknown timezone %q", name), Err: cause}
}

// Storage wraps a persistence failure. A nil cause returns nil.
func Storage(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: KindStorage, Msg: op, Err: cause}
}

// KindOf reports the kind of the first *Error in err's chain. Untyped errors
// are reported as storage failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
