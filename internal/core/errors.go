package core

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for callers. It is surfaced on the wire next to
// the human-readable message.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindAuthentication Kind = "authentication"
	KindInternal       Kind = "internal"
)

// Error is a business error raised where a rule is found broken. Validation
// errors carry every violated rule, not only the first.
type Error struct {
	Kind     Kind
	Messages []string
	Err      error
}

func (e *Error) Error() string {
	if len(e.Messages) > 0 {
		return strings.Join(e.Messages, "; ")
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msgs ...string) *Error {
	return &Error{Kind: KindValidation, Messages: msgs}
}

// NotFound builds "<entity> not found".
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Messages: []string{entity + " not found"}}
}

// NotFoundf is NotFound with a custom message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Messages: []string{fmt.Sprintf(format, args...)}}
}

func Conflict(msg string, cause error) *Error {
	return &Error{Kind: KindConflict, Messages: []string{msg}, Err: cause}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindAuthentication, Messages: []string{msg}}
}

// KindOf finds the kind of err through any wrapping. Errors that carry no
// kind are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessagesOf returns the individual messages of a kinded error, or the
// error text as a single message.
func MessagesOf(err error) []string {
	var e *Error
	if errors.As(err, &e) && len(e.Messages) > 0 {
		return append([]string(nil), e.Messages...)
	}
	if err == nil {
		return nil
	}
	return []string{err.Error()}
}

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// OpError prefixes an error with the operation that failed while keeping its
// kind reachable through errors.As.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return "Failed to " + e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

// Op wraps err as "Failed to <op>: <err>". A nil err stays nil.
func Op(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}
