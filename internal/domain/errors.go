package domain

import (
	"errors"
	"fmt"
)

// Code classifies failures surfaced to callers.
type Code string

const (
	CodeAuthInvalid  Code = "AUTH_INVALID"
	CodeAuthRejected Code = "AUTH_REJECTED"
	CodeLaunch       Code = "LAUNCH_ERROR"
	CodePoll         Code = "POLL_ERROR"
	CodeValidation   Code = "VALIDATION_ERROR"
)

var (
	ErrAuthInvalid  = errors.New("auth invalid")
	ErrAuthRejected = errors.New("auth rejected")
	ErrLaunch       = errors.New("launch failed")
	ErrPoll         = errors.New("poll failed")
	ErrValidation   = errors.New("validation failed")
)

var sentinels = map[Code]error{
	CodeAuthInvalid:  ErrAuthInvalid,
	CodeAuthRejected: ErrAuthRejected,
	CodeLaunch:       ErrLaunch,
	CodePoll:         ErrPoll,
	CodeValidation:   ErrValidation,
}

// Error carries a classification code next to the original cause. The cause's
// text is what callers see, unchanged.
type Error struct {
	Code Code
	Op   string
	Err  error
}

// NewError wraps err under code. A nil err yields an Error whose message is the
// code's sentinel text.
func NewError(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// Errorf builds an Error from a formatted message.
func Errorf(code Code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message()
	}
	return e.Op + ": " + e.Message()
}

// Message returns the underlying diagnostic text without any prefix.
func (e *Error) Message() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if s, ok := sentinels[e.Code]; ok {
		return s.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the per-code sentinels.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// CodeOf extracts the classification of err, or "" when err is unclassified.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// MessageOf returns the caller-facing text of err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
