// Package goerror carries the error kinds that reach API clients. Handlers
// return *Error for anything the caller may see; every other error is
// reported as an opaque internal failure.
package goerror

import (
	"errors"
	"net/http"
)

// Repository sentinels. Use cases translate them into *Error.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
)

// Code is the error kind. Each one maps to a single HTTP status and a stable
// API code string.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
)

var codeTable = map[Code]struct {
	api    string
	status int
}{
	CodeInvalidFormat:  {"VALIDATION_ERROR", http.StatusBadRequest},
	CodeInvalidInput:   {"VALIDATION_ERROR", http.StatusBadRequest},
	CodeNotFound:       {"NOT_FOUND", http.StatusNotFound},
	CodeConflict:       {"CONFLICT", http.StatusConflict},
	CodeTooManyRequest: {"TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:   {"AUTHENTICATION_ERROR", http.StatusUnauthorized},
	CodeForbidden:      {"AUTHORIZATION_ERROR", http.StatusForbidden},
}

// String is the value of the `code` field in error responses.
func (c Code) String() string {
	if m, ok := codeTable[c]; ok {
		return m.api
	}
	return "INTERNAL_ERROR"
}

// Status is the HTTP status for c.
func (c Code) Status() int {
	if m, ok := codeTable[c]; ok {
		return m.status
	}
	return http.StatusInternalServerError
}

// Error is a client-facing error. The wrapped cause is for logs only.
type Error struct {
	cause  error
	msg    string
	code   Code
	fields map[string]string
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// Msg is the message shown to clients.
func (e *Error) Msg() string { return e.msg }

func (e *Error) Code() Code { return e.code }

// Fields holds per-field validation reasons.
func (e *Error) Fields() map[string]string { return e.fields }

func (e *Error) StatusCode() int { return e.code.Status() }

// NewServer hides err behind a generic message.
func NewServer(err error) error {
	return &Error{cause: err, msg: "Internal server error", code: CodeInternal}
}

func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, code: code}
}

// NewInvalidInput wraps a validator error, or, when err is nil, builds the
// field map from kv read as field/reason pairs.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{cause: err, msg: "Validation error", code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return &Error{msg: "Validation error", code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat reports a body that could not be decoded. The first msg,
// when given, replaces the default message.
func NewInvalidFormat(msg ...string) error {
	e := &Error{msg: "Invalid request body", code: CodeInvalidFormat}
	if len(msg) > 0 {
		e.msg = msg[0]
	}
	return e
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var ge *Error
	ok := errors.As(err, &ge)
	return ge, ok
}
