// Package errors is the structured error type shared by every layer
package errors

// Import as perr

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies an error for callers and the wire
type ErrorCode uint16

const (
	// ErrorCodeUnknown is anything unclassified
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is a panic recovered by middleware
	ErrorCodePanic

	// ErrorCodeUnavailable is a dependency that is down or starting
	ErrorCodeUnavailable

	// ErrorCodeConflict is a write that collides with existing state
	ErrorCodeConflict

	// ErrorCodeUnauthorized is a missing or unknown credential
	ErrorCodeUnauthorized

	// ErrorCodeForbidden is a credential without access
	ErrorCodeForbidden

	// ErrorCodeInvalidArgument is a malformed parameter
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is input that failed field rules, see Fields
	ErrorCodeValidation

	// ErrorCodeJSON is an unreadable request body
	ErrorCodeJSON

	// ErrorCodeNotFound is a missing resource, or one owned by another tenant
	ErrorCodeNotFound

	// ErrorCodeDB is a storage failure
	ErrorCodeDB

	// ErrorCodeEngine is a stored pattern the regex engine refused at match time
	ErrorCodeEngine
)

var codeNames = map[ErrorCode]string{
	ErrorCodeUnknown:         "internal",
	ErrorCodePanic:           "panic",
	ErrorCodeUnavailable:     "unavailable",
	ErrorCodeConflict:        "conflict",
	ErrorCodeUnauthorized:    "unauthorized",
	ErrorCodeForbidden:       "forbidden",
	ErrorCodeInvalidArgument: "invalid_argument",
	ErrorCodeValidation:      "validation",
	ErrorCodeJSON:            "bad_json",
	ErrorCodeNotFound:        "not_found",
	ErrorCodeDB:              "db",
	ErrorCodeEngine:          "engine",
}

// String is the stable wire name of the code
func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "internal"
}

// HTTPStatusCode maps a code to a response status
func HTTPStatusCode(c ErrorCode) int {
	switch c {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeInvalidArgument, ErrorCodeValidation:
		return http.StatusUnprocessableEntity
	case ErrorCodeJSON:
		return http.StatusBadRequest
	case ErrorCodeConflict:
		return http.StatusConflict
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FieldError is one (field, message) pair from input validation
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries a code, a message, an optional cause and any field errors
type Error struct {
	orig   error
	msg    string
	code   ErrorCode
	op     string
	fields []FieldError
}

// Wire is the JSON error body
type Wire struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the cause
func (e *Error) Unwrap() error { return e.orig }

// Code returns the classification
func (e *Error) Code() ErrorCode { return e.code }

// Op returns the operation label, if any
func (e *Error) Op() string { return e.op }

// Fields returns a copy of the field errors
func (e *Error) Fields() []FieldError { return append([]FieldError(nil), e.fields...) }

// ToWire renders the public form
func (e *Error) ToWire() Wire {
	return Wire{Code: e.code.String(), Message: e.msg, Fields: e.Fields()}
}

// WireFrom renders any error, foreign errors become internal with a generic message
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return e.ToWire()
	}
	return Wire{Code: ErrorCodeUnknown.String(), Message: "internal error"}
}

// As unwraps to *Error
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Root returns the innermost cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts the code, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err carries code
func IsCode(err error, code ErrorCode) bool { return err != nil && CodeOf(err) == code }

// FieldsOf returns the field errors on err, if any
func FieldsOf(err error) []FieldError {
	if e, ok := As(err); ok {
		return e.Fields()
	}
	return nil
}

// HTTPStatus maps any error to a response status
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// HTTP returns status and wire body in one call
func HTTP(err error) (int, Wire) {
	if err == nil {
		return http.StatusOK, Wire{}
	}
	return HTTPStatus(err), WireFrom(err)
}

// WithOp labels an *Error with the operation that produced it, foreign errors pass through
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// New builds an *Error
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf builds an *Error with a formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap attaches code and message to orig
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf is Wrap with a formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// Validation builds a validation error carrying every field error, nil when fields is empty
func Validation(fields ...FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	msg := "validation failed"
	if len(fields) == 1 {
		msg = fields[0].Field + ": " + fields[0].Message
	}
	return &Error{code: ErrorCodeValidation, msg: msg, fields: append([]FieldError(nil), fields...)}
}

// ErrNotFound is a bare not found sentinel
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// JSONErrf returns a body parse error
func JSONErrf(format string, a ...any) error { return Newf(ErrorCodeJSON, format, a...) }

// PanicErrf returns a recovered panic error
func PanicErrf(format string, a ...any) error { return Newf(ErrorCodePanic, format, a...) }

// Unauthorizedf returns an unauthorized error
func Unauthorizedf(format string, a ...any) error { return Newf(ErrorCodeUnauthorized, format, a...) }

// Forbiddenf returns a forbidden error
func Forbiddenf(format string, a ...any) error { return Newf(ErrorCodeForbidden, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// Internalf returns an unclassified error
func Internalf(format string, a ...any) error { return Newf(ErrorCodeUnknown, format, a...) }
