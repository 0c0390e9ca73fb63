package authz

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the stable denial code returned to clients.
type Code string

const (
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeTokenExpired  Code = "TOKEN_EXPIRED"
	CodeTokenInvalid  Code = "TOKEN_INVALID"
	CodeForbidden     Code = "FORBIDDEN"
	CodeInternalError Code = "INTERNAL_ERROR"
)

var httpStatusMap = map[Code]int{
	CodeUnauthorized:  http.StatusUnauthorized,
	CodeTokenExpired:  http.StatusUnauthorized,
	CodeTokenInvalid:  http.StatusUnauthorized,
	CodeForbidden:     http.StatusForbidden,
	CodeInternalError: http.StatusInternalServerError,
}

// HTTPStatus maps a code to its HTTP status. Unknown codes map to 500.
func (c Code) HTTPStatus() int {
	if s, ok := httpStatusMap[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is an authentication or authorization failure with a client-safe message.
type Error struct {
	Code    Code
	Message string
	Err     error // underlying cause, never shown to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so wrapped causes still satisfy
// errors.Is(err, ErrTokenExpired).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// HTTPStatus returns the status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

var (
	// ErrTokenExpired is returned by Verify for a well-signed token past its expiry.
	ErrTokenExpired = &Error{Code: CodeTokenExpired, Message: "token has expired"}
	// ErrTokenInvalid is returned by Verify for any structural or signature failure.
	ErrTokenInvalid = &Error{Code: CodeTokenInvalid, Message: "token is invalid"}
)

func errUnauthorized() *Error {
	return &Error{Code: CodeUnauthorized, Message: "authentication required"}
}

func errForbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

func errInternal(cause error) *Error {
	return &Error{Code: CodeInternalError, Message: "internal error", Err: cause}
}

// ErrorCode extracts the code from err, or "" if err is not an *Error.
func ErrorCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
