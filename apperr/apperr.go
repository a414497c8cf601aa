// Package apperr carries typed, status-aware errors from the service layer
// up to the HTTP handlers.
package apperr

import (
	"errors"
	"net/http"
)

// Error represents a typed, status-aware application error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return "error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds a base error. The bases below cover the common cases; Wrap
// specializes them with an underlying cause.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches err to a copy of base, optionally overriding the message.
func Wrap(err error, base *Error, message string) *Error {
	if err == nil {
		return nil
	}
	if base == nil {
		base = ErrInternal
	}
	copy := *base
	if message != "" {
		copy.Message = message
	}
	copy.Err = err
	return &copy
}

// As unwraps err to an *Error when one is in the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// Status returns the HTTP status to render for err.
func Status(err error) int {
	if e, ok := As(err); ok && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Code returns the machine-readable code to render for err.
func Code(err error) string {
	if e, ok := As(err); ok && e.Code != "" {
		return e.Code
	}
	return "internal_error"
}

// Message returns the human-readable message to render for err.
func Message(err error) string {
	if e, ok := As(err); ok {
		if e.Message != "" {
			return e.Message
		}
		if e.Err != nil {
			return e.Err.Error()
		}
		return e.Code
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Payload renders err in the JSON body shape handlers return.
func Payload(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}
	return map[string]any{
		"code":    Code(err),
		"message": Message(err),
	}
}

var (
	ErrBadRequest   = New("bad_request", http.StatusBadRequest, "")
	ErrValidation   = New("validation_error", http.StatusBadRequest, "")
	ErrUnauthorized = New("unauthorized", http.StatusUnauthorized, "")
	ErrNotFound     = New("not_found", http.StatusNotFound, "")
	ErrConflict     = New("conflict", http.StatusConflict, "")
	ErrInternal     = New("internal_error", http.StatusInternalServerError, "")
	ErrDatabase     = New("database_error", http.StatusInternalServerError, "")
)
