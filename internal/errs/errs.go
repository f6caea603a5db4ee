package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers: validation errors are
// user-correctable and never retried automatically, network and server
// errors are retryable, payment errors require explicit user or admin
// action, auth errors trigger a redirect to login.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNetwork
	KindPayment
	KindAuth
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindPayment:
		return "payment"
	case KindAuth:
		return "auth"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Field   string // set for field-scoped validation errors
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Message: "request failed", Err: err}
}

func Payment(message string) *Error {
	return &Error{Kind: KindPayment, Message: message}
}

func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

func Server(err error) *Error {
	return &Error{Kind: KindServer, Message: "server error", Err: err}
}

// KindOf returns the classification of err, walking the wrap chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// FieldOf returns the field of a field-scoped validation error, or "".
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// Retryable reports whether the operation that produced err may be
// retried as-is. Only transient transport and 5xx failures qualify.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindServer:
		return true
	default:
		return false
	}
}

// IsAuth reports whether err should send the caller back to login.
func IsAuth(err error) bool {
	return KindOf(err) == KindAuth
}
