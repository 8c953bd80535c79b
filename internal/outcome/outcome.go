// Package outcome defines the failure taxonomy shared by every engine
// operation. The numeric code values are part of the wire contract consumed
// by callers in other languages and must remain stable.
package outcome

import (
	"errors"
	"fmt"
)

// Code identifies one entry in the shared failure taxonomy.
type Code int

const (
	Success             Code = 0
	InvalidInput        Code = -1
	JsonError           Code = -2
	ProviderNotFound    Code = -3
	ModelNotFound       Code = -4
	NetworkError        Code = -5
	AuthenticationError Code = -6
	RateLimitError      Code = -7
	TimeoutError        Code = -8
	InternalError       Code = -9
	MemoryError         Code = -10
	Utf8Error           Code = -11
	NullPointer         Code = -12
	Cancelled           Code = -13
	NotImplemented      Code = -14
	Unknown             Code = -99
)

// String returns the snake_case identifier used in serialized error bodies.
func (c Code) String() string {
	switch c {
	case Success:
		return "success"
	case InvalidInput:
		return "invalid_input"
	case JsonError:
		return "json_error"
	case ProviderNotFound:
		return "provider_not_found"
	case ModelNotFound:
		return "model_not_found"
	case NetworkError:
		return "network_error"
	case AuthenticationError:
		return "authentication_error"
	case RateLimitError:
		return "rate_limit_error"
	case TimeoutError:
		return "timeout_error"
	case InternalError:
		return "internal_error"
	case MemoryError:
		return "memory_error"
	case Utf8Error:
		return "utf8_error"
	case NullPointer:
		return "null_pointer"
	case Cancelled:
		return "cancelled"
	case NotImplemented:
		return "not_implemented"
	default:
		return "unknown"
	}
}

// Error pairs a taxonomy code with a human-readable detail string and an
// optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf constructs an Error with a formatted message. A %w verb wraps the
// cause so errors.Is/As keep working through the taxonomy layer.
func Errorf(code Code, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{Code: code, Message: err.Error(), Err: errors.Unwrap(err)}
}

// Wrap attaches a taxonomy code to an existing error, preserving it as the
// cause. A nil cause yields nil.
func Wrap(code Code, message string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message + ": " + cause.Error(), Err: cause}
}

// CodeOf extracts the taxonomy code from an error chain. nil maps to Success
// and anything unclassified maps to Unknown.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code
	}
	return Unknown
}
