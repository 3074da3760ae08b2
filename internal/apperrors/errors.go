// Package apperrors implements the framework's closed exception taxonomy.
//
// Each exception carries a preferred task status (see internal/task) so the
// error-handling middleware (internal/middleware) can map any framework
// exception to a (status, body) pair without inspecting concrete types
// beyond this package.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind enumerates the closed exception taxonomy.
type Kind string

const (
	KindInternal                Kind = "internal-error"
	KindClient                  Kind = "client-error"
	KindParamsInvalid            Kind = "params-invalid"
	KindParamRequired            Kind = "param-required"
	KindNotImplemented           Kind = "not-implemented"
	KindNotFound                 Kind = "not-found"
	KindDuplicate                Kind = "duplicate"
	KindConflict                 Kind = "conflict"
	KindInvalidStatusTransition Kind = "invalid-status-transition"
	KindUnauthorized             Kind = "unauthorized"
	KindForbidden                Kind = "forbidden"
	KindRetryable                Kind = "retryable"
	KindMaxRetriesExceeded       Kind = "max-retries-exceeded"
	KindExternal                 Kind = "external-error"
)

// Error is the concrete type every framework exception is represented as.
// Handlers and middleware raise it by returning one from *New or a helper
// constructor; user code never needs to touch Kind directly.
type Error struct {
	Kind    Kind
	Message string
	// Fields carries arbitrary key/value pairs the exception wants
	// reflected into the response body (§7 "key/value pairs the
	// exception provided").
	Fields map[string]any
	// RetryAfterSeconds is the delay hint for KindRetryable, honoured by
	// Retry (retry.go). Zero means "use the caller's default delay".
	RetryAfterSeconds float64
	Err               error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a framework exception of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds a framework exception with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying cause to a framework exception.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithFields returns a copy of e with Fields set, for building a body payload.
func (e *Error) WithFields(fields map[string]any) *Error {
	cp := *e
	cp.Fields = fields
	return &cp
}

// Retryable builds a KindRetryable exception carrying a delay hint.
func Retryable(message string, retryAfterSeconds float64) *Error {
	return &Error{Kind: KindRetryable, Message: message, RetryAfterSeconds: retryAfterSeconds}
}

// ParamInvalid builds the exception raised when a handler parameter fails
// conversion (§4.3 "parameter-invalid").
func ParamInvalid(name string, cause error) *Error {
	return &Error{
		Kind:    KindParamsInvalid,
		Message: fmt.Sprintf("parameter %q is invalid", name),
		Fields:  map[string]any{"parameter": name},
		Err:     cause,
	}
}

// ParamRequired builds the exception raised when a handler parameter has no
// resolvable source (§4.3 "parameter-required").
func ParamRequired(name string) *Error {
	return &Error{
		Kind:    KindParamRequired,
		Message: fmt.Sprintf("parameter %q is required", name),
		Fields:  map[string]any{"parameter": name},
	}
}

// NotFound builds the exception a registry miss or DAL miss raises.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// AsFrameworkError extracts *Error from err, coercing non-framework errors
// per the §7 propagation policy: anything that is not already a framework
// exception becomes KindInternal, with the original error preserved for
// logging.
func AsFrameworkError(err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return &Error{Kind: KindInternal, Message: err.Error(), Err: err}
}

// kindToStatusCode maps each Kind to the HTTP-flavoured status code used by
// internal/task.Status. Transport adapters translate Status further into
// their own wire status (verbatim for HTTP).
var kindToStatusCode = map[Kind]int{
	KindInternal:                500,
	KindClient:                  400,
	KindParamsInvalid:           422,
	KindParamRequired:           422,
	KindNotImplemented:          501,
	KindNotFound:                404,
	KindDuplicate:               409,
	KindConflict:                409,
	KindInvalidStatusTransition: 409,
	KindUnauthorized:            401,
	KindForbidden:               403,
	KindRetryable:               503,
	KindMaxRetriesExceeded:      503,
	KindExternal:                503,
}

// StatusCode returns the preferred status code for the exception's kind.
func (e *Error) StatusCode() int {
	if code, ok := kindToStatusCode[e.Kind]; ok {
		return code
	}
	return 500
}
