// Package domainerr is the closed error taxonomy shared across the core
// (spec.md §7). Every service operation returns one of these as a value
// instead of relying on panics or sentinel string matching, the same
// "error as value" discipline the teacher applies in
// internal/domain/*/errors.go and internal/application/common/errors.go.
package domainerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the discriminant of the closed error union.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindForbidden        Kind = "forbidden"
	KindBadRequest       Kind = "bad_request"
	KindConflict         Kind = "conflict"
	KindAuthExpired      Kind = "auth_expired"
	KindAPIError         Kind = "api_error"
	KindRateLimited      Kind = "rate_limited"
	KindNetworkError     Kind = "network_error"
	KindParseError       Kind = "parse_error"
	KindStoreError       Kind = "store_error"
	KindEncryptionError  Kind = "encryption_error"
	KindUnauthenticated  Kind = "unauthenticated"
)

// Error is the single concrete type behind every taxonomy member. Fields
// not relevant to a given Kind are left zero.
type Error struct {
	Kind       Kind
	Resource   string // not_found
	Message    string
	Details    map[string]any
	Status     int   // api_error
	RetryAfter int   // rate_limited, seconds
	Operation  string // store_error, encryption_error
	Cause      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("%s not found", e.Resource)
	case KindAPIError:
		return fmt.Sprintf("api_error(%d): %s", e.Status, e.Message)
	case KindRateLimited:
		return fmt.Sprintf("rate_limited: retry after %ds", e.RetryAfter)
	case KindStoreError:
		return fmt.Sprintf("store_error(%s): %s", e.Operation, e.Message)
	case KindEncryptionError:
		return fmt.Sprintf("encryption_error(%s)", e.Operation)
	default:
		if e.Message != "" {
			return fmt.Sprintf("%s: %s", e.Kind, e.Message)
		}
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func NotFound(resource string) *Error { return &Error{Kind: KindNotFound, Resource: resource} }

func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

func BadRequest(msg string, details map[string]any) *Error {
	return &Error{Kind: KindBadRequest, Message: msg, Details: details}
}

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

func AuthExpired(msg string) *Error { return &Error{Kind: KindAuthExpired, Message: msg} }

func APIError(status int, msg string) *Error {
	return &Error{Kind: KindAPIError, Status: status, Message: msg}
}

func RateLimited(retryAfterSeconds int) *Error {
	return &Error{Kind: KindRateLimited, RetryAfter: retryAfterSeconds}
}

func NetworkError(cause error) *Error {
	return &Error{Kind: KindNetworkError, Cause: cause, Message: causeMessage(cause)}
}

func ParseError(msg string) *Error { return &Error{Kind: KindParseError, Message: msg} }

func StoreError(operation, msg string) *Error {
	return &Error{Kind: KindStoreError, Operation: operation, Message: msg}
}

func EncryptionError(operation string) *Error {
	return &Error{Kind: KindEncryptionError, Operation: operation}
}

func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Message: msg} }

func causeMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// As is a thin convenience wrapper over errors.As for the single concrete
// *Error type used across the core.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HTTPStatus maps a domain/app error Kind to the outward HTTP status per
// spec.md §7's propagation policy. Provider and storage errors are
// handled internally and should never reach this mapping in practice;
// it's provided for completeness at the API boundary.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest, KindParseError:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindAuthExpired:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
