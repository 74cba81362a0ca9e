// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Kind classifies service errors independently of the transport.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindNotFound
	KindAlreadyExists
	KindUnauthenticated
	KindFailedPrecondition
)

// Error is a client-facing service error. Msg is safe to show to callers;
// Err carries the internal cause and is never rendered.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// InvalidArgument creates a validation error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return &Error{Kind: KindInvalidArgument, Msg: msg}
}

// AlreadyExists creates a conflict error.
func AlreadyExists(msg string) error {
	return &Error{Kind: KindAlreadyExists, Msg: msg}
}

// NotFound creates a missing-resource error.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// Unauthenticated creates an authentication error.
func Unauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Msg: msg}
}

// FailedPrecondition signals the caller must fix its own state first
// (e.g. complete a profile).
func FailedPrecondition(msg string) error {
	return &Error{Kind: KindFailedPrecondition, Msg: msg}
}

// Internal wraps an infrastructure failure behind a generic message.
func Internal(msg string, cause error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: cause}
}

// Map converts repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var se *Error
	if errors.As(err, &se) {
		return status.Error(grpcCode(se.Kind), se.Msg)
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// internal details stay in the logs
		return status.Error(codes.Internal, "internal error")
	}
}

// HTTPStatus picks the HTTP status code for err.
func HTTPStatus(err error) int {
	var se *Error
	if errors.As(err, &se) {
		switch se.Kind {
		case KindInvalidArgument, KindFailedPrecondition:
			return http.StatusBadRequest
		case KindNotFound:
			return http.StatusNotFound
		case KindAlreadyExists:
			return http.StatusConflict
		case KindUnauthenticated:
			return http.StatusUnauthorized
		default:
			return http.StatusInternalServerError
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the caller-safe message for err.
func PublicMessage(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Msg
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "record not found"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	default:
		return "internal error"
	}
}

// Code is a stable machine-readable label for err.
func Code(err error) string {
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		var se *Error
		if errors.As(err, &se) && se.Kind == KindFailedPrecondition {
			return "PROFILE_INCOMPLETE"
		}
		return "VALIDATION_ERROR"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "ALREADY_EXISTS"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusGatewayTimeout:
		return "TIMEOUT"
	default:
		return "INTERNAL_ERROR"
	}
}

func grpcCode(k Kind) codes.Code {
	switch k {
	case KindInvalidArgument:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	case KindAlreadyExists:
		return codes.AlreadyExists
	case KindUnauthenticated:
		return codes.Unauthenticated
	case KindFailedPrecondition:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}
