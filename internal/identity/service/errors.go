package service

import (
	"errors"

	"github.com/samber/oops"

	"internship-portal/backend/internal/session"
)

// Sentinel errors for the auth flows; the HTTP handler maps them to status codes.
var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateIdentity  = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOTPNotRequested    = errors.New("otp not requested")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPMismatch        = errors.New("invalid otp")
	ErrInvalidTempToken   = errors.New("invalid or expired temp token")
	ErrNoAccount          = errors.New("no account for this email")
	ErrUnauthenticated    = session.ErrUnauthenticated

	// ErrDependencyFailure marks a failed notification send or persistence call.
	// Such errors are retryable by the client.
	ErrDependencyFailure = errors.New("dependency failure")
	// ErrNotification marks a dependency failure caused by the notification sender.
	ErrNotification = errors.New("notification failed")
)

// ValidationError is a missing or malformed input. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

func dependencyFailure(op string, err error) error {
	return oops.Code("DEPENDENCY_FAILURE").With("operation", op).Wrap(errors.Join(ErrDependencyFailure, err))
}

func notificationFailure(err error) error {
	return oops.Code("DEPENDENCY_FAILURE").With("operation", "notify").Wrap(errors.Join(ErrDependencyFailure, ErrNotification, err))
}

// IsDependencyFailure reports whether err came from a failed dependency rather than the caller's input.
func IsDependencyFailure(err error) bool {
	return errors.Is(err, ErrDependencyFailure)
}
