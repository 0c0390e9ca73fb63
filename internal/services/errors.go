package services

import (
	"errors"
	"fmt"

	"github.com/avantlehq/core-avantle-ai/internal/repository"
)

var (
	// ErrValidation is returned for malformed or inconsistent input
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when an operation clashes with existing state
	ErrConflict = errors.New("conflict")
	// ErrQuotaExceeded is returned when a plan limit blocks an operation
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrInvalidCredentials is returned for any failed login
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden is returned when the caller may not reach a resource
	ErrForbidden = errors.New("access denied")
	// ErrVerificationFailed is returned when a domain's TXT record is missing
	ErrVerificationFailed = errors.New("domain verification failed")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// conflictOr maps a duplicate-key error to ErrConflict and wraps anything else
func conflictOr(err error, what string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	}
	return err
}
