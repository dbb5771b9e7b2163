package errors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = fmt.Errorf("validation error")
	ErrInsufficientBalance = fmt.Errorf("insufficient balance")
	ErrRewardUnavailable   = fmt.Errorf("reward unavailable")
	ErrStorage             = fmt.Errorf("storage error")
	ErrNotFound            = fmt.Errorf("not found")
	ErrConflict            = fmt.Errorf("conflict")
	ErrUnauthorized        = fmt.Errorf("unauthorized")
	ErrForbidden           = fmt.Errorf("forbidden")
	ErrRateLimited         = fmt.Errorf("rate limited")
)

// domain errors are passed through untouched by Storage
var domainErrors = []error{
	ErrValidation,
	ErrInsufficientBalance,
	ErrRewardUnavailable,
	ErrNotFound,
	ErrConflict,
	ErrUnauthorized,
	ErrForbidden,
	ErrRateLimited,
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Storage wraps a collaborator failure as ErrStorage unless it already
// carries one of the domain sentinels.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

func IsDomain(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Message strips the sentinel prefix so the remaining detail can be shown to a user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, target := range domainErrors {
		prefix := target.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
