package errors

import (
	"errors"
	"fmt"
)

// Errors shared across the console packages
var (
	// Session errors
	ErrNoSession        = errors.New("no session")
	ErrNotAuthenticated = errors.New("not authenticated")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")

	// Transport errors
	ErrNetwork    = errors.New("network error")
	ErrUnexpected = errors.New("unexpected response")

	// Storage errors
	ErrStorage = errors.New("session storage failure")

	// General errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
