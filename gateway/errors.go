package gateway

import (
	"fmt"

	"github.com/jrsteele09/productms-console/authmodel"
	apperrors "github.com/jrsteele09/productms-console/internal/errors"
)

var (
	// ErrInvalidCredentials never says whether the user or the password was wrong.
	ErrInvalidCredentials = apperrors.ErrInvalidCredentials
	ErrUnauthorized       = apperrors.ErrUnauthorized
)

// ValidationError carries per-field rejections, from the backend or from the
// client side checks run before a request is sent.
type ValidationError struct {
	Fields authmodel.FieldErrors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.String()
}

// NetworkError is a transport failure: connection refused, timeout, cancelled context.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == apperrors.ErrNetwork }

// UnexpectedError is any response the gateway cannot interpret.
type UnexpectedError struct {
	Op     string
	Status int
	Err    error
}

func (e *UnexpectedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: unexpected response (status %d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: unexpected response (status %d)", e.Op, e.Status)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

func (e *UnexpectedError) Is(target error) bool { return target == apperrors.ErrUnexpected }
