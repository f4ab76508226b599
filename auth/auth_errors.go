package auth

import apperrors "github.com/jrsteele09/productms-console/internal/errors"

var (
	// ErrNotAuthenticated is returned by Token when no session is held.
	ErrNotAuthenticated = apperrors.ErrNotAuthenticated
)
