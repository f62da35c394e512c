// Package errors provides common domain error types for the minuteme client.
//
// This package defines sentinel errors for the conditions the MinuteMe API can
// report (not found, forbidden, quota exhausted, ...). The HTTP client maps
// response statuses onto these sentinels so commands can branch with errors.Is()
// without knowing anything about status codes.
//
// Usage:
//
//	import mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
//
//	if mmerrors.IsNotFound(err) {
//	    // handle missing meeting
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates invalid input or validation failure.
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized indicates the request lacks valid authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated user lacks permission.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState indicates the operation is not valid for the current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrQuotaExceeded indicates the user's monthly quota is used up.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrPremiumRequired indicates a feature reserved for the premium tier.
	ErrPremiumRequired = errors.New("premium tier required")

	// ErrMalformedResponse indicates a 2xx response whose body could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether any error in err's chain is ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnauthorized reports whether any error in err's chain is ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden reports whether any error in err's chain is ErrForbidden.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsInvalidState reports whether any error in err's chain is ErrInvalidState.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsQuotaExceeded reports whether any error in err's chain is ErrQuotaExceeded.
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// IsPremiumRequired reports whether any error in err's chain is ErrPremiumRequired.
func IsPremiumRequired(err error) bool {
	return errors.Is(err, ErrPremiumRequired)
}

// IsMalformedResponse reports whether any error in err's chain is ErrMalformedResponse.
func IsMalformedResponse(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}
