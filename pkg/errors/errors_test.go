package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsHelpers(t *testing.T) {
	checks := []struct {
		name     string
		sentinel error
		is       func(error) bool
	}{
		{"IsNotFound", ErrNotFound, IsNotFound},
		{"IsConflict", ErrConflict, IsConflict},
		{"IsValidation", ErrValidation, IsValidation},
		{"IsUnauthorized", ErrUnauthorized, IsUnauthorized},
		{"IsForbidden", ErrForbidden, IsForbidden},
		{"IsInvalidState", ErrInvalidState, IsInvalidState},
		{"IsQuotaExceeded", ErrQuotaExceeded, IsQuotaExceeded},
		{"IsPremiumRequired", ErrPremiumRequired, IsPremiumRequired},
		{"IsMalformedResponse", ErrMalformedResponse, IsMalformedResponse},
	}

	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if !c.is(c.sentinel) {
				t.Errorf("%s(direct) = false, want true", c.name)
			}
			if !c.is(fmt.Errorf("get meeting: %w", c.sentinel)) {
				t.Errorf("%s(wrapped once) = false, want true", c.name)
			}
			if !c.is(fmt.Errorf("cmd: %w", fmt.Errorf("client: %w", c.sentinel))) {
				t.Errorf("%s(wrapped twice) = false, want true", c.name)
			}
			if c.is(nil) {
				t.Errorf("%s(nil) = true, want false", c.name)
			}
			if c.is(errors.New("something else")) {
				t.Errorf("%s(unrelated) = true, want false", c.name)
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrConflict,
		ErrValidation,
		ErrUnauthorized,
		ErrForbidden,
		ErrInvalidState,
		ErrQuotaExceeded,
		ErrPremiumRequired,
		ErrMalformedResponse,
	}

	for i, e1 := range allErrors {
		for j, e2 := range allErrors {
			if i != j && errors.Is(e1, e2) {
				t.Errorf("errors should be distinct: %v and %v", e1, e2)
			}
		}
	}
}
