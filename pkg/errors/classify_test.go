package errors

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatusError struct{ status int }

func (e *fakeStatusError) Error() string   { return fmt.Sprintf("status %d", e.status) }
func (e *fakeStatusError) HTTPStatus() int { return e.status }

func TestClassifyError_Nil(t *testing.T) {
	assert.Nil(t, ClassifyError(nil, "list meetings"))
}

func TestClassifyError_Codes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"deadline", context.DeadlineExceeded, CodeTimeout},
		{"wrapped deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), CodeTimeout},
		{"cancelled", context.Canceled, CodeCancelled},
		{"unauthorized", fmt.Errorf("401: %w", ErrUnauthorized), CodeUnauthorized},
		{"forbidden", ErrForbidden, CodeForbidden},
		{"not found", ErrNotFound, CodeNotFound},
		{"validation", ErrValidation, CodeValidation},
		{"conflict", ErrConflict, CodeConflict},
		{"quota", ErrQuotaExceeded, CodeQuotaExceeded},
		{"premium", ErrPremiumRequired, CodePremiumRequired},
		{"invalid state", ErrInvalidState, CodeInvalidState},
		{"malformed", fmt.Errorf("decode: %w", ErrMalformedResponse), CodeMalformedResponse},
		{"server error", &fakeStatusError{status: 502}, CodeServerError},
		{"client status without sentinel", &fakeStatusError{status: 418}, CodeUnknown},
		{"transport", &url.Error{Op: "Get", URL: "http://localhost:8000/meetings", Err: errors.New("connection refused")}, CodeTransport},
		{"unknown", errors.New("boom"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oe := ClassifyError(tt.err, "op")
			require.NotNil(t, oe)
			assert.Equal(t, tt.want, oe.Code)
			assert.Equal(t, "op", oe.Operation)
			assert.ErrorIs(t, oe, tt.err)
		})
	}
}

func TestOperationError_Error(t *testing.T) {
	oe := &OperationError{Code: CodeNotFound, Operation: "get minutes", Message: "not found"}
	assert.Equal(t, "not_found: get minutes: not found", oe.Error())

	oe = &OperationError{Code: CodeUnknown, Message: "boom"}
	assert.Equal(t, "unknown: boom", oe.Error())
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(ClassifyError(context.DeadlineExceeded, "x")))
	assert.False(t, IsTimeout(errors.New("boom")))
}

func TestIsErrorRetryable(t *testing.T) {
	assert.True(t, IsErrorRetryable(&fakeStatusError{status: 503}))
	assert.True(t, IsErrorRetryable(context.DeadlineExceeded))
	assert.False(t, IsErrorRetryable(ErrForbidden))
	assert.False(t, IsErrorRetryable(nil))
}
