package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeRegistry_Completeness(t *testing.T) {
	allCodes := []ErrorCode{
		CodeTimeout,
		CodeCancelled,
		CodeTransport,
		CodeUnauthorized,
		CodeForbidden,
		CodeNotFound,
		CodeValidation,
		CodeConflict,
		CodeQuotaExceeded,
		CodePremiumRequired,
		CodeInvalidState,
		CodeServerError,
		CodeMalformedResponse,
		CodeUnknown,
	}

	for _, code := range allCodes {
		t.Run(string(code), func(t *testing.T) {
			info, ok := ErrorCodeRegistry[code]
			assert.True(t, ok, "ErrorCode %s should be in registry", code)
			assert.Equal(t, code, info.Code, "Registry entry should have matching code")
			assert.NotEmpty(t, info.Description)
			assert.NotEmpty(t, info.SuggestedAction)
		})
	}
	assert.Len(t, ErrorCodeRegistry, len(allCodes))
}

func TestIsRetryable_ErrorCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected bool
	}{
		{CodeTimeout, true},
		{CodeTransport, true},
		{CodeServerError, true},
		{CodeCancelled, false},
		{CodeUnauthorized, false},
		{CodeQuotaExceeded, false},
		{CodeMalformedResponse, false},
		{ErrorCode("made_up"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.code))
		})
	}
}

func TestGetSuggestedAction(t *testing.T) {
	assert.Contains(t, GetSuggestedAction(CodeUnauthorized), "minuteme auth login")
	assert.Contains(t, GetSuggestedAction(CodeQuotaExceeded), "minuteme upgrade")
	assert.Equal(t, "Re-run with --debug for more detail", GetSuggestedAction(ErrorCode("nope")))
}

func TestGetDescription(t *testing.T) {
	assert.Equal(t, "Could not reach the MinuteMe API", GetDescription(CodeTransport))
	assert.Equal(t, "Unknown error", GetDescription(ErrorCode("nope")))
}
