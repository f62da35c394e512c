package errors

// ErrorCode represents a classified client-side failure.
type ErrorCode string

const (
	CodeTimeout           ErrorCode = "timeout"
	CodeCancelled         ErrorCode = "cancelled"
	CodeTransport         ErrorCode = "transport"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeForbidden         ErrorCode = "forbidden"
	CodeNotFound          ErrorCode = "not_found"
	CodeValidation        ErrorCode = "validation"
	CodeConflict          ErrorCode = "conflict"
	CodeQuotaExceeded     ErrorCode = "quota_exceeded"
	CodePremiumRequired   ErrorCode = "premium_required"
	CodeInvalidState      ErrorCode = "invalid_state"
	CodeServerError       ErrorCode = "server_error"
	CodeMalformedResponse ErrorCode = "malformed_response"
	CodeUnknown           ErrorCode = "unknown"
)

// ErrorCodeInfo contains metadata about an error code.
type ErrorCodeInfo struct {
	Code            ErrorCode
	Retryable       bool
	Description     string
	SuggestedAction string
}

// ErrorCodeRegistry maps error codes to their metadata.
var ErrorCodeRegistry = map[ErrorCode]ErrorCodeInfo{
	CodeTimeout: {
		Code:            CodeTimeout,
		Retryable:       true,
		Description:     "Request exceeded the configured timeout",
		SuggestedAction: "Raise the limit with --timeout or 'minuteme config set timeout 20m'",
	},
	CodeCancelled: {
		Code:            CodeCancelled,
		Retryable:       false,
		Description:     "Request cancelled before a response arrived",
		SuggestedAction: "Re-run the command; nothing was confirmed by the server",
	},
	CodeTransport: {
		Code:            CodeTransport,
		Retryable:       true,
		Description:     "Could not reach the MinuteMe API",
		SuggestedAction: "Check the API address: minuteme config show",
	},
	CodeUnauthorized: {
		Code:            CodeUnauthorized,
		Retryable:       false,
		Description:     "Session missing, expired or rejected",
		SuggestedAction: "Sign in again: minuteme auth login",
	},
	CodeForbidden: {
		Code:            CodeForbidden,
		Retryable:       false,
		Description:     "Your role does not allow this operation",
		SuggestedAction: "Check your role and tier: minuteme auth whoami",
	},
	CodeNotFound: {
		Code:            CodeNotFound,
		Retryable:       false,
		Description:     "The referenced record does not exist",
		SuggestedAction: "List available records, e.g. minuteme meetings list",
	},
	CodeValidation: {
		Code:            CodeValidation,
		Retryable:       false,
		Description:     "The request was rejected as invalid",
		SuggestedAction: "Fix the input shown above and retry",
	},
	CodeConflict: {
		Code:            CodeConflict,
		Retryable:       false,
		Description:     "The record changed or already exists",
		SuggestedAction: "Re-fetch the record and retry",
	},
	CodeQuotaExceeded: {
		Code:            CodeQuotaExceeded,
		Retryable:       false,
		Description:     "Monthly free-tier quota used up",
		SuggestedAction: "Paste a transcript instead, or upgrade: minuteme upgrade",
	},
	CodePremiumRequired: {
		Code:            CodePremiumRequired,
		Retryable:       false,
		Description:     "Feature reserved for premium accounts",
		SuggestedAction: "See plan details: minuteme upgrade",
	},
	CodeInvalidState: {
		Code:            CodeInvalidState,
		Retryable:       false,
		Description:     "Operation not valid in the current state",
		SuggestedAction: "Check automation status: minuteme notifications list",
	},
	CodeServerError: {
		Code:            CodeServerError,
		Retryable:       true,
		Description:     "The MinuteMe API failed to process the request",
		SuggestedAction: "Retry later; the request may have partially completed",
	},
	CodeMalformedResponse: {
		Code:            CodeMalformedResponse,
		Retryable:       false,
		Description:     "The API answered with an unexpected payload",
		SuggestedAction: "Re-run with --debug to inspect the response",
	},
	CodeUnknown: {
		Code:            CodeUnknown,
		Retryable:       false,
		Description:     "Unclassified error",
		SuggestedAction: "Re-run with --debug for more detail",
	},
}

// IsRetryable returns true if the given error code represents a transient, retryable error.
func IsRetryable(code ErrorCode) bool {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Retryable
	}
	return false
}

// GetSuggestedAction returns the suggested action for the given error code.
func GetSuggestedAction(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.SuggestedAction
	}
	return "Re-run with --debug for more detail"
}

// GetDescription returns the human-readable description for the given error code.
func GetDescription(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Description
	}
	return "Unknown error"
}
