package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// statusCarrier is implemented by errors that know the HTTP status they came from.
type statusCarrier interface {
	HTTPStatus() int
}

// OperationError is a classified failure of a single client operation.
type OperationError struct {
	Code      ErrorCode
	Operation string
	Message   string
	Cause     error
}

func (e *OperationError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Operation, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// ClassifyError inspects an error and returns an *OperationError with the appropriate code.
// Errors matching no known pattern are classified as CodeUnknown.
func ClassifyError(err error, operation string) *OperationError {
	if err == nil {
		return nil
	}

	oe := &OperationError{
		Operation: operation,
		Message:   err.Error(),
		Cause:     err,
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		oe.Code = CodeTimeout
		oe.Message = "request timed out"
	case errors.Is(err, context.Canceled):
		oe.Code = CodeCancelled
		oe.Message = "request cancelled"
	case errors.Is(err, ErrUnauthorized):
		oe.Code = CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		oe.Code = CodeForbidden
	case errors.Is(err, ErrNotFound):
		oe.Code = CodeNotFound
	case errors.Is(err, ErrValidation):
		oe.Code = CodeValidation
	case errors.Is(err, ErrConflict):
		oe.Code = CodeConflict
	case errors.Is(err, ErrQuotaExceeded):
		oe.Code = CodeQuotaExceeded
	case errors.Is(err, ErrPremiumRequired):
		oe.Code = CodePremiumRequired
	case errors.Is(err, ErrInvalidState):
		oe.Code = CodeInvalidState
	case errors.Is(err, ErrMalformedResponse):
		oe.Code = CodeMalformedResponse
	case isServerError(err):
		oe.Code = CodeServerError
	case isTransportError(err):
		oe.Code = CodeTransport
	default:
		oe.Code = CodeUnknown
	}

	return oe
}

func isServerError(err error) bool {
	var sc statusCarrier
	if errors.As(err, &sc) {
		return sc.HTTPStatus() >= 500
	}
	return false
}

func isTransportError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsTimeout returns true if the error is a timeout error.
func IsTimeout(err error) bool {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Code == CodeTimeout
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsErrorRetryable returns true if the error is likely transient and worth retrying by hand.
func IsErrorRetryable(err error) bool {
	var oe *OperationError
	if !errors.As(err, &oe) {
		oe = ClassifyError(err, "")
	}
	if oe == nil {
		return false
	}
	return IsRetryable(oe.Code)
}
