package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Detail     string
	Method     string
	Path       string
	RequestID  string
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Unwrap maps the status onto the shared sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return mmerrors.ErrUnauthorized
	case http.StatusForbidden:
		return mmerrors.ErrForbidden
	case http.StatusNotFound:
		return mmerrors.ErrNotFound
	case http.StatusConflict:
		return mmerrors.ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return mmerrors.ErrValidation
	case http.StatusTooManyRequests:
		return mmerrors.ErrQuotaExceeded
	default:
		return nil
	}
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	return &APIError{
		StatusCode: status,
		Detail:     parseDetail(body),
		Method:     method,
		Path:       path,
	}
}

// parseDetail extracts the human message from an error body. FastAPI sends
// {"detail": "..."} or, for validation failures, {"detail": [{"loc": [...], "msg": "..."}]}.
func parseDetail(body []byte) string {
	body = []byte(strings.TrimSpace(string(body)))
	if len(body) == 0 {
		return ""
	}

	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		if body[0] == '<' {
			return ""
		}
		return truncate(string(body), 200)
	}

	if len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}

		var items []struct {
			Loc []any  `json:"loc"`
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if field := lastLoc(it.Loc); field != "" {
					msgs = append(msgs, field+": "+it.Msg)
				} else {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}

		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(payload.Detail, &obj); err == nil && obj.Message != "" {
			return obj.Message
		}
	}

	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok && s != "body" {
		return s
	}
	return ""
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// Message converts err into the text shown to the user: the server's detail
// when there is one, otherwise fallback, otherwise the error text.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	if fallback != "" {
		return fallback
	}
	return err.Error()
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

var errValidation = mmerrors.ErrValidation

func malformed(call, field string) error {
	return fmt.Errorf("%s: response missing %s: %w", call, field, mmerrors.ErrMalformedResponse)
}
