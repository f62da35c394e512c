package cmd

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
)

func TestCalendarConnect_FreeUserRefused(t *testing.T) {
	deps, api := newTestDeps(t)

	_, _, err := run(t, NewCalendarCommand(deps), "connect")
	require.Error(t, err)
	assert.True(t, mmerrors.IsPremiumRequired(err))
	assert.Contains(t, err.Error(), "Calendar integration is a premium feature")
	assert.Zero(t, api.count())
}

func TestCalendarConnect_PrintsAuthorizationURL(t *testing.T) {
	deps, api := newTestDeps(t)
	deps.Identity = premium
	api.HandleFunc("GET /auth/google/url", reply(http.StatusOK, map[string]any{"authorization_url": "https://accounts.google.com/o/oauth2/auth?client_id=x"}))

	out, _, err := run(t, NewCalendarCommand(deps), "connect")
	require.NoError(t, err)
	assert.Contains(t, out, "https://accounts.google.com/o/oauth2/auth?client_id=x")
	assert.Contains(t, out, "minuteme calendar connect --code <code>")
}

func TestCalendarConnect_ExchangesCode(t *testing.T) {
	deps, api := newTestDeps(t)
	deps.Identity = premium
	api.HandleFunc("POST /auth/google/exchange", reply(http.StatusOK, map[string]any{}))

	out, _, err := run(t, NewCalendarCommand(deps), "connect", "--code", "4/0Ab")
	require.NoError(t, err)
	assert.Contains(t, out, "Google Calendar connected.")

	req, ok := api.find(http.MethodPost, "/auth/google/exchange")
	require.True(t, ok)
	assert.Equal(t, "4/0Ab", req.Body["code"])
	_, fetchedURL := api.find(http.MethodGet, "/auth/google/url")
	assert.False(t, fetchedURL)
}

func TestCalendarStatus(t *testing.T) {
	tests := []struct {
		name      string
		connected bool
		want      string
	}{
		{"connected", true, "Google Calendar: connected\n"},
		{"disconnected", false, "Google Calendar: not connected (run 'minuteme calendar connect')\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, api := newTestDeps(t)
			api.HandleFunc("GET /auth/google/status", reply(http.StatusOK, map[string]any{"is_connected": tt.connected}))

			out, _, err := run(t, NewCalendarCommand(deps), "status")
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestCalendarEvents(t *testing.T) {
	deps, api := newTestDeps(t)
	api.HandleFunc("GET /events", reply(http.StatusOK, []map[string]any{
		{"id": "e1", "summary": "Sprint review", "start": "2026-10-15T10:00:00Z", "description": "Demo and retro"},
	}))

	out, _, err := run(t, NewCalendarCommand(deps), "events")
	require.NoError(t, err)
	assert.Contains(t, out, "WHEN")
	assert.Contains(t, out, "Sprint review")
	assert.Contains(t, out, "Demo and retro")
}

func TestCalendarDisconnect(t *testing.T) {
	deps, api := newTestDeps(t)
	api.HandleFunc("POST /auth/google/disconnect", reply(http.StatusOK, map[string]any{}))

	out, _, err := run(t, NewCalendarCommand(deps), "disconnect")
	require.NoError(t, err)
	assert.Contains(t, out, "Google Calendar disconnected.")
}
