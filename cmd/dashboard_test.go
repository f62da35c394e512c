package cmd

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minuteme-cli/client"
	"github.com/otherjamesbrown/minuteme-cli/config"
)

func TestRecentMeetings(t *testing.T) {
	meetings := []client.Meeting{
		{ID: "m1", Date: "2026-09-01"},
		{ID: "m2", Date: "2026-10-12"},
		{ID: "m3", Date: "2026-10-01"},
		{ID: "m4", Date: "2026-10-14"},
	}

	got := recentMeetings(meetings, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"m4", "m2", "m3"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "m1", meetings[0].ID, "input must not be reordered")
}

func TestOpenActions(t *testing.T) {
	items := []client.ActionItem{
		{ID: "a1", Deadline: client.DeadlineTBD, Status: client.ActionPending},
		{ID: "a2", Deadline: "2026-10-20", Status: client.ActionInProgress},
		{ID: "a3", Deadline: "2026-10-15", Status: client.ActionCompleted},
		{ID: "a4", Deadline: "2026-10-16", Status: client.ActionPending},
	}

	got := openActions(items, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a4", "a2", "a1"}, []string{got[0].ID, got[1].ID, got[2].ID})

	assert.Empty(t, openActions(nil, 3))
	assert.Len(t, openActions(items, 1), 1)
}

func dashboardBackend(t *testing.T) (*Deps, *backend) {
	t.Helper()
	deps, api := newTestDeps(t)
	api.HandleFunc("GET /meetings", reply(http.StatusOK, []map[string]any{
		{"id": "m1", "name": "Kickoff", "date": "2026-10-01", "status": "conducted"},
		{"id": "m2", "name": "Sprint review", "date": "2026-10-14", "status": "conducted"},
	}))
	api.HandleFunc("GET /action-items", reply(http.StatusOK, []map[string]any{
		{"id": "a1", "task": "Send notes", "owner": "Ada", "deadline": "2026-10-16", "status": "pending"},
		{"id": "a2", "task": "Book room", "deadline": "2026-10-15", "status": "completed"},
	}))
	api.HandleFunc("GET /notifications", reply(http.StatusOK, []map[string]any{
		{"id": "n1", "message": "Minutes ready", "read": false},
		{"id": "n2", "message": "Welcome", "read": true},
	}))
	return deps, api
}

func TestDashboard(t *testing.T) {
	deps, api := dashboardBackend(t)
	api.HandleFunc("GET /agenda", reply(http.StatusOK, map[string]any{
		"meeting_name": "Planning",
		"meeting_date": "2026-10-20",
		"agenda":       []map[string]any{{"topic": "Roadmap", "priority": "urgent", "time_allocated": "20m"}},
	}))

	out, _, err := run(t, NewDashboardCommand(deps))
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome back! (Free)")
	assert.Contains(t, out, "You have 1 unread notification(s).")
	assert.Contains(t, out, "Today  Sprint review  [conducted]")
	assert.Contains(t, out, "[ ] Send notes  (owner: Ada, due: Oct 16, 2026)")
	assert.NotContains(t, out, "Book room")
	assert.Contains(t, out, "Planning (Oct 20, 2026)")
	assert.Contains(t, out, "- Roadmap [urgent] (20m)")
}

func TestDashboard_NoAgenda(t *testing.T) {
	deps, api := dashboardBackend(t)
	api.HandleFunc("GET /agenda", reply(http.StatusNotFound, map[string]any{"detail": "No agenda found"}))
	deps.Config.OutputFormat = config.OutputFormatJSON

	out, _, err := run(t, NewDashboardCommand(deps))
	require.NoError(t, err)

	var got dashboard
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Nil(t, got.Agenda)
	assert.Equal(t, 1, got.Unread)
	require.Len(t, got.RecentMeetings, 2)
	assert.Equal(t, "m2", got.RecentMeetings[0].ID)
}

func TestDashboard_AgendaServerError(t *testing.T) {
	deps, api := dashboardBackend(t)
	api.HandleFunc("GET /agenda", reply(http.StatusInternalServerError, map[string]any{"detail": "boom"}))

	_, _, err := run(t, NewDashboardCommand(deps))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching agenda")
}
