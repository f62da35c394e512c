package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
)

// Each resource method must issue exactly one request to the documented endpoint.
func TestResourceEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		call       func(ctx context.Context, c *Client) error
		wantMethod string
		wantPath   string
		wantBody   map[string]any
	}{
		{"list meetings", `[]`, func(ctx context.Context, c *Client) error { _, err := c.ListMeetings(ctx); return err },
			http.MethodGet, "/meetings", nil},
		{"update meeting status", `{}`, func(ctx context.Context, c *Client) error {
			return c.UpdateMeetingStatus(ctx, "m1", MeetingDismissed)
		}, http.MethodPatch, "/meetings/m1", map[string]any{"status": "dismissed"}},
		{"delete meeting", ``, func(ctx context.Context, c *Client) error { return c.DeleteMeeting(ctx, "m1") },
			http.MethodDelete, "/meetings/m1", nil},
		{"transcribe", `{"message":"ok"}`, func(ctx context.Context, c *Client) error {
			_, err := c.Transcribe(ctx, TranscribeRequest{MeetingID: "m1", VideoURL: "https://drive.google.com/file/d/x/view"})
			return err
		}, http.MethodPost, "/transcribe", map[string]any{"meeting_id": "m1", "video_url": "https://drive.google.com/file/d/x/view"}},
		{"save manual transcript", `{"message":"saved"}`, func(ctx context.Context, c *Client) error {
			_, err := c.SaveManualTranscript(ctx, ManualTranscriptRequest{MeetingID: "m1", Transcript: "hello"})
			return err
		}, http.MethodPost, "/save-manual-transcript", map[string]any{"meeting_id": "m1", "transcript": "hello"}},
		{"list transcripts", `[]`, func(ctx context.Context, c *Client) error { _, err := c.ListTranscripts(ctx); return err },
			http.MethodGet, "/transcripts", nil},
		{"delete transcript", ``, func(ctx context.Context, c *Client) error { return c.DeleteTranscript(ctx, "t1") },
			http.MethodDelete, "/transcripts/t1", nil},
		{"generate minutes from transcript", `{"minutes_id":"n1"}`, func(ctx context.Context, c *Client) error {
			_, err := c.GenerateMinutes(ctx, GenerateMinutesRequest{TranscriptID: "t1"})
			return err
		}, http.MethodPost, "/generate-minutes", map[string]any{"transcript_id": "t1"}},
		{"list minutes", `[]`, func(ctx context.Context, c *Client) error { _, err := c.ListMinutes(ctx); return err },
			http.MethodGet, "/minutes", nil},
		{"get minutes", `{"id":"n1"}`, func(ctx context.Context, c *Client) error { _, err := c.GetMinutes(ctx, "n1"); return err },
			http.MethodGet, "/minutes/n1", nil},
		{"generate action items", `{"message":"ok"}`, func(ctx context.Context, c *Client) error {
			_, err := c.GenerateActionItems(ctx, "n1")
			return err
		}, http.MethodPost, "/generate-action-items", map[string]any{"minutes_id": "n1"}},
		{"list action items", `[]`, func(ctx context.Context, c *Client) error { _, err := c.ListActionItems(ctx); return err },
			http.MethodGet, "/action-items", nil},
		{"update action item", `{}`, func(ctx context.Context, c *Client) error {
			return c.UpdateActionItemStatus(ctx, "a1", ActionCompleted)
		}, http.MethodPatch, "/action-items/a1", map[string]any{"status": "completed"}},
		{"delete action item", ``, func(ctx context.Context, c *Client) error { return c.DeleteActionItem(ctx, "a1") },
			http.MethodDelete, "/action-items/a1", nil},
		{"list agendas", `[]`, func(ctx context.Context, c *Client) error { _, err := c.ListAgendas(ctx); return err },
			http.MethodGet, "/agendas", nil},
		{"get agenda", `{"meeting_id":"m1"}`, func(ctx context.Context, c *Client) error { _, err := c.GetAgenda(ctx); return err },
			http.MethodGet, "/agenda", nil},
		{"create agenda", `{"meeting_id":"m1"}`, func(ctx context.Context, c *Client) error {
			_, err := c.CreateAgenda(ctx, CreateAgendaRequest{Date: "2026-10-20", Topics: []string{"Budget"}})
			return err
		}, http.MethodPost, "/agenda", map[string]any{"date": "2026-10-20", "topics": []any{"Budget"}, "discussion_points": nil}},
		{"update agenda", `{}`, func(ctx context.Context, c *Client) error {
			return c.UpdateAgenda(ctx, "m1", UpdateAgendaRequest{MeetingName: "Plan", MeetingDate: "2026-10-20", Agenda: []AgendaItem{{Topic: "Budget"}}})
		}, http.MethodPatch, "/agenda/m1", map[string]any{
			"meeting_name": "Plan", "meeting_date": "2026-10-20",
			"agenda": []any{map[string]any{"topic": "Budget"}},
		}},
		{"delete agenda", ``, func(ctx context.Context, c *Client) error { return c.DeleteAgenda(ctx, "m1") },
			http.MethodDelete, "/agenda/m1", nil},
		{"schedule agenda", `{"message":"scheduled"}`, func(ctx context.Context, c *Client) error {
			_, err := c.ScheduleAgenda(ctx, "ag1")
			return err
		}, http.MethodPost, "/schedule-agenda", map[string]any{"agenda_id": "ag1"}},
		{"list notifications", `[]`, func(ctx context.Context, c *Client) error { _, err := c.ListNotifications(ctx); return err },
			http.MethodGet, "/notifications", nil},
		{"mark notification read", `{}`, func(ctx context.Context, c *Client) error { return c.MarkNotificationRead(ctx, "x1") },
			http.MethodPatch, "/notifications/x1/read", nil},
		{"mark all read", `{}`, func(ctx context.Context, c *Client) error { return c.MarkAllNotificationsRead(ctx) },
			http.MethodPost, "/notifications/read-all", nil},
		{"transcription quota", `{"limit":5,"used":1}`, func(ctx context.Context, c *Client) error { _, err := c.TranscriptionQuota(ctx); return err },
			http.MethodGet, "/user/transcription-quota", nil},
		{"automation quota", `{"limit":5,"used":1}`, func(ctx context.Context, c *Client) error { _, err := c.AutomationQuota(ctx); return err },
			http.MethodGet, "/user/automation-quota", nil},
		{"process automated", `{"message":"queued"}`, func(ctx context.Context, c *Client) error {
			_, err := c.ProcessAutomated(ctx, ProcessAutomatedRequest{MeetingID: "m1", Transcript: "text"})
			return err
		}, http.MethodPost, "/process-automated", map[string]any{"meeting_id": "m1", "transcript": "text"}},
		{"list events", `[]`, func(ctx context.Context, c *Client) error { _, err := c.ListEvents(ctx); return err },
			http.MethodGet, "/events", nil},
		{"google status", `{"is_connected":true}`, func(ctx context.Context, c *Client) error { _, err := c.GoogleStatus(ctx); return err },
			http.MethodGet, "/auth/google/status", nil},
		{"google auth url", `{"authorization_url":"https://accounts.google.com/o"}`, func(ctx context.Context, c *Client) error {
			_, err := c.GoogleAuthURL(ctx)
			return err
		}, http.MethodGet, "/auth/google/url", nil},
		{"google exchange", `{}`, func(ctx context.Context, c *Client) error { return c.GoogleExchange(ctx, "code-1") },
			http.MethodPost, "/auth/google/exchange", map[string]any{"code": "code-1"}},
		{"google disconnect", `{}`, func(ctx context.Context, c *Client) error { return c.GoogleDisconnect(ctx) },
			http.MethodPost, "/auth/google/disconnect", nil},
		{"list users", `[]`, func(ctx context.Context, c *Client) error { _, err := c.ListUsers(ctx); return err },
			http.MethodGet, "/admin/users", nil},
		{"set tier", `{}`, func(ctx context.Context, c *Client) error { return c.SetUserTier(ctx, "u1", "premium") },
			http.MethodPatch, "/admin/user/u1/tier", map[string]any{"tier": "premium"}},
		{"set role", `{}`, func(ctx context.Context, c *Client) error { return c.SetUserRole(ctx, "u1", "admin") },
			http.MethodPatch, "/admin/user/u1/role", map[string]any{"role": "admin"}},
		{"delete user", ``, func(ctx context.Context, c *Client) error { return c.DeleteUser(ctx, "u1") },
			http.MethodDelete, "/admin/user/u1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, seen := fakeBackend(t, http.StatusOK, tt.reply)
			c := newTestClient(t, srv)

			require.NoError(t, tt.call(context.Background(), c))
			require.Len(t, *seen, 1)
			got := (*seen)[0]
			assert.Equal(t, tt.wantMethod, got.Method)
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Equal(t, tt.wantBody, got.Body)
		})
	}
}

func TestCreateMeeting(t *testing.T) {
	srv, seen := fakeBackend(t, http.StatusOK, `{"_id":"m9"}`)
	c := newTestClient(t, srv)

	m, err := c.CreateMeeting(context.Background(), CreateMeetingRequest{
		Name: "Meeting 2026-10-16 09:30", Date: "2026-10-16", Status: MeetingConducted,
	})
	require.NoError(t, err)
	assert.Equal(t, "m9", m.ID)
	assert.Equal(t, "Meeting 2026-10-16 09:30", m.Name)
	assert.Equal(t, "2026-10-16", m.Date)
	assert.Equal(t, map[string]any{"name": "Meeting 2026-10-16 09:30", "date": "2026-10-16", "status": "conducted"}, (*seen)[0].Body)
}

func TestCreateMeeting_MissingID(t *testing.T) {
	srv, _ := fakeBackend(t, http.StatusOK, `{"name":"x"}`)
	c := newTestClient(t, srv)

	_, err := c.CreateMeeting(context.Background(), CreateMeetingRequest{Name: "x"})
	assert.True(t, mmerrors.IsMalformedResponse(err))
}

func TestGenerateMinutes_ReturnsID(t *testing.T) {
	srv, _ := fakeBackend(t, http.StatusOK, `{"minutes_id":"n42"}`)
	c := newTestClient(t, srv)

	id, err := c.GenerateMinutes(context.Background(), GenerateMinutesRequest{MeetingID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, "n42", id)
}

func TestGenerateMinutes_MeetingIDIsNotMinutesID(t *testing.T) {
	srv, _ := fakeBackend(t, http.StatusOK, `{"message":"Minutes generated","meeting_id":"meet-1"}`)
	c := newTestClient(t, srv)

	id, err := c.GenerateMinutes(context.Background(), GenerateMinutesRequest{MeetingID: "meet-1"})
	require.Error(t, err)
	assert.Empty(t, id)
	assert.ErrorIs(t, err, mmerrors.ErrMalformedResponse)
}

func TestPathsAreEscaped(t *testing.T) {
	srv, seen := fakeBackend(t, http.StatusOK, ``)
	c := newTestClient(t, srv)

	require.NoError(t, c.DeleteMeeting(context.Background(), "a/b c"))
	assert.Equal(t, "/meetings/a%2Fb%20c", (*seen)[0].Path)
}

func TestLocalValidationSkipsNetwork(t *testing.T) {
	srv, seen := fakeBackend(t, http.StatusOK, `{}`)
	c := newTestClient(t, srv)
	ctx := context.Background()

	assert.True(t, mmerrors.IsValidation(c.UpdateMeetingStatus(ctx, "m1", "cancelled")))
	assert.True(t, mmerrors.IsValidation(c.UpdateActionItemStatus(ctx, "a1", "done")))
	assert.True(t, mmerrors.IsValidation(c.SetUserTier(ctx, "u1", "gold")))
	assert.True(t, mmerrors.IsValidation(c.SetUserRole(ctx, "u1", "root")))

	_, err := c.ProcessAutomated(ctx, ProcessAutomatedRequest{MeetingID: "m1"})
	assert.True(t, mmerrors.IsValidation(err))
	_, err = c.ProcessAutomated(ctx, ProcessAutomatedRequest{MeetingID: "m1", VideoURL: "u", Transcript: "t"})
	assert.True(t, mmerrors.IsValidation(err))

	assert.Empty(t, *seen)
}
