package cmd

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minuteme-cli/config"
	"github.com/otherjamesbrown/minuteme-cli/pkg/automation"
	"github.com/otherjamesbrown/minuteme-cli/pkg/wizard"
)

var sampleTranscript = strings.Repeat("Ada: we agreed to ship the beta next week. ", 3)

func analyzeBackend(t *testing.T) (*Deps, *backend) {
	t.Helper()
	deps, api := newTestDeps(t)
	api.HandleFunc("GET /user/transcription-quota", reply(http.StatusOK, map[string]any{"used": 1}))
	api.HandleFunc("GET /user/automation-quota", reply(http.StatusOK, map[string]any{"used": 1}))
	api.HandleFunc("POST /meetings", reply(http.StatusOK, map[string]any{"meeting_id": "meeting_7"}))
	return deps, api
}

func TestAnalyze_ManualTranscript(t *testing.T) {
	deps, api := analyzeBackend(t)
	api.HandleFunc("POST /save-manual-transcript", reply(http.StatusOK, map[string]any{"message": "saved"}))
	api.HandleFunc("POST /generate-minutes", reply(http.StatusOK, map[string]any{"minutes_id": "min_3"}))

	out, stderr, err := run(t, NewAnalyzeCommand(deps), "--transcript", sampleTranscript)
	require.NoError(t, err)
	assert.Contains(t, stderr, wizard.MsgTranscriptSaved)
	assert.Contains(t, out, "Meeting: meeting_7")
	assert.Contains(t, out, "Minutes: min_3")
	assert.Contains(t, out, "minuteme minutes show min_3")

	created, ok := api.find(http.MethodPost, "/meetings")
	require.True(t, ok)
	assert.Equal(t, "conducted", created.Body["status"])
	assert.Equal(t, "Meeting 2026-10-14 09:30", created.Body["name"])

	saved, ok := api.find(http.MethodPost, "/save-manual-transcript")
	require.True(t, ok)
	assert.Equal(t, "meeting_7", saved.Body["meeting_id"])
	assert.Equal(t, strings.TrimSpace(sampleTranscript), saved.Body["transcript"])
}

func TestAnalyze_SkipMinutes(t *testing.T) {
	deps, api := analyzeBackend(t)
	api.HandleFunc("POST /save-manual-transcript", reply(http.StatusOK, map[string]any{}))

	out, _, err := run(t, NewAnalyzeCommand(deps), "--transcript", sampleTranscript, "--skip-minutes")
	require.NoError(t, err)
	assert.Contains(t, out, "minuteme minutes generate --meeting meeting_7")
	_, generated := api.find(http.MethodPost, "/generate-minutes")
	assert.False(t, generated)
}

func TestAnalyze_ShortTranscriptRejected(t *testing.T) {
	deps, api := analyzeBackend(t)

	_, _, err := run(t, NewAnalyzeCommand(deps), "--transcript", "too short")
	require.Error(t, err)
	_, created := api.find(http.MethodPost, "/meetings")
	assert.False(t, created)
}

func TestAnalyze_NeedsSource(t *testing.T) {
	deps, _ := newTestDeps(t)

	_, _, err := run(t, NewAnalyzeCommand(deps))
	require.Error(t, err)
}

func TestAnalyze_AutomatedStart(t *testing.T) {
	deps, api := analyzeBackend(t)
	api.HandleFunc("POST /process-automated", reply(http.StatusOK, map[string]any{"message": "queued"}))

	out, _, err := run(t, NewAnalyzeCommand(deps), "--transcript", sampleTranscript, "--automated")
	require.NoError(t, err)
	assert.Contains(t, out, "Automation started. Track it with 'minuteme notifications watch'.")

	req, ok := api.find(http.MethodPost, "/process-automated")
	require.True(t, ok)
	assert.Equal(t, "meeting_7", req.Body["meeting_id"])

	st := deps.Store.Snapshot()
	assert.Equal(t, automation.StatusRunning, st.Status)
	assert.Equal(t, "meeting_7", st.JobID)
}

func TestAnalyze_AutomatedFollow(t *testing.T) {
	deps, api := analyzeBackend(t)
	deps.Config.OutputFormat = config.OutputFormatJSON
	api.HandleFunc("POST /process-automated", reply(http.StatusOK, map[string]any{}))
	api.HandleFunc("GET /notifications", reply(http.StatusOK, []map[string]any{
		{"id": "n1", "type": "success", "message": "Minutes and action items ready", "related_id": "meeting_7"},
	}))

	out, _, err := run(t, NewAnalyzeCommand(deps), "--transcript", sampleTranscript, "--automated", "--follow")
	require.NoError(t, err)

	var got analyzeResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.Automation)
	assert.Equal(t, automation.StatusSuccess, got.Automation.Status)
	assert.Equal(t, "Minutes and action items ready", got.Message)
}

func TestAnalyze_AutomatedFollowFailure(t *testing.T) {
	deps, api := analyzeBackend(t)
	api.HandleFunc("POST /process-automated", reply(http.StatusOK, map[string]any{}))
	api.HandleFunc("GET /notifications", reply(http.StatusOK, []map[string]any{
		{"id": "n1", "type": "error", "message": "Video not accessible", "related_id": "meeting_7"},
	}))

	out, _, err := run(t, NewAnalyzeCommand(deps), "--video", "https://drive.google.com/file/d/1AbC/view", "--automated", "--follow")
	require.ErrorIs(t, err, errAutomationFailed)
	assert.Contains(t, out, "Automation:")
}
