package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minuteme-cli/cmd"
	"github.com/otherjamesbrown/minuteme-cli/config"
	"github.com/otherjamesbrown/minuteme-cli/credentials"
	"github.com/otherjamesbrown/minuteme-cli/pkg/audit"
	"github.com/otherjamesbrown/minuteme-cli/pkg/buildinfo"
	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
)

const testEncryptionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// isolate points config and credentials at a temp dir.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("MINUTEME_CONFIG_DIR", t.TempDir())
	t.Setenv(credentials.EnvEncryptionKey, testEncryptionKey)
	t.Setenv(credentials.EnvToken, "")
	t.Setenv(credentials.EnvAPIKey, "")
}

func execute(t *testing.T, args ...string) (string, *cmd.Deps, error) {
	t.Helper()
	deps := cmd.DefaultDeps()
	root, _ := newRootCommand(deps)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), deps, err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "minuteme "+buildinfo.Version)
	assert.Contains(t, out, "platform:")
}

func TestVersionCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var info buildinfo.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, component, info.Component)
	assert.Equal(t, buildinfo.Version, info.Version)
}

func TestRootCommand_Layout(t *testing.T) {
	root, _ := newRootCommand(cmd.DefaultDeps())

	for _, name := range []string{"api-url", "timeout", "output", "debug", "log-json", "insecure"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "missing --%s", name)
	}
	assert.Equal(t, "o", root.PersistentFlags().Lookup("output").Shorthand)

	want := map[string]string{
		"dashboard":     "meetings",
		"analyze":       "meetings",
		"meetings":      "meetings",
		"transcripts":   "meetings",
		"minutes":       "meetings",
		"actions":       "meetings",
		"notifications": "meetings",
		"follow":        "meetings",
		"agenda":        "planning",
		"calendar":      "planning",
		"settings":      "account",
		"quota":         "account",
		"upgrade":       "account",
		"admin":         "account",
		"auth":          "setup",
		"config":        "setup",
		"history":       "setup",
		"version":       "setup",
	}
	got := map[string]*cobra.Command{}
	for _, c := range root.Commands() {
		got[c.Name()] = c
	}
	for name, group := range want {
		c, ok := got[name]
		if assert.True(t, ok, "missing command %q", name) {
			assert.Equal(t, group, c.GroupID, "group of %q", name)
		}
	}
}

func TestAuthGate(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "meetings", "list")
	require.Error(t, err)
	assert.True(t, mmerrors.IsUnauthorized(err), "got %v", err)
}

func TestAuthGate_NotAppliedToPublicCommands(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "upgrade")
	require.NoError(t, err)
	assert.Contains(t, out, "Premium")
}

func TestFlagOverrides(t *testing.T) {
	isolate(t)

	_, deps, err := execute(t, "--api-url", "https://api.example.com/", "--timeout", "45s", "-o", "json", "upgrade")
	require.NoError(t, err)
	require.NotNil(t, deps.Config)
	assert.Equal(t, "https://api.example.com", deps.Config.APIBaseURL)
	assert.Equal(t, "45s", deps.Config.Timeout.String())
	assert.Equal(t, config.OutputFormatJSON, deps.Config.OutputFormat)
}

func TestFlagOverrides_InvalidOutputFormat(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "-o", "xml", "upgrade")
	require.Error(t, err)
	assert.True(t, mmerrors.IsValidation(err))
}

func TestConfigInitSetShow(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created configuration file")

	out, _, err = execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	_, _, err = execute(t, "config", "set", "poll_interval", "45s")
	require.NoError(t, err)

	out, _, err = execute(t, "config", "show", "-o", "json")
	require.NoError(t, err)
	var view configView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "45s", view.PollInterval)
	assert.Equal(t, "json", view.OutputFormat)
}

func TestConfigSet_Invalid(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "config", "set", "output_format", "xml")
	require.Error(t, err)
	assert.True(t, mmerrors.IsValidation(err))

	_, _, err = execute(t, "config", "set", "no_such_key", "1")
	require.Error(t, err)
}

func TestPrintError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantAction bool
	}{
		{"unauthorized", fmt.Errorf("not signed in: %w", mmerrors.ErrUnauthorized), true},
		{"premium", fmt.Errorf("calendar: %w", mmerrors.ErrPremiumRequired), true},
		{"unknown", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printError(&buf, nil, tt.err)

			out := buf.String()
			assert.Contains(t, out, "Error: "+tt.err.Error())
			code := mmerrors.ClassifyError(tt.err, "minuteme").Code
			if tt.wantAction {
				assert.Contains(t, out, mmerrors.GetSuggestedAction(code))
			} else {
				assert.Equal(t, "Error: boom\n", out)
			}
		})
	}
}

func TestLogCommandExecution_NoAuditConfigured(t *testing.T) {
	deps := cmd.DefaultDeps()
	deps.Config = config.DefaultConfig()
	opened := false
	deps.OpenAudit = func(*config.AuditConfig) (*audit.Client, error) {
		opened = true
		return nil, errors.New("unexpected")
	}

	logCommandExecution(&session{deps: deps}, []string{"minuteme", "meetings", "list"}, nil)
	assert.False(t, opened)
}

func TestIsConfigCommand(t *testing.T) {
	root, _ := newRootCommand(cmd.DefaultDeps())

	set, _, err := root.Find([]string{"config", "set"})
	require.NoError(t, err)
	assert.True(t, isConfigCommand(set))

	list, _, err := root.Find([]string{"meetings", "list"})
	require.NoError(t, err)
	assert.False(t, isConfigCommand(list))
}
