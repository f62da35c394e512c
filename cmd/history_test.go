package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minuteme-cli/config"
	"github.com/otherjamesbrown/minuteme-cli/pkg/audit"
	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
)

func configuredAudit() *config.AuditConfig {
	return &config.AuditConfig{Host: "db.example.com", Database: "minuteme", User: "minuteme"}
}

func TestHistory_NotConfigured(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.OpenAudit = func(*config.AuditConfig) (*audit.Client, error) {
		t.Fatal("audit log opened without configuration")
		return nil, nil
	}

	_, _, err := run(t, NewHistoryCommand(deps))
	require.Error(t, err)
	assert.True(t, mmerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "audit log is not configured")
}

func TestHistory_InvalidLimit(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Config.Audit = configuredAudit()

	_, _, err := run(t, NewHistoryCommand(deps), "--limit", "0")
	require.Error(t, err)
	assert.True(t, mmerrors.IsValidation(err))
}

func TestHistory_OpenError(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Config.Audit = configuredAudit()
	deps.OpenAudit = func(cfg *config.AuditConfig) (*audit.Client, error) {
		assert.Equal(t, "db.example.com", cfg.Host)
		return nil, errors.New("connection refused")
	}

	_, _, err := run(t, NewHistoryCommand(deps), "-n", "5")
	require.EqualError(t, err, "connection refused")
}

func TestTruncateCell(t *testing.T) {
	assert.Equal(t, "ok", truncateCell("ok", 10))
	assert.Equal(t, "line one line two", truncateCell("line one\nline two", 40))
	assert.Equal(t, "héllo...", truncateCell("héllo world", 5))
}
