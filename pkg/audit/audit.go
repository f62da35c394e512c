// Package audit records minuteme command executions in a Postgres table.
//
// Logging is best-effort: callers log failures at debug level and never let
// them change a command's exit status.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/otherjamesbrown/minuteme-cli/config"
)

// maxTextLen bounds the stored error and response text.
const maxTextLen = 500

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// DB is the subset of *sql.DB the audit log needs.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PingContext(ctx context.Context) error
	Close() error
}

// Entry is one command execution.
type Entry struct {
	ID           int64     `json:"id" yaml:"id"`
	Command      string    `json:"command" yaml:"command"`
	Args         []string  `json:"args" yaml:"args"`
	FullCommand  string    `json:"full_command" yaml:"full_command"`
	DurationMs   int       `json:"duration_ms" yaml:"duration_ms"`
	Success      bool      `json:"success" yaml:"success"`
	ErrorMessage string    `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	Response     string    `json:"response,omitempty" yaml:"response,omitempty"`
	Subject      string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	Hostname     string    `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// Client writes entries to the configured table.
type Client struct {
	db    DB
	table string
}

// NewClient opens a lib/pq pool for cfg.
func NewClient(cfg *config.AuditConfig) (*Client, error) {
	if cfg == nil || !cfg.IsConfigured() {
		return nil, fmt.Errorf("audit log not configured")
	}

	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	c, err := NewClientWithDB(db, cfg.GetTable())
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewClientWithDB wraps an existing handle. The table may be schema-qualified.
func NewClientWithDB(db DB, table string) (*Client, error) {
	if table == "" {
		table = config.DefaultAuditTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid audit table name %q", table)
	}
	return &Client{db: db, table: quoteTable(table)}, nil
}

func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// EnsureTable creates the audit table when it does not exist.
func (c *Client) EnsureTable(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + c.table + ` (
	id BIGSERIAL PRIMARY KEY,
	command TEXT NOT NULL,
	args TEXT[] NOT NULL DEFAULT '{}',
	full_command TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	success BOOLEAN NOT NULL,
	error_message TEXT,
	response TEXT,
	subject TEXT,
	hostname TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating audit table: %w", err)
	}
	return nil
}

// LogCommand inserts one entry.
func (c *Client) LogCommand(ctx context.Context, entry *Entry) error {
	hostname := entry.Hostname
	if hostname == "" {
		hostname, _ = os.Hostname()
	}
	args := entry.Args
	if args == nil {
		args = []string{}
	}

	query := `INSERT INTO ` + c.table + ` (command, args, full_command, duration_ms, success, error_message, response, subject, hostname)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := c.db.ExecContext(ctx, query,
		entry.Command,
		pq.Array(args),
		entry.FullCommand,
		entry.DurationMs,
		entry.Success,
		nullIfEmpty(truncate(entry.ErrorMessage, maxTextLen)),
		nullIfEmpty(truncate(entry.Response, maxTextLen)),
		nullIfEmpty(entry.Subject),
		nullIfEmpty(hostname),
	)
	if err != nil {
		return fmt.Errorf("logging command: %w", err)
	}
	return nil
}

// History returns the most recent entries, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, command, args, full_command, duration_ms, success, error_message, subject, hostname, created_at
FROM ` + c.table + ` ORDER BY created_at DESC, id DESC LIMIT $1`

	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var errorMsg, subject, hostname sql.NullString
		if err := rows.Scan(
			&e.ID,
			&e.Command,
			pq.Array(&e.Args),
			&e.FullCommand,
			&e.DurationMs,
			&e.Success,
			&errorMsg,
			&subject,
			&hostname,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.ErrorMessage = errorMsg.String
		e.Subject = subject.String
		e.Hostname = hostname.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return entries, nil
}

// CommandName returns the first non-flag argument after the binary name.
func CommandName(args []string) string {
	for i := 1; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "-") {
			return args[i]
		}
	}
	return "minuteme"
}

// CommandArgs returns the arguments after the command name.
func CommandArgs(args []string) []string {
	for i := 1; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "-") {
			return append([]string(nil), args[i+1:]...)
		}
	}
	return nil
}

// Redact masks values following flags that carry secrets.
func Redact(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out); i++ {
		name, _, hasValue := strings.Cut(out[i], "=")
		if !isSecretFlag(name) {
			continue
		}
		if hasValue {
			out[i] = name + "=***"
		} else if i+1 < len(out) {
			out[i+1] = "***"
			i++
		}
	}
	return out
}

func isSecretFlag(name string) bool {
	switch name {
	case "--token", "--api-key", "--password", "--code":
		return true
	}
	return false
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
