package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/pkg/audit"
	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
)

// NewHistoryCommand creates the history command, which reads the command
// audit log.
func NewHistoryCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent minuteme commands from the audit log",
		Long: `Show recent minuteme commands from the audit log.

The audit log is optional. Configure it in config.yaml:

  audit:
    host: db.example.com
    database: minuteme
    user: minuteme
    table: minuteme_command_log`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.config()
			if err != nil {
				return err
			}
			if !cfg.Audit.IsConfigured() {
				return fmt.Errorf("audit log is not configured (set audit.host, audit.database and audit.user): %w", mmerrors.ErrValidation)
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive: %w", mmerrors.ErrValidation)
			}

			auditLog, err := deps.OpenAudit(cfg.Audit)
			if err != nil {
				return err
			}
			defer auditLog.Close()

			entries, err := auditLog.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []audit.Entry{}
			}

			return deps.render(cmd.OutOrStdout(), entries, func(w io.Writer) error {
				if len(entries) == 0 {
					fmt.Fprintln(w, "No commands recorded.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "WHEN\tCOMMAND\tDURATION\tRESULT")
				for _, e := range entries {
					result := "ok"
					if !e.Success {
						result = "failed: " + e.ErrorMessage
					}
					fmt.Fprintf(tw, "%s\t%s\t%dms\t%s\n",
						e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
						strings.TrimSpace("minuteme "+e.FullCommand),
						e.DurationMs,
						truncateCell(result, 60))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func truncateCell(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
