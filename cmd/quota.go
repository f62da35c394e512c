package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/client"
)

// quotaReport is the structured form of 'quota'. Nil quotas mean unlimited.
type quotaReport struct {
	Tier          string        `json:"tier" yaml:"tier"`
	Unlimited     bool          `json:"unlimited" yaml:"unlimited"`
	Transcription *client.Quota `json:"transcription,omitempty" yaml:"transcription,omitempty"`
	Automation    *client.Quota `json:"automation,omitempty" yaml:"automation,omitempty"`
}

// NewQuotaCommand creates the quota command.
func NewQuotaCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Show this month's transcription and automation quota",
		Long: `Show this month's transcription and automation quota.

Free accounts get a fixed number of video transcriptions and automated runs
per month. Premium accounts are unlimited.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := deps.Identity()
			report := quotaReport{Tier: id.Tier, Unlimited: id.IsPremium()}

			if !report.Unlimited {
				api, err := deps.Client()
				if err != nil {
					return err
				}
				ctx := cmd.Context()
				if report.Transcription, err = api.TranscriptionQuota(ctx); err != nil {
					return fmt.Errorf("fetching transcription quota: %w", err)
				}
				if report.Automation, err = api.AutomationQuota(ctx); err != nil {
					return fmt.Errorf("fetching automation quota: %w", err)
				}
			}

			return deps.render(cmd.OutOrStdout(), report, func(w io.Writer) error {
				if report.Unlimited {
					fmt.Fprintln(w, "Transcriptions:  Unlimited")
					fmt.Fprintln(w, "Automated runs:  Unlimited")
					return nil
				}
				fmt.Fprintf(w, "Transcriptions:  %s\n", quotaLine(report.Transcription))
				fmt.Fprintf(w, "Automated runs:  %s\n", quotaLine(report.Automation))
				if report.Transcription.Remaining == 0 || report.Automation.Remaining == 0 {
					fmt.Fprintln(w, "\nRun 'minuteme upgrade' for unlimited processing.")
				}
				return nil
			})
		},
	}
	return RequireAuth(cmd)
}

func quotaLine(q *client.Quota) string {
	return fmt.Sprintf("%d of %d remaining this month (%d used)", q.Remaining, q.Limit, q.Used)
}
