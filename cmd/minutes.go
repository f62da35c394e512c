package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/client"
	"github.com/otherjamesbrown/minuteme-cli/pkg/format"
)

// NewMinutesCommand creates the minutes command group.
func NewMinutesCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "minutes",
		Short: "Browse and generate meeting minutes",
		Long: `Browse and generate meeting minutes.

Examples:
  minuteme minutes list
  minuteme minutes show <minutes-id>
  minuteme minutes generate --meeting <meeting-id>
  minuteme minutes generate-actions <minutes-id>`,
	}

	cmd.AddCommand(newMinutesListCommand(deps))
	cmd.AddCommand(newMinutesShowCommand(deps))
	cmd.AddCommand(newMinutesGenerateCommand(deps))
	cmd.AddCommand(newMinutesGenerateActionsCommand(deps))
	return RequireAuth(cmd)
}

func newMinutesListCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List minutes",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			minutes, err := api.ListMinutes(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing minutes: %w", err)
			}
			if minutes == nil {
				minutes = []client.Minutes{}
			}

			now := deps.Now()
			return deps.render(cmd.OutOrStdout(), minutes, func(w io.Writer) error {
				if len(minutes) == 0 {
					fmt.Fprintln(w, "No minutes yet. Run 'minuteme analyze' to create some.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tMEETING\tDATE\tACTIONS\tSUMMARY")
				for _, m := range minutes {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", m.ID, format.MeetingID(m.MeetingID), format.DateRelative(m.Date, now),
						len(m.ActionItems), format.TruncateText(m.Summary, 60))
				}
				return tw.Flush()
			})
		},
	}
}

func newMinutesShowCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show <minutes-id>",
		Short: "Show minutes in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			m, err := api.GetMinutes(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("getting minutes %s: %w", args[0], err)
			}
			return deps.render(cmd.OutOrStdout(), m, func(w io.Writer) error {
				printMinutes(w, m)
				return nil
			})
		},
	}
}

func printMinutes(w io.Writer, m *client.Minutes) {
	fmt.Fprintf(w, "%s, %s\n\n", format.MeetingID(m.MeetingID), format.Date(m.Date))
	fmt.Fprintln(w, "Summary")
	fmt.Fprintf(w, "  %s\n", valueOrDefault(m.Summary, "(none)"))

	printList(w, "Key decisions", m.Decisions)
	printList(w, "Future discussion points", m.FutureDiscussionPoints)

	fmt.Fprintln(w, "\nAction items")
	if len(m.ActionItems) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	tw := newTable(w)
	for _, a := range m.ActionItems {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", statusMark(a.Status), a.Task, valueOrDefault(a.Owner, "Unassigned"), a.Deadline)
	}
	tw.Flush()
}

func printList(w io.Writer, title string, items []string) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(items) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func newMinutesGenerateCommand(deps *Deps) *cobra.Command {
	var meetingID, transcriptID string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate minutes for a meeting or transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateMinutes(cmd, deps, client.GenerateMinutesRequest{MeetingID: meetingID, TranscriptID: transcriptID})
		},
	}
	cmd.Flags().StringVar(&meetingID, "meeting", "", "Meeting id")
	cmd.Flags().StringVar(&transcriptID, "transcript", "", "Transcript id")
	cmd.MarkFlagsMutuallyExclusive("meeting", "transcript")
	cmd.MarkFlagsOneRequired("meeting", "transcript")
	return cmd
}

func newMinutesGenerateActionsCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "generate-actions <minutes-id>",
		Short: "Extract action items from minutes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			resp, err := api.GenerateActionItems(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("generating action items: %w", err)
			}
			return deps.render(cmd.OutOrStdout(), resp, func(w io.Writer) error {
				fmt.Fprintln(w, valueOrDefault(resp.Message, "Action items generated. List them with 'minuteme actions list'."))
				return nil
			})
		},
	}
}
