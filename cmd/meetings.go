package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/client"
	"github.com/otherjamesbrown/minuteme-cli/pkg/format"
	"github.com/otherjamesbrown/minuteme-cli/pkg/wizard"
)

// NewMeetingsCommand creates the meetings command group.
func NewMeetingsCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:     "meetings",
		Aliases: []string{"meeting"},
		Short:   "List and manage meetings",
		Long: `List and manage meetings.

Examples:
  minuteme meetings list
  minuteme meetings create --name "Sprint review" --date 2026-10-20
  minuteme meetings status <meeting-id> dismissed
  minuteme meetings transcribe https://drive.google.com/file/d/1AbC/view --name "Retro"`,
	}

	cmd.AddCommand(newMeetingsListCommand(deps))
	cmd.AddCommand(newMeetingsCreateCommand(deps))
	cmd.AddCommand(newMeetingsStatusCommand(deps))
	cmd.AddCommand(newMeetingsDeleteCommand(deps))
	cmd.AddCommand(newMeetingsTranscribeCommand(deps))
	return RequireAuth(cmd)
}

func newMeetingsListCommand(deps *Deps) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List meetings",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			meetings, err := api.ListMeetings(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing meetings: %w", err)
			}
			if status != "" {
				filtered := meetings[:0]
				for _, m := range meetings {
					if string(m.Status) == status {
						filtered = append(filtered, m)
					}
				}
				meetings = filtered
			}
			if meetings == nil {
				meetings = []client.Meeting{}
			}

			now := deps.Now()
			return deps.render(cmd.OutOrStdout(), meetings, func(w io.Writer) error {
				if len(meetings) == 0 {
					fmt.Fprintln(w, "No meetings yet. Create one with 'minuteme analyze'.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tNAME\tDATE\tSTATUS")
				for _, m := range meetings {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, format.TruncateText(m.Name, 40), format.DateRelative(m.Date, now), m.Status)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only show meetings with this status (scheduled, conducted, dismissed)")
	return cmd
}

func newMeetingsCreateCommand(deps *Deps) *cobra.Command {
	var name, date, status string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a meeting",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := deps.Now()
			req := client.CreateMeetingRequest{
				Name:   valueOrDefault(name, "Meeting "+now.Format("2006-01-02 15:04")),
				Date:   valueOrDefault(date, now.Format("2006-01-02")),
				Status: client.MeetingStatus(status),
			}
			if !req.Status.Valid() {
				return fmt.Errorf("invalid status %q (must be scheduled, conducted or dismissed)", status)
			}

			api, err := deps.Client()
			if err != nil {
				return err
			}
			m, err := api.CreateMeeting(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("creating meeting: %w", err)
			}
			return deps.render(cmd.OutOrStdout(), m, func(w io.Writer) error {
				fmt.Fprintf(w, "Created meeting %s (%s, %s)\n", m.ID, m.Name, m.Date)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Meeting name (default \"Meeting <now>\")")
	cmd.Flags().StringVar(&date, "date", "", "Meeting date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&status, "status", string(client.MeetingScheduled), "Initial status")
	return cmd
}

func newMeetingsStatusCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "status <meeting-id> <scheduled|conducted|dismissed>",
		Short: "Change a meeting's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			if err := api.UpdateMeetingStatus(cmd.Context(), args[0], client.MeetingStatus(args[1])); err != nil {
				return fmt.Errorf("updating meeting %s: %w", args[0], err)
			}
			return deps.done(cmd.OutOrStdout(), "Meeting %s is now %s.", args[0], args[1])
		},
	}
}

func newMeetingsDeleteCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <meeting-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a meeting",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			if err := api.DeleteMeeting(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting meeting %s: %w", args[0], err)
			}
			return deps.done(cmd.OutOrStdout(), "Deleted meeting %s.", args[0])
		},
	}
}

func newMeetingsTranscribeCommand(deps *Deps) *cobra.Command {
	var name, date, meetingID string

	cmd := &cobra.Command{
		Use:   "transcribe <google-drive-url>",
		Short: "Transcribe a recording without the analyze flow",
		Long: `Send a Google Drive recording straight to transcription.

Pass --meeting to attach the transcript to an existing meeting, or --name and
--date to let the backend create one. Uses one transcription from the monthly
quota on free accounts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !wizard.IsDriveURL(args[0]) {
				return fmt.Errorf("%q is not a Google Drive URL", args[0])
			}
			req := client.TranscribeRequest{
				MeetingID:   meetingID,
				VideoURL:    args[0],
				MeetingName: name,
				MeetingDate: date,
			}
			if meetingID == "" && req.MeetingDate == "" {
				req.MeetingDate = deps.Now().Format("2006-01-02")
			}

			api, err := deps.Client()
			if err != nil {
				return err
			}
			resp, err := api.Transcribe(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("transcribing: %w", err)
			}
			return deps.render(cmd.OutOrStdout(), resp, func(w io.Writer) error {
				fmt.Fprintln(w, valueOrDefault(resp.Message, "Transcription complete."))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&meetingID, "meeting", "", "Existing meeting id")
	cmd.Flags().StringVar(&name, "name", "", "Name for a new meeting")
	cmd.Flags().StringVar(&date, "date", "", "Date for a new meeting, YYYY-MM-DD (default today)")
	return cmd
}
