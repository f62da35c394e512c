package cmd

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/client"
	"github.com/otherjamesbrown/minuteme-cli/pkg/format"
	"github.com/otherjamesbrown/minuteme-cli/pkg/transcript"
	"github.com/otherjamesbrown/minuteme-cli/pkg/wizard"
)

// NewTranscriptsCommand creates the transcripts command group.
func NewTranscriptsCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:     "transcripts",
		Aliases: []string{"transcript"},
		Short:   "List and manage transcripts",
		Long: `List and manage meeting transcripts.

Examples:
  minuteme transcripts list
  minuteme transcripts save <meeting-id> --file notes.txt
  minuteme transcripts generate-minutes <transcript-id>`,
	}

	cmd.AddCommand(newTranscriptsListCommand(deps))
	cmd.AddCommand(newTranscriptsShowCommand(deps))
	cmd.AddCommand(newTranscriptsSaveCommand(deps))
	cmd.AddCommand(newTranscriptsDeleteCommand(deps))
	cmd.AddCommand(newTranscriptsGenerateMinutesCommand(deps))
	return RequireAuth(cmd)
}

func newTranscriptsListCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			transcripts, err := api.ListTranscripts(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing transcripts: %w", err)
			}
			if transcripts == nil {
				transcripts = []client.Transcript{}
			}

			now := deps.Now()
			return deps.render(cmd.OutOrStdout(), transcripts, func(w io.Writer) error {
				if len(transcripts) == 0 {
					fmt.Fprintln(w, "No transcripts yet.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tMEETING\tCREATED\tPREVIEW")
				for _, t := range transcripts {
					preview := strings.Join(strings.Fields(t.Text), " ")
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, format.MeetingID(t.MeetingID), format.DateRelative(t.CreatedAt, now), format.TruncateText(preview, 60))
				}
				return tw.Flush()
			})
		},
	}
}

func newTranscriptsShowCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show <transcript-id>",
		Short: "Print a transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			transcripts, err := api.ListTranscripts(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing transcripts: %w", err)
			}
			for _, t := range transcripts {
				if t.ID != args[0] {
					continue
				}
				return deps.render(cmd.OutOrStdout(), t, func(w io.Writer) error {
					fmt.Fprintf(w, "%s (%s)\n\n%s\n", format.MeetingID(t.MeetingID), format.Date(t.CreatedAt), t.Text)
					return nil
				})
			}
			return fmt.Errorf("transcript %s not found", args[0])
		},
	}
}

func newTranscriptsSaveCommand(deps *Deps) *cobra.Command {
	var file, text string

	cmd := &cobra.Command{
		Use:   "save <meeting-id>",
		Short: "Attach a transcript to a meeting",
		Long: `Save a transcript for an existing meeting. Reads --file (UTF-8, UTF-16 or
Windows-1252; "-" for stdin) or --text. WebVTT caption exports are flattened
to one line per speaker. Does not use the transcription quota.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				var err error
				if file == "-" {
					text, err = transcript.Read(deps.Stdin)
				} else {
					text, err = transcript.ReadFile(file)
				}
				if err != nil {
					return fmt.Errorf("reading transcript: %w", err)
				}
			}
			text = strings.TrimSpace(text)
			if utf8.RuneCountInString(text) < wizard.MinTranscriptLength {
				return fmt.Errorf("transcript must be at least %d characters", wizard.MinTranscriptLength)
			}

			api, err := deps.Client()
			if err != nil {
				return err
			}
			resp, err := api.SaveManualTranscript(cmd.Context(), client.ManualTranscriptRequest{MeetingID: args[0], Transcript: text})
			if err != nil {
				return fmt.Errorf("saving transcript: %w", err)
			}
			return deps.render(cmd.OutOrStdout(), resp, func(w io.Writer) error {
				fmt.Fprintln(w, valueOrDefault(resp.Message, "Transcript saved."))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Transcript file, or - for stdin")
	cmd.Flags().StringVar(&text, "text", "", "Transcript text")
	cmd.MarkFlagsMutuallyExclusive("file", "text")
	cmd.MarkFlagsOneRequired("file", "text")
	return cmd
}

func newTranscriptsDeleteCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <transcript-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a transcript",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			if err := api.DeleteTranscript(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting transcript %s: %w", args[0], err)
			}
			return deps.done(cmd.OutOrStdout(), "Deleted transcript %s.", args[0])
		},
	}
}

func newTranscriptsGenerateMinutesCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "generate-minutes <transcript-id>",
		Short: "Generate minutes from an existing transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateMinutes(cmd, deps, client.GenerateMinutesRequest{TranscriptID: args[0]})
		},
	}
}

// runGenerateMinutes issues POST /generate-minutes and prints the new id.
func runGenerateMinutes(cmd *cobra.Command, deps *Deps, req client.GenerateMinutesRequest) error {
	api, err := deps.Client()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), wizard.MsgGenerating)
	id, err := api.GenerateMinutes(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("generating minutes: %w", err)
	}
	return deps.render(cmd.OutOrStdout(), map[string]string{"minutes_id": id}, func(w io.Writer) error {
		fmt.Fprintf(w, "Minutes %s generated. Review them with 'minuteme minutes show %s'.\n", id, id)
		return nil
	})
}
