package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/pkg/automation"
	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
	"github.com/otherjamesbrown/minuteme-cli/pkg/transcript"
	"github.com/otherjamesbrown/minuteme-cli/pkg/wizard"
)

// analyzeResult is the structured outcome of 'analyze'.
type analyzeResult struct {
	Mode       wizard.Mode       `json:"mode" yaml:"mode"`
	Step       wizard.Step       `json:"step" yaml:"step"`
	MeetingID  string            `json:"meeting_id,omitempty" yaml:"meeting_id,omitempty"`
	MinutesID  string            `json:"minutes_id,omitempty" yaml:"minutes_id,omitempty"`
	ReviewPath string            `json:"review_path,omitempty" yaml:"review_path,omitempty"`
	Message    string            `json:"message,omitempty" yaml:"message,omitempty"`
	Automation *automation.State `json:"automation,omitempty" yaml:"automation,omitempty"`
}

type analyzeOptions struct {
	videoURL       string
	transcriptText string
	transcriptFile string
	automated      bool
	skipMinutes    bool
	follow         bool
}

// NewAnalyzeCommand creates the 'analyze' command, which turns a recording or
// transcript into minutes.
func NewAnalyzeCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Transcribe a meeting and generate its minutes",
		Long: `Create a meeting from a Google Drive recording or a transcript, then
generate its minutes.

Manual mode (default) runs each step in turn: create the meeting, transcribe
or save the transcript, then generate minutes.

Automated mode hands the whole pipeline to the backend and returns at once.
Progress arrives as notifications; --follow waits for the job to finish.

Free accounts have 5 transcriptions and 5 automation cycles per month.
Transcripts pasted or read from a file do not use the transcription quota.

Examples:
  # Transcribe a recording and generate minutes
  minuteme analyze --video https://drive.google.com/file/d/1AbC/view

  # Use a transcript file (UTF-8, UTF-16 or Windows-1252); "-" reads stdin
  minuteme analyze --file standup.txt

  # Let the backend run everything and wait for the result
  minuteme analyze --video https://drive.google.com/file/d/1AbC/view --automated --follow`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, deps, opts)
		},
	}

	cmd.Flags().StringVar(&opts.videoURL, "video", "", "Google Drive URL of the meeting recording")
	cmd.Flags().StringVar(&opts.transcriptText, "transcript", "", "Transcript text (at least 50 characters)")
	cmd.Flags().StringVarP(&opts.transcriptFile, "file", "f", "", "Read the transcript from a file, or - for stdin")
	cmd.Flags().BoolVar(&opts.automated, "automated", false, "Run transcription, minutes and action items on the backend")
	cmd.Flags().BoolVar(&opts.skipMinutes, "skip-minutes", false, "Stop after transcription (manual mode)")
	cmd.Flags().BoolVar(&opts.follow, "follow", false, "Wait for an automated job to finish")
	cmd.MarkFlagsMutuallyExclusive("video", "transcript", "file")
	cmd.MarkFlagsOneRequired("video", "transcript", "file")

	return RequireAuth(cmd)
}

func runAnalyze(cmd *cobra.Command, deps *Deps, opts analyzeOptions) error {
	ctx := cmd.Context()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	text := opts.transcriptText
	if opts.transcriptFile != "" {
		var err error
		if opts.transcriptFile == "-" {
			text, err = transcript.Read(deps.Stdin)
		} else {
			text, err = transcript.ReadFile(opts.transcriptFile)
		}
		if err != nil {
			return fmt.Errorf("reading transcript: %w", err)
		}
	}

	api, err := deps.Client()
	if err != nil {
		return err
	}

	mode := wizard.ModeManual
	if opts.automated {
		mode = wizard.ModeAutomated
	}
	w := wizard.New(api,
		wizard.WithMode(mode),
		wizard.WithIdentity(deps.Identity()),
		wizard.WithStore(deps.Store),
		wizard.WithLogger(deps.Logger),
		wizard.WithNow(deps.Now))
	defer w.Close()

	stopMirror := deps.mirrorAutomation(ctx)
	defer stopMirror()

	if err := w.Open(ctx); err != nil {
		return err
	}
	if warning := w.AutomationQuotaWarning(); warning != "" && opts.automated {
		fmt.Fprintln(errOut, "⚠ "+warning)
	}

	progress := func() {
		if msg := w.Snapshot().Message; msg != "" {
			fmt.Fprintln(errOut, msg)
		}
	}

	if opts.videoURL != "" {
		err = w.SubmitVideo(ctx, opts.videoURL)
	} else {
		err = w.SubmitTranscript(ctx, text)
	}
	progress()
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	st := w.Snapshot()
	result := analyzeResult{Mode: mode, Step: st.Step, MeetingID: st.MeetingID, Message: st.Message}

	switch {
	case opts.automated:
		if opts.follow {
			final, err := deps.followAutomation(ctx, api, errOut)
			result.Automation = &final
			if err != nil {
				return fmt.Errorf("following automation: %w", err)
			}
			result.Message = final.Message
			if final.Status == automation.StatusError {
				if err := deps.renderAnalyze(out, result); err != nil {
					return err
				}
				return errAutomationFailed
			}
		}
	case !opts.skipMinutes:
		err := w.GenerateMinutes(ctx)
		progress()
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		st = w.Snapshot()
		result.Step, result.MinutesID, result.Message = st.Step, st.MinutesID, st.Message
		path, err := w.Review()
		if err != nil {
			return err
		}
		result.ReviewPath = path
	}

	return deps.renderAnalyze(out, result)
}

var errAutomationFailed = fmt.Errorf("automation failed on the backend: %w", mmerrors.ErrInvalidState)

func (d *Deps) renderAnalyze(out io.Writer, r analyzeResult) error {
	return d.render(out, r, func(w io.Writer) error {
		fmt.Fprintf(w, "Meeting: %s\n", r.MeetingID)
		switch {
		case r.MinutesID != "":
			fmt.Fprintf(w, "Minutes: %s\n", r.MinutesID)
			fmt.Fprintf(w, "\nReview them with: minuteme minutes show %s\n", r.MinutesID)
		case r.Mode == wizard.ModeAutomated && r.Automation == nil:
			fmt.Fprintln(w, "\nAutomation started. Track it with 'minuteme notifications watch'.")
		case r.Automation != nil:
			fmt.Fprintf(w, "Automation: %s\n", strings.TrimSpace(automation.Render(*r.Automation, 0)))
		default:
			fmt.Fprintf(w, "\nGenerate minutes later with: minuteme minutes generate --meeting %s\n", r.MeetingID)
		}
		return nil
	})
}
