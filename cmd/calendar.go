package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/client"
	"github.com/otherjamesbrown/minuteme-cli/pkg/format"
)

// NewCalendarCommand creates the calendar command group.
func NewCalendarCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Connect Google Calendar and list scheduled events",
		Long: `Connect Google Calendar and list scheduled events.

Connecting a calendar is a premium feature. Scheduling an agenda
('minuteme agenda schedule') creates its events on the connected calendar.

Examples:
  minuteme calendar connect
  minuteme calendar connect --code 4/0AbC...
  minuteme calendar status
  minuteme calendar events`,
	}

	cmd.AddCommand(newCalendarConnectCommand(deps))
	cmd.AddCommand(newCalendarStatusCommand(deps))
	cmd.AddCommand(newCalendarDisconnectCommand(deps))
	cmd.AddCommand(newCalendarEventsCommand(deps))
	return RequireAuth(cmd)
}

func newCalendarConnectCommand(deps *Deps) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect Google Calendar",
		Long: `Connect Google Calendar.

Without --code, prints the Google authorization URL. Open it, grant access,
and pass the code Google returns with --code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.Identity().RequirePremium("Calendar integration"); err != nil {
				return err
			}
			api, err := deps.Client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if code != "" {
				if err := api.GoogleExchange(ctx, code); err != nil {
					return fmt.Errorf("connecting calendar: %w", err)
				}
				return deps.done(cmd.OutOrStdout(), "Google Calendar connected.")
			}

			url, err := api.GoogleAuthURL(ctx)
			if err != nil {
				return fmt.Errorf("requesting authorization URL: %w", err)
			}
			return deps.render(cmd.OutOrStdout(), client.AuthorizationURL{URL: url}, func(w io.Writer) error {
				fmt.Fprintln(w, "Open this URL in a browser and grant calendar access:")
				fmt.Fprintf(w, "\n  %s\n\n", url)
				fmt.Fprintln(w, "Then run: minuteme calendar connect --code <code>")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "Authorization code returned by Google")
	return cmd
}

func newCalendarStatusCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether Google Calendar is connected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			status, err := api.GoogleStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("checking calendar status: %w", err)
			}
			return deps.render(cmd.OutOrStdout(), status, func(w io.Writer) error {
				if status.IsConnected {
					fmt.Fprintln(w, "Google Calendar: connected")
				} else {
					fmt.Fprintln(w, "Google Calendar: not connected (run 'minuteme calendar connect')")
				}
				return nil
			})
		},
	}
}

func newCalendarDisconnectCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect Google Calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			if err := api.GoogleDisconnect(cmd.Context()); err != nil {
				return fmt.Errorf("disconnecting calendar: %w", err)
			}
			return deps.done(cmd.OutOrStdout(), "Google Calendar disconnected.")
		},
	}
}

func newCalendarEventsCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List scheduled calendar events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			events, err := api.ListEvents(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing events: %w", err)
			}
			if events == nil {
				events = []client.CalendarEvent{}
			}

			now := deps.Now()
			return deps.render(cmd.OutOrStdout(), events, func(w io.Writer) error {
				if len(events) == 0 {
					fmt.Fprintln(w, "No events scheduled.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "WHEN\tTITLE\tDESCRIPTION")
				for _, e := range events {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", format.DateRelative(e.Start, now), e.Title, format.TruncateText(e.Description, 50))
				}
				return tw.Flush()
			})
		},
	}
}
