package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/client"
	"github.com/otherjamesbrown/minuteme-cli/pkg/format"
)

// NewAgendaCommand creates the agenda command group.
func NewAgendaCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:     "agenda",
		Aliases: []string{"agendas"},
		Short:   "Plan meetings and schedule them on the calendar",
		Long: `Create, edit and schedule meeting agendas.

Examples:
  # Create an agenda from topics
  minuteme agenda create --date 2026-10-20 --topic "Roadmap" --topic "Hiring"

  # Replace the items of an agenda
  minuteme agenda edit <meeting-id> --item "Roadmap|urgent|20m" --item "AOB|info|5m"

  # Put the meeting on the connected Google Calendar
  minuteme agenda schedule <meeting-id>`,
	}

	cmd.AddCommand(newAgendaListCommand(deps))
	cmd.AddCommand(newAgendaShowCommand(deps))
	cmd.AddCommand(newAgendaCreateCommand(deps))
	cmd.AddCommand(newAgendaEditCommand(deps))
	cmd.AddCommand(newAgendaDeleteCommand(deps))
	cmd.AddCommand(newAgendaScheduleCommand(deps))
	return RequireAuth(cmd)
}

func newAgendaListCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List agendas",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			agendas, err := api.ListAgendas(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing agendas: %w", err)
			}
			if agendas == nil {
				agendas = []client.Agenda{}
			}

			now := deps.Now()
			return deps.render(cmd.OutOrStdout(), agendas, func(w io.Writer) error {
				if len(agendas) == 0 {
					fmt.Fprintln(w, "No agendas found. Create one with 'minuteme agenda create'.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "MEETING ID\tNAME\tDATE\tITEMS")
				for _, a := range agendas {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", a.MeetingID, a.MeetingName, format.DateRelative(a.MeetingDate, now), len(a.Items))
				}
				return tw.Flush()
			})
		},
	}
}

func newAgendaShowCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show [meeting-id]",
		Short: "Show an agenda (the latest when no id is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			var agenda *client.Agenda
			if len(args) == 0 {
				agenda, err = api.GetAgenda(cmd.Context())
				if err != nil {
					return fmt.Errorf("getting agenda: %w", err)
				}
			} else {
				agenda, err = findAgenda(cmd, api, args[0])
				if err != nil {
					return err
				}
			}
			return deps.render(cmd.OutOrStdout(), agenda, func(w io.Writer) error {
				printAgenda(w, agenda)
				return nil
			})
		},
	}
}

func findAgenda(cmd *cobra.Command, api *client.Client, meetingID string) (*client.Agenda, error) {
	agendas, err := api.ListAgendas(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("listing agendas: %w", err)
	}
	for i := range agendas {
		if agendas[i].MeetingID == meetingID {
			return &agendas[i], nil
		}
	}
	return nil, fmt.Errorf("agenda for meeting %s not found", meetingID)
}

func printAgenda(w io.Writer, a *client.Agenda) {
	fmt.Fprintf(w, "%s, %s\n", valueOrDefault(a.MeetingName, "Untitled meeting"), format.Date(a.MeetingDate))
	if len(a.Items) == 0 {
		fmt.Fprintln(w, "  (no items)")
		return
	}
	tw := newTable(w)
	for i, item := range a.Items {
		fmt.Fprintf(tw, "  %d.\t%s\t%s\t%s\n", i+1, item.Topic, item.Priority, item.TimeAllocated)
	}
	tw.Flush()
}

func newAgendaCreateCommand(deps *Deps) *cobra.Command {
	var date string
	var topics, points []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate an agenda from topics or discussion points",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.CreateAgendaRequest{
				Date:             valueOrDefault(date, deps.Now().Format("2006-01-02")),
				Topics:           nilIfEmpty(topics),
				DiscussionPoints: nilIfEmpty(points),
			}
			if err := validateRequest(req); err != nil {
				return fmt.Errorf("invalid agenda: %w", err)
			}

			api, err := deps.Client()
			if err != nil {
				return err
			}
			agenda, err := api.CreateAgenda(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("creating agenda: %w", err)
			}
			return deps.render(cmd.OutOrStdout(), agenda, func(w io.Writer) error {
				printAgenda(w, agenda)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Meeting date, YYYY-MM-DD (default today)")
	cmd.Flags().StringArrayVar(&topics, "topic", nil, "Topic to cover (repeatable)")
	cmd.Flags().StringArrayVar(&points, "point", nil, "Discussion point (repeatable)")
	return cmd
}

// nilIfEmpty keeps required_without working: an empty non-nil slice counts as set.
func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

// parseAgendaItem reads "topic|priority|time", where priority and time are optional.
func parseAgendaItem(s string) client.AgendaItem {
	parts := strings.SplitN(s, "|", 3)
	item := client.AgendaItem{Topic: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		item.Priority = strings.ToLower(strings.TrimSpace(parts[1]))
	}
	if len(parts) > 2 {
		item.TimeAllocated = strings.TrimSpace(parts[2])
	}
	return item
}

func newAgendaEditCommand(deps *Deps) *cobra.Command {
	var name, date string
	var items []string

	cmd := &cobra.Command{
		Use:   "edit <meeting-id>",
		Short: "Change an agenda's name, date or items",
		Long: `Change an agenda. Unset flags keep the current values. --item replaces
the whole item list; each item is "topic|priority|time", with priority one
of urgent, discussion or info.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			current, err := findAgenda(cmd, api, args[0])
			if err != nil {
				return err
			}

			req := client.UpdateAgendaRequest{
				MeetingName: valueOrDefault(name, current.MeetingName),
				MeetingDate: valueOrDefault(date, current.MeetingDate),
				Agenda:      current.Items,
			}
			if len(items) > 0 {
				req.Agenda = make([]client.AgendaItem, 0, len(items))
				for _, s := range items {
					req.Agenda = append(req.Agenda, parseAgendaItem(s))
				}
			}
			if err := validateRequest(req); err != nil {
				return fmt.Errorf("invalid agenda: %w", err)
			}

			if err := api.UpdateAgenda(cmd.Context(), args[0], req); err != nil {
				return fmt.Errorf("updating agenda %s: %w", args[0], err)
			}
			return deps.done(cmd.OutOrStdout(), "Agenda updated!")
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Meeting name")
	cmd.Flags().StringVar(&date, "date", "", "Meeting date, YYYY-MM-DD")
	cmd.Flags().StringArrayVar(&items, "item", nil, `Agenda item "topic|priority|time" (repeatable)`)
	return cmd
}

func newAgendaDeleteCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <meeting-id>",
		Aliases: []string{"rm"},
		Short:   "Delete an agenda",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			if err := api.DeleteAgenda(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting agenda %s: %w", args[0], err)
			}
			return deps.done(cmd.OutOrStdout(), "Deleted agenda %s.", args[0])
		},
	}
}

func newAgendaScheduleCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <meeting-id>",
		Short: "Schedule the meeting on the connected Google Calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Scheduling %s...\n", args[0])
			resp, err := api.ScheduleAgenda(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("scheduling meeting %s: %w", args[0], err)
			}
			return deps.render(cmd.OutOrStdout(), resp, func(w io.Writer) error {
				fmt.Fprintf(w, "Successfully scheduled meeting for %s!\n", args[0])
				return nil
			})
		},
	}
}
