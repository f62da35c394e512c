package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/client"
	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
	"github.com/otherjamesbrown/minuteme-cli/pkg/format"
)

// dashboardLimit caps each dashboard section.
const dashboardLimit = 3

type dashboard struct {
	Plan            string              `json:"plan" yaml:"plan"`
	RecentMeetings  []client.Meeting    `json:"recent_meetings" yaml:"recent_meetings"`
	UpcomingActions []client.ActionItem `json:"upcoming_actions" yaml:"upcoming_actions"`
	Agenda          *client.Agenda      `json:"agenda,omitempty" yaml:"agenda,omitempty"`
	Unread          int                 `json:"unread_notifications" yaml:"unread_notifications"`
}

// NewDashboardCommand creates the dashboard command.
func NewDashboardCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"home"},
		Short:   "Show recent meetings, open action items and the current agenda",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			d := dashboard{Plan: deps.Identity().Badge()}

			meetings, err := api.ListMeetings(ctx)
			if err != nil {
				return fmt.Errorf("listing meetings: %w", err)
			}
			d.RecentMeetings = recentMeetings(meetings, dashboardLimit)

			items, err := api.ListActionItems(ctx)
			if err != nil {
				return fmt.Errorf("listing action items: %w", err)
			}
			d.UpcomingActions = openActions(items, dashboardLimit)

			agenda, err := api.GetAgenda(ctx)
			switch {
			case err == nil:
				d.Agenda = agenda
			case mmerrors.IsNotFound(err):
			default:
				return fmt.Errorf("fetching agenda: %w", err)
			}

			notifications, err := api.ListNotifications(ctx)
			if err != nil {
				return fmt.Errorf("listing notifications: %w", err)
			}
			for _, n := range notifications {
				if !n.Read {
					d.Unread++
				}
			}

			now := deps.Now()
			return deps.render(cmd.OutOrStdout(), d, func(w io.Writer) error {
				fmt.Fprintf(w, "Welcome back! (%s)\n", d.Plan)
				if d.Unread > 0 {
					fmt.Fprintf(w, "You have %d unread notification(s). Run 'minuteme notifications list'.\n", d.Unread)
				}

				fmt.Fprintln(w, "\nRecent meetings")
				if len(d.RecentMeetings) == 0 {
					fmt.Fprintln(w, "  None yet. Run 'minuteme analyze' to add one.")
				}
				for _, m := range d.RecentMeetings {
					fmt.Fprintf(w, "  %s  %s  [%s]\n", format.DateRelative(m.Date, now), m.Name, m.Status)
				}

				fmt.Fprintln(w, "\nUpcoming action items")
				if len(d.UpcomingActions) == 0 {
					fmt.Fprintln(w, "  Nothing open.")
				}
				for _, a := range d.UpcomingActions {
					fmt.Fprintf(w, "  %s %s  (owner: %s, due: %s)\n", statusMark(a.Status), format.TruncateText(a.Task, 60), a.Owner, format.Date(a.Deadline))
				}

				fmt.Fprintln(w, "\nAgenda")
				if d.Agenda == nil || len(d.Agenda.Items) == 0 {
					fmt.Fprintln(w, "  No agenda. Create one with 'minuteme agenda create'.")
					return nil
				}
				fmt.Fprintf(w, "  %s (%s)\n", valueOrDefault(d.Agenda.MeetingName, "Next meeting"), format.Date(d.Agenda.MeetingDate))
				for _, item := range d.Agenda.Items {
					fmt.Fprintf(w, "  - %s", item.Topic)
					if item.Priority != "" {
						fmt.Fprintf(w, " [%s]", item.Priority)
					}
					if item.TimeAllocated != "" {
						fmt.Fprintf(w, " (%s)", item.TimeAllocated)
					}
					fmt.Fprintln(w)
				}
				return nil
			})
		},
	}
	return RequireAuth(cmd)
}

// recentMeetings returns up to n meetings, newest date first.
func recentMeetings(meetings []client.Meeting, n int) []client.Meeting {
	out := append([]client.Meeting{}, meetings...)
	sort.SliceStable(out, func(i, j int) bool {
		ti, _ := format.ParseDate(out[i].Date)
		tj, _ := format.ParseDate(out[j].Date)
		return ti.After(tj)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// openActions returns up to n incomplete action items, earliest deadline
// first. Items without a parseable deadline sort last.
func openActions(items []client.ActionItem, n int) []client.ActionItem {
	out := []client.ActionItem{}
	for _, a := range items {
		if a.Status != client.ActionCompleted {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, okI := format.ParseDate(out[i].Deadline)
		tj, okJ := format.ParseDate(out[j].Deadline)
		if okI != okJ {
			return okI
		}
		return ti.Before(tj)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
