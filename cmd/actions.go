package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/client"
)

// NewActionsCommand creates the action items command group.
func NewActionsCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:     "actions",
		Aliases: []string{"action-items"},
		Short:   "Track action items",
		Long: `Track action items extracted from minutes.

Examples:
  minuteme actions list --status pending
  minuteme actions status <item-id> completed
  minuteme actions delete <item-id>`,
	}

	cmd.AddCommand(newActionsListCommand(deps))
	cmd.AddCommand(newActionsStatusCommand(deps))
	cmd.AddCommand(newActionsDeleteCommand(deps))
	return RequireAuth(cmd)
}

func statusMark(s client.ActionStatus) string {
	switch s {
	case client.ActionCompleted:
		return "[x]"
	case client.ActionInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

func newActionsListCommand(deps *Deps) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List action items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" && !client.ActionStatus(status).Valid() {
				return fmt.Errorf("invalid status %q (must be pending, in-progress or completed)", status)
			}
			api, err := deps.Client()
			if err != nil {
				return err
			}
			items, err := api.ListActionItems(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing action items: %w", err)
			}
			items = filterActions(items, client.ActionStatus(status))

			return deps.render(cmd.OutOrStdout(), items, func(w io.Writer) error {
				if len(items) == 0 {
					fmt.Fprintln(w, "No action items.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "\tID\tTASK\tOWNER\tDEADLINE\tSTATUS")
				for _, a := range items {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", statusMark(a.Status), a.ID, a.Task, valueOrDefault(a.Owner, "Unassigned"), a.Deadline, a.Status)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only show items with this status")
	return cmd
}

func filterActions(items []client.ActionItem, status client.ActionStatus) []client.ActionItem {
	out := []client.ActionItem{}
	for _, a := range items {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	return out
}

func newActionsStatusCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "status <item-id> <pending|in-progress|completed>",
		Short: "Change an action item's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			if err := api.UpdateActionItemStatus(cmd.Context(), args[0], client.ActionStatus(args[1])); err != nil {
				return fmt.Errorf("updating action item %s: %w", args[0], err)
			}
			return deps.done(cmd.OutOrStdout(), "Action item %s is now %s.", args[0], args[1])
		},
	}
}

func newActionsDeleteCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <item-id>",
		Aliases: []string{"rm"},
		Short:   "Delete an action item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			if err := api.DeleteActionItem(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting action item %s: %w", args[0], err)
			}
			return deps.done(cmd.OutOrStdout(), "Deleted action item %s.", args[0])
		},
	}
}
