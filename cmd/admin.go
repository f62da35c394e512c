package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/client"
)

// NewAdminCommand creates the admin command group. Every subcommand refuses
// non-admin identities before calling the API.
func NewAdminCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage users (admin only)",
		Long: `Manage users. Requires the admin role.

Examples:
  minuteme admin users
  minuteme admin set-tier <user-id> premium
  minuteme admin set-role <user-id> admin
  minuteme admin delete-user <user-id> --yes`,
	}

	cmd.AddCommand(newAdminUsersCommand(deps))
	cmd.AddCommand(newAdminSetTierCommand(deps))
	cmd.AddCommand(newAdminSetRoleCommand(deps))
	cmd.AddCommand(newAdminDeleteUserCommand(deps))
	return RequireAuth(cmd)
}

// adminClient returns the API client once the identity is confirmed as admin.
func (d *Deps) adminClient() (*client.Client, error) {
	if err := d.Identity().RequireAdmin(); err != nil {
		return nil, err
	}
	return d.Client()
}

func newAdminUsersCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.adminClient()
			if err != nil {
				return err
			}
			users, err := api.ListUsers(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing users: %w", err)
			}
			if users == nil {
				users = []client.User{}
			}
			return deps.render(cmd.OutOrStdout(), users, func(w io.Writer) error {
				if len(users) == 0 {
					fmt.Fprintln(w, "No users.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tTIER")
				for _, u := range users {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name(), u.Email, u.Role, u.Tier)
				}
				return tw.Flush()
			})
		},
	}
}

func newAdminSetTierCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:       "set-tier <user-id> <free|premium>",
		Short:     "Change a user's tier",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"free", "premium"},
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.adminClient()
			if err != nil {
				return err
			}
			if err := api.SetUserTier(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("updating tier: %w", err)
			}
			return deps.done(cmd.OutOrStdout(), "User %s is now on the %s tier.", args[0], args[1])
		},
	}
}

func newAdminSetRoleCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <user-id> <user|admin>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.adminClient()
			if err != nil {
				return err
			}
			if err := api.SetUserRole(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("updating role: %w", err)
			}
			return deps.done(cmd.OutOrStdout(), "User %s now has the %s role.", args[0], args[1])
		},
	}
}

func newAdminDeleteUserCommand(deps *Deps) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-user <user-id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete user %s without --yes", args[0])
			}
			api, err := deps.adminClient()
			if err != nil {
				return err
			}
			if err := api.DeleteUser(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting user: %w", err)
			}
			return deps.done(cmd.OutOrStdout(), "User %s deleted.", args[0])
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")
	return cmd
}
