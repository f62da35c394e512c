package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/pkg/logging"
	"github.com/otherjamesbrown/minuteme-cli/pkg/roles"
)

type settingsView struct {
	Identity roles.Identity `json:"identity" yaml:"identity"`
	Plan     string         `json:"plan" yaml:"plan"`
	APIURL   string         `json:"api_url" yaml:"api_url"`

	// Calendar is nil for free accounts, which cannot connect a calendar.
	Calendar *bool  `json:"calendar_connected,omitempty" yaml:"calendar_connected,omitempty"`
	Message  string `json:"message,omitempty" yaml:"message,omitempty"`
}

// NewSettingsCommand creates the settings command.
func NewSettingsCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show account settings and integrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := deps.Identity()
			view := settingsView{Identity: id, Plan: id.Badge()}

			api, err := deps.Client()
			if err != nil {
				return err
			}
			view.APIURL = api.BaseURL()

			if id.IsPremium() {
				status, err := api.GoogleStatus(cmd.Context())
				if err != nil {
					deps.Logger.Debug("Calendar status check failed", logging.Err(err))
					view.Message = "Could not check calendar connection status."
				} else {
					connected := status.IsConnected
					view.Calendar = &connected
				}
			}

			return deps.render(cmd.OutOrStdout(), view, func(w io.Writer) error {
				fmt.Fprintln(w, "Account")
				fmt.Fprintf(w, "  User:     %s\n", valueOrDefault(id.Email, valueOrDefault(id.Subject, "(API key)")))
				fmt.Fprintf(w, "  Plan:     %s\n", view.Plan)
				fmt.Fprintf(w, "  API:      %s\n", view.APIURL)
				fmt.Fprintln(w)
				fmt.Fprintln(w, "Integrations")
				switch {
				case !id.IsPremium():
					fmt.Fprintln(w, "  Google Calendar: Premium feature (run 'minuteme upgrade')")
				case view.Calendar == nil:
					fmt.Fprintf(w, "  Google Calendar: %s\n", view.Message)
				case *view.Calendar:
					fmt.Fprintln(w, "  Google Calendar: connected ('minuteme calendar disconnect' to remove)")
				default:
					fmt.Fprintln(w, "  Google Calendar: not connected ('minuteme calendar connect' to add)")
				}
				return nil
			})
		},
	}
	return RequireAuth(cmd)
}
