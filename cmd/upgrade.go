package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/client"
)

// upgradeURL is where plans are managed.
const upgradeURL = "https://minuteme.app/upgrade"

type plan struct {
	Name     string   `json:"name" yaml:"name"`
	Current  bool     `json:"current" yaml:"current"`
	Features []string `json:"features" yaml:"features"`
}

type upgradeInfo struct {
	Tier  string `json:"tier" yaml:"tier"`
	URL   string `json:"url" yaml:"url"`
	Plans []plan `json:"plans" yaml:"plans"`
}

// NewUpgradeCommand creates the upgrade command.
func NewUpgradeCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	return &cobra.Command{
		Use:   "upgrade",
		Short: "Compare plans and upgrade to Premium",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := deps.Identity()
			info := upgradeInfo{
				Tier: id.Tier,
				URL:  upgradeURL,
				Plans: []plan{
					{
						Name:    "Free",
						Current: !id.IsPremium(),
						Features: []string{
							fmt.Sprintf("%d video transcriptions per month", client.FreeTierMonthlyLimit),
							fmt.Sprintf("%d automated runs per month", client.FreeTierMonthlyLimit),
							"Minutes and action items",
						},
					},
					{
						Name:    "Premium",
						Current: id.IsPremium(),
						Features: []string{
							"Unlimited transcriptions",
							"Unlimited automated runs",
							"Google Calendar integration",
							"Email notifications",
						},
					},
				},
			}

			return deps.render(cmd.OutOrStdout(), info, func(w io.Writer) error {
				for _, p := range info.Plans {
					name := p.Name
					if p.Current {
						name += " (current plan)"
					}
					fmt.Fprintln(w, name)
					for _, f := range p.Features {
						fmt.Fprintf(w, "  - %s\n", f)
					}
					fmt.Fprintln(w)
				}
				if id.IsPremium() {
					fmt.Fprintln(w, "You already have Premium. Thanks for your support!")
				} else {
					fmt.Fprintf(w, "Upgrade at %s\n", info.URL)
				}
				return nil
			})
		},
	}
}
