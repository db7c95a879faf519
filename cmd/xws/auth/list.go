package authcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/xws/pkg/cliui"
	"github.com/papercomputeco/xws/pkg/credentials"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			active, configDir, err := activeProfile(cmd)
			if err != nil {
				return err
			}

			mgr, err := credentials.NewManager(configDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}

			return runList(active, mgr, cmd)
		},
	}

	return cmd
}

func runList(active string, mgr *credentials.Manager, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	creds, err := mgr.Load()
	if err != nil {
		return err
	}
	names, err := mgr.ListProfiles()
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Fprintf(out, "\n  %s No stored profiles.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(out, "  Use 'xws auth set' or 'xws auth login' to store credentials.\n\n")
		return nil
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Stored profiles"))
	for _, name := range names {
		p := creds.Profiles[name]

		mark := cliui.SuccessMark
		state := "authorized"
		if !p.IsAuthorized() {
			mark = cliui.WarnStyle.Render("!")
			state = "consumer only"
		}

		current := ""
		if name == active {
			current = cliui.KeyStyle.Render(" (active)")
		}

		fmt.Fprintf(out, "  %s  %s%s  %s\n", mark, cliui.NameStyle.Render(name), current, cliui.DimStyle.Render(state))
	}
	fmt.Fprintln(out)

	return nil
}
