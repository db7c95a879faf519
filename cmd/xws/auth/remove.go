package authcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/xws/pkg/cliui"
	"github.com/papercomputeco/xws/pkg/credentials"
)

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <profile>",
		Short: "Remove a stored profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			mgr, err := credentials.NewManager(configDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}

			if err := mgr.RemoveProfile(args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Removed profile %s.\n\n", cliui.SuccessMark, cliui.NameStyle.Render(args[0]))
			return nil
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			configDir, _ := cmd.Flags().GetString("config-dir")
			mgr, err := credentials.NewManager(configDir)
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			names, _ := mgr.ListProfiles()
			return names, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}
