package authcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/xws/pkg/cliui"
	"github.com/papercomputeco/xws/pkg/credentials"
)

const setLongDesc string = `Store credentials for a profile.

Prompts for the consumer key and secret and, optionally, an access token and
secret obtained elsewhere. Secrets are read without echo on a terminal.
When stdin is piped, one value per line is read in the same order.

Examples:
  xws auth set
  xws auth set --profile work
  printf 'ck\ncs\nat\nas\n' | xws auth set`

const setShortDesc string = "Store credentials for a profile"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, configDir, err := activeProfile(cmd)
			if err != nil {
				return err
			}

			mgr, err := credentials.NewManager(configDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}

			return runSet(name, mgr, newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()), cmd)
		},
	}

	return cmd
}

func runSet(name string, mgr *credentials.Manager, p *prompter, cmd *cobra.Command) error {
	profile, err := promptConsumer(p)
	if err != nil {
		return err
	}

	if profile.AccessToken, err = p.ask("Access token (optional)"); err != nil {
		return err
	}
	if profile.AccessToken != "" {
		if profile.AccessSecret, err = p.secret("Access secret"); err != nil {
			return err
		}
		if profile.AccessSecret == "" {
			return fmt.Errorf("access secret cannot be empty when an access token is given")
		}
	}

	if err := mgr.SetProfile(name, profile); err != nil {
		return err
	}

	state := "run 'xws auth login' to authorize"
	if profile.IsAuthorized() {
		state = "authorized"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Stored profile %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(name),
		cliui.DimStyle.Render("("+state+")"),
	)
	return nil
}
