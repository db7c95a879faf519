// Package authcmder provides the auth commands managing OAuth1 credential
// profiles.
package authcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/xws/pkg/config"
)

const authLongDesc string = `Manage OAuth1 credentials for XWS.

Credentials are stored per profile in credentials.toml in the .xws/
directory. A profile holds the consumer key and secret of your application
and, once authorized, the access token and secret of a user. The profile is
chosen with --profile or the auth.profile config key.

The environment variables XWS_CONSUMER_KEY, XWS_CONSUMER_SECRET,
XWS_ACCESS_TOKEN and XWS_ACCESS_SECRET override the stored values.

Examples:
  xws auth set                   Prompt for the credentials of the active profile
  xws auth login                 Authorize the active profile in the browser
  xws auth list                  List stored profiles
  xws auth remove work           Remove the "work" profile`

const authShortDesc string = "Manage OAuth1 credentials"

func NewAuthCmd() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: authShortDesc,
		Long:  authLongDesc,
	}

	def := config.Flags[config.FlagProfile]
	cmd.PersistentFlags().StringVarP(&profile, def.Name, def.Shorthand, config.NewDefaultConfig().Auth.Profile, def.Description)

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRemoveCmd())

	return cmd
}

// activeProfile resolves the profile name through the config precedence chain.
func activeProfile(cmd *cobra.Command) (name, configDir string, err error) {
	v, configDir, err := config.InitCommandViper(cmd, config.Flags, []string{config.FlagDebug, config.FlagProfile})
	if err != nil {
		return "", "", err
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return "", "", err
	}
	return cfg.Auth.Profile, configDir, nil
}
