// Package configcmder provides the config command for managing persistent
// xws configuration stored in the .xws/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent xws configuration.

Configuration is stored as config.toml in the .xws/ directory and provides
default values for command flags. CLI flags and XWS_ environment variables
always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  api.endpoint, api.timeout, api.user_agent,
  dispatcher.workers, dispatcher.queue_size,
  rate.limit, rate.burst,
  log.debug, log.format,
  auth.profile

Use subcommands to get, set, or list configuration values:
  xws config set <key> <value>    Set a configuration value
  xws config get <key>            Get a configuration value
  xws config list                 List all configuration values

Examples:
  xws config set api.timeout 10s
  xws config set rate.limit 2
  xws config get auth.profile
  xws config list --effective`

const configShortDesc string = "Manage persistent xws configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
