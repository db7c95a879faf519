package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/xws/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays all configuration keys and their current values from the
config.toml file stored in the .xws/ directory. With --effective the
values are resolved through XWS_ environment variables as well, showing
what commands will actually use.

Examples:
  xws config list
  xws config list --effective`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	var effective bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir, effective)
		},
	}

	cmd.Flags().BoolVar(&effective, "effective", false, "Resolve values through environment variables")

	return cmd
}

func runList(out io.Writer, configDir string, effective bool) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Fprintf(out, "Using config file: %s\n\n", cfger.GetTarget())

	values := cfger.GetConfigValue
	if effective {
		v, err := config.InitViper(configDir)
		if err != nil {
			return err
		}
		cfg, err := config.FromViper(v)
		if err != nil {
			return err
		}
		values = func(key string) (string, error) {
			return config.GetValue(cfg, key)
		}
	}

	keys := config.ValidConfigKeys()

	// Find the longest key name for alignment.
	maxLen := 0
	for _, k := range keys {
		maxLen = max(maxLen, len(k))
	}

	for _, key := range keys {
		value, err := values(key)
		if err != nil {
			return err
		}

		if value == "" {
			fmt.Fprintf(out, "%-*s = <not set>\n", maxLen, key)
		} else {
			fmt.Fprintf(out, "%-*s = %q\n", maxLen, key, value)
		}
	}

	return nil
}
