// Package xwscmder
package xwscmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/xws/cmd/xws/auth"
	callcmder "github.com/papercomputeco/xws/cmd/xws/call"
	configcmder "github.com/papercomputeco/xws/cmd/xws/config"
	versioncmder "github.com/papercomputeco/xws/cmd/version"
	"github.com/papercomputeco/xws/pkg/config"
)

const xwsLongDesc string = `xws is a command line client for the XING API (XWS).

It signs requests with OAuth1 credentials stored per profile and decodes
the JSON envelopes XWS wraps its resources in.

Get started using:
  xws auth login       Authorize a profile through the OAuth1 flow
  xws call GET /v1/users/me --root users --first
  xws config list      Show the effective configuration`

const xwsShortDesc string = "xws - XING API client"

func NewXWSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "xws",
		Short:        xwsShortDesc,
		Long:         xwsLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	config.AddPersistentBoolFlag(cmd, config.Flags, config.FlagDebug)
	cmd.PersistentFlags().String("config-dir", "", "Override the .xws/ directory")

	cmd.AddCommand(callcmder.NewCallCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
