package authcmder

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/xws/pkg/cliui"
	"github.com/papercomputeco/xws/pkg/config"
	"github.com/papercomputeco/xws/pkg/credentials"
	"github.com/papercomputeco/xws/pkg/session"
	"github.com/papercomputeco/xws/pkg/xws"
)

const loginLongDesc string = `Authorize a profile through the three-legged OAuth1 flow.

A request token is obtained for the profile's application, then the
authorization URL is printed. After granting access, paste the verifier
shown by XING. The resulting access token and secret are stored in the
profile. Missing application credentials are prompted for.

Examples:
  xws auth login
  xws auth login --profile work
  xws auth login --callback https://example.com/oauth/done`

const loginShortDesc string = "Authorize a profile through OAuth1"

type loginCommander struct {
	callback  string
	endpoint  string
	timeout   string
	userAgent string
}

func newLoginCmd() *cobra.Command {
	cmder := &loginCommander{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: loginShortDesc,
		Long:  loginLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, configDir, err := config.InitCommandViper(cmd, config.Flags, []string{
				config.FlagDebug,
				config.FlagProfile,
				config.FlagEndpoint,
				config.FlagTimeout,
				config.FlagUserAgent,
			})
			if err != nil {
				return err
			}
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}

			mgr, err := credentials.NewManager(configDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}

			return cmder.run(cmd.Context(), cfg, mgr, newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&cmder.callback, "callback", xws.OutOfBand, "OAuth callback URL, oob prints the verifier instead of redirecting")
	config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &cmder.endpoint)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagUserAgent, &cmder.userAgent)

	return cmd
}

func (c *loginCommander) run(ctx context.Context, cfg *config.Config, mgr *credentials.Manager, p *prompter, out io.Writer) error {
	name := cfg.Auth.Profile

	profile, err := mgr.Resolve(name)
	if errors.Is(err, credentials.ErrNoProfile) {
		profile, err = promptConsumer(p)
	}
	if err != nil {
		return err
	}

	log, logFile, err := session.NewLogger(cfg, out)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	flow, err := session.NewOAuthFlow(cfg, profile, log)
	if err != nil {
		return err
	}

	var requestToken *xws.Token
	err = cliui.Step(out, "Requesting token", func() error {
		var err error
		requestToken, err = flow.RequestToken(ctx, c.callback)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  Open this URL and grant access:\n\n  %s\n\n", cliui.ValueStyle.Render(flow.AuthorizationURL(requestToken)))

	verifier, err := p.ask("  Verifier")
	if err != nil {
		return err
	}
	if verifier == "" {
		return errors.New("verifier cannot be empty")
	}

	var accessToken *xws.Token
	err = cliui.Step(out, "Exchanging verifier", func() error {
		var err error
		accessToken, err = flow.AccessToken(ctx, requestToken, verifier)
		return err
	})
	if err != nil {
		return err
	}

	profile.AccessToken = accessToken.Token
	profile.AccessSecret = accessToken.Secret
	if err := mgr.SetProfile(name, profile); err != nil {
		return err
	}

	detail := ""
	if id := accessToken.Extra.Get("user_id"); id != "" {
		detail = cliui.DimStyle.Render("(user " + id + ")")
	}
	fmt.Fprintf(out, "\n  %s Authorized profile %s %s\n\n", cliui.SuccessMark, cliui.NameStyle.Render(name), detail)
	return nil
}

func promptConsumer(p *prompter) (credentials.Profile, error) {
	key, err := p.ask("Consumer key")
	if err != nil {
		return credentials.Profile{}, err
	}
	secret, err := p.secret("Consumer secret")
	if err != nil {
		return credentials.Profile{}, err
	}

	profile := credentials.Profile{ConsumerKey: key, ConsumerSecret: secret}
	if !profile.HasConsumer() {
		return credentials.Profile{}, errors.New("consumer key and secret cannot be empty")
	}
	return profile, nil
}
