// Package session turns the resolved CLI configuration and a credentials
// profile into a ready XWS client.
package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/papercomputeco/xws/pkg/config"
	"github.com/papercomputeco/xws/pkg/credentials"
	"github.com/papercomputeco/xws/pkg/logger"
	"github.com/papercomputeco/xws/pkg/utils"
	"github.com/papercomputeco/xws/pkg/xws"
)

// Session holds everything a command needs to talk to XWS.
type Session struct {
	Config      *config.Config
	ProfileName string
	Profile     credentials.Profile
	Logger      *slog.Logger
	Client      *xws.Client

	logFile io.Closer
}

// Load resolves the configuration from v, the credentials profile it names
// from the .xws/ directory at configDir, and builds the client. Logs go to w.
// Without an authorized profile the client is logged out.
func Load(v *viper.Viper, configDir string, w io.Writer) (*Session, error) {
	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, err
	}
	log, logFile, err := NewLogger(cfg, w)
	if err != nil {
		return nil, err
	}

	s, err := load(cfg, configDir, log)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, err
	}
	s.logFile = logFile
	return s, nil
}

func load(cfg *config.Config, configDir string, log *slog.Logger) (*Session, error) {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	profile, err := mgr.Resolve(cfg.Auth.Profile)
	switch {
	case errors.Is(err, credentials.ErrNoProfile):
		log.Debug("no credentials profile, using a logged out client", "profile", cfg.Auth.Profile)
	case err != nil:
		return nil, err
	case !profile.IsAuthorized():
		log.Warn("profile has no access token, using a logged out client", "profile", cfg.Auth.Profile)
	}

	client, err := NewClient(cfg, profile, log)
	if err != nil {
		return nil, err
	}

	return &Session{
		Config:      cfg,
		ProfileName: cfg.Auth.Profile,
		Profile:     profile,
		Logger:      log,
		Client:      client,
	}, nil
}

// Close releases the client and the log file.
func (s *Session) Close() {
	s.Client.Close()
	if s.logFile != nil {
		s.logFile.Close()
	}
}

// NewLogger builds the logger described by the log section. With log.file
// set, records are also appended to that file as JSON and the returned
// closer, otherwise nil, must be closed by the caller.
func NewLogger(cfg *config.Config, w io.Writer) (*slog.Logger, io.Closer, error) {
	console := logger.New(
		logger.WithDebug(cfg.Log.Debug),
		logger.WithPretty(cfg.Log.Format == "pretty"),
		logger.WithJSON(cfg.Log.Format == "json"),
		logger.WithWriter(w),
	)
	if cfg.Log.File == "" {
		return console, nil, nil
	}

	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	file := logger.New(
		logger.WithDebug(cfg.Log.Debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	)
	return logger.Multi(console, file), f, nil
}

// ClientOptions maps cfg onto client options shared by NewClient and
// NewOAuthFlow.
func ClientOptions(cfg *config.Config, log *slog.Logger) ([]xws.Option, error) {
	timeout, err := cfg.API.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	userAgent := cfg.API.UserAgent
	if userAgent == "" {
		userAgent = utils.UserAgent()
	}

	opts := []xws.Option{
		xws.WithEndpoint(cfg.API.Endpoint),
		xws.WithUserAgent(userAgent),
		xws.WithLogger(log),
		xws.WithDispatcher(cfg.Dispatcher.Workers, cfg.Dispatcher.QueueSize),
	}
	if timeout > 0 {
		opts = append(opts, xws.WithTimeout(timeout))
	}
	if cfg.Rate.Limit > 0 {
		opts = append(opts, xws.WithRateLimit(cfg.Rate.Limit, int(cfg.Rate.Burst)))
	}
	return opts, nil
}

// NewClient creates a client signing with profile when it is authorized.
func NewClient(cfg *config.Config, profile credentials.Profile, log *slog.Logger) (*xws.Client, error) {
	opts, err := ClientOptions(cfg, log)
	if err != nil {
		return nil, err
	}
	if profile.IsAuthorized() {
		opts = append(opts, xws.WithOAuth1(
			profile.ConsumerKey,
			profile.ConsumerSecret,
			profile.AccessToken,
			profile.AccessSecret,
		))
	}
	return xws.New(opts...)
}

// NewOAuthFlow creates the authorization flow for the profile's application.
func NewOAuthFlow(cfg *config.Config, profile credentials.Profile, log *slog.Logger) (*xws.OAuthFlow, error) {
	opts, err := ClientOptions(cfg, log)
	if err != nil {
		return nil, err
	}
	return xws.NewOAuthFlow(profile.ConsumerKey, profile.ConsumerSecret, opts...)
}
