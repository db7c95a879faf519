package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/papercomputeco/xws/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable read by InitViper.
const EnvPrefix = "XWS"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (found via dotdir resolution), and binds environment variables
// with the XWS_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (XWS_API_ENDPOINT, XWS_RATE_LIMIT, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	v.AddConfigPath(target)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("api.endpoint", d.API.Endpoint)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.user_agent", d.API.UserAgent)

	v.SetDefault("dispatcher.workers", d.Dispatcher.Workers)
	v.SetDefault("dispatcher.queue_size", d.Dispatcher.QueueSize)

	v.SetDefault("rate.limit", d.Rate.Limit)
	v.SetDefault("rate.burst", d.Rate.Burst)

	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)

	v.SetDefault("auth.profile", d.Auth.Profile)
}

// FromViper reads the effective configuration out of v, validating the
// values the file and flag layers cannot type check.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		API: APIConfig{
			Endpoint:  v.GetString("api.endpoint"),
			Timeout:   v.GetString("api.timeout"),
			UserAgent: v.GetString("api.user_agent"),
		},
		Dispatcher: DispatcherConfig{
			Workers:   v.GetUint("dispatcher.workers"),
			QueueSize: v.GetUint("dispatcher.queue_size"),
		},
		Rate: RateConfig{
			Limit: v.GetFloat64("rate.limit"),
			Burst: v.GetUint("rate.burst"),
		},
		Log: LogConfig{
			Debug:  v.GetBool("log.debug"),
			Format: v.GetString("log.format"),
			File:   v.GetString("log.file"),
		},
		Auth: AuthConfig{
			Profile: v.GetString("auth.profile"),
		},
	}

	var errs []error
	if _, err := cfg.API.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	if cfg.Log.Format != "" {
		if err := configKeys["log.format"].set(cfg, cfg.Log.Format); err != nil {
			errs = append(errs, err)
		}
	}
	if cfg.Rate.Limit < 0 {
		errs = append(errs, fmt.Errorf("invalid value for rate.limit: %v (must be a non-negative number)", cfg.Rate.Limit))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// TimeoutDuration parses Timeout. An empty value means no timeout.
func (c APIConfig) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid value for api.timeout: %w", err)
	}
	return d, nil
}
