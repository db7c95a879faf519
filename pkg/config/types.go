package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent xws configuration stored as config.toml
// in the .xws/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	API        APIConfig        `toml:"api"`
	Dispatcher DispatcherConfig `toml:"dispatcher"`
	Rate       RateConfig       `toml:"rate"`
	Log        LogConfig        `toml:"log"`
	Auth       AuthConfig       `toml:"auth"`
}

// APIConfig holds settings for reaching XWS.
type APIConfig struct {
	Endpoint  string `toml:"endpoint,omitempty"`
	Timeout   string `toml:"timeout,omitempty"`
	UserAgent string `toml:"user_agent,omitempty"`
}

// DispatcherConfig sizes the pool running enqueued calls.
type DispatcherConfig struct {
	Workers   uint `toml:"workers,omitempty"`
	QueueSize uint `toml:"queue_size,omitempty"`
}

// RateConfig holds client side throttling. A zero limit disables it.
type RateConfig struct {
	Limit float64 `toml:"limit,omitempty"`
	Burst uint    `toml:"burst,omitempty"`
}

// LogConfig holds logging settings. Format is one of "pretty", "text" or "json".
// When File is set, records are additionally appended to it as JSON.
type LogConfig struct {
	Debug  bool   `toml:"debug,omitempty"`
	Format string `toml:"format,omitempty"`
	File   string `toml:"file,omitempty"`
}

// AuthConfig selects the credentials profile used to sign requests.
type AuthConfig struct {
	Profile string `toml:"profile,omitempty"`
}

// LogFormats lists the accepted log.format values.
var LogFormats = []string{"pretty", "text", "json"}

type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

var configKeys = map[string]configKeyInfo{
	"api.endpoint": {
		get: func(c *Config) string { return c.API.Endpoint },
		set: func(c *Config, v string) error { c.API.Endpoint = v; return nil },
	},
	"api.timeout": {
		get: func(c *Config) string { return c.API.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for api.timeout: %w", err)
			}
			c.API.Timeout = v
			return nil
		},
	},
	"api.user_agent": {
		get: func(c *Config) string { return c.API.UserAgent },
		set: func(c *Config, v string) error { c.API.UserAgent = v; return nil },
	},
	"dispatcher.workers": {
		get: func(c *Config) string { return formatUint(c.Dispatcher.Workers) },
		set: func(c *Config, v string) error { return setUint(&c.Dispatcher.Workers, "dispatcher.workers", v) },
	},
	"dispatcher.queue_size": {
		get: func(c *Config) string { return formatUint(c.Dispatcher.QueueSize) },
		set: func(c *Config, v string) error { return setUint(&c.Dispatcher.QueueSize, "dispatcher.queue_size", v) },
	},
	"rate.limit": {
		get: func(c *Config) string {
			if c.Rate.Limit == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Rate.Limit, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for rate.limit: %q (must be a non-negative number)", v)
			}
			c.Rate.Limit = n
			return nil
		},
	},
	"rate.burst": {
		get: func(c *Config) string { return formatUint(c.Rate.Burst) },
		set: func(c *Config, v string) error { return setUint(&c.Rate.Burst, "rate.burst", v) },
	},
	"log.debug": {
		get: func(c *Config) string { return strconv.FormatBool(c.Log.Debug) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for log.debug: %q (must be true or false)", v)
			}
			c.Log.Debug = b
			return nil
		},
	},
	"log.format": {
		get: func(c *Config) string { return c.Log.Format },
		set: func(c *Config, v string) error {
			for _, f := range LogFormats {
				if v == f {
					c.Log.Format = v
					return nil
				}
			}
			return fmt.Errorf("invalid value for log.format: %q (must be one of %v)", v, LogFormats)
		},
	},
	"log.file": {
		get: func(c *Config) string { return c.Log.File },
		set: func(c *Config, v string) error { c.Log.File = v; return nil },
	},
	"auth.profile": {
		get: func(c *Config) string { return c.Auth.Profile },
		set: func(c *Config, v string) error { c.Auth.Profile = v; return nil },
	},
}

func formatUint(n uint) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(n), 10)
}

func setUint(target *uint, key, v string) error {
	n, err := strconv.ParseUint(v, 10, 0)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %q (must be a positive integer)", key, v)
	}
	*target = uint(n)
	return nil
}
