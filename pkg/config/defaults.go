package config

const (
	defaultEndpoint = "https://api.xing.com/"
	defaultTimeout  = "30s"

	defaultWorkers   = 3
	defaultQueueSize = 256

	defaultRateBurst = 1

	defaultLogFormat = "pretty"

	defaultProfile = "default"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Endpoint: defaultEndpoint,
			Timeout:  defaultTimeout,
		},
		Dispatcher: DispatcherConfig{
			Workers:   defaultWorkers,
			QueueSize: defaultQueueSize,
		},
		Rate: RateConfig{
			Burst: defaultRateBurst,
		},
		Log: LogConfig{
			Format: defaultLogFormat,
		},
		Auth: AuthConfig{
			Profile: defaultProfile,
		},
	}
}
