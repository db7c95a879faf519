package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline.
type Flag struct {
	// Name is the long flag name (e.g. "endpoint").
	Name string

	// Shorthand is the one-letter short flag (e.g. "p"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.endpoint").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagDebug     = "debug"
	FlagEndpoint  = "endpoint"
	FlagTimeout   = "timeout"
	FlagUserAgent = "user-agent"
	FlagWorkers   = "workers"
	FlagQueueSize = "queue-size"
	FlagRateLimit = "rate-limit"
	FlagRateBurst = "rate-burst"
	FlagLogFormat = "log-format"
	FlagLogFile   = "log-file"
	FlagProfile   = "profile"
)

// Flags is the registry shared by the xws commands.
var Flags = FlagSet{
	FlagDebug:     {Name: "debug", Shorthand: "d", ViperKey: "log.debug", Description: "Enable debug logging"},
	FlagEndpoint:  {Name: "endpoint", ViperKey: "api.endpoint", Description: "XWS endpoint URL"},
	FlagTimeout:   {Name: "timeout", ViperKey: "api.timeout", Description: "Per request timeout (e.g. 30s)"},
	FlagUserAgent: {Name: "user-agent", ViperKey: "api.user_agent", Description: "User-Agent header sent with every request"},
	FlagWorkers:   {Name: "workers", ViperKey: "dispatcher.workers", Description: "Number of workers running enqueued calls"},
	FlagQueueSize: {Name: "queue-size", ViperKey: "dispatcher.queue_size", Description: "Capacity of the enqueued call queue"},
	FlagRateLimit: {Name: "rate-limit", ViperKey: "rate.limit", Description: "Maximum requests per second (0 disables throttling)"},
	FlagRateBurst: {Name: "rate-burst", ViperKey: "rate.burst", Description: "Burst size for the rate limiter"},
	FlagLogFormat: {Name: "log-format", ViperKey: "log.format", Description: "Log output format: pretty, text or json"},
	FlagLogFile:   {Name: "log-file", ViperKey: "log.file", Description: "Also append JSON log records to this file"},
	FlagProfile:   {Name: "profile", Shorthand: "p", ViperKey: "auth.profile", Description: "Credentials profile used to sign requests"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaults().GetUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddFloatFlag registers a float64 flag on cmd from the given FlagSet.
func AddFloatFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *float64) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaults().GetFloat64(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().Float64VarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().Float64Var(target, def.Name, defaultVal, def.Description)
	}
}

// AddPersistentBoolFlag registers a bool flag inherited by every subcommand.
func AddPersistentBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaults().GetBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.PersistentFlags().BoolP(def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.PersistentFlags().Bool(def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaults returns a viper holding only NewDefaultConfig values.
func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}

// InitCommandViper initializes viper for the .xws/ directory named by the
// --config-dir flag and binds the given registry flags of cmd. It returns the
// resolved config dir override alongside.
func InitCommandViper(cmd *cobra.Command, fs FlagSet, registryKeys []string) (*viper.Viper, string, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := InitViper(configDir)
	if err != nil {
		return nil, "", err
	}
	BindRegisteredFlags(v, cmd, fs, registryKeys)

	return v, configDir, nil
}
