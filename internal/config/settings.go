package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable that overrides a setting,
// for example CARTHORSE_DRY_RUN.
const EnvPrefix = "CARTHORSE"

// DefaultConfigPath is the release configuration read when none is given.
const DefaultConfigPath = "pyproject.toml"

// Setting keys. Flags of the same name (with "-" for "_") bind to them.
const (
	SettingConfig   = "config"
	SettingDryRun   = "dry_run"
	SettingLogLevel = "log_level"
)

// Settings controls a single invocation of the tool, as opposed to [Config]
// which describes the release.
type Settings struct {
	// ConfigPath is the release configuration file to read.
	ConfigPath string `mapstructure:"config"`

	// DryRun announces actions without executing them.
	DryRun bool `mapstructure:"dry_run"`

	// LogLevel is the diagnostic log level: debug, info, warn or error.
	LogLevel string `mapstructure:"log_level"`
}

// DefaultSettings returns the settings used when nothing overrides them.
func DefaultSettings() *Settings {
	return &Settings{
		ConfigPath: DefaultConfigPath,
		DryRun:     false,
		LogLevel:   "warn",
	}
}

// Loader resolves [Settings] from defaults, CARTHORSE_ environment
// variables and command line flags, in increasing order of precedence.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader seeded with [DefaultSettings].
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSettings()
	v.SetDefault(SettingConfig, defaults.ConfigPath)
	v.SetDefault(SettingDryRun, defaults.DryRun)
	v.SetDefault(SettingLogLevel, defaults.LogLevel)

	return &Loader{v: v}
}

// BindFlags binds each setting to the flag of the same name in flags, if
// present. A flag only wins over the environment when it was set.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	for _, key := range []string{SettingConfig, SettingDryRun, SettingLogLevel} {
		flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
		if flag == nil {
			continue
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
	}
	return nil
}

// Load returns the resolved settings.
func (l *Loader) Load() (*Settings, error) {
	var s Settings
	if err := l.v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error reading settings: %w", err)
	}
	if s.ConfigPath == "" {
		s.ConfigPath = DefaultConfigPath
	}
	return &s, nil
}
