// Package config loads parcelgen settings from flags, environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/oy3o/parcel/derive"
)

// Config is the root parcelgen configuration.
type Config struct {
	// Schema is the schema file to derive from (.yaml, .yml, .json or .jsonc).
	Schema string `mapstructure:"schema"`

	// Output is the generated file. Empty writes to stdout.
	Output string `mapstructure:"output"`

	// Package overrides the package clause declared by the schema file.
	Package string `mapstructure:"package"`

	// AllowOpaque enables the opaque fallback for Serializable types that
	// have no other strategy.
	AllowOpaque bool `mapstructure:"allow_opaque"`

	// InstanceField names the static field that marks a singleton.
	InstanceField string `mapstructure:"instance_field"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	Rotation    RotationConfig `mapstructure:"rotation"`
	Development bool           `mapstructure:"development"`
}

// RotationConfig controls rotation of file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with defaults. Logs go to stderr so
// that generated code can be written to stdout.
func Default() *Config {
	return &Config{
		InstanceField: derive.DefaultInstanceField,
		Log: LogConfig{
			Level:   "warn",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Filename:   "logs/parcelgen.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
	}
}

// New returns a viper instance seeded with the defaults, reading the
// PARCELGEN_ environment. Callers bind flags to it before calling Load.
func New() *viper.Viper {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PARCELGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("schema", cfg.Schema)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("package", cfg.Package)
	v.SetDefault("allow_opaque", cfg.AllowOpaque)
	v.SetDefault("instance_field", cfg.InstanceField)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	return v
}

// Load reads the configuration file at path into v and decodes the result.
// With an empty path, PARCELGEN_CONFIG is consulted and then parcelgen.yaml
// is searched for in . and ./configs. A missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("PARCELGEN_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("parcelgen")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "":
		c.Log.Format = "console"
	case "console", "json":
	default:
		return fmt.Errorf("invalid log.format: %q", c.Log.Format)
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}

	c.InstanceField = strings.TrimSpace(c.InstanceField)
	if c.InstanceField == "" {
		c.InstanceField = derive.DefaultInstanceField
	}
	if !token.IsIdentifier(c.InstanceField) {
		return fmt.Errorf("invalid instance_field: %q", c.InstanceField)
	}
	if c.Package != "" && !token.IsIdentifier(c.Package) {
		return fmt.Errorf("invalid package: %q", c.Package)
	}
	return nil
}
