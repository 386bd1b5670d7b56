package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/srg/sppcli/internal/device"
	"github.com/srg/sppcli/internal/device/simulated"
	"github.com/srg/sppcli/internal/devicefactory"
	"github.com/srg/sppcli/runner"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. SPPCLI_RESPONSE_TIMEOUT=2s.
const EnvPrefix = "SPPCLI"

// Output formats accepted by OutputFormat.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Config holds application configuration
type Config struct {
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level" json:"log_level" default:"panic"`
	AllowList       []string      `mapstructure:"allow_list" yaml:"allow_list" json:"allow_list"`
	ServiceUUID     string        `mapstructure:"service_uuid" yaml:"service_uuid" json:"service_uuid" default:"00001101-0000-1000-8000-00805f9b34fb"`
	Payload         string        `mapstructure:"payload" yaml:"payload" json:"payload" default:"Hello\n"`
	ResponseTimeout time.Duration `mapstructure:"response_timeout" yaml:"response_timeout" json:"response_timeout" default:"1s"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout" json:"connect_timeout" default:"30s"`
	OutputFormat    string        `mapstructure:"output_format" yaml:"output_format" json:"output_format" default:"table"`
	Adapter         string        `mapstructure:"adapter" yaml:"adapter" json:"adapter" default:"bluez"`

	// Simulated describes the peripherals served when Adapter is "simulated".
	Simulated simulated.AdapterConfig `mapstructure:"simulated" yaml:"simulated,omitempty" json:"simulated,omitempty"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	cfg.AllowList = append([]string(nil), device.DefaultAllowedNames...)
	return cfg
}

// DefaultPath returns $XDG_CONFIG_HOME/sppcli/config.yaml, or "" when no
// config directory can be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sppcli", "config.yaml")
}

// Load merges, from lowest to highest precedence, the defaults, the YAML file
// at path and SPPCLI_* environment variables. With an empty path the file at
// DefaultPath is used if it exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigType("yaml")
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("allow_list", cfg.AllowList)
	v.SetDefault("service_uuid", cfg.ServiceUUID)
	v.SetDefault("payload", cfg.Payload)
	v.SetDefault("response_timeout", cfg.ResponseTimeout)
	v.SetDefault("connect_timeout", cfg.ConnectTimeout)
	v.SetDefault("output_format", cfg.OutputFormat)
	v.SetDefault("adapter", cfg.Adapter)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := device.ParseServiceID(c.ServiceUUID); err != nil {
		return fmt.Errorf("service_uuid: %w", err)
	}
	if _, err := device.EncodeText(c.Payload); err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	if c.ResponseTimeout < 0 {
		return fmt.Errorf("response_timeout must not be negative, got %s", c.ResponseTimeout)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("connect_timeout must not be negative, got %s", c.ConnectTimeout)
	}
	switch c.OutputFormat {
	case FormatTable, FormatJSON:
	default:
		return fmt.Errorf("output_format: unsupported format %q (expected %s or %s)", c.OutputFormat, FormatTable, FormatJSON)
	}
	if _, err := devicefactory.ParseKind(c.Adapter); err != nil {
		return fmt.Errorf("adapter: %w", err)
	}
	return nil
}

// Level returns the parsed log level, PanicLevel when it cannot be parsed.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.PanicLevel
	}
	return level
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.Level())

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}

// RunnerOptions converts the configuration into runner options.
func (c *Config) RunnerOptions() (runner.Options, error) {
	serviceID, err := device.ParseServiceID(c.ServiceUUID)
	if err != nil {
		return runner.Options{}, fmt.Errorf("service_uuid: %w", err)
	}
	payload, err := device.EncodeText(c.Payload)
	if err != nil {
		return runner.Options{}, fmt.Errorf("payload: %w", err)
	}

	opts := runner.DefaultOptions()
	opts.AllowList = device.NewAllowList(c.AllowList...)
	opts.ServiceID = serviceID
	opts.Payload = payload
	opts.ResponseTimeout = c.ResponseTimeout
	opts.ConnectTimeout = c.ConnectTimeout
	return opts, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
