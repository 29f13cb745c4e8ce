// Package config loads routerctl settings from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultServiceName is the default systemd service name, without the .service suffix.
	DefaultServiceName = "vllm-router"

	// DefaultDescription is the default unit description.
	DefaultDescription = "vLLM router"

	// DefaultBinaryPath is the default path of the worker binary.
	DefaultBinaryPath = "/usr/local/bin/vllm-router"

	// DefaultSystemUser is the account the service runs as in system scope.
	DefaultSystemUser = "vllm-router"

	// DefaultSystemUnitDir is where system-wide unit files are written.
	DefaultSystemUnitDir = "/etc/systemd/system"

	// DefaultConfigFileName is the worker config file name inside the scope's config directory.
	DefaultConfigFileName = "config.toml"

	// DefaultRestartSec is the delay between automatic restarts.
	DefaultRestartSec = 5

	// DefaultLimitNOFILE is the open file descriptor ceiling.
	DefaultLimitNOFILE = 65536

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
)

// Config holds the settings shared by every routerctl command.
// Empty path fields are derived from the operation scope at runtime.
type Config struct {
	// ServiceName is the systemd service name without suffix.
	// Default: vllm-router
	ServiceName string `yaml:"service_name" env:"ROUTERCTL_SERVICE_NAME"`

	// Description is the unit Description= value.
	Description string `yaml:"description" env:"ROUTERCTL_DESCRIPTION"`

	// BinaryPath is the worker binary referenced by ExecStart.
	// Default: /usr/local/bin/vllm-router
	BinaryPath string `yaml:"binary_path" env:"ROUTERCTL_BINARY"`

	// ConfigPath is the worker config file passed with --config.
	// Default: <scope config dir>/config.toml
	ConfigPath string `yaml:"config_path" env:"ROUTERCTL_CONFIG"`

	// WorkingDir is the unit WorkingDirectory=.
	// Default: <scope state dir>
	WorkingDir string `yaml:"working_dir" env:"ROUTERCTL_WORKING_DIR"`

	// ExtraArgs are appended to ExecStart after the config flag.
	ExtraArgs []string `yaml:"extra_args" env:"ROUTERCTL_EXTRA_ARGS"`

	// SystemUser is the User= value in system scope.
	// Default: vllm-router
	SystemUser string `yaml:"system_user" env:"ROUTERCTL_SYSTEM_USER"`

	// SystemUnitDir is the directory for system-wide unit files.
	// Default: /etc/systemd/system
	SystemUnitDir string `yaml:"system_unit_dir" env:"ROUTERCTL_SYSTEM_UNIT_DIR"`

	// SyslogIdentifier tags journal entries.
	// Default: the service name
	SyslogIdentifier string `yaml:"syslog_identifier" env:"ROUTERCTL_SYSLOG_IDENTIFIER"`

	// RestartSec is the delay in seconds before systemd restarts the worker.
	// Default: 5
	RestartSec int `yaml:"restart_sec" env:"ROUTERCTL_RESTART_SEC"`

	// LimitNOFILE is the open file descriptor limit.
	// Default: 65536
	LimitNOFILE int `yaml:"limit_nofile" env:"ROUTERCTL_LIMIT_NOFILE"`

	// LogLevel is the routerctl log level: "debug", "info", "warn", "error".
	// Default: info
	LogLevel string `yaml:"log_level" env:"ROUTERCTL_LOG_LEVEL"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.Description == "" {
		c.Description = DefaultDescription
	}
	if c.BinaryPath == "" {
		c.BinaryPath = DefaultBinaryPath
	}
	if c.SystemUser == "" {
		c.SystemUser = DefaultSystemUser
	}
	if c.SystemUnitDir == "" {
		c.SystemUnitDir = DefaultSystemUnitDir
	}
	if c.SyslogIdentifier == "" {
		c.SyslogIdentifier = c.ServiceName
	}
	if c.RestartSec == 0 {
		c.RestartSec = DefaultRestartSec
	}
	if c.LimitNOFILE == 0 {
		c.LimitNOFILE = DefaultLimitNOFILE
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks that required fields are set and values are acceptable.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return errors.New("config: service_name is required")
	}
	if strings.ContainsAny(c.ServiceName, "/ \r\n") || strings.HasSuffix(c.ServiceName, ".service") {
		return fmt.Errorf("config: invalid service_name %q", c.ServiceName)
	}
	if c.RestartSec <= 0 {
		return fmt.Errorf("config: restart_sec must be positive, got %d", c.RestartSec)
	}
	if c.LimitNOFILE <= 0 {
		return fmt.Errorf("config: limit_nofile must be positive, got %d", c.LimitNOFILE)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}
	return nil
}

// Load reads the YAML settings file at path, applies environment overrides,
// then defaults, and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
