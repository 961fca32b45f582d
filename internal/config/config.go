package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the bridge.
type Config struct {
	ListenAddr      string        `mapstructure:"LISTEN_ADDR"`
	GinMode         string        `mapstructure:"GIN_MODE"`
	AuditLogPath    string        `mapstructure:"AUDIT_LOG_PATH"`
	LogFormat       string        `mapstructure:"LOG_FORMAT"` // "console" or "json"
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	FillCommandTTL  time.Duration `mapstructure:"FILL_COMMAND_TTL"`
	AnthropicAPIKey string        `mapstructure:"ANTHROPIC_API_KEY"`
	AnthropicModel  string        `mapstructure:"ANTHROPIC_MODEL"`
}

// EnvPrefix is prepended to every environment variable the bridge reads.
const EnvPrefix = "ASTERISK"

// DefaultListenAddr is the fixed loopback address the extension talks to.
const DefaultListenAddr = "127.0.0.1:17373"

var configKeys = []string{
	"LISTEN_ADDR",
	"GIN_MODE",
	"AUDIT_LOG_PATH",
	"LOG_FORMAT",
	"LOG_LEVEL",
	"FILL_COMMAND_TTL",
	"ANTHROPIC_API_KEY",
	"ANTHROPIC_MODEL",
}

// LoadConfig loads configuration from ASTERISK_* environment variables using Viper.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("LISTEN_ADDR", DefaultListenAddr)
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("AUDIT_LOG_PATH", DefaultAuditLogPath())
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("FILL_COMMAND_TTL", "2m")
	v.SetDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514")

	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values. The bridge has no authentication, so the
// listen address must be loopback.
func (c *Config) Validate() error {
	host, _, err := net.SplitHostPort(c.ListenAddr)
	if err != nil {
		return fmt.Errorf("LISTEN_ADDR %q is invalid: %w", c.ListenAddr, err)
	}
	if host != "localhost" {
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			return fmt.Errorf("LISTEN_ADDR %q must be a loopback address", c.ListenAddr)
		}
	}
	if c.AuditLogPath == "" {
		return errors.New("AUDIT_LOG_PATH is required")
	}
	if c.FillCommandTTL <= 0 {
		return errors.New("FILL_COMMAND_TTL must be positive")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT %q must be console or json", c.LogFormat)
	}
	return nil
}

// DefaultAuditLogPath returns asterisk/audit.jsonl under the per-user local data
// directory, falling back to the working directory when none can be resolved.
func DefaultAuditLogPath() string {
	return filepath.Join(userDataDir(), "asterisk", "audit.jsonl")
}

func userDataDir() string {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Application Support")
		}
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "share")
		}
	}
	return "."
}
