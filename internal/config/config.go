package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingToken is returned when no Reclaim API token is configured.
var ErrMissingToken = errors.New("RECLAIM_TOKEN environment variable is not set")

// Config represents the complete gateway configuration.
// The structure matches config.yaml and can be overridden by DIGEST_* environment variables.
type Config struct {
	Server  ServerConfig  `json:"server" mapstructure:"server"`
	Log     LogConfig     `json:"log" mapstructure:"log"`
	Reclaim ReclaimConfig `json:"reclaim" mapstructure:"reclaim"`
	Digest  DigestConfig  `json:"digest" mapstructure:"digest"`
	Audit   AuditConfig   `json:"audit" mapstructure:"audit"`
	MCP     MCPConfig     `json:"mcp" mapstructure:"mcp"`
}

type ServerConfig struct {
	Addr           string   `json:"addr" mapstructure:"addr"`
	Timeout        string   `json:"timeout" mapstructure:"timeout"`
	AllowedOrigins []string `json:"allowed_origins" mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// ReclaimConfig holds the upstream API settings.
type ReclaimConfig struct {
	Token            string        `json:"token" mapstructure:"token"`
	BaseURL          string        `json:"base_url" mapstructure:"base_url"`
	AppURL           string        `json:"app_url" mapstructure:"app_url"`
	Timeout          string        `json:"timeout" mapstructure:"timeout"`
	EventHorizonDays int           `json:"event_horizon_days" mapstructure:"event_horizon_days"`
	Breaker          BreakerConfig `json:"breaker" mapstructure:"breaker"`
}

type BreakerConfig struct {
	Enabled          bool   `json:"enabled" mapstructure:"enabled"`
	FailureThreshold uint32 `json:"failure_threshold" mapstructure:"failure_threshold"`
	OpenTimeout      string `json:"open_timeout" mapstructure:"open_timeout"`
}

// DigestConfig tunes the composed summaries.
type DigestConfig struct {
	Timezone          string `json:"timezone" mapstructure:"timezone"`
	SectionLimit      int    `json:"section_limit" mapstructure:"section_limit"`
	UpcomingLimit     int    `json:"upcoming_limit" mapstructure:"upcoming_limit"`
	MaxParallel       int    `json:"max_parallel" mapstructure:"max_parallel"`
	ResolveNextEvents bool   `json:"resolve_next_events" mapstructure:"resolve_next_events"`
}

type AuditConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

type MCPConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// Load loads the configuration from file and environment variables.
// configFile, when set, replaces the config.yaml search.
func Load(configFile string) (*Config, error) {
	// Load .env first (ignore error if not present)
	_ = godotenv.Load()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.reclaimdigest")
	}
	v.SetEnvPrefix("DIGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("reclaim.token", "RECLAIM_TOKEN", "DIGEST_RECLAIM_TOKEN")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		slog.Debug("no config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Audit.Path = resolvePath(cfg.Audit.Path)
	cfg.Reclaim.Token = strings.TrimSpace(cfg.Reclaim.Token)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("reclaim.token", "")
	v.SetDefault("reclaim.base_url", "https://api.app.reclaim.ai")
	v.SetDefault("reclaim.app_url", "https://app.reclaim.ai")
	v.SetDefault("reclaim.timeout", "30s")
	v.SetDefault("reclaim.event_horizon_days", 30)
	v.SetDefault("reclaim.breaker.enabled", true)
	v.SetDefault("reclaim.breaker.failure_threshold", 5)
	v.SetDefault("reclaim.breaker.open_timeout", "30s")

	v.SetDefault("digest.timezone", "UTC")
	v.SetDefault("digest.section_limit", 5)
	v.SetDefault("digest.upcoming_limit", 20)
	v.SetDefault("digest.max_parallel", 8)
	v.SetDefault("digest.resolve_next_events", true)

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.path", "~/.reclaimdigest/audit.db")

	v.SetDefault("mcp.enabled", true)
}

// Credential returns the configured API token or ErrMissingToken.
func (c *Config) Credential() (string, error) {
	if c.Reclaim.Token == "" {
		return "", ErrMissingToken
	}
	return c.Reclaim.Token, nil
}

// ServerTimeout returns server.timeout, falling back to 30s when unparsable.
func (c *Config) ServerTimeout() time.Duration {
	return durationOr(c.Server.Timeout, 30*time.Second)
}

func (c *Config) ReclaimTimeout() time.Duration {
	return durationOr(c.Reclaim.Timeout, 30*time.Second)
}

func (c *Config) BreakerOpenTimeout() time.Duration {
	return durationOr(c.Reclaim.Breaker.OpenTimeout, 30*time.Second)
}

// EventHorizon is the look-ahead window of next event lookups.
func (c *Config) EventHorizon() time.Duration {
	return time.Duration(c.Reclaim.EventHorizonDays) * 24 * time.Hour
}

// Location loads digest.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Digest.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Digest.Timezone)
}

// NewLogger builds the process logger from log.level and log.format.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// resolvePath resolves ~ to home directory and cleans the path
func resolvePath(p string) string {
	if p == "" {
		return p
	}
	if p[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return filepath.Clean(p)
}
