package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"
)

// Validate checks the configuration for errors. A missing token is not an
// error here; it is reported per request.
func (c *Config) Validate() error {
	// Validate server configuration
	if c.Server.Addr == "" {
		return errors.New("server address cannot be empty")
	}
	if _, err := net.ResolveTCPAddr("tcp", c.Server.Addr); err != nil {
		return fmt.Errorf("invalid server address: %v", err)
	}
	if err := validDuration("server.timeout", c.Server.Timeout); err != nil {
		return err
	}

	var level slog.Level
	if c.Log.Level != "" {
		if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
			return fmt.Errorf("invalid log level %q", c.Log.Level)
		}
	}

	// Validate upstream configuration
	if err := validURL("reclaim.base_url", c.Reclaim.BaseURL); err != nil {
		return err
	}
	if c.Reclaim.AppURL != "" {
		if err := validURL("reclaim.app_url", c.Reclaim.AppURL); err != nil {
			return err
		}
	}
	if err := validDuration("reclaim.timeout", c.Reclaim.Timeout); err != nil {
		return err
	}
	if c.Reclaim.EventHorizonDays <= 0 {
		return errors.New("reclaim event_horizon_days must be positive")
	}
	if c.Reclaim.Breaker.Enabled {
		if c.Reclaim.Breaker.FailureThreshold == 0 {
			return errors.New("breaker failure_threshold must be positive when the breaker is enabled")
		}
		if err := validDuration("reclaim.breaker.open_timeout", c.Reclaim.Breaker.OpenTimeout); err != nil {
			return err
		}
	}

	// Validate digest configuration
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid digest timezone: %v", err)
	}
	if c.Digest.SectionLimit <= 0 {
		return errors.New("digest section_limit must be positive")
	}
	if c.Digest.UpcomingLimit <= 0 {
		return errors.New("digest upcoming_limit must be positive")
	}
	if c.Digest.MaxParallel <= 0 {
		return errors.New("digest max_parallel must be positive")
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		return errors.New("audit path cannot be empty when audit is enabled")
	}
	return nil
}

func validDuration(key, s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %v", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", key)
	}
	return nil
}

func validURL(key, s string) error {
	if s == "" {
		return fmt.Errorf("%s cannot be empty", key)
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %v", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s: %q is not an http(s) URL", key, s)
	}
	return nil
}
