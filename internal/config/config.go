// Package config loads CLI configuration from the XDG config dir, GDC_*
// environment variables and built-in defaults, in increasing precedence order
// defaults < file < environment.
// Only non-secret settings are kept here; secrets go to OS keychain.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gooddata/cli/internal/task"
	"gooddata/cli/internal/xdg"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GDC_POLL_TIMEOUT.
const EnvPrefix = "GDC"

// Config holds non-sensitive CLI settings.
type Config struct {
	Host        string        `mapstructure:"host"`
	StagingHost string        `mapstructure:"staging_host"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	Poll        PollConfig    `mapstructure:"poll"`
	Log         LogConfig     `mapstructure:"log"`
	// Project is the default project id used when no --project flag is given.
	Project string `mapstructure:"project"`
}

// PollConfig bounds task polling.
type PollConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	Multiplier  float64       `mapstructure:"multiplier"`
	MaxInterval time.Duration `mapstructure:"max_interval"`
	// Timeout of 0 polls until the task finishes.
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig selects log verbosity and format ("text" or "json").
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Task converts the poll settings for the task poller.
func (p PollConfig) Task() task.Config {
	return task.Config{
		Interval:    p.Interval,
		Multiplier:  p.Multiplier,
		MaxInterval: p.MaxInterval,
		Timeout:     p.Timeout,
	}
}

// Validate rejects settings the client cannot work with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be > 0")
	}
	if c.Poll.Multiplier < 1 {
		return fmt.Errorf("poll.multiplier must be >= 1")
	}
	if c.Poll.Timeout < 0 {
		return fmt.Errorf("poll.timeout must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be > 0")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := task.DefaultConfig()
	v.SetDefault("host", "https://secure.gooddata.com")
	v.SetDefault("staging_host", "https://secure-di.gooddata.com")
	v.SetDefault("http_timeout", 60*time.Second)
	v.SetDefault("poll.interval", d.Interval)
	v.SetDefault("poll.multiplier", d.Multiplier)
	v.SetDefault("poll.max_interval", d.MaxInterval)
	v.SetDefault("poll.timeout", d.Timeout)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("project", "")
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration from path, or from the default location when path
// is empty; a missing default file yields defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// Save writes configuration to path (the default location when empty) with
// 0600 permissions.
func Save(path string, c Config) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	v := viper.New()
	v.Set("host", c.Host)
	v.Set("staging_host", c.StagingHost)
	v.Set("http_timeout", c.HTTPTimeout.String())
	v.Set("poll.interval", c.Poll.Interval.String())
	v.Set("poll.multiplier", c.Poll.Multiplier)
	v.Set("poll.max_interval", c.Poll.MaxInterval.String())
	v.Set("poll.timeout", c.Poll.Timeout.String())
	v.Set("log.level", c.Log.Level)
	v.Set("log.format", c.Log.Format)
	v.Set("project", c.Project)
	if err := v.WriteConfigAs(path); err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}
