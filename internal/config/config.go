// Package config loads feedr settings from .feedr.yaml, FEEDR_* environment
// variables and built-in defaults.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/idilsaglam/feedr/internal/store"
	"github.com/idilsaglam/feedr/internal/ui"
)

// Config is the complete feedr configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" json:"server"`
	View    ViewConfig    `mapstructure:"view" json:"view"`
	Store   StoreConfig   `mapstructure:"store" json:"store"`
	Logging LoggingConfig `mapstructure:"logging" json:"logging"`
	Output  OutputConfig  `mapstructure:"output" json:"output"`
}

// ServerConfig points at the feed backend.
type ServerConfig struct {
	URL     string        `mapstructure:"url" json:"url"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

type ViewConfig struct {
	HideRead bool   `mapstructure:"hide_read" json:"hide_read"`
	Theme    string `mapstructure:"theme" json:"theme"`
}

// StoreConfig selects the store's read-sync and reload behavior.
type StoreConfig struct {
	ReadPolicy     string `mapstructure:"read_policy" json:"read_policy"`
	ReloadOrdering string `mapstructure:"reload_ordering" json:"reload_ordering"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" json:"level"`
}

type OutputConfig struct {
	Colors bool `mapstructure:"colors" json:"colors"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads configuration from cfgFile, or from .feedr.yaml in the
// working directory or $HOME/.config/feedr when cfgFile is empty.
// A missing search-path file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".feedr")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/feedr")
	}

	v.SetEnvPrefix("FEEDR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.url", "http://localhost:8080")
	v.SetDefault("server.timeout", time.Duration(0))

	v.SetDefault("view.hide_read", false)
	v.SetDefault("view.theme", "classic")

	v.SetDefault("store.read_policy", "optimistic")
	v.SetDefault("store.reload_ordering", "last-resolved")

	v.SetDefault("logging.level", "info")
	v.SetDefault("output.colors", true)
}

// Validate checks names and the server URL.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("invalid server url %q: %w", c.Server.URL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server url %q: must be http or https", c.Server.URL)
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("invalid server timeout %s", c.Server.Timeout)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	if _, err := ui.ParseTheme(c.View.Theme); err != nil {
		return err
	}
	if _, err := store.ParseReadPolicy(c.Store.ReadPolicy); err != nil {
		return err
	}
	if _, err := store.ParseReloadOrdering(c.Store.ReloadOrdering); err != nil {
		return err
	}
	return nil
}

// StoreOptions turns the store section into store options.
// Call it on a validated Config.
func (c *Config) StoreOptions() []store.Option {
	policy, _ := store.ParseReadPolicy(c.Store.ReadPolicy)
	ordering, _ := store.ParseReloadOrdering(c.Store.ReloadOrdering)
	return []store.Option{
		store.WithReadPolicy(policy),
		store.WithReloadOrdering(ordering),
	}
}
