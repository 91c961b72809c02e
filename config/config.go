// Package config loads and validates the YAML settings file. Defaults are
// filled in by Validate so business code never branches on zero values.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"daisy/oops"
)

type Config struct {
	// MaxPosts caps how many posts a single pipeline run fetches, newest first.
	MaxPosts int `yaml:"max_posts"`
	// MaxListPages bounds pagination against a misbehaving server.
	MaxListPages int `yaml:"max_list_pages"`
	// DetailDelayMs is the fixed sleep between successive detail fetches.
	DetailDelayMs  int    `yaml:"detail_delay_ms"`
	HTTPTimeoutSec int    `yaml:"http_timeout_sec"`
	RetryCount     int    `yaml:"retry_count"`
	DatabasePath   string `yaml:"database_path"`
	// EnableBrowser allows the browser automation strategy. It is expensive,
	// so it is off unless explicitly requested.
	EnableBrowser bool `yaml:"enable_browser"`
	// BrowserScrollSec bounds the lazy-load scroll loop.
	BrowserScrollSec int `yaml:"browser_scroll_sec"`
}

func Default() *Config {
	c := &Config{}
	_ = c.Validate()
	return c
}

// Load reads a yaml config file. An empty path means defaults only.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Wrapf(err, "read config %s", path)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, oops.Wrapf(err, "unmarshal config %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.MaxPosts < 0 {
		return oops.New("max_posts must be >= 0")
	}
	if c.MaxPosts == 0 {
		c.MaxPosts = 30
	}
	if c.MaxListPages <= 0 {
		c.MaxListPages = 5
	}
	if c.DetailDelayMs <= 0 {
		c.DetailDelayMs = 300
	}
	if c.HTTPTimeoutSec <= 0 {
		c.HTTPTimeoutSec = 20
	}
	if c.RetryCount < 0 {
		return oops.New("retry_count must be >= 0")
	}
	if c.RetryCount == 0 {
		c.RetryCount = 2
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "./daisy.db"
	}
	if c.BrowserScrollSec <= 0 {
		c.BrowserScrollSec = 30
	}
	return nil
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

func (c *Config) DetailDelay() time.Duration {
	return time.Duration(c.DetailDelayMs) * time.Millisecond
}

func (c *Config) BrowserScrollTime() time.Duration {
	return time.Duration(c.BrowserScrollSec) * time.Second
}
