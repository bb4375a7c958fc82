// Package config loads the YAML settings file and keeps the state learned at
// runtime, like the premium flag of the session.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	DefaultOrigin    = "https://rezka.ag"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
	DefaultRateLimit = 2.0
	DefaultPlayer    = "mpv"

	FileName = "config.yaml"
)

type Config struct {
	// Origin is the mirror to talk to.
	Origin    string `yaml:"origin"`
	UserAgent string `yaml:"user_agent"`
	// Cookies are sent as they are, e.g. dle_user_id and dle_password of a
	// logged in browser session.
	Cookies map[string]string `yaml:"cookies,omitempty"`
	// RateLimit is the number of requests per second, 0 disables it.
	RateLimit float64 `yaml:"rate_limit"`
	// Browser fetches pages through headless Chrome.
	Browser bool   `yaml:"browser"`
	Player  string `yaml:"player"`
}

func Default() Config {
	return Config{
		Origin:    DefaultOrigin,
		UserAgent: DefaultUserAgent,
		RateLimit: DefaultRateLimit,
		Player:    DefaultPlayer,
	}
}

// Load reads the file at path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.Origin = strings.TrimSuffix(strings.TrimSpace(c.Origin), "/")
	u, err := url.Parse(c.Origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("origin %q is not an http url", c.Origin)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", c.RateLimit)
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return nil
}

// Save writes c to path, creating the directory if needed.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Runtime holds values the site reports while the program runs.
type Runtime struct {
	mu      sync.RWMutex
	premium int
}

func (r *Runtime) SetPremium(premium int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.premium = premium
}

// Premium returns the last reported premium flag, 0 for a free account.
func (r *Runtime) Premium() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.premium
}

// Current is the process wide runtime store.
var Current = &Runtime{}
