package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kiranshivaraju/agerating/pkg/models"
)

// Config holds all configuration for the agerating client.
type Config struct {
	Service    ServiceConfig `yaml:"service"`
	Poll       PollConfig    `yaml:"poll"`
	Categories []string      `yaml:"categories"`
	Log        LogConfig     `yaml:"log"`
	Stub       StubConfig    `yaml:"stub"`
}

type ServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type PollConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxWait     time.Duration `yaml:"max_wait"`
	MaxFailures int           `yaml:"max_failures"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StubConfig struct {
	Addr string `yaml:"addr"`
}

var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validFormats = map[string]bool{
	"text": true,
	"json": true,
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 30 * time.Second,
		},
		Poll: PollConfig{
			Interval:    1 * time.Second,
			MaxWait:     10 * time.Minute,
			MaxFailures: 5,
		},
		Categories: append([]string(nil), models.DefaultCategories...),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Stub: StubConfig{
			Addr: ":8000",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (if not empty),
// then environment variables, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.Service.BaseURL = envString("AGERATING_BASE_URL", cfg.Service.BaseURL)
	cfg.Service.Timeout = envDuration("AGERATING_HTTP_TIMEOUT", cfg.Service.Timeout)
	cfg.Poll.Interval = envDuration("AGERATING_POLL_INTERVAL", cfg.Poll.Interval)
	cfg.Poll.MaxWait = envDuration("AGERATING_POLL_MAX_WAIT", cfg.Poll.MaxWait)
	cfg.Poll.MaxFailures = envInt("AGERATING_POLL_MAX_FAILURES", cfg.Poll.MaxFailures)
	cfg.Categories = envList("AGERATING_CATEGORIES", cfg.Categories)
	cfg.Log.Level = strings.ToLower(envString("AGERATING_LOG_LEVEL", cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(envString("AGERATING_LOG_FORMAT", cfg.Log.Format))
	cfg.Stub.Addr = envString("AGERATING_STUB_ADDR", cfg.Stub.Addr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Service.BaseURL == "" {
		return fmt.Errorf("AGERATING_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Service.BaseURL, "http://") && !strings.HasPrefix(c.Service.BaseURL, "https://") {
		return fmt.Errorf("AGERATING_BASE_URL must start with http:// or https://, got %q", c.Service.BaseURL)
	}
	if c.Service.Timeout <= 0 {
		return fmt.Errorf("AGERATING_HTTP_TIMEOUT must be positive, got %s", c.Service.Timeout)
	}

	if c.Poll.Interval <= 0 {
		return fmt.Errorf("AGERATING_POLL_INTERVAL must be positive, got %s", c.Poll.Interval)
	}
	if c.Poll.MaxWait <= 0 {
		return fmt.Errorf("AGERATING_POLL_MAX_WAIT must be positive, got %s", c.Poll.MaxWait)
	}
	if c.Poll.MaxFailures < 0 {
		return fmt.Errorf("AGERATING_POLL_MAX_FAILURES must not be negative, got %d", c.Poll.MaxFailures)
	}

	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat == "" {
			return fmt.Errorf("category names must not be empty")
		}
		if seen[cat] {
			return fmt.Errorf("duplicate category %q", cat)
		}
		seen[cat] = true
	}

	if !validLevels[c.Log.Level] {
		return fmt.Errorf("AGERATING_LOG_LEVEL must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("AGERATING_LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// envList splits on ';' because category names contain commas.
func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
