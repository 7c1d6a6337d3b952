// Package config loads the service configuration.
//
// Values are layered: built-in defaults, an optional YAML file, a .env file,
// and finally the process environment. Command-line flags are applied on top
// by the cli package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

type Config struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	// SystemPrompt is prepended to relayed conversations that carry no
	// system message of their own.
	SystemPrompt string `yaml:"system_prompt"`

	Upstream UpstreamConfig `yaml:"upstream"`
	Store    StoreConfig    `yaml:"store"`
}

type UpstreamConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	SiteURL  string        `yaml:"site_url"`
	SiteName string        `yaml:"site_name"`
	Timeout  time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisDB     int    `yaml:"redis_db"`
	RedisPrefix string `yaml:"redis_prefix"`
	Key         string `yaml:"key"`
}

func Default() *Config {
	return &Config{
		Addr:         "8080",
		LogLevel:     "info",
		SystemPrompt: DefaultSystemPrompt,
		Upstream: UpstreamConfig{
			BaseURL:  "https://openrouter.ai/api/v1",
			Model:    "deepseek/deepseek-prover-v2:free",
			SiteURL:  "https://researchpaper-ai.vercel.app",
			SiteName: "ResearchPaperAI",
		},
		Store: StoreConfig{
			Driver:      DriverFile,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "researchpaper:",
			Key:         "chatHistory",
		},
	}
}

// Load builds a Config from defaults, the YAML file at configPath (optional)
// and the environment. envFile is loaded into the environment first when it
// exists; variables already set in the process win.
func Load(configPath, envFile string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		b, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configPath, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, "ADDR")
	setString(&c.LogLevel, "LOG_LEVEL")
	if v, ok := os.LookupEnv("LOG_JSON"); ok {
		c.LogJSON = strings.EqualFold(strings.TrimSpace(v), "true")
	}

	setString(&c.SystemPrompt, "SYSTEM_PROMPT")
	if p := os.Getenv("SYSTEM_PROMPT_FILE"); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read SYSTEM_PROMPT_FILE: %w", err)
		}
		c.SystemPrompt = string(b)
	}

	setString(&c.Upstream.BaseURL, "OPENROUTER_BASE_URL")
	setString(&c.Upstream.APIKey, "OPENROUTER_API_KEY")
	setString(&c.Upstream.Model, "OPENROUTER_MODEL")
	setString(&c.Upstream.SiteURL, "SITE_URL")
	setString(&c.Upstream.SiteName, "SITE_NAME")
	if v := os.Getenv("UPSTREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("UPSTREAM_TIMEOUT: %w", err)
		}
		c.Upstream.Timeout = d
	}

	setString(&c.Store.Driver, "STORE_DRIVER")
	setString(&c.Store.Path, "STORE_PATH")
	setString(&c.Store.RedisAddr, "REDIS_ADDR")
	setString(&c.Store.RedisPrefix, "REDIS_PREFIX")
	setString(&c.Store.Key, "HISTORY_KEY")
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Store.RedisDB = n
	}
	return nil
}

// Normalize trims values and fills driver-dependent defaults.
func (c *Config) Normalize() {
	c.Upstream.APIKey = strings.TrimSpace(c.Upstream.APIKey)
	c.Upstream.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.Upstream.BaseURL), "/")
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Path == "" {
		switch c.Store.Driver {
		case DriverFile:
			c.Store.Path = "data"
		case DriverSQLite:
			c.Store.Path = "data/history.db"
		}
	}
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverSQLite, DriverRedis:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Key == "" {
		return errors.New("history key must not be empty")
	}
	if c.Upstream.Model == "" {
		return errors.New("upstream model must not be empty")
	}
	if c.Upstream.Timeout < 0 {
		return errors.New("upstream timeout must not be negative")
	}
	return nil
}

// ListenAddr accepts both "8080" and ":8080" / "host:8080".
func (c *Config) ListenAddr() string {
	if strings.Contains(c.Addr, ":") {
		return c.Addr
	}
	return ":" + c.Addr
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
