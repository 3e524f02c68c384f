// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration. Values start from
// built-in defaults, are overlaid by an optional YAML file, and finally by
// MARKPRESS_* environment variables.
//
// Provider API keys are deliberately not part of Config: they are read
// from the environment at call time by the ai and scrape packages.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides: MARKPRESS_DB_HOST -> db_host.
const EnvPrefix = "MARKPRESS_"

// DefaultPath is the config file read when none is given.
const DefaultPath = "markpress.yml"

// defaultDBPassword is rejected in production.
const defaultDBPassword = "changeme"

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host string `koanf:"host"`
	Port string `koanf:"port"`
	Env  string `koanf:"env"` // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string `koanf:"db_host"`
	DBPort     string `koanf:"db_port"`
	DBUser     string `koanf:"db_user"`
	DBPassword string `koanf:"db_password"`
	DBName     string `koanf:"db_name"`

	// Valkey (Redis-compatible cache)
	ValkeyHost     string        `koanf:"valkey_host"`
	ValkeyPort     string        `koanf:"valkey_port"`
	ValkeyPassword string        `koanf:"valkey_password"`
	PageCacheTTL   time.Duration `koanf:"page_cache_ttl"`

	// S3-compatible object storage
	S3Endpoint      string `koanf:"s3_endpoint"`
	S3Region        string `koanf:"s3_region"`
	S3AccessKey     string `koanf:"s3_access_key"`
	S3SecretKey     string `koanf:"s3_secret_key"`
	S3BucketPublic  string `koanf:"s3_bucket_public"`
	S3BucketPrivate string `koanf:"s3_bucket_private"`
	S3PublicURL     string `koanf:"s3_public_url"`

	// Site
	ContentDir   string `koanf:"content_dir"` // empty serves the embedded sample content
	DefaultTheme string `koanf:"default_theme"`
	SiteTitle    string `koanf:"site_title"`

	// Chat assistant system prompt. The three parts take precedence over
	// SystemPrompt when any of them is set.
	SystemPrompt      string `koanf:"system_prompt"`
	SystemPromptPart1 string `koanf:"system_prompt_part1"`
	SystemPromptPart2 string `koanf:"system_prompt_part2"`
	SystemPromptPart3 string `koanf:"system_prompt_part3"`

	// Vendor endpoints, overridable for proxies and tests.
	AnthropicBaseURL string `koanf:"anthropic_base_url"`
	OpenAIBaseURL    string `koanf:"openai_base_url"`
	GeminiBaseURL    string `koanf:"gemini_base_url"`
	FirecrawlBaseURL string `koanf:"firecrawl_base_url"`

	// HTTP API
	CORSOrigins []string `koanf:"cors_origins"`
	RateLimit   int      `koanf:"rate_limit"` // requests per minute per client on /api

	// Logging
	LogFile  string `koanf:"log_file"`
	LogLevel string `koanf:"log_level"`
}

// Default returns the development defaults.
func Default() *Config {
	return &Config{
		Host: "0.0.0.0",
		Port: "8080",
		Env:  "development",

		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "markpress",
		DBPassword: defaultDBPassword,
		DBName:     "markpress",

		ValkeyHost:   "localhost",
		ValkeyPort:   "6379",
		PageCacheTTL: 5 * time.Minute,

		S3Region:        "fsn1",
		S3BucketPublic:  "markpress-public",
		S3BucketPrivate: "markpress-private",

		DefaultTheme: "dark",
		SiteTitle:    "markpress",

		AnthropicBaseURL: "https://api.anthropic.com",
		OpenAIBaseURL:    "https://api.openai.com/v1",
		GeminiBaseURL:    "https://generativelanguage.googleapis.com",
		FirecrawlBaseURL: "https://api.firecrawl.dev",

		CORSOrigins: []string{"*"},
		RateLimit:   60,

		LogLevel: "info",
	}
}

// Load reads configuration from the given YAML file (skipped when it does
// not exist), then overlays MARKPRESS_* environment variables. Returns an
// error if critical values are unsafe in production mode.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Env == "production" && c.DBPassword == defaultDBPassword {
		return fmt.Errorf("db_password must be set in production")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be non-negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// ValkeyAddr returns the Valkey address (host:port).
func (c *Config) ValkeyAddr() string {
	return fmt.Sprintf("%s:%s", c.ValkeyHost, c.ValkeyPort)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// PromptParts returns the configured system prompt parts in order.
func (c *Config) PromptParts() []string {
	return []string{c.SystemPromptPart1, c.SystemPromptPart2, c.SystemPromptPart3}
}
