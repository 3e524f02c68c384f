// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every MARKPRESS_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix) {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

// TestLoad_Defaults verifies that Load returns development defaults when
// neither a file nor environment overrides exist.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	check := func(field, got, want string) {
		t.Helper()
		if got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}

	check("Host", cfg.Host, "0.0.0.0")
	check("Port", cfg.Port, "8080")
	check("Env", cfg.Env, "development")
	check("DBUser", cfg.DBUser, "markpress")
	check("DBPassword", cfg.DBPassword, "changeme")
	check("ValkeyPort", cfg.ValkeyPort, "6379")
	check("DefaultTheme", cfg.DefaultTheme, "dark")
	check("AnthropicBaseURL", cfg.AnthropicBaseURL, "https://api.anthropic.com")
	check("OpenAIBaseURL", cfg.OpenAIBaseURL, "https://api.openai.com/v1")
	check("GeminiBaseURL", cfg.GeminiBaseURL, "https://generativelanguage.googleapis.com")
	check("S3BucketPublic", cfg.S3BucketPublic, "markpress-public")

	if cfg.RateLimit != 60 {
		t.Errorf("RateLimit = %d, want 60", cfg.RateLimit)
	}
	if cfg.PageCacheTTL != 5*time.Minute {
		t.Errorf("PageCacheTTL = %v, want 5m", cfg.PageCacheTTL)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode")
	}
}

// TestLoad_FileThenEnv verifies the overlay order: file values replace
// defaults and environment variables replace file values.
func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "markpress.yml")
	yml := "port: \"9000\"\ndb_host: db.internal\nsystem_prompt_part2: be brief\ncors_origins:\n  - https://a.example\n  - https://b.example\npage_cache_ttl: 30s\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MARKPRESS_PORT", "9090")
	t.Setenv("MARKPRESS_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, env should win over file", cfg.Port)
	}
	if cfg.DBHost != "db.internal" {
		t.Errorf("DBHost = %q, want file value", cfg.DBHost)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.PageCacheTTL != 30*time.Second {
		t.Errorf("PageCacheTTL = %v", cfg.PageCacheTTL)
	}
	parts := cfg.PromptParts()
	if parts[0] != "" || parts[1] != "be brief" || parts[2] != "" {
		t.Errorf("PromptParts = %q", parts)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("port: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

// TestLoad_ProductionRequiresPassword verifies that production mode rejects
// the default "changeme" password and accepts a real one.
func TestLoad_ProductionRequiresPassword(t *testing.T) {
	t.Run("rejects default password", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MARKPRESS_ENV", "production")
		if _, err := Load(""); err == nil {
			t.Fatal("expected error for default password in production")
		}
	})

	t.Run("accepts real password", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MARKPRESS_ENV", "production")
		t.Setenv("MARKPRESS_DB_PASSWORD", "s3cret")
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.IsDev() {
			t.Error("production config reported as dev")
		}
	})
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("MARKPRESS_LOG_LEVEL", "chatty")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

// TestDSN verifies the PostgreSQL connection string format.
func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "1", DBName: "d"}
	want := "postgres://u:p@h:1/d?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
	cfg.Host, cfg.Port = "127.0.0.1", "80"
	if cfg.Addr() != "127.0.0.1:80" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}
