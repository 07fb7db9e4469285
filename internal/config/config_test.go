package config

import (
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want %q", cfg.Model, "gpt-4o-mini")
	}
	if cfg.RetentionHours != 24 {
		t.Errorf("RetentionHours = %d, want 24", cfg.RetentionHours)
	}
	if cfg.DBPath != "data/poems.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "data/poems.db")
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POEM_MODEL", "gpt-4o")
	t.Setenv("RETENTION_HOURS", "48")
	t.Setenv("PORT", "9090")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:4000/v1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Model != "gpt-4o" {
		t.Errorf("Model = %q, want %q", cfg.Model, "gpt-4o")
	}
	if cfg.RetentionHours != 48 {
		t.Errorf("RetentionHours = %d, want 48", cfg.RetentionHours)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.OpenAIBaseURL != "http://localhost:4000/v1" {
		t.Errorf("OpenAIBaseURL = %q, want override", cfg.OpenAIBaseURL)
	}
}

func TestLoadMissingAPIKey(t *testing.T) {
	// An empty key is as useless as an unset one; the notEmpty tag rejects
	// both.
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded without OPENAI_API_KEY, want error")
	}
}

func TestLoadRejectsNonPositiveRetention(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RETENTION_HOURS", "0")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() succeeded with RETENTION_HOURS=0, want error")
	}
	if !strings.Contains(err.Error(), "RETENTION_HOURS") {
		t.Errorf("error = %v, want mention of RETENTION_HOURS", err)
	}
}
