// Package config loads service settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// Config holds everything the poem clock reads from the environment.
type Config struct {
	OpenAIAPIKey  string `env:"OPENAI_API_KEY,required,notEmpty"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	Model         string `env:"POEM_MODEL" envDefault:"gpt-4o-mini"`

	RetentionHours int    `env:"RETENTION_HOURS" envDefault:"24"`
	DBPath         string `env:"DB_PATH" envDefault:"data/poems.db"`
	Port           int    `env:"PORT" envDefault:"8080"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment. A missing API key is a hard error: the clock
// must not come up without credentials for the poem generator.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.RetentionHours <= 0 {
		return nil, fmt.Errorf("RETENTION_HOURS must be positive, got %d", cfg.RetentionHours)
	}
	return cfg, nil
}
