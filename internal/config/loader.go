package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if VIBEOFF_CONFIG is set
//  3. env (prefix VIBEOFF_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("VIBEOFF_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: VIBEOFF_ADDR, VIBEOFF_ADMIN_KEY, ...
	// Map env keys like VIBEOFF_ADMIN_KEY -> admin_key (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("VIBEOFF_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "vibeoff_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.CatalogPath == "" && c.CatalogSize < 2:
		return fmt.Errorf("%w: catalog_size must be at least 2", ErrInvalidConfig)
	case c.VoteRateLimit < 1 || c.VoteRateWindowSec < 1:
		return fmt.Errorf("%w: vote rate limit and window must be positive", ErrInvalidConfig)
	case c.DuoDailyLimit < 1:
		return fmt.Errorf("%w: duo_daily_limit must be positive", ErrInvalidConfig)
	case c.PairQueueSize < 1:
		return fmt.Errorf("%w: pair_queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}
