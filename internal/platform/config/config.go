// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (index managers, row-store, cache) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the search core and its thin
// HTTP transport. The three fields under "Search core" are exactly the
// options spec §6 names (data_path, max_concurrency, cluster_nodes).
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Search core
	DataPath       string   `env:"DATA_PATH"        envDefault:"./data/index"`
	MaxConcurrency int      `env:"MAX_CONCURRENCY"  envDefault:"50"`
	ClusterNodes   []string `env:"CLUSTER_NODES"    envSeparator:","`

	// Row-store (PostgreSQL) — the authoritative source for entity rows
	// and vote counters.
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Short-TTL cache in front of the trending-score HTTP source.
	RedisURL string `env:"REDIS_URL,required"`

	// Trending source (spec §6: "Two HTTP GETs returning map<i64, string>").
	TrendingBotsURL  string `env:"TRENDING_BOTS_URL,required"`
	TrendingPacksURL string `env:"TRENDING_PACKS_URL,required"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
