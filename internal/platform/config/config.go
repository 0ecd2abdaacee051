// Copyright (c) 2026 Tessera. All rights reserved.
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
  - DI-Friendly: Passed to core components (DB, Redis, JWT engine) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Tessera API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// BaseDomain is the apex domain tenant subdomains hang off
	// (e.g. "tessera.app" makes "acme.tessera.app" resolve tenant "acme").
	BaseDomain string `env:"BASE_DOMAIN" envDefault:"tessera.app"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Token signing. Algorithm selects the key family: HS* uses JWTSecret,
	// RS* uses the PEM key pair.
	JWTAlgorithm   string `env:"JWT_ALGORITHM"        envDefault:"RS256"`
	JWTSecret      string `env:"JWT_SECRET"`
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH"`
	JWTIssuer      string `env:"JWT_ISSUER"           envDefault:"tessera.app"`
	JWTAudience    string `env:"JWT_AUDIENCE"         envDefault:"tessera.app"`

	// Token lifetimes and verification policy
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"   envDefault:"30m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL"  envDefault:"168h"`
	JWTLeeway       time.Duration `env:"JWT_LEEWAY"         envDefault:"0s"`
	JWTVerifyExpiry bool          `env:"JWT_VERIFY_EXPIRY"  envDefault:"true"`
	JWTVerifyAud    bool          `env:"JWT_VERIFY_AUD"     envDefault:"true"`
	JWTVerifyIss    bool          `env:"JWT_VERIFY_ISS"     envDefault:"true"`
	JWTRequireIAT   bool          `env:"JWT_REQUIRE_IAT"    envDefault:"true"`
	JWTRequireNBF   bool          `env:"JWT_REQUIRE_NBF"    envDefault:"true"`
	JWTRequireJTI   bool          `env:"JWT_REQUIRE_JTI"    envDefault:"true"`

	// Lookup caches
	TenantCacheSize int           `env:"TENANT_CACHE_SIZE" envDefault:"1000"`
	TenantCacheTTL  time.Duration `env:"TENANT_CACHE_TTL"  envDefault:"1h"`
	UserCacheSize   int           `env:"USER_CACHE_SIZE"   envDefault:"500"`
	UserCacheTTL    time.Duration `env:"USER_CACHE_TTL"    envDefault:"5m"`

	// Conditional access window (wall-clock hours, inclusive)
	BusinessHourStart int `env:"BUSINESS_HOUR_START" envDefault:"9"`
	BusinessHourEnd   int `env:"BUSINESS_HOUR_END"   envDefault:"17"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
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

	if err := cfg.validateKeys(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateKeys ensures the selected signing algorithm has its key material.
func (c *Config) validateKeys() error {
	switch {
	case strings.HasPrefix(c.JWTAlgorithm, "HS"):
		if c.JWTSecret == "" {
			return fmt.Errorf("config: JWT_SECRET is required for %s", c.JWTAlgorithm)
		}
	case strings.HasPrefix(c.JWTAlgorithm, "RS"):
		if c.JWTPrivKeyPath == "" || c.JWTPubKeyPath == "" {
			return fmt.Errorf("config: JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH are required for %s", c.JWTAlgorithm)
		}
	default:
		return fmt.Errorf("config: unsupported JWT_ALGORITHM %q", c.JWTAlgorithm)
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
