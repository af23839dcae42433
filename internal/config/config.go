// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int

	// S3-compatible object storage for listing attachments
	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3BucketPublic  string
	S3BucketPrivate string
	S3PublicURL     string // CDN/direct URL for public files

	// Media presentation settings
	CardImageWidth int // target width for optimized card images

	// Login throttling (per client IP)
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Access rules, optionally overridden by a YAML rules file
	RulesFile            string
	RestrictedCategories []string // credit-gated category slugs
}

// rulesFile is the YAML shape of the optional access rules override.
type rulesFile struct {
	RestrictedCategories []string `yaml:"restricted_categories"`
	CardImageWidth       int      `yaml:"card_image_width"`
	PublicURL            string   `yaml:"public_url"`
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "listora"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "listora"),
		DBMaxConns: envOrDefaultInt("DB_MAX_CONNS", 25),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		ValkeyDB:       envOrDefaultInt("VALKEY_DB", 0),

		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3Region:        envOrDefault("S3_REGION", "eu-central"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3BucketPublic:  envOrDefault("S3_BUCKET_PUBLIC", "listora-public"),
		S3BucketPrivate: envOrDefault("S3_BUCKET_PRIVATE", "listora-private"),
		S3PublicURL:     os.Getenv("S3_PUBLIC_URL"),

		CardImageWidth: envOrDefaultInt("CARD_IMAGE_WIDTH", 640),

		LoginRateLimit:  envOrDefaultInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: envOrDefaultDuration("LOGIN_RATE_WINDOW", time.Minute),

		RulesFile:            os.Getenv("RULES_FILE"),
		RestrictedCategories: []string{"jobs", "tenders"},
	}

	if cfg.RulesFile != "" {
		if err := cfg.applyRulesFile(cfg.RulesFile); err != nil {
			return nil, fmt.Errorf("rules file %s: %w", cfg.RulesFile, err)
		}
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// applyRulesFile overlays settings from a YAML rules file. Only keys
// present in the file override the defaults.
func (c *Config) applyRulesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var rules rulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if rules.RestrictedCategories != nil {
		c.RestrictedCategories = rules.RestrictedCategories
	}
	if rules.CardImageWidth > 0 {
		c.CardImageWidth = rules.CardImageWidth
	}
	if rules.PublicURL != "" {
		c.S3PublicURL = rules.PublicURL
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

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envOrDefaultInt reads an integer environment variable. Non-numeric
// values fall back rather than erroring.
func envOrDefaultInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envOrDefaultDuration reads a Go duration string (e.g. "30s", "2m").
// Unparseable values fall back rather than erroring.
func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
