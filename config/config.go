package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// DefaultModel is the Gemini model used for reply drafts unless overridden.
	DefaultModel = "gemini-1.5-flash"

	// DefaultMaxResults bounds a single search. MaxResultsCap is the hard
	// ceiling; the service page size is larger but result sets here are
	// meant to stay small.
	DefaultMaxResults = 10
	MaxResultsCap     = 50

	defaultCredentialsPath = "credentials.json"
	defaultTokenPath       = "token.json"
	defaultLogPath         = "mailgenie.log"
)

// Config holds everything the application needs at startup. It is populated
// from a .env file (if present) and environment variables; command-line flags
// may override individual fields before Validate is called again.
type Config struct {
	GeminiAPIKey    string
	GeminiModel     string
	CredentialsPath string
	TokenPath       string
	LogPath         string
	MaxResults      int64
}

// Load reads the .env file (ignored when absent) and environment variables,
// applies defaults, and validates the result. A missing GEMINI_API_KEY is a
// startup configuration error, not something to discover mid-session.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", DefaultModel),
		CredentialsPath: getEnv("GMAIL_CREDENTIALS", defaultCredentialsPath),
		TokenPath:       getEnv("GMAIL_TOKEN", defaultTokenPath),
		LogPath:         getEnv("MAILGENIE_LOG", defaultLogPath),
		MaxResults:      DefaultMaxResults,
	}

	if v := os.Getenv("MAILGENIE_MAX_RESULTS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAILGENIE_MAX_RESULTS %q: %w", v, err)
		}
		cfg.MaxResults = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and clamps MaxResults into [1, MaxResultsCap].
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set (put it in the environment or a .env file)")
	}
	if c.CredentialsPath == "" {
		return fmt.Errorf("credentials path must not be empty")
	}
	if c.TokenPath == "" {
		return fmt.Errorf("token path must not be empty")
	}
	if c.MaxResults < 1 {
		c.MaxResults = 1
	}
	if c.MaxResults > MaxResultsCap {
		c.MaxResults = MaxResultsCap
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
