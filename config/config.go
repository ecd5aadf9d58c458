package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all externally supplied configuration. Everything comes from
// environment variables (godotenv loads a .env file in main when present).
type Config struct {
	Server   ServerConfig
	Vision   VisionConfig
	Browser  BrowserConfig
	Timeouts TimeoutsConfig
	Database DatabaseConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host           string
	Port           string
	AllowedOrigins string
}

// VisionConfig holds vision-model API settings. The endpoint speaks the
// OpenAI-compatible chat-completions protocol.
type VisionConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	// Requests per minute allowed against the model endpoint
	RequestsPerMinute int
}

// BrowserConfig holds headless-browser settings
type BrowserConfig struct {
	// BinPath is an explicit Chromium binary; empty means auto-detect
	BinPath string
	// IdleTimeout closes the shared browser after this much inactivity
	IdleTimeout time.Duration
}

// TimeoutsConfig caps each pipeline phase. The worst-case request latency
// is the sum of these budgets; each phase is individually capped but no
// global deadline is enforced on top.
type TimeoutsConfig struct {
	SitePhase     time.Duration // site-specific extractor, including retries
	GenericPhase  time.Duration // generic lightweight extractor
	HeadlessPhase time.Duration // headless navigation + DOM evaluation
	VisionPhase   time.Duration // screenshot + model round trip
}

// DatabaseConfig holds the optional Postgres cache settings
type DatabaseConfig struct {
	URL      string        // empty disables the metadata cache
	CacheTTL time.Duration // how long cached metadata stays fresh
}

// Load reads the configuration from the environment
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           getEnvOrDefault("HOST", "0.0.0.0"),
			Port:           getEnvOrDefault("PORT", "8080"),
			AllowedOrigins: getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Vision: VisionConfig{
			APIKey:            os.Getenv("VISION_API_KEY"),
			Model:             getEnvOrDefault("VISION_MODEL", "google/gemini-2.0-flash-001"),
			BaseURL:           getEnvOrDefault("VISION_BASE_URL", "https://openrouter.ai/api/v1"),
			RequestsPerMinute: getEnvIntOrDefault("VISION_REQUESTS_PER_MINUTE", 20),
		},
		Browser: BrowserConfig{
			BinPath:     os.Getenv("BROWSER_BIN"),
			IdleTimeout: getEnvDurationOrDefault("BROWSER_IDLE_TIMEOUT", 5*time.Minute),
		},
		Timeouts: TimeoutsConfig{
			SitePhase:     getEnvDurationOrDefault("SITE_PHASE_TIMEOUT", 5*time.Second),
			GenericPhase:  getEnvDurationOrDefault("GENERIC_PHASE_TIMEOUT", 6*time.Second),
			HeadlessPhase: getEnvDurationOrDefault("HEADLESS_PHASE_TIMEOUT", 30*time.Second),
			VisionPhase:   getEnvDurationOrDefault("VISION_PHASE_TIMEOUT", 8*time.Second),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			CacheTTL: getEnvDurationOrDefault("METADATA_CACHE_TTL", time.Hour),
		},
	}
}

// getEnvOrDefault gets an environment variable or returns a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
