package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds process-level configuration. Values come from the
// environment (optionally seeded from a .env file) and may be overridden by
// command-line flags.
type Settings struct {
	ConfigFile   string
	DataDir      string
	CacheDir     string
	CacheTTL     time.Duration
	GitHubToken  string
	GitHubAPIURL string
	LogLevel     string
	LogFormat    string
}

// LoadSettings reads settings from the environment. A .env file in the
// working directory is loaded first; variables already set take precedence.
func LoadSettings() (*Settings, error) {
	_ = godotenv.Load()

	s := &Settings{
		ConfigFile:   getEnv("SDKDOCS_CONFIG", "sdks.yaml"),
		DataDir:      getEnv("SDKDOCS_DATA_DIR", "data"),
		CacheDir:     getEnv("SDKDOCS_CACHE_DIR", "sdk_cache"),
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		GitHubAPIURL: getEnv("GITHUB_API_URL", "https://api.github.com"),
		LogLevel:     getEnv("SDKDOCS_LOG_LEVEL", "info"),
		LogFormat:    getEnv("SDKDOCS_LOG_FORMAT", "text"),
	}

	ttl, err := time.ParseDuration(getEnv("SDKDOCS_CACHE_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("SDKDOCS_CACHE_TTL must be a duration: %w", err)
	}
	if ttl < 0 {
		return nil, fmt.Errorf("SDKDOCS_CACHE_TTL must not be negative")
	}
	s.CacheTTL = ttl

	return s, nil
}

// StorageRoot returns the directory holding the fetched files of sdkID.
func (s *Settings) StorageRoot(sdkID string) string {
	return filepath.Join(s.DataDir, sdkID)
}

// CatalogPath returns the snapshot catalog database path.
func (s *Settings) CatalogPath() string {
	return filepath.Join(s.DataDir, "catalog.db")
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
