// Package config loads environment configuration for flipscan.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	AppName     = "flipscan"
	EnvFileName = "config.env"
)

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// Config carries every credential and endpoint the pipeline's providers and
// evidence sources need. Empty values mean the corresponding provider or
// source is absent, which the pipeline handles by skipping it.
type Config struct {
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	MarketBaseURL      string
	MarketClientID     string
	MarketClientSecret string

	AuthorityEndpoints map[string]string

	WebSearchBaseURL string
	WebSearchAPIKey  string

	DBPath string
}

// FromEnv reads configuration from the environment.
func FromEnv() Config {
	cfg := Config{
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),

		MarketBaseURL:      os.Getenv("MARKET_API_BASE_URL"),
		MarketClientID:     os.Getenv("MARKET_CLIENT_ID"),
		MarketClientSecret: os.Getenv("MARKET_CLIENT_SECRET"),

		WebSearchBaseURL: os.Getenv("PRICE_SEARCH_BASE_URL"),
		WebSearchAPIKey:  os.Getenv("PRICE_SEARCH_API_KEY"),

		AuthorityEndpoints: parseAuthorityEndpoints(os.Getenv("AUTHORITY_ENDPOINTS")),

		DBPath: os.Getenv("FLIPSCAN_DB_PATH"),
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "benchmarks.db"
	}
	return cfg
}

// parseAuthorityEndpoints parses "category=url,category=url" into a map.
func parseAuthorityEndpoints(s string) map[string]string {
	endpoints := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" || v == "" {
			continue
		}
		endpoints[strings.ToLower(k)] = v
	}
	return endpoints
}
