package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/loci/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	PlacesAPI   PlacesAPIConfig `toml:"places_api"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	WebSearch   WebSearchConfig `toml:"websearch"`
	Fetcher     FetcherConfig   `toml:"fetcher"`
	Ingest      IngestConfig    `toml:"ingest"`
	Agent       AgentConfig     `toml:"agent"`
	Reconcile   ReconcileConfig `toml:"reconcile"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// PlacesAPIConfig contains Google Places API (v1) configuration
type PlacesAPIConfig struct {
	APIKey         string        `toml:"api_key"`          // Google Places API key
	RateLimit      time.Duration `toml:"rate_limit"`       // Minimum time between API requests
	RequestTimeout time.Duration `toml:"request_timeout"`  // HTTP request timeout
	NearbyBudget   int           `toml:"nearby_budget"`    // Total result budget split across nearby type queries
	TextSearchCap  int           `toml:"text_search_cap"`  // Hard cap on paginated text search results
	DefaultRadius  int           `toml:"default_radius_m"` // Default search radius in meters
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for completion operations
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string
	Temperature float32 `toml:"temperature"` // Completion temperature
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for completion operations
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string
	Temperature float32 `toml:"temperature"` // Completion temperature
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains provider selection for completion oracles
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// WebSearchConfig contains configuration for the web search oracle
type WebSearchConfig struct {
	Model      string `toml:"model"`       // Gemini model used for GoogleSearch-grounded queries
	MaxResults int    `toml:"max_results"` // Maximum sources returned per search
}

// FetcherConfig contains configuration for the page content fetcher
type FetcherConfig struct {
	UserAgent      string        `toml:"user_agent"`      // User agent for outbound fetches
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
	MaxBodySize    int64         `toml:"max_body_size"`   // Maximum response body size in bytes
	TokenBudget    int           `toml:"token_budget"`    // Whitespace-token cap on cleaned content
	RequestDelay   time.Duration `toml:"request_delay"`   // Minimum delay between outbound fetches
}

// IngestConfig contains configuration for takeout ingestion
type IngestConfig struct {
	ArchivePrefix string  `toml:"archive_prefix"` // Path prefix for CSV members inside takeout archives
	WorkerFactor  float64 `toml:"worker_factor"`  // Worker pool size = factor * NumCPU
}

// AgentConfig contains configuration for the fact-generation loop
type AgentConfig struct {
	MaxIterations int           `toml:"max_iterations"` // Augmentation iteration limit
	CallDelay     time.Duration `toml:"call_delay"`     // Politeness delay between oracle/search calls
	SampleLimit   int           `toml:"sample_limit"`   // Saved-place sample size in context bundles
}

// ReconcileConfig contains configuration for the duplicate reconciliation pass
type ReconcileConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in loci.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		PlacesAPI: PlacesAPIConfig{
			APIKey:         "", // User must provide API key in config file
			RateLimit:      500 * time.Millisecond,
			RequestTimeout: 30 * time.Second,
			NearbyBudget:   12, // Split across type queries to maximize category diversity
			TextSearchCap:  60, // Places API pagination ceiling
			DefaultRadius:  5000,
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Timeout:     "5m",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "5m",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		WebSearch: WebSearchConfig{
			Model:      "gemini-3-flash-preview",
			MaxResults: 5,
		},
		Fetcher: FetcherConfig{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout: 30 * time.Second,
			MaxBodySize:    10 * 1024 * 1024, // 10MB
			TokenBudget:    500,
			RequestDelay:   500 * time.Millisecond,
		},
		Ingest: IngestConfig{
			ArchivePrefix: "Takeout/Saved/",
			WorkerFactor:  1.5,
		},
		Agent: AgentConfig{
			MaxIterations: 3,
			CallDelay:     600 * time.Millisecond,
			SampleLimit:   20,
		},
		Reconcile: ReconcileConfig{
			Enabled:  true,
			Schedule: "0 0 * * * *", // Hourly
		},
	}
}

// LoadFromFile loads configuration from a TOML file, starting from defaults.
// Environment variables override file values.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies LOCI_* environment variable overrides
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("LOCI_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("LOCI_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("LOCI_STORAGE_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("LOCI_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("LOCI_PLACES_API_KEY"); v != "" {
		config.PlacesAPI.APIKey = v
	}
	if v := os.Getenv("LOCI_GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("LOCI_CLAUDE_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("LOCI_LLM_PROVIDER"); v != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(v))
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves an API key by name with priority:
// environment variable, KV store, config fallback.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"places_api_key":    {"LOCI_PLACES_API_KEY", "GOOGLE_PLACES_API_KEY"},
		"gemini_api_key":    {"LOCI_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"anthropic_api_key": {"LOCI_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
