// Package config provides configuration loading and validation for the intake service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Log modes
const (
	LogModeDevelopment = "development"
	LogModeProduction  = "production"
)

// maxMinQuestions mirrors the question queue bound
const maxMinQuestions = 5

// Config represents the service configuration. It can be loaded from a JSON file, from the
// environment, or both; values from the first source win and the rest are filled by merging.
type Config struct {
	// Transport
	Port        int      `json:"port,omitempty"`         // HTTP listen port
	CORSOrigins []string `json:"cors_origins,omitempty"` // Allowed CORS origins ("*" for any)

	// Persistence
	StoreBackend string `json:"store_backend,omitempty"` // memory, postgres, or redis
	DatabaseURL  string `json:"database_url,omitempty"`  // PostgreSQL connection URL
	RedisURL     string `json:"redis_url,omitempty"`     // redis:// connection URL

	// Language model
	APIKey       string `json:"api_key,omitempty"`       // Gemini API key
	LLMTimeout   string `json:"llm_timeout,omitempty"`   // Per-call timeout, e.g. "30s"
	MinQuestions *int   `json:"min_questions,omitempty"` // Template top-up floor for the question queue

	// Behavior
	LogMode string `json:"log_mode,omitempty"` // development or production
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	minQuestions := 3
	return Config{
		Port:         8080,
		CORSOrigins:  []string{"*"},
		StoreBackend: BackendMemory,
		LLMTimeout:   "30s",
		MinQuestions: &minQuestions,
		LogMode:      LogModeProduction,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables. Unset variables leave fields empty.
func FromEnv() (*Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := &Config{
		StoreBackend: strings.ToLower(get("STORE_BACKEND")),
		DatabaseURL:  get("DATABASE_URL"),
		RedisURL:     get("REDIS_URL"),
		APIKey:       get("GEMINI_API_KEY"),
		LLMTimeout:   get("LLM_TIMEOUT"),
		LogMode:      strings.ToLower(get("LOG_MODE")),
	}

	if v := get("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config error: PORT must be an integer: %w", err)
		}
		cfg.Port = port
	}
	if v := get("MIN_QUESTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config error: MIN_QUESTIONS must be an integer: %w", err)
		}
		cfg.MinQuestions = &n
	}
	if v := get("CORS_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	return cfg, nil
}

// Validate checks that the configuration has valid values.
// The API key is not required here; commands that call the language model check it.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535")
	}

	switch c.StoreBackend {
	case "", BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres store")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config error: 'redis_url' is required for the redis store")
		}
	default:
		return fmt.Errorf("config error: unknown 'store_backend' %q (want memory, postgres, or redis)", c.StoreBackend)
	}

	if c.LLMTimeout != "" {
		d, err := time.ParseDuration(c.LLMTimeout)
		if err != nil {
			return fmt.Errorf("config error: invalid 'llm_timeout': %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("config error: 'llm_timeout' must be positive")
		}
	}

	if c.MinQuestions != nil && (*c.MinQuestions < 0 || *c.MinQuestions > maxMinQuestions) {
		return fmt.Errorf("config error: 'min_questions' must be between 0 and %d", maxMinQuestions)
	}

	switch c.LogMode {
	case "", LogModeDevelopment, LogModeProduction:
	default:
		return fmt.Errorf("config error: unknown 'log_mode' %q", c.LogMode)
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to layer the config file over the environment over Defaults().
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.StoreBackend == "" {
		result.StoreBackend = defaults.StoreBackend
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.LLMTimeout == "" {
		result.LLMTimeout = defaults.LLMTimeout
	}
	if result.LogMode == "" {
		result.LogMode = defaults.LogMode
	}

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.MinQuestions == nil && defaults.MinQuestions != nil {
		n := *defaults.MinQuestions
		result.MinQuestions = &n
	}

	if len(result.CORSOrigins) == 0 {
		result.CORSOrigins = append([]string(nil), defaults.CORSOrigins...)
	}

	return result
}

// Timeout returns the parsed LLM timeout, or zero when unset or invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.LLMTimeout)
	if err != nil {
		return 0
	}
	return d
}

// MinQuestionCount returns the configured floor, or -1 when unset.
func (c *Config) MinQuestionCount() int {
	if c.MinQuestions == nil {
		return -1
	}
	return *c.MinQuestions
}
