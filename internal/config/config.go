// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override, DATABASE_URL above all)
//  2. Config file (./skymessage.yaml or ~/.skymessage/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, chat model, embedder model, temperatures
//   - Storage: PostgreSQL connection (see storage.go)
//   - Retrieval: vector namespace, top-k, context limits
//   - Server: listen address, CORS origins
//
// Sensitive data (passwords, API keys) is never logged; MarshalJSON masks it.
// Validation uses sentinel errors checkable with errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the chat model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidTemperature indicates a temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top-k")

	// ErrInvalidNamespace indicates the vector namespace is empty.
	ErrInvalidNamespace = errors.New("invalid vector namespace")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidListenAddr indicates the HTTP listen address is invalid.
	ErrInvalidListenAddr = errors.New("invalid listen address")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderOpenAI   = "openai"
	ProviderGoogleAI = "googleai"
)

const (
	// DefaultEmbedderModel produces 1536-dimension vectors, matching the
	// saint_chunks pgvector column.
	DefaultEmbedderModel = "text-embedding-3-small"

	// DefaultChatModel answers persona queries.
	DefaultChatModel = "gpt-4o-mini"

	// DefaultNamespace partitions saint chunks in the vector store.
	DefaultNamespace = "saints-v1"

	// DefaultTopK is the number of chunks retrieved per query.
	DefaultTopK = 12
)

// Config stores application configuration.
// Sensitive fields are explicitly masked in MarshalJSON(); when adding
// new secrets, update that method.
type Config struct {
	// AI provider and model configuration
	Provider         string  `mapstructure:"provider" json:"provider"` // "openai" (default) or "googleai"
	ModelName        string  `mapstructure:"model_name" json:"model_name"`
	EmbedderModel    string  `mapstructure:"embedder_model" json:"embedder_model"`
	Temperature      float32 `mapstructure:"temperature" json:"temperature"`             // standard persona answers
	StoryTemperature float32 `mapstructure:"story_temperature" json:"story_temperature"` // emoji-story mode

	// Retrieval configuration
	Namespace      string `mapstructure:"namespace" json:"namespace"`
	TopK           int    `mapstructure:"top_k" json:"top_k"`
	MaxQueryChars  int    `mapstructure:"max_query_chars" json:"max_query_chars"`
	SourceCount    int    `mapstructure:"source_count" json:"source_count"`
	EmbedRateLimit int    `mapstructure:"embed_rate_limit" json:"embed_rate_limit"` // requests/sec, 0 disables

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Server configuration
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`

	// Logging configuration
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
	LogLevel string `mapstructure:"log_level" json:"log_level"`

	// Tracing configuration (optional; empty endpoint disables)
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".skymessage")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env carry the load.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL takes priority over individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("provider", ProviderOpenAI)
	v.SetDefault("model_name", DefaultChatModel)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("temperature", 0.3)
	v.SetDefault("story_temperature", 0.7)

	// Retrieval defaults
	v.SetDefault("namespace", DefaultNamespace)
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("max_query_chars", 8000)
	v.SetDefault("source_count", 4)
	v.SetDefault("embed_rate_limit", 10)

	// PostgreSQL defaults (matching docker-compose.yml)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "skymessage")
	v.SetDefault("postgres_password", "skymessage_dev_password")
	v.SetDefault("postgres_db_name", "skymessage")
	v.SetDefault("postgres_ssl_mode", "disable")

	// Server defaults
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("log_json", false)
	v.SetDefault("log_level", "info")
}

// bindEnvVariables binds environment overrides explicitly.
//
// API keys are NOT bound here: OPENAI_API_KEY and GEMINI_API_KEY are read
// directly by the Genkit plugins. Validate() only checks presence for the
// selected provider.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "SKYMESSAGE_PROVIDER")
	mustBind("model_name", "SKYMESSAGE_MODEL_NAME")
	mustBind("embedder_model", "SKYMESSAGE_EMBEDDER_MODEL")
	mustBind("namespace", "SKYMESSAGE_NAMESPACE")
	mustBind("listen_addr", "SKYMESSAGE_LISTEN_ADDR")
	mustBind("cors_origins", "SKYMESSAGE_CORS_ORIGINS")
	mustBind("log_json", "SKYMESSAGE_LOG_JSON")
	mustBind("log_level", "SKYMESSAGE_LOG_LEVEL")
	mustBind("otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks avoid substring matching against real secret bytes.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 bytes
// or fewer are fully masked; longer ones keep the first and last two
// characters for debug utility.
//
// This defends against accidental logging of real secrets, nothing more.
// If logs are compromised, rotate the secrets.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field
// masking. When adding new secrets, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified chat model name for
// Genkit, e.g. "openai/gpt-4o-mini" or "googleai/gemini-2.5-flash".
// A name already containing "/" is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	return c.Provider + "/" + c.ModelName
}

// FullEmbedderName returns the provider-qualified embedder name.
func (c *Config) FullEmbedderName() string {
	if strings.Contains(c.EmbedderModel, "/") {
		return c.EmbedderModel
	}
	return c.Provider + "/" + c.EmbedderModel
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
