package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/engram-ai/engram-go/pkg/memory"
	"github.com/engram-ai/engram-go/pkg/scoring"
)

// Config contains the complete configuration for an Engram store.
//
// It includes settings for:
//   - The owning agent (for persistence key namespacing)
//   - LLM provider (for entity extraction)
//   - Embedding provider (for vector generation)
//   - Storage backend (for snapshot persistence)
//   - Retrieval scoring and reinforcement learning
//
// Example:
//
//	config := &core.Config{
//	    AgentID: "assistant-1",
//	    Embedder: core.EmbedderConfig{
//	        Provider: "hash",
//	    },
//	    Storage: core.StorageConfig{
//	        Provider: "sqlite",
//	        Config: map[string]interface{}{
//	            "db_path": "./engram.db",
//	        },
//	    },
//	}
type Config struct {
	// AgentID identifies the agent that owns the store. It namespaces
	// the persistence keys so multiple agents can share a backend.
	AgentID string `json:"agent_id"`

	// LLM contains LLM provider configuration (optional; used for
	// LLM-based entity extraction).
	LLM LLMConfig `json:"llm"`

	// Embedder contains embedding provider configuration.
	Embedder EmbedderConfig `json:"embedder"`

	// Storage contains persistence backend configuration.
	Storage StorageConfig `json:"storage"`

	// LearningRate is the step size alpha for Q-value feedback updates.
	// Default: 0.1
	LearningRate float64 `json:"learning_rate,omitempty"`

	// QuantizeEmbeddings stores embeddings as 8-bit quantized vectors
	// instead of float64 slices, trading a little similarity precision
	// for a 4x memory reduction.
	QuantizeEmbeddings bool `json:"quantize_embeddings,omitempty"`

	// ScoringWeights configures the retrieval scoring signal weights.
	// Zero value uses the engine defaults.
	ScoringWeights scoring.Weights `json:"scoring_weights,omitempty"`

	// ReplayCapacity is the episodic replay buffer capacity.
	// Default: 500
	ReplayCapacity int `json:"replay_capacity,omitempty"`
}

// LLMConfig contains configuration for the LLM provider.
//
// Supported providers: openai
type LLMConfig struct {
	// Provider is the LLM provider name.
	Provider string `json:"provider"`

	// APIKey is the API key for the LLM provider.
	APIKey string `json:"api_key"`

	// Model is the model name to use (e.g., "gpt-4o-mini").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: openai, hash. The hash provider needs no network
// or credentials and is the default for on-device use.
type EmbedderConfig struct {
	// Provider is the embedding provider name (openai, hash).
	Provider string `json:"provider"`

	// APIKey is the API key for the embedding provider.
	APIKey string `json:"api_key"`

	// Model is the embedding model name (e.g., "text-embedding-ada-002").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions is the dimension of the embedding vectors.
	Dimensions int `json:"dimensions,omitempty"`
}

// StorageConfig contains configuration for the persistence backend.
//
// Supported providers: memory, sqlite, postgres, mysql
//
// Example:
//
//	storageConfig := core.StorageConfig{
//	    Provider: "sqlite",
//	    Config: map[string]interface{}{
//	        "db_path": "./engram.db",
//	    },
//	}
type StorageConfig struct {
	// Provider is the storage backend name (memory, sqlite, postgres, mysql).
	Provider string `json:"provider"`

	// Config contains provider-specific configuration.
	// For SQLite: db_path
	// For PostgreSQL: host, port, user, password, db_name, ssl_mode
	// For MySQL: host, port, user, password, db_name
	Config map[string]interface{} `json:"config"`
}

// DefaultConfig returns a configuration suitable for on-device use with no
// external services: hash embeddings, in-memory storage, default learning
// rate and replay capacity.
func DefaultConfig(agentID string) *Config {
	return &Config{
		AgentID:        agentID,
		Embedder:       EmbedderConfig{Provider: "hash"},
		Storage:        StorageConfig{Provider: "memory"},
		LearningRate:   memory.DefaultLearningRate,
		ScoringWeights: scoring.DefaultWeights(),
	}
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - ENGRAM_AGENT_ID
//   - ENGRAM_STORAGE_PROVIDER (memory, sqlite, postgres, mysql)
//   - ENGRAM_SQLITE_PATH
//   - ENGRAM_POSTGRES_HOST, ENGRAM_POSTGRES_PORT, ENGRAM_POSTGRES_USER,
//     ENGRAM_POSTGRES_PASSWORD, ENGRAM_POSTGRES_DATABASE, ENGRAM_POSTGRES_SSLMODE
//   - ENGRAM_MYSQL_HOST, ENGRAM_MYSQL_PORT, ENGRAM_MYSQL_USER,
//     ENGRAM_MYSQL_PASSWORD, ENGRAM_MYSQL_DATABASE
//   - ENGRAM_LLM_PROVIDER, ENGRAM_LLM_API_KEY, ENGRAM_LLM_MODEL, ENGRAM_LLM_BASE_URL
//   - ENGRAM_EMBEDDING_PROVIDER, ENGRAM_EMBEDDING_API_KEY, ENGRAM_EMBEDDING_MODEL
//   - ENGRAM_LEARNING_RATE, ENGRAM_QUANTIZE_EMBEDDINGS, ENGRAM_REPLAY_CAPACITY
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnv() (*Config, error) {
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	provider := getEnvOrDefault("ENGRAM_STORAGE_PROVIDER", "memory")

	storageConfig := make(map[string]interface{})
	switch provider {
	case "sqlite":
		storageConfig = map[string]interface{}{
			"db_path": getEnvOrDefault("ENGRAM_SQLITE_PATH", "./engram.db"),
		}
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("ENGRAM_POSTGRES_PORT", "5432"))
		storageConfig = map[string]interface{}{
			"host":     getEnvOrDefault("ENGRAM_POSTGRES_HOST", "localhost"),
			"port":     port,
			"user":     getEnvOrDefault("ENGRAM_POSTGRES_USER", "postgres"),
			"password": os.Getenv("ENGRAM_POSTGRES_PASSWORD"),
			"db_name":  getEnvOrDefault("ENGRAM_POSTGRES_DATABASE", "engram"),
			"ssl_mode": getEnvOrDefault("ENGRAM_POSTGRES_SSLMODE", "disable"),
		}
	case "mysql":
		port, _ := strconv.Atoi(getEnvOrDefault("ENGRAM_MYSQL_PORT", "3306"))
		storageConfig = map[string]interface{}{
			"host":     getEnvOrDefault("ENGRAM_MYSQL_HOST", "127.0.0.1"),
			"port":     port,
			"user":     getEnvOrDefault("ENGRAM_MYSQL_USER", "root"),
			"password": os.Getenv("ENGRAM_MYSQL_PASSWORD"),
			"db_name":  getEnvOrDefault("ENGRAM_MYSQL_DATABASE", "engram"),
		}
	}

	learningRate := memory.DefaultLearningRate
	if raw := os.Getenv("ENGRAM_LEARNING_RATE"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			learningRate = parsed
		}
	}

	replayCapacity := 0
	if raw := os.Getenv("ENGRAM_REPLAY_CAPACITY"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			replayCapacity = parsed
		}
	}

	embedderProvider := getEnvOrDefault("ENGRAM_EMBEDDING_PROVIDER", "hash")
	embedderDims := 0
	if raw := os.Getenv("ENGRAM_EMBEDDING_DIMENSIONS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			embedderDims = parsed
		}
	}

	config := &Config{
		AgentID: getEnvOrDefault("ENGRAM_AGENT_ID", "default"),
		LLM: LLMConfig{
			Provider: os.Getenv("ENGRAM_LLM_PROVIDER"),
			APIKey:   os.Getenv("ENGRAM_LLM_API_KEY"),
			Model:    os.Getenv("ENGRAM_LLM_MODEL"),
			BaseURL:  os.Getenv("ENGRAM_LLM_BASE_URL"),
		},
		Embedder: EmbedderConfig{
			Provider:   embedderProvider,
			APIKey:     os.Getenv("ENGRAM_EMBEDDING_API_KEY"),
			Model:      os.Getenv("ENGRAM_EMBEDDING_MODEL"),
			BaseURL:    os.Getenv("ENGRAM_EMBEDDING_BASE_URL"),
			Dimensions: embedderDims,
		},
		Storage: StorageConfig{
			Provider: provider,
			Config:   storageConfig,
		},
		LearningRate:       learningRate,
		QuantizeEmbeddings: os.Getenv("ENGRAM_QUANTIZE_EMBEDDINGS") == "true",
		ReplayCapacity:     replayCapacity,
	}

	return config, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
//
// Parameters:
//   - envPath: Path to the .env file
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
//
// Parameters:
//   - path: Path to the JSON configuration file
//
// Returns a Config instance, or an error if loading or parsing fails.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewStoreError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewStoreError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// Validate validates the configuration.
//
// Checks that all required fields are set and in range:
//   - AgentID must be non-empty
//   - Embedder provider must be specified
//   - Storage provider must be specified
//   - LearningRate, if set, must be in (0,1]
//
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.AgentID == "" {
		return NewStoreError("Validate", ErrInvalidConfig)
	}
	if c.Embedder.Provider == "" {
		return NewStoreError("Validate", ErrInvalidConfig)
	}
	if c.Storage.Provider == "" {
		return NewStoreError("Validate", ErrInvalidConfig)
	}
	if c.LearningRate < 0 || c.LearningRate > 1 {
		return NewStoreError("Validate", ErrInvalidConfig)
	}
	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
//
// Returns:
//   - path: Path to the found file (empty if not found)
//   - found: True if a file was found, false otherwise
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
