package core

import (
	"fmt"

	"github.com/engram-ai/engram-go/pkg/embedder"
	embedderopenai "github.com/engram-ai/engram-go/pkg/embedder/openai"
	"github.com/engram-ai/engram-go/pkg/extraction"
	llmopenai "github.com/engram-ai/engram-go/pkg/llm/openai"
	"github.com/engram-ai/engram-go/pkg/storage"
	"github.com/engram-ai/engram-go/pkg/storage/mysql"
	"github.com/engram-ai/engram-go/pkg/storage/postgres"
	"github.com/engram-ai/engram-go/pkg/storage/sqlite"
)

// newEmbedderProvider creates the embedding provider named by the config.
func newEmbedderProvider(cfg EmbedderConfig) (embedder.Provider, error) {
	switch cfg.Provider {
	case "", "hash":
		if cfg.Dimensions > 0 {
			return embedder.NewHashProviderWithDimensions(cfg.Dimensions), nil
		}
		return embedder.NewHashProvider(), nil
	case "openai":
		return embedderopenai.NewClient(&embedderopenai.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	default:
		return nil, fmt.Errorf("%w: unsupported embedder provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

// newSecureStore creates the persistence backend named by the config.
func newSecureStore(cfg StorageConfig) (storage.SecureStore, error) {
	switch cfg.Provider {
	case "", "memory":
		return storage.NewMemoryStore(), nil
	case "sqlite":
		return sqlite.NewStore(&sqlite.Config{
			DBPath: configString(cfg.Config, "db_path", "./engram.db"),
		})
	case "postgres":
		return postgres.NewStore(&postgres.Config{
			Host:     configString(cfg.Config, "host", "localhost"),
			Port:     configInt(cfg.Config, "port", 5432),
			User:     configString(cfg.Config, "user", "postgres"),
			Password: configString(cfg.Config, "password", ""),
			DBName:   configString(cfg.Config, "db_name", "engram"),
			SSLMode:  configString(cfg.Config, "ssl_mode", "disable"),
		})
	case "mysql":
		return mysql.NewStore(&mysql.Config{
			Host:     configString(cfg.Config, "host", "127.0.0.1"),
			Port:     configInt(cfg.Config, "port", 3306),
			User:     configString(cfg.Config, "user", "root"),
			Password: configString(cfg.Config, "password", ""),
			DBName:   configString(cfg.Config, "db_name", "engram"),
		})
	default:
		return nil, fmt.Errorf("%w: unsupported storage provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

// newExtractor creates the entity extractor. An LLM-backed extractor is
// used when LLM credentials are configured, the rule-based extractor
// otherwise.
func newExtractor(cfg LLMConfig) (extraction.Extractor, error) {
	if cfg.Provider == "" {
		return extraction.NewRuleBased(), nil
	}
	switch cfg.Provider {
	case "openai":
		client, err := llmopenai.NewClient(&llmopenai.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return extraction.NewLLMExtractor(client), nil
	default:
		return nil, fmt.Errorf("%w: unsupported llm provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

// configString reads a string value from a provider config map.
func configString(config map[string]interface{}, key, defaultValue string) string {
	if config == nil {
		return defaultValue
	}
	if value, ok := config[key].(string); ok && value != "" {
		return value
	}
	return defaultValue
}

// configInt reads an integer value from a provider config map. JSON
// decoding produces float64, so both numeric forms are accepted.
func configInt(config map[string]interface{}, key string, defaultValue int) int {
	if config == nil {
		return defaultValue
	}
	switch value := config[key].(type) {
	case int:
		return value
	case float64:
		return int(value)
	default:
		return defaultValue
	}
}
