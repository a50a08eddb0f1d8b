// Package config loads settings from the environment, with an optional
// YAML file layered underneath. Precedence: environment variable, then
// config file, then built-in default.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider identifies an LLM or embedding backend.
type Provider string

const (
	ProviderOllama  Provider = "ollama"
	ProviderOpenAI  Provider = "openai"
	ProviderBedrock Provider = "bedrock"
)

// Store backends.
const (
	StoreSurrealDB = "surrealdb"
	StoreMemory    = "memory"
)

// Config holds all configuration values.
type Config struct {
	// Vector store
	StoreBackend       string
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Embedding
	EmbedProvider  Provider
	EmbedModel     string
	EmbedDimension int

	// Completion
	LLMProvider Provider
	LLMModel    string

	// Provider credentials and endpoints
	OllamaHost   string
	OpenAIAPIKey string

	// Retrieval
	TopK          int
	AnswerTimeout time.Duration

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Corpus locations
	TranscriptsDir string
	MetadataPath   string

	// HTTP server
	ServerPort      int
	CORSOrigins     []string
	IngestOnStartup bool

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig mirrors the optional YAML config file. All fields are
// strings so absence is distinguishable from a zero value.
type fileConfig struct {
	StoreBackend       string `yaml:"store_backend"`
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`
	EmbedProvider      string `yaml:"embed_provider"`
	EmbedModel         string `yaml:"embed_model"`
	EmbedDimension     string `yaml:"embed_dimension"`
	LLMProvider        string `yaml:"llm_provider"`
	LLMModel           string `yaml:"llm_model"`
	OllamaHost         string `yaml:"ollama_host"`
	TopK               string `yaml:"top_k"`
	AnswerTimeout      string `yaml:"answer_timeout"`
	ChunkSize          string `yaml:"chunk_size"`
	ChunkOverlap       string `yaml:"chunk_overlap"`
	TranscriptsDir     string `yaml:"transcripts_dir"`
	MetadataPath       string `yaml:"metadata_path"`
	ServerPort         string `yaml:"server_port"`
	CORSOrigins        string `yaml:"cors_origins"`
	IngestOnStartup    string `yaml:"ingest_on_startup"`
	LogFile            string `yaml:"log_file"`
	LogLevel           string `yaml:"log_level"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present, and PODRAG_CONFIG may
// point at a YAML file whose values sit between env and defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	var file fileConfig
	if path := os.Getenv("PODRAG_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	lookup := func(key, fileVal, def string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		if fileVal != "" {
			return fileVal
		}
		return def
	}

	cfg := Config{
		StoreBackend:       lookup("PODRAG_STORE", file.StoreBackend, StoreSurrealDB),
		SurrealDBURL:       lookup("SURREALDB_URL", file.SurrealDBURL, "ws://localhost:8000/rpc"),
		SurrealDBNamespace: lookup("SURREALDB_NAMESPACE", file.SurrealDBNamespace, "podrag"),
		SurrealDBDatabase:  lookup("SURREALDB_DATABASE", file.SurrealDBDatabase, "transcripts"),
		SurrealDBUser:      lookup("SURREALDB_USER", file.SurrealDBUser, "root"),
		SurrealDBPass:      lookup("SURREALDB_PASS", file.SurrealDBPass, "root"),
		SurrealDBAuthLevel: lookup("SURREALDB_AUTH_LEVEL", file.SurrealDBAuthLevel, "root"),

		EmbedProvider: Provider(lookup("PODRAG_EMBED_PROVIDER", file.EmbedProvider, string(ProviderOllama))),
		EmbedModel:    lookup("PODRAG_EMBED_MODEL", file.EmbedModel, "all-minilm:l6-v2"),

		LLMProvider: Provider(lookup("PODRAG_LLM_PROVIDER", file.LLMProvider, string(ProviderOllama))),
		LLMModel:    lookup("PODRAG_LLM_MODEL", file.LLMModel, "llama3.2"),

		OllamaHost:   lookup("OLLAMA_HOST", file.OllamaHost, "http://localhost:11434"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),

		TranscriptsDir: lookup("PODRAG_TRANSCRIPTS_DIR", file.TranscriptsDir, "data/transcripts"),
		MetadataPath:   lookup("PODRAG_METADATA_PATH", file.MetadataPath, "data/metadata.json"),

		LogFile:  lookup("PODRAG_LOG_FILE", file.LogFile, ""),
		LogLevel: parseLogLevel(lookup("PODRAG_LOG_LEVEL", file.LogLevel, "INFO")),
	}

	var err error
	if cfg.EmbedDimension, err = parseInt("PODRAG_EMBED_DIMENSION", lookup("PODRAG_EMBED_DIMENSION", file.EmbedDimension, "384")); err != nil {
		return Config{}, err
	}
	if cfg.TopK, err = parseInt("PODRAG_TOP_K", lookup("PODRAG_TOP_K", file.TopK, "2")); err != nil {
		return Config{}, err
	}
	if cfg.ChunkSize, err = parseInt("PODRAG_CHUNK_SIZE", lookup("PODRAG_CHUNK_SIZE", file.ChunkSize, "1000")); err != nil {
		return Config{}, err
	}
	if cfg.ChunkOverlap, err = parseInt("PODRAG_CHUNK_OVERLAP", lookup("PODRAG_CHUNK_OVERLAP", file.ChunkOverlap, "100")); err != nil {
		return Config{}, err
	}
	if cfg.ServerPort, err = parseInt("PODRAG_SERVER_PORT", lookup("PODRAG_SERVER_PORT", file.ServerPort, "8080")); err != nil {
		return Config{}, err
	}

	timeoutStr := lookup("PODRAG_ANSWER_TIMEOUT", file.AnswerTimeout, "30s")
	if cfg.AnswerTimeout, err = time.ParseDuration(timeoutStr); err != nil {
		return Config{}, fmt.Errorf("PODRAG_ANSWER_TIMEOUT: %w", err)
	}

	origins := lookup("PODRAG_CORS_ORIGINS", file.CORSOrigins, "*")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	cfg.IngestOnStartup = lookup("PODRAG_INGEST_ON_STARTUP", file.IngestOnStartup, "false") == "true"

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.StoreBackend {
	case StoreSurrealDB, StoreMemory:
	default:
		return fmt.Errorf("unknown store backend: %s", c.StoreBackend)
	}
	if c.EmbedDimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbedDimension)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	return nil
}

func parseInt(key, val string) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
