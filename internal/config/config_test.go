package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.StoreBackend != StoreSurrealDB {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, StoreSurrealDB)
	}
	if cfg.EmbedProvider != ProviderOllama {
		t.Errorf("EmbedProvider = %q, want %q", cfg.EmbedProvider, ProviderOllama)
	}
	if cfg.EmbedModel != "all-minilm:l6-v2" {
		t.Errorf("EmbedModel = %q, want all-minilm:l6-v2", cfg.EmbedModel)
	}
	if cfg.EmbedDimension != 384 {
		t.Errorf("EmbedDimension = %d, want 384", cfg.EmbedDimension)
	}
	if cfg.TopK != 2 {
		t.Errorf("TopK = %d, want 2", cfg.TopK)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 100 {
		t.Errorf("chunking = %d/%d, want 1000/100", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.AnswerTimeout != 30*time.Second {
		t.Errorf("AnswerTimeout = %v, want 30s", cfg.AnswerTimeout)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want 8080", cfg.ServerPort)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
	if cfg.IngestOnStartup {
		t.Error("IngestOnStartup = true, want false by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PODRAG_STORE", "memory")
	t.Setenv("PODRAG_TOP_K", "5")
	t.Setenv("PODRAG_ANSWER_TIMEOUT", "10s")
	t.Setenv("PODRAG_CORS_ORIGINS", "http://localhost:3000, http://localhost:5173")
	t.Setenv("PODRAG_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.StoreBackend != StoreMemory {
		t.Errorf("StoreBackend = %q, want memory", cfg.StoreBackend)
	}
	if cfg.TopK != 5 {
		t.Errorf("TopK = %d, want 5", cfg.TopK)
	}
	if cfg.AnswerTimeout != 10*time.Second {
		t.Errorf("AnswerTimeout = %v, want 10s", cfg.AnswerTimeout)
	}
	want := []string{"http://localhost:3000", "http://localhost:5173"}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != want[0] || cfg.CORSOrigins[1] != want[1] {
		t.Errorf("CORSOrigins = %v, want %v", cfg.CORSOrigins, want)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "podrag.yaml")
	data := []byte("store_backend: memory\ntop_k: \"4\"\nembed_model: nomic-embed-text\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("PODRAG_CONFIG", path)
	// Env still wins over the file.
	t.Setenv("PODRAG_TOP_K", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.StoreBackend != StoreMemory {
		t.Errorf("StoreBackend = %q, want memory from file", cfg.StoreBackend)
	}
	if cfg.EmbedModel != "nomic-embed-text" {
		t.Errorf("EmbedModel = %q, want nomic-embed-text from file", cfg.EmbedModel)
	}
	if cfg.TopK != 7 {
		t.Errorf("TopK = %d, want 7 from env override", cfg.TopK)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad store backend", key: "PODRAG_STORE", val: "redis"},
		{name: "non-numeric top_k", key: "PODRAG_TOP_K", val: "many"},
		{name: "zero top_k", key: "PODRAG_TOP_K", val: "0"},
		{name: "bad timeout", key: "PODRAG_ANSWER_TIMEOUT", val: "soon"},
		{name: "zero dimension", key: "PODRAG_EMBED_DIMENSION", val: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load succeeded with %s=%s, want error", tt.key, tt.val)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
