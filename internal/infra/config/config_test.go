package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
	require.Equal(t, "llama3.1:70b-instruct-q4_K_M", cfg.LLM.Model)
	require.Equal(t, 5*time.Minute, cfg.LLM.GenerateTimeout)
	require.Equal(t, 5*time.Second, cfg.LLM.StatusTimeout)
	require.Equal(t, 6000, cfg.Summary.ChunkSize)
	require.Equal(t, 500, cfg.Summary.ChunkOverlap)
	require.Equal(t, 15, cfg.Summary.TargetPages)
	require.Equal(t, 4, cfg.Summary.MapWorkers)
	require.Equal(t, 4000, cfg.CrossQuery.ExcerptBudget)
	require.False(t, cfg.Cache.Valkey.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := `
http:
  address: ":9090"
llm:
  model: "mistral:7b"
summary:
  chunkSize: 4000
  chunkOverlap: 200
cache:
  valkey:
    enabled: true
    addr: "localhost:6379"
`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, "mistral:7b", cfg.LLM.Model)
	require.Equal(t, 4000, cfg.Summary.ChunkSize)
	require.Equal(t, 200, cfg.Summary.ChunkOverlap)
	require.True(t, cfg.Cache.Valkey.Enabled)
	require.Equal(t, "localhost:6379", cfg.Cache.Valkey.Addr)
	// untouched keys keep their defaults
	require.Equal(t, 15, cfg.Summary.TargetPages)
}

func TestEnvOverridesBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: \"from-file\"\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("OLLAMA_MODEL", "from-env")
	t.Setenv("BOOKSUM_CHUNK_SIZE", "3000")
	t.Setenv("BOOKSUM_MAP_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "from-env", cfg.LLM.Model)
	require.Equal(t, 3000, cfg.Summary.ChunkSize)
	require.Equal(t, 8, cfg.Summary.MapWorkers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"empty address", func(cfg *Config) { cfg.HTTP.Address = " " }},
		{"empty model", func(cfg *Config) { cfg.LLM.Model = "" }},
		{"zero chunk size", func(cfg *Config) { cfg.Summary.ChunkSize = 0 }},
		{"negative overlap", func(cfg *Config) { cfg.Summary.ChunkOverlap = -1 }},
		{"overlap too large", func(cfg *Config) { cfg.Summary.ChunkOverlap = cfg.Summary.ChunkSize }},
		{"status timeout too long", func(cfg *Config) { cfg.LLM.StatusTimeout = cfg.LLM.GenerateTimeout }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			require.NoError(t, cfg.Validate())
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
