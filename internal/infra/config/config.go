package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	LLM        LLMConfig        `yaml:"llm"`
	Summary    SummaryConfig    `yaml:"summary"`
	Cache      CacheConfig      `yaml:"cache"`
	CrossQuery CrossQueryConfig `yaml:"crossQuery"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string        `yaml:"address"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
}

// LLMConfig contains connection settings for the local Ollama backend.
type LLMConfig struct {
	BaseURL         string        `yaml:"baseUrl"`
	Model           string        `yaml:"model"`
	GenerateTimeout time.Duration `yaml:"generateTimeout"`
	StatusTimeout   time.Duration `yaml:"statusTimeout"`
	Temperature     float64       `yaml:"temperature"`
	MaxOutputTokens int           `yaml:"maxOutputTokens"`
}

// SummaryConfig tunes the condensation pipeline.
type SummaryConfig struct {
	ChunkSize            int `yaml:"chunkSize"`
	ChunkOverlap         int `yaml:"chunkOverlap"`
	TargetPages          int `yaml:"targetPages"`
	MapWorkers           int `yaml:"mapWorkers"`
	MaxChunkPromptTokens int `yaml:"maxChunkPromptTokens"`
}

// CacheConfig selects the chunk summary cache backing.
type CacheConfig struct {
	Valkey ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig contains connection information for the persistent cache.
type ValkeyConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	Prefix  string        `yaml:"prefix"`
	TTL     time.Duration `yaml:"ttl"`
}

// CrossQueryConfig controls the cross-document query engine.
type CrossQueryConfig struct {
	ExcerptBudget int `yaml:"excerptBudget"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("OLLAMA_GENERATE_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.LLM.GenerateTimeout = parsed
		}
	}
	if v := os.Getenv("OLLAMA_STATUS_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.LLM.StatusTimeout = parsed
		}
	}
	if v := os.Getenv("OLLAMA_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.LLM.Temperature = parsed
		}
	}
	if v := os.Getenv("OLLAMA_MAX_OUTPUT_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.LLM.MaxOutputTokens = parsed
		}
	}
	if v := os.Getenv("BOOKSUM_CHUNK_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summary.ChunkSize = parsed
		}
	}
	if v := os.Getenv("BOOKSUM_CHUNK_OVERLAP"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summary.ChunkOverlap = parsed
		}
	}
	if v := os.Getenv("BOOKSUM_TARGET_PAGES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summary.TargetPages = parsed
		}
	}
	if v := os.Getenv("BOOKSUM_MAP_WORKERS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summary.MapWorkers = parsed
		}
	}
	if v := os.Getenv("BOOKSUM_MAX_CHUNK_PROMPT_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summary.MaxChunkPromptTokens = parsed
		}
	}
	if v := os.Getenv("BOOKSUM_CACHE_VALKEY_ENABLED"); v != "" {
		cfg.Cache.Valkey.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("BOOKSUM_CACHE_VALKEY_ADDR"); v != "" {
		cfg.Cache.Valkey.Addr = v
	}
	if v := os.Getenv("BOOKSUM_CACHE_VALKEY_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Cache.Valkey.TTL = parsed
		}
	}
	if v := os.Getenv("CROSSQUERY_EXCERPT_BUDGET"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.CrossQuery.ExcerptBudget = parsed
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 15 * time.Minute,
		},
		LLM: LLMConfig{
			BaseURL:         "http://localhost:11434",
			Model:           "llama3.1:70b-instruct-q4_K_M",
			GenerateTimeout: 5 * time.Minute,
			StatusTimeout:   5 * time.Second,
			Temperature:     0.3,
			MaxOutputTokens: 4096,
		},
		Summary: SummaryConfig{
			ChunkSize:            6000,
			ChunkOverlap:         500,
			TargetPages:          15,
			MapWorkers:           4,
			MaxChunkPromptTokens: 2048,
		},
		Cache: CacheConfig{
			Valkey: ValkeyConfig{
				Prefix: "booksum:chunk",
				TTL:    24 * time.Hour,
			},
		},
		CrossQuery: CrossQueryConfig{
			ExcerptBudget: 4000,
		},
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Address) == "" {
		return errors.New("http address cannot be empty")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm model cannot be empty")
	}
	if c.Summary.ChunkSize <= 0 {
		return errors.New("summary chunk size must be positive")
	}
	if c.Summary.ChunkOverlap < 0 {
		return errors.New("summary chunk overlap cannot be negative")
	}
	if c.Summary.ChunkOverlap >= c.Summary.ChunkSize {
		return errors.New("summary chunk overlap must be smaller than chunk size")
	}
	if c.LLM.StatusTimeout >= c.LLM.GenerateTimeout {
		return errors.New("llm status timeout must be shorter than generate timeout")
	}
	return nil
}
