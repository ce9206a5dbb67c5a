package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/ai-booksum/internal/domain/booksum"
	"github.com/yanqian/ai-booksum/internal/domain/crossquery"
	"github.com/yanqian/ai-booksum/internal/infra/chunkcache"
	"github.com/yanqian/ai-booksum/internal/infra/config"
	"github.com/yanqian/ai-booksum/internal/infra/llm/ollama"
	"github.com/yanqian/ai-booksum/internal/infra/tokens"
)

func provideBooksumConfig(cfg *config.Config) booksum.Config {
	return booksum.Config{
		Model:                cfg.LLM.Model,
		ChunkSize:            cfg.Summary.ChunkSize,
		ChunkOverlap:         cfg.Summary.ChunkOverlap,
		TargetPages:          cfg.Summary.TargetPages,
		MapWorkers:           cfg.Summary.MapWorkers,
		MaxChunkPromptTokens: cfg.Summary.MaxChunkPromptTokens,
	}
}

func provideCrossQueryConfig(cfg *config.Config) crossquery.Config {
	return crossquery.Config{
		Model:         cfg.LLM.Model,
		ExcerptBudget: cfg.CrossQuery.ExcerptBudget,
	}
}

func provideOllamaClient(cfg *config.Config) (*ollama.Client, error) {
	return ollama.NewClient(ollama.Config{
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		GenerateTimeout: cfg.LLM.GenerateTimeout,
		StatusTimeout:   cfg.LLM.StatusTimeout,
		Temperature:     cfg.LLM.Temperature,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	})
}

func provideTokenCounter(logger *slog.Logger) *tokens.Counter {
	return tokens.NewCounter(logger)
}

// provideSummaryCache prefers the persistent valkey backing when configured
// and reachable, falling back to process memory.
func provideSummaryCache(cfg *config.Config, logger *slog.Logger) booksum.SummaryCache {
	if !cfg.Cache.Valkey.Enabled {
		return chunkcache.NewMemory()
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
		return chunkcache.NewMemory()
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
		return chunkcache.NewMemory()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory cache", "error", err)
		return chunkcache.NewMemory()
	}
	logger.Info("valkey chunk cache enabled", "addr", cfg.Cache.Valkey.Addr)
	return chunkcache.NewValkey(client, cfg.Cache.Valkey.Prefix, cfg.Cache.Valkey.TTL)
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Cache.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Cache.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Cache.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
