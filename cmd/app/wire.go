//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/ai-booksum/internal/bootstrap"
	"github.com/yanqian/ai-booksum/internal/domain/booksum"
	"github.com/yanqian/ai-booksum/internal/domain/crossquery"
	"github.com/yanqian/ai-booksum/internal/infra/config"
	"github.com/yanqian/ai-booksum/internal/infra/llm/ollama"
	"github.com/yanqian/ai-booksum/internal/infra/tokens"
	httpiface "github.com/yanqian/ai-booksum/internal/interface/http"
	"github.com/yanqian/ai-booksum/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideBooksumConfig,
		provideCrossQueryConfig,
		provideOllamaClient,
		provideTokenCounter,
		provideSummaryCache,
		booksum.NewService,
		crossquery.NewService,
		wire.Bind(new(booksum.Gateway), new(*ollama.Client)),
		wire.Bind(new(crossquery.Gateway), new(*ollama.Client)),
		wire.Bind(new(booksum.TokenCounter), new(*tokens.Counter)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
