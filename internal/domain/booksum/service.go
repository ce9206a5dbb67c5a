package booksum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/ai-booksum/pkg/errors"
	"github.com/yanqian/ai-booksum/pkg/metrics"
)

// Service exposes the book condensation pipeline.
type Service interface {
	// SummarizeBook runs the full pipeline and always returns a populated
	// Result: a complete document on success, an error code and message on
	// failure. It never panics and never returns a partial summary.
	SummarizeBook(ctx context.Context, req Request) Result
	// Status re-checks backend reachability and model presence.
	Status(ctx context.Context) BackendStatus
}

type service struct {
	cfg     Config
	gateway Gateway
	chunker *Chunker
	chunks  *ChunkSummarizer
	synth   *Synthesizer
	tokens  TokenCounter
	logger  *slog.Logger
}

// NewService builds the pipeline with the default structural splitter.
func NewService(cfg Config, gateway Gateway, cache SummaryCache, tokens TokenCounter, logger *slog.Logger) Service {
	cfg = withDefaults(cfg)
	return NewServiceWithChunker(cfg, NewChunker(cfg.ChunkSize, cfg.ChunkOverlap, nil), gateway, cache, tokens, logger)
}

// NewServiceWithChunker lets callers substitute a chunker, e.g. one with a
// different StructuralSplitter.
func NewServiceWithChunker(cfg Config, chunker *Chunker, gateway Gateway, cache SummaryCache, tokens TokenCounter, logger *slog.Logger) Service {
	cfg = withDefaults(cfg)
	return &service{
		cfg:     cfg,
		gateway: gateway,
		chunker: chunker,
		chunks:  NewChunkSummarizer(gateway, cache, tokens, cfg.MaxChunkPromptTokens, logger),
		synth:   NewSynthesizer(gateway),
		tokens:  tokens,
		logger:  logger.With("component", "booksum.service"),
	}
}

func withDefaults(cfg Config) Config {
	if cfg.Model == "" {
		cfg.Model = "llama3.1:70b-instruct-q4_K_M"
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 6000
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = 500
	}
	if cfg.TargetPages <= 0 {
		cfg.TargetPages = 15
	}
	if cfg.MapWorkers <= 0 {
		cfg.MapWorkers = 4
	}
	return cfg
}

func (s *service) Status(ctx context.Context) BackendStatus {
	return s.gateway.Status(ctx, s.cfg.Model)
}

func (s *service) SummarizeBook(ctx context.Context, req Request) Result {
	model := req.Model
	if model == "" {
		model = s.cfg.Model
	}
	log := s.logger.With("run_id", uuid.NewString(), "title", req.Title, "model", model)

	if strings.TrimSpace(req.Text) == "" {
		return failure(model, CodeInvalidInput, "book text cannot be empty")
	}

	// hard gate: never start map-phase work against an unconfirmed backend
	status := s.gateway.Status(ctx, model)
	if !status.Online {
		return failure(model, CodeBackendUnreachable, fmt.Sprintf("backend offline: %s", status.ErrorMessage))
	}
	if !status.ModelAvailable {
		return failure(model, CodeModelUnavailable,
			fmt.Sprintf("model %q not found; available: [%s]", model, strings.Join(status.AvailableModels, ", ")))
	}

	chunks := s.chunker.Chunk(req.Text)
	if len(chunks) == 0 {
		return failure(model, CodeInvalidInput, "chunking produced no content")
	}
	log.Info("document chunked", "chunks", len(chunks), "chars", len(req.Text))

	summaries, err := s.mapChunks(ctx, model, chunks)
	if err != nil {
		log.Warn("map phase aborted", "error", err)
		return failureErr(model, err)
	}

	targetPages := req.TargetPages
	if targetPages <= 0 {
		targetPages = s.cfg.TargetPages
	}
	body, err := s.synth.Synthesize(ctx, model, chunks, summaries, req.Title, req.Author, targetPages)
	if err != nil {
		if cancelled(ctx, err) {
			return failureErr(model, apperrors.Wrap(CodeCancelled, "run cancelled", err))
		}
		log.Warn("synthesis failed", "error", err)
		return failureErr(model, apperrors.Wrap(CodeSynthesisFailed, "synthesis call failed", err))
	}

	citation := req.Citation
	if citation == "" {
		citation = fmt.Sprintf("%s. %s.", req.Author, req.Title)
	}
	doc := fmt.Sprintf(documentTemplate,
		"Summary: "+req.Title,
		req.Title,
		req.Author,
		citation,
		model,
		body,
		citation,
		model,
		metrics.PageEstimate(len(req.Text)),
		metrics.PageEstimate(len(body)),
	)

	var usage *metrics.TokenUsage
	if s.tokens != nil {
		usage = &metrics.TokenUsage{
			PromptTokens:     s.tokens.Count(req.Text),
			CompletionTokens: s.tokens.Count(body),
		}
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		log = log.With("total_tokens", usage.TotalTokens)
	}

	log.Info("summary complete", "chunks", len(chunks), "summary_chars", len(doc))
	return Result{
		Success:         true,
		Summary:         doc,
		ChunksProcessed: len(chunks),
		ModelUsed:       model,
		Metadata: &Metadata{
			Title:            req.Title,
			Author:           req.Author,
			OriginalChars:    len(req.Text),
			SummaryChars:     len(body),
			CompressionRatio: metrics.CompressionRatio(len(req.Text), len(body)),
			Usage:            usage,
		},
	}
}

// mapChunks summarizes every chunk on a bounded worker pool. Indices are
// fixed before the pool starts; results are returned in index order no
// matter the completion order. The first real failure cancels in-flight
// work and fails the run.
func (s *service) mapChunks(ctx context.Context, model string, chunks []Chunk) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	summaries := make([]string, len(chunks))
	failures := make([]error, len(chunks))
	sem := make(chan struct{}, s.cfg.MapWorkers)
	var wg sync.WaitGroup

	for i := range chunks {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				failures[idx] = ctx.Err()
				return
			case sem <- struct{}{}:
				defer func() { <-sem }()
			}
			out, err := s.chunks.Summarize(ctx, model, chunks[idx])
			if err != nil {
				failures[idx] = err
				cancel()
				return
			}
			summaries[idx] = out
		}(i)
	}
	wg.Wait()

	// report the lowest-index genuine failure; bare cancellations mean the
	// caller pulled the plug
	for idx, err := range failures {
		if err == nil || errors.Is(err, context.Canceled) {
			continue
		}
		return nil, apperrors.Wrap(CodeChunkFailed, fmt.Sprintf("summarizing chunk %d failed", idx), err)
	}
	for _, err := range failures {
		if err != nil {
			return nil, apperrors.Wrap(CodeCancelled, "run cancelled", err)
		}
	}
	return summaries, nil
}

func cancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

func failure(model, code, message string) Result {
	return Result{Success: false, ModelUsed: model, ErrorCode: code, ErrorMessage: message}
}

func failureErr(model string, err error) Result {
	code := apperrors.CodeOf(err)
	if code == "" {
		code = CodeSynthesisFailed
	}
	return Result{Success: false, ModelUsed: model, ErrorCode: code, ErrorMessage: err.Error()}
}
