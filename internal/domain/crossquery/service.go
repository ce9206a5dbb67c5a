package crossquery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yanqian/ai-booksum/internal/domain/booksum"
	apperrors "github.com/yanqian/ai-booksum/pkg/errors"
)

const crossQueryPrompt = `You have access to content from multiple documents.
Answer the query by synthesizing information across all sources.
ALWAYS cite which document each piece of information comes from.
Acknowledge when sources disagree.

QUERY: %s

DOCUMENT CONTENTS:
%s

Provide a comprehensive answer with citations to specific documents:`

const crossQuerySystemPrompt = `You are a research assistant with access to multiple documents.
Always cite which document information comes from.
Acknowledge when sources disagree.
Be precise and factual.`

// Gateway is the slice of the backend this engine needs.
type Gateway interface {
	Generate(ctx context.Context, req booksum.GenerateRequest) (string, error)
}

// Config tunes the query engine.
type Config struct {
	Model string
	// ExcerptBudget caps each document's excerpt in bytes so the combined
	// prompt stays bounded regardless of how many documents are supplied.
	ExcerptBudget int
}

// Request carries a question and pre-selected excerpts keyed by document
// title. Excerpt selection happens upstream; this engine does not chunk,
// cache, or retrieve.
type Request struct {
	Question string            `json:"question"`
	Excerpts map[string]string `json:"excerpts"`
	Model    string            `json:"model,omitempty"`
}

// Response is the cited answer.
type Response struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	ModelUsed string   `json:"modelUsed"`
}

// Service answers ad-hoc questions across several documents in one call.
type Service interface {
	Query(ctx context.Context, req Request) (Response, error)
}

type service struct {
	cfg     Config
	gateway Gateway
	logger  *slog.Logger
}

// NewService wires the cross-document query engine.
func NewService(cfg Config, gateway Gateway, logger *slog.Logger) Service {
	if cfg.ExcerptBudget <= 0 {
		cfg.ExcerptBudget = 4000
	}
	return &service{cfg: cfg, gateway: gateway, logger: logger.With("component", "crossquery.service")}
}

func (s *service) Query(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Question) == "" {
		return Response{}, apperrors.Wrap(booksum.CodeInvalidInput, "question cannot be empty", nil)
	}
	if len(req.Excerpts) == 0 {
		return Response{}, apperrors.Wrap(booksum.CodeInvalidInput, "at least one document excerpt is required", nil)
	}
	model := req.Model
	if model == "" {
		model = s.cfg.Model
	}

	// titles sorted so the prompt is deterministic for a given request
	titles := make([]string, 0, len(req.Excerpts))
	for title := range req.Excerpts {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	sections := make([]string, len(titles))
	for i, title := range titles {
		sections[i] = fmt.Sprintf("### %s\n%s", title, truncate(req.Excerpts[title], s.cfg.ExcerptBudget))
	}

	answer, err := s.gateway.Generate(ctx, booksum.GenerateRequest{
		Model:  model,
		System: crossQuerySystemPrompt,
		Prompt: fmt.Sprintf(crossQueryPrompt, req.Question, strings.Join(sections, "\n\n")),
	})
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return Response{}, apperrors.Wrap(booksum.CodeCancelled, "query cancelled", err)
		case errors.Is(err, booksum.ErrBackendUnreachable):
			return Response{}, apperrors.Wrap(booksum.CodeBackendUnreachable, "backend offline", err)
		default:
			return Response{}, apperrors.Wrap(booksum.CodeBackendHTTP, "query call failed", err)
		}
	}

	s.logger.Info("cross-document query answered", "documents", len(titles), "model", model)
	return Response{Answer: answer, Sources: titles, ModelUsed: model}, nil
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
