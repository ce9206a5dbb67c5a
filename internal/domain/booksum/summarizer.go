package booksum

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"unicode/utf8"
)

// CacheKey derives the content address for a chunk's exact text. Identical
// text at different positions hits the same entry.
func CacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ChunkSummarizer produces one summary per chunk, consulting the cache
// before calling the backend.
type ChunkSummarizer struct {
	gateway         Gateway
	cache           SummaryCache
	tokens          TokenCounter
	maxPromptTokens int
	logger          *slog.Logger
}

// NewChunkSummarizer wires the map-phase worker. tokens may be nil, which
// disables prompt budgeting.
func NewChunkSummarizer(gateway Gateway, cache SummaryCache, tokens TokenCounter, maxPromptTokens int, logger *slog.Logger) *ChunkSummarizer {
	return &ChunkSummarizer{
		gateway:         gateway,
		cache:           cache,
		tokens:          tokens,
		maxPromptTokens: maxPromptTokens,
		logger:          logger.With("component", "booksum.chunks"),
	}
}

// Summarize returns the cached summary when the chunk text was seen before,
// otherwise generates and stores one. Cache failures degrade to a miss or a
// skipped write; they never fail the run.
func (s *ChunkSummarizer) Summarize(ctx context.Context, model string, chunk Chunk) (string, error) {
	key := CacheKey(chunk.Text)
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed", "chunk", chunk.Index, "error", err)
	} else if ok {
		s.logger.Debug("cache hit", "chunk", chunk.Index)
		return cached, nil
	}

	chapterContext := ""
	if chunk.ChapterLabel != "" {
		chapterContext = "Chapter: " + chunk.ChapterLabel + "\n"
	}

	summary, err := s.gateway.Generate(ctx, GenerateRequest{
		Model:  model,
		System: fmt.Sprintf(chunkSystemPrompt, chapterContext),
		Prompt: fmt.Sprintf(chunkSummaryPrompt, s.clampPrompt(chunk.Text)),
	})
	if err != nil {
		return "", err
	}

	// the cache records what the backend returned for this input,
	// regardless of how short the output is
	if err := s.cache.Put(ctx, key, summary); err != nil {
		s.logger.Warn("cache write failed", "chunk", chunk.Index, "error", err)
	}
	return summary, nil
}

// clampPrompt truncates chunk text to the configured token budget so one
// oversized chunk cannot blow the model's context window.
func (s *ChunkSummarizer) clampPrompt(text string) string {
	if s.tokens == nil || s.maxPromptTokens <= 0 {
		return text
	}
	count := s.tokens.Count(text)
	for count > s.maxPromptTokens && len(text) > 0 {
		keep := len(text) * s.maxPromptTokens / count
		if keep >= len(text) {
			keep = len(text) - 1
		}
		text = headBytes(text, keep)
		count = s.tokens.Count(text)
	}
	return text
}

func headBytes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
