package booksum

import (
	"context"
	"errors"
	"fmt"

	"github.com/yanqian/ai-booksum/pkg/metrics"
)

// Chunk is one bounded fragment of the source document, the unit of the map
// phase. Indices are contiguous from 0 in emission order.
type Chunk struct {
	Index        int
	Text         string
	ChapterLabel string
}

// BackendStatus reports inference backend reachability and model presence.
// It is recomputed on every run and never cached.
type BackendStatus struct {
	Online          bool     `json:"online"`
	AvailableModels []string `json:"availableModels"`
	ConfiguredModel string   `json:"configuredModel"`
	ModelAvailable  bool     `json:"modelAvailable"`
	ErrorMessage    string   `json:"errorMessage,omitempty"`
}

// GenerateRequest is a single chat-completion call against the backend.
// Model overrides the gateway's configured default when set.
type GenerateRequest struct {
	Model  string
	System string
	Prompt string
}

// Gateway abstracts the local inference backend. Status never returns an
// error: connectivity failures yield Online=false with a message. Generate
// passes empty model output through unchanged; emptiness is the caller's
// call to judge.
type Gateway interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Status(ctx context.Context, model string) BackendStatus
}

// SummaryCache stores chunk summaries keyed by a content digest of the
// chunk text. It is a performance layer only; clearing it must never change
// output content. Implementations must be safe for concurrent use.
type SummaryCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, summary string) error
}

// TokenCounter estimates model token counts for prompt budgeting.
type TokenCounter interface {
	Count(text string) int
}

// Config carries the pipeline defaults. It is immutable per run; a request
// may override the model without mutating it.
type Config struct {
	Model                string
	ChunkSize            int
	ChunkOverlap         int
	TargetPages          int
	MapWorkers           int
	MaxChunkPromptTokens int
}

// Request asks for one book to be condensed.
type Request struct {
	Text        string `json:"text"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Citation    string `json:"citation,omitempty"`
	TargetPages int    `json:"targetPages,omitempty"`
	Model       string `json:"model,omitempty"`
}

// Metadata carries provenance metrics for a successful run. Usage is an
// estimate from the configured token counter, absent when no counter is
// wired.
type Metadata struct {
	Title            string              `json:"title"`
	Author           string              `json:"author"`
	OriginalChars    int                 `json:"originalChars"`
	SummaryChars     int                 `json:"summaryChars"`
	CompressionRatio float64             `json:"compressionRatio"`
	Usage            *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// Result is the single outcome of a run: a complete document or an error,
// never a partial summary.
type Result struct {
	Success         bool      `json:"success"`
	Summary         string    `json:"summary,omitempty"`
	ChunksProcessed int       `json:"chunksProcessed,omitempty"`
	ModelUsed       string    `json:"modelUsed,omitempty"`
	ErrorCode       string    `json:"errorCode,omitempty"`
	ErrorMessage    string    `json:"error,omitempty"`
	Metadata        *Metadata `json:"metadata,omitempty"`
}

// Error codes surfaced across the pipeline boundary.
const (
	CodeInvalidInput       = "invalid_input"
	CodeBackendUnreachable = "backend_unreachable"
	CodeBackendHTTP        = "backend_http_error"
	CodeModelUnavailable   = "model_unavailable"
	CodeChunkFailed        = "chunk_failed"
	CodeSynthesisFailed    = "synthesis_failed"
	CodeCancelled          = "cancelled"
)

// ErrBackendUnreachable marks connection-level gateway failures.
var ErrBackendUnreachable = errors.New("backend unreachable")

// BackendHTTPError is returned by the gateway on a non-2xx response.
type BackendHTTPError struct {
	StatusCode int
	Body       string
}

func (e *BackendHTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("backend returned HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("backend returned HTTP %d", e.StatusCode)
}
