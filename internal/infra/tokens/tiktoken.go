package tokens

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/ai-booksum/internal/domain/booksum"
)

// Counter estimates token counts with a BPE encoding, degrading to a
// characters/4 heuristic when the encoding cannot be loaded.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter loads the cl100k_base encoding.
func NewCounter(logger *slog.Logger) *Counter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logger.Warn("tiktoken encoding unavailable, using character heuristic", "error", err)
		return &Counter{}
	}
	return &Counter{enc: enc}
}

// Count implements booksum.TokenCounter.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c.enc == nil {
		return (len(text) + 3) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}

var _ booksum.TokenCounter = (*Counter)(nil)
