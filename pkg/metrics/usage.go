package metrics

// charsPerPage is the rough printed-page heuristic used for provenance
// footers. It is an estimate, not a typographic computation.
const charsPerPage = 2500

// TokenUsage captures estimated LLM token counts for a pipeline run.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens,omitempty"`
	TotalTokens      int `json:"totalTokens"`
}

// IsZero reports whether usage data is absent.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// PageEstimate converts a character count into an approximate page count.
func PageEstimate(charCount int) int {
	if charCount <= 0 {
		return 0
	}
	return charCount / charsPerPage
}

// CompressionRatio reports original/summary size, 0 when the summary is empty.
func CompressionRatio(originalChars, summaryChars int) float64 {
	if summaryChars <= 0 {
		return 0
	}
	return float64(originalChars) / float64(summaryChars)
}
