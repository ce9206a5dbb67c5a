package booksum

import (
	"context"
	"fmt"
	"strings"
)

// Synthesizer runs the reduce phase: all chunk summaries combined into one
// synthesis call. Formatting into the final document happens in the
// orchestrator, keeping this reusable for other prompt styles.
type Synthesizer struct {
	gateway Gateway
}

// NewSynthesizer wires the reduce-phase worker.
func NewSynthesizer(gateway Gateway) *Synthesizer {
	return &Synthesizer{gateway: gateway}
}

// Synthesize combines the summaries in chunk order, each headed by its
// chapter label or a generated section label, and issues one generate call.
// summaries must be index-aligned with chunks.
func (s *Synthesizer) Synthesize(ctx context.Context, model string, chunks []Chunk, summaries []string, title, author string, targetPages int) (string, error) {
	sections := make([]string, len(summaries))
	for i, summary := range summaries {
		label := fmt.Sprintf("Section %d", i+1)
		if i < len(chunks) && chunks[i].ChapterLabel != "" {
			label = chunks[i].ChapterLabel
		}
		sections[i] = fmt.Sprintf("### %s\n%s", label, summary)
	}
	combined := strings.Join(sections, "\n\n---\n\n")

	return s.gateway.Generate(ctx, GenerateRequest{
		Model:  model,
		System: fmt.Sprintf(synthesisSystemPrompt, title, author),
		Prompt: fmt.Sprintf(synthesisPrompt, combined, targetPages),
	})
}
