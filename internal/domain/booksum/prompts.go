package booksum

// Fixed prompt templates. The document template structure is pinned for
// interoperability with downstream renderers; do not reorder its sections.

const chunkSummaryPrompt = `You are summarizing a section of a longer book.
Extract the KEY FACTS, EVENTS, DATES, NAMES, and ARGUMENTS. Be precise and factual.
Do NOT editorialize. Include page references where visible.

SECTION TEXT:
%s

Provide a concise summary (3-5 paragraphs) of the key content:`

const chunkSystemPrompt = `You are a precise academic summarizer.
%sExtract facts, dates, names, and key arguments.
Be concise but thorough. Preserve important quotes.`

const synthesisPrompt = `You are synthesizing multiple chapter summaries into a coherent document.
The goal is an ACADEMIC SUMMARY suitable for educated readers who want context.

TARGET AUDIENCE:
- Intelligent laypeople, not specialists
- Need accessible language

CHAPTER SUMMARIES:
%s

INSTRUCTIONS:
Create a well-structured summary with:
1. Clear section headers
2. Factual, documented claims
3. No editorializing beyond what the sources document
4. Acknowledgment of complexity where the material carries it

OUTPUT FORMAT: Markdown with headers, roughly %d pages when printed.

FINAL SUMMARY:`

const synthesisSystemPrompt = `You are creating an academic summary of %q by %s.
Target audience: educated laypeople seeking context.
Style: academic but accessible. Let the facts speak.`

const documentTemplate = `# %s
## Summary of: %s
### Author: %s

> Source: %s
> Summary generated: Local LLM (%s)
> Note: This is a condensed summary. Read the full work for complete documentation.

---

%s

---

## Citation
%s

*Summary generated locally using %s. No cloud services accessed.*
*Original work: ~%d pages -> Summary: ~%d pages*
`
