package booksum

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Section is a structurally delimited slice of the document. Concatenating
// the Text of all sections reproduces the input exactly.
type Section struct {
	Label string
	Text  string
}

// StructuralSplitter detects document structure. Split returns nil when the
// text does not carry enough structure to be worth using, in which case the
// chunker falls back to sentence boundaries.
type StructuralSplitter interface {
	Split(text string) []Section
}

// chapterPattern matches lines starting a chapter, part, or markdown
// heading of level 1-2.
var chapterPattern = regexp.MustCompile(`(?m)^(Chapter \d+|CHAPTER \d+|Part \d+|PART \d+|#{1,2} [^\n]+)`)

// RegexSplitter is the default heuristic StructuralSplitter.
type RegexSplitter struct {
	minMarkers int
}

// NewRegexSplitter returns a splitter requiring at least four structural
// markers before structural mode engages.
func NewRegexSplitter() *RegexSplitter {
	return &RegexSplitter{minMarkers: 4}
}

// Split slices the text on chapter markers. The marker line stays at the
// head of its section so the sections remain a lossless partition.
func (s *RegexSplitter) Split(text string) []Section {
	locs := chapterPattern.FindAllStringIndex(text, -1)
	if len(locs) < s.minMarkers {
		return nil
	}

	var sections []Section
	if locs[0][0] > 0 {
		sections = append(sections, Section{Label: "Introduction", Text: text[:locs[0][0]]})
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		label := strings.TrimSpace(strings.TrimLeft(text[loc[0]:loc[1]], "# "))
		sections = append(sections, Section{Label: label, Text: text[loc[0]:end]})
	}
	return sections
}

// Chunker splits raw document text into bounded, ordered chunks, carrying a
// trailing overlap into each following chunk for cross-boundary continuity.
type Chunker struct {
	TargetSize int
	Overlap    int
	Splitter   StructuralSplitter
}

// NewChunker applies the pipeline defaults for zero values and clamps the
// overlap below the target size.
func NewChunker(targetSize, overlap int, splitter StructuralSplitter) *Chunker {
	if targetSize <= 0 {
		targetSize = 6000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= targetSize {
		overlap = targetSize - 1
	}
	if splitter == nil {
		splitter = NewRegexSplitter()
	}
	return &Chunker{TargetSize: targetSize, Overlap: overlap, Splitter: splitter}
}

type packUnit struct {
	label string
	text  string
}

// Chunk splits text into chunks. It is total for any input: a document with
// no structure and no sentence boundaries still packs by raw size.
func (c *Chunker) Chunk(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var units []packUnit
	if sections := c.Splitter.Split(text); sections != nil {
		for _, sec := range sections {
			for _, sentence := range splitSentences(sec.Text) {
				for _, piece := range hardSplit(sentence, c.TargetSize) {
					units = append(units, packUnit{label: sec.Label, text: piece})
				}
			}
		}
	} else {
		for _, sentence := range splitSentences(text) {
			for _, piece := range hardSplit(sentence, c.TargetSize) {
				units = append(units, packUnit{text: piece})
			}
		}
	}
	return c.pack(units)
}

// pack greedily fills chunks up to TargetSize of fresh text. Each closed
// chunk seeds the next with the last Overlap bytes of its fresh text only,
// never its own inherited prefix, so stripping that known prefix from every
// non-first chunk reconstructs the input exactly.
func (c *Chunker) pack(units []packUnit) []Chunk {
	var (
		chunks     []Chunk
		carry      string
		fresh      strings.Builder
		label      string
		haveLabel  bool
		hasContent bool
	)

	flush := func() {
		text := fresh.String()
		fresh.Reset()
		haveLabel = false
		if text == "" {
			return
		}
		// a trailing whitespace-only remainder belongs to the chunk
		// before it, never to a chunk of its own
		if !hasContent {
			if len(chunks) > 0 {
				chunks[len(chunks)-1].Text += text
			}
			return
		}
		hasContent = false
		chunks = append(chunks, Chunk{Index: len(chunks), Text: carry + text, ChapterLabel: label})
		carry = tailBytes(text, c.Overlap)
	}

	for _, u := range units {
		// whitespace-only fresh text never closes a chunk; it folds
		// into whatever content follows
		if hasContent && fresh.Len()+len(u.text) > c.TargetSize {
			flush()
		}
		if !haveLabel {
			label = u.label
			haveLabel = true
		}
		if strings.TrimSpace(u.text) != "" {
			hasContent = true
		}
		fresh.WriteString(u.text)
	}
	flush()
	return chunks
}

// splitSentences cuts after sentence-ending punctuation followed by
// whitespace, keeping the whitespace attached to the preceding sentence so
// concatenating the pieces reproduces the input byte for byte.
func splitSentences(text string) []string {
	var out []string
	start, i := 0, 0
	for i < len(text) {
		switch text[i] {
		case '.', '!', '?':
			j := i + 1
			for j < len(text) && isSpaceByte(text[j]) {
				j++
			}
			if j > i+1 {
				out = append(out, text[start:j])
				start = j
				i = j
				continue
			}
		}
		i++
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// hardSplit caps a single unit at max bytes, cutting on rune boundaries.
func hardSplit(s string, max int) []string {
	if max <= 0 || len(s) <= max {
		return []string{s}
	}
	var parts []string
	for len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = max
		}
		parts = append(parts, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}

// tailBytes returns the trailing window of at most n bytes, nudged forward
// to a rune boundary.
func tailBytes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}

// OverlapPrefix reports the overlap seed a chunk inherited from the
// previous chunk's fresh text, given that fresh text.
func (c *Chunker) OverlapPrefix(prevFresh string) string {
	return tailBytes(prevFresh, c.Overlap)
}
