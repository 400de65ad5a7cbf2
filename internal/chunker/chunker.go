// Package chunker splits source files into bounded, overlapping spans for
// embedding. Chunking is deterministic: identical input always yields the
// identical chunk sequence, which keeps derived chunk ids stable across runs.
package chunker

import "strings"

type Chunk struct {
	Content   string
	StartLine int
	EndLine   int
}

type Options struct {
	MaxChars     int
	OverlapLines int
}

type Chunker struct {
	opts Options
}

func New(opts Options) *Chunker {
	if opts.MaxChars <= 0 {
		opts.MaxChars = 1000
	}
	if opts.OverlapLines < 0 {
		opts.OverlapLines = 0
	}
	return &Chunker{opts: opts}
}

// Chunk splits content according to the language hint. Markdown goes through
// the heading-aware path; recognized code splits at definition boundaries;
// anything else falls back to size-forced windows.
func (c *Chunker) Chunk(content string, lang string) []Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	if lang == "markdown" {
		return c.chunkMarkdown(content)
	}
	lines := strings.Split(content, "\n")
	if len(content) <= c.opts.MaxChars {
		return []Chunk{{Content: content, StartLine: 1, EndLine: len(lines)}}
	}
	return c.chunkLines(lines, lang)
}

func (c *Chunker) chunkLines(lines []string, lang string) []Chunk {
	var chunks []Chunk
	var cur []string
	curStart := 1
	curChars := 0

	flush := func(endLine int) {
		if len(cur) == 0 {
			return
		}
		content := strings.Join(cur, "\n")
		if strings.TrimSpace(content) != "" {
			chunks = append(chunks, Chunk{Content: content, StartLine: curStart, EndLine: endLine})
		}
	}

	for i, line := range lines {
		lineNum := i + 1
		boundary := strings.TrimSpace(line) == "" || looksLikeDefinition(line, lang)
		// Split at a boundary once 70% of the budget is used; force a split
		// at twice the budget regardless.
		if len(cur) > 0 && ((boundary && curChars >= c.opts.MaxChars*7/10) || curChars >= c.opts.MaxChars*2) {
			flush(lineNum - 1)
			overlap := c.opts.OverlapLines
			if overlap > len(cur) {
				overlap = len(cur)
			}
			newStart := lineNum - overlap
			cur = append([]string(nil), lines[newStart-1:i]...)
			curStart = newStart
			curChars = 0
			for _, l := range cur {
				curChars += len(l) + 1
			}
		}
		cur = append(cur, line)
		curChars += len(line) + 1
	}
	flush(len(lines))
	return chunks
}

// looksLikeDefinition reports whether a line starts a function, type, or
// class for the given language.
func looksLikeDefinition(line, lang string) bool {
	trimmed := strings.TrimSpace(line)
	switch lang {
	case "go":
		return strings.HasPrefix(trimmed, "func ") ||
			strings.HasPrefix(trimmed, "type ")
	case "python":
		return strings.HasPrefix(trimmed, "def ") ||
			strings.HasPrefix(trimmed, "async def ") ||
			strings.HasPrefix(trimmed, "class ")
	case "swift":
		return strings.HasPrefix(trimmed, "func ") ||
			strings.HasPrefix(trimmed, "class ") ||
			strings.HasPrefix(trimmed, "struct ") ||
			strings.HasPrefix(trimmed, "extension ")
	case "javascript", "typescript", "jsx", "tsx":
		return strings.HasPrefix(trimmed, "function ") ||
			strings.HasPrefix(trimmed, "class ") ||
			strings.HasPrefix(trimmed, "export ") ||
			strings.HasPrefix(trimmed, "import ") ||
			(strings.HasPrefix(trimmed, "const ") && strings.Contains(trimmed, "=>"))
	case "rust":
		return strings.HasPrefix(trimmed, "fn ") ||
			strings.HasPrefix(trimmed, "pub fn ") ||
			strings.HasPrefix(trimmed, "impl ") ||
			strings.HasPrefix(trimmed, "struct ") ||
			strings.HasPrefix(trimmed, "enum ")
	case "java", "kotlin":
		return strings.Contains(trimmed, "class ") ||
			strings.Contains(trimmed, "interface ")
	case "c", "cpp", "h":
		return strings.Contains(trimmed, "(") &&
			strings.HasSuffix(trimmed, "{") &&
			!strings.HasPrefix(trimmed, "if") &&
			!strings.HasPrefix(trimmed, "for") &&
			!strings.HasPrefix(trimmed, "while")
	}
	return false
}
