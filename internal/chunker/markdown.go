package chunker

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// chunkMarkdown walks the goldmark AST and groups top-level blocks into
// chunks, always starting a fresh chunk at an H1/H2 heading and whenever the
// size budget runs out.
func (c *Chunker) chunkMarkdown(content string) []Chunk {
	source := []byte(content)
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))
	lines := strings.Split(content, "\n")
	starts := lineStarts(source)

	var chunks []Chunk
	curStart := 0
	curEnd := 0
	curChars := 0

	flush := func() {
		if curStart == 0 {
			return
		}
		joined := strings.Join(lines[curStart-1:curEnd], "\n")
		if strings.TrimSpace(joined) != "" {
			chunks = append(chunks, Chunk{Content: joined, StartLine: curStart, EndLine: curEnd})
		}
		curStart = 0
		curEnd = 0
		curChars = 0
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		segs := node.Lines()
		if segs == nil || segs.Len() == 0 {
			continue
		}
		startOff := segs.At(0).Start
		stopOff := segs.At(segs.Len() - 1).Stop
		startLine := lineAt(starts, startOff)
		endLine := lineAt(starts, stopOff-1)

		if h, ok := node.(*ast.Heading); ok && h.Level <= 2 {
			flush()
		}
		if curChars > 0 && curChars+(stopOff-startOff) > c.opts.MaxChars {
			flush()
		}
		if curStart == 0 {
			curStart = startLine
		}
		if endLine > curEnd {
			curEnd = endLine
		}
		curChars += stopOff - startOff
	}
	flush()

	if len(chunks) == 0 {
		return []Chunk{{Content: content, StartLine: 1, EndLine: len(lines)}}
	}
	return chunks
}

func lineStarts(source []byte) []int {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineAt maps a byte offset to a 1-based line number.
func lineAt(starts []int, off int) int {
	if off < 0 {
		off = 0
	}
	idx := sort.Search(len(starts), func(i int) bool { return starts[i] > off })
	return idx
}
