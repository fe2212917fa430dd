// Package markdown handles the small markdown subset report text is written
// in: three heading levels, dash or star bullets, **bold** spans and plain
// paragraphs. The HTML formatter, the terminal renderer and the PDF exporter
// all walk the same blocks.
package markdown

import "strings"

type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockBullet
	BlockBlank
)

// Span is a run of inline text.
type Span struct {
	Text string
	Bold bool
}

// Block is one classified source line.
type Block struct {
	Kind  BlockKind
	Level int // 1-3 for headings
	Text  string
	Spans []Span
}

// Plain returns the block text with bold markers removed.
func (b Block) Plain() string {
	return PlainText(b.Spans)
}

// AllBold reports whether every non-space span in the block is bold.
func (b Block) AllBold() bool {
	seen := false
	for _, s := range b.Spans {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		if !s.Bold {
			return false
		}
		seen = true
	}
	return seen
}

var headingPrefixes = []struct {
	prefix string
	level  int
}{
	{"### ", 3},
	{"## ", 2},
	{"# ", 1},
}

// Parse classifies each line of text. Headings win over bullets, bullets over
// blank lines, and anything else is a paragraph.
func Parse(text string) []Block {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	blocks := make([]Block, 0, len(lines))

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		blocks = append(blocks, classify(line))
	}
	return blocks
}

func classify(line string) Block {
	for _, h := range headingPrefixes {
		if strings.HasPrefix(line, h.prefix) {
			body := strings.TrimSpace(line[len(h.prefix):])
			return Block{Kind: BlockHeading, Level: h.level, Text: body, Spans: ParseSpans(body)}
		}
	}
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		body := strings.TrimSpace(line[2:])
		return Block{Kind: BlockBullet, Text: body, Spans: ParseSpans(body)}
	}
	if line == "" {
		return Block{Kind: BlockBlank}
	}
	return Block{Kind: BlockParagraph, Text: line, Spans: ParseSpans(line)}
}

// ParseSpans splits s on **bold** markers. An unmatched marker is kept as literal text.
func ParseSpans(s string) []Span {
	var spans []Span
	for {
		open := strings.Index(s, "**")
		if open < 0 {
			break
		}
		end := strings.Index(s[open+2:], "**")
		if end < 0 {
			break
		}
		end += open + 2
		if open > 0 {
			spans = append(spans, Span{Text: s[:open]})
		}
		if inner := s[open+2 : end]; inner != "" {
			spans = append(spans, Span{Text: inner, Bold: true})
		}
		s = s[end+2:]
	}
	if s != "" {
		spans = append(spans, Span{Text: s})
	}
	return spans
}

// PlainText joins spans without markup.
func PlainText(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}
