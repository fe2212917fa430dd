package markdown

import (
	"bufio"
	"io"
	"strings"

	"github.com/fatih/color"
)

// TerminalRenderer prints report markdown with ANSI styling for the CLI.
type TerminalRenderer struct {
	headings [3]*color.Color
	bullet   *color.Color
	bold     *color.Color
}

func NewTerminalRenderer() *TerminalRenderer {
	return &TerminalRenderer{
		headings: [3]*color.Color{
			color.New(color.FgCyan, color.Bold, color.Underline),
			color.New(color.FgCyan, color.Bold),
			color.New(color.FgBlue, color.Bold),
		},
		bullet: color.New(color.FgYellow),
		bold:   color.New(color.Bold),
	}
}

// Render writes text to w. Consecutive blank lines collapse into one.
func (r *TerminalRenderer) Render(w io.Writer, text string) error {
	bw := bufio.NewWriter(w)
	lastBlank := true

	for _, b := range Parse(text) {
		switch b.Kind {
		case BlockHeading:
			if !lastBlank {
				bw.WriteString("\n")
			}
			h := r.headings[min(max(b.Level, 1), 3)-1]
			bw.WriteString(h.Sprint(b.Plain()))
			bw.WriteString("\n")
			lastBlank = false
		case BlockBullet:
			bw.WriteString("  ")
			bw.WriteString(r.bullet.Sprint("•"))
			bw.WriteString(" ")
			bw.WriteString(r.spans(b.Spans))
			bw.WriteString("\n")
			lastBlank = false
		case BlockBlank:
			if !lastBlank {
				bw.WriteString("\n")
			}
			lastBlank = true
		default:
			bw.WriteString(r.spans(b.Spans))
			bw.WriteString("\n")
			lastBlank = false
		}
	}
	return bw.Flush()
}

func (r *TerminalRenderer) spans(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		if s.Bold {
			sb.WriteString(r.bold.Sprint(s.Text))
			continue
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}
