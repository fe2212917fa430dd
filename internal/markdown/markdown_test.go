package markdown_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/kiranshivaraju/bizlens/internal/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Parse ---

func TestParse_Classification(t *testing.T) {
	blocks := markdown.Parse("# One\n## Two\n### Three\n#### Four\n- dash\n* star\n\nplain **bold** text")
	require.Len(t, blocks, 8)

	assert.Equal(t, markdown.BlockHeading, blocks[0].Kind)
	assert.Equal(t, 1, blocks[0].Level)
	assert.Equal(t, 2, blocks[1].Level)
	assert.Equal(t, 3, blocks[2].Level)
	assert.Equal(t, markdown.BlockParagraph, blocks[3].Kind, "only three heading levels are recognised")
	assert.Equal(t, markdown.BlockBullet, blocks[4].Kind)
	assert.Equal(t, "dash", blocks[4].Text)
	assert.Equal(t, markdown.BlockBullet, blocks[5].Kind)
	assert.Equal(t, markdown.BlockBlank, blocks[6].Kind)
	assert.Equal(t, markdown.BlockParagraph, blocks[7].Kind)
	assert.Equal(t, "plain bold text", blocks[7].Plain())
}

func TestParse_CRLF(t *testing.T) {
	blocks := markdown.Parse("# Title\r\n- item\r\n")
	require.Len(t, blocks, 3)
	assert.Equal(t, "Title", blocks[0].Text)
	assert.Equal(t, "item", blocks[1].Text)
}

func TestParseSpans(t *testing.T) {
	tests := []struct {
		in   string
		want []markdown.Span
	}{
		{"plain", []markdown.Span{{Text: "plain"}}},
		{"**all**", []markdown.Span{{Text: "all", Bold: true}}},
		{"a **b** c", []markdown.Span{{Text: "a "}, {Text: "b", Bold: true}, {Text: " c"}}},
		{"open **only", []markdown.Span{{Text: "open **only"}}},
		{"****", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, markdown.ParseSpans(tt.in))
		})
	}
}

func TestBlock_AllBold(t *testing.T) {
	assert.True(t, markdown.Parse("**Key Findings**")[0].AllBold())
	assert.False(t, markdown.Parse("**Key** findings")[0].AllBold())
	assert.False(t, markdown.Parse("plain")[0].AllBold())
}

// --- Format ---

func TestFormat_PlainParagraphs(t *testing.T) {
	in := "First line of text.\nSecond line.\n\nThird after a gap."
	out := markdown.Format(in)

	assert.Equal(t, 3, strings.Count(out, "<p "), out)
	assert.Equal(t, 3, strings.Count(out, "</p>"), out)
	assert.NotContains(t, out, "<p class=\"report-paragraph\"><p")
	for _, line := range []string{"First line of text.", "Second line.", "Third after a gap."} {
		assert.Contains(t, out, `<p class="report-paragraph">`+line+`</p>`)
	}
}

func TestFormat_PlainParagraphs_Stable(t *testing.T) {
	in := "alpha\nbeta"
	assert.Equal(t, markdown.Format(in), markdown.Format(in))
}

func TestFormat_HeadingThenList(t *testing.T) {
	out := markdown.Format("# Title\n- item one\n- item two")

	assert.Equal(t, 1, strings.Count(out, "<h1"))
	assert.Equal(t, 1, strings.Count(out, "<ul"))
	assert.Equal(t, 2, strings.Count(out, "<li"))

	h1 := strings.Index(out, "<h1")
	ul := strings.Index(out, "<ul")
	one := strings.Index(out, "item one")
	two := strings.Index(out, "item two")
	end := strings.Index(out, "</ul>")
	assert.True(t, h1 < ul && ul < one && one < two && two < end, out)
}

func TestFormat_SeparateListsAroundParagraph(t *testing.T) {
	out := markdown.Format("- a\n- b\nbreak\n- c")
	assert.Equal(t, 2, strings.Count(out, "<ul"))
	assert.Equal(t, 3, strings.Count(out, "<li"))
}

func TestFormat_Bold(t *testing.T) {
	out := markdown.Format("Revenue grew **12%** last year")
	assert.Contains(t, out, `<strong class="report-strong">12%</strong>`)
}

func TestFormat_EscapesMarkup(t *testing.T) {
	out := markdown.Format("# <script>alert(1)</script>\n- <img src=x onerror=alert(1)>\nAT&T")

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "AT&amp;T")
}

func TestFormatter_CustomClasses(t *testing.T) {
	f := markdown.NewFormatter(markdown.Classes{H2: "swot-heading"})
	out := f.Format("## Strengths\nGood")
	assert.Contains(t, out, `<h2 class="swot-heading">Strengths</h2>`)
	assert.Contains(t, out, "<p>Good</p>")
}

func TestFormat_Empty(t *testing.T) {
	assert.Equal(t, "", markdown.Format(""))
	assert.Equal(t, "", markdown.Format("\n\n"))
}

// --- Terminal ---

func TestTerminalRenderer_PlainWhenNoColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	require.NoError(t, markdown.NewTerminalRenderer().Render(&buf, "# Title\n- **one**\n\n\n\ntext"))

	assert.Equal(t, "Title\n  • one\n\ntext\n", buf.String())
}
