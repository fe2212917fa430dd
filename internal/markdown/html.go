package markdown

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Classes are the CSS classes put on each generated element.
type Classes struct {
	H1     string
	H2     string
	H3     string
	P      string
	UL     string
	LI     string
	Strong string
}

var DefaultClasses = Classes{
	H1:     "report-h1",
	H2:     "report-h2",
	H3:     "report-h3",
	P:      "report-paragraph",
	UL:     "report-list",
	LI:     "report-list-item",
	Strong: "report-strong",
}

var classPattern = regexp.MustCompile(`^[a-zA-Z0-9_\- ]*$`)

// Formatter converts report markdown to HTML. Text is escaped before any
// tags are added and the result goes through an allow-list policy, so
// backend-provided text cannot inject markup.
type Formatter struct {
	classes Classes
	policy  *bluemonday.Policy
}

// NewFormatter returns a Formatter that tags elements with classes.
func NewFormatter(classes Classes) *Formatter {
	p := bluemonday.NewPolicy()
	p.AllowElements("h1", "h2", "h3", "p", "ul", "li", "strong")
	p.AllowAttrs("class").Matching(classPattern).OnElements("h1", "h2", "h3", "p", "ul", "li", "strong")
	return &Formatter{classes: classes, policy: p}
}

var defaultFormatter = NewFormatter(DefaultClasses)

// Format converts text with the default classes.
func Format(text string) string {
	return defaultFormatter.Format(text)
}

// Format converts text to HTML, one element per line. Contiguous bullets
// share one list and blank lines produce nothing.
func (f *Formatter) Format(text string) string {
	blocks := Parse(text)
	var sb strings.Builder
	inList := false

	closeList := func() {
		if inList {
			sb.WriteString("</ul>\n")
			inList = false
		}
	}

	for _, b := range blocks {
		switch b.Kind {
		case BlockHeading:
			closeList()
			tag, class := f.heading(b.Level)
			f.element(&sb, tag, class, b.Spans)
		case BlockBullet:
			if !inList {
				sb.WriteString(openTag("ul", f.classes.UL))
				sb.WriteString("\n")
				inList = true
			}
			f.element(&sb, "li", f.classes.LI, b.Spans)
		case BlockBlank:
			closeList()
		default:
			closeList()
			f.element(&sb, "p", f.classes.P, b.Spans)
		}
	}
	closeList()

	return strings.TrimRight(f.policy.Sanitize(sb.String()), "\n")
}

func (f *Formatter) heading(level int) (string, string) {
	switch level {
	case 1:
		return "h1", f.classes.H1
	case 2:
		return "h2", f.classes.H2
	default:
		return "h3", f.classes.H3
	}
}

func (f *Formatter) element(sb *strings.Builder, tag, class string, spans []Span) {
	sb.WriteString(openTag(tag, class))
	for _, s := range spans {
		text := html.EscapeString(s.Text)
		if s.Bold {
			sb.WriteString(openTag("strong", f.classes.Strong))
			sb.WriteString(text)
			sb.WriteString("</strong>")
			continue
		}
		sb.WriteString(text)
	}
	sb.WriteString("</")
	sb.WriteString(tag)
	sb.WriteString(">\n")
}

func openTag(tag, class string) string {
	if class == "" {
		return "<" + tag + ">"
	}
	return `<` + tag + ` class="` + html.EscapeString(class) + `">`
}
