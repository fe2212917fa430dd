// Package pdf lays report markdown out as an A4 document.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/kiranshivaraju/bizlens/internal/markdown"
)

// ErrGenerateFailed is returned for any failure while building the document.
var ErrGenerateFailed = errors.New("failed to generate PDF")

const (
	fontFamily   = "Helvetica"
	bodySize     = 11.0
	footerSize   = 8.0
	bandHeight   = 32.0
	footerSpace  = 12.0
	bulletIndent = 6.0
	ptToMM       = 0.3528
	lineFactor   = 1.45
)

var headingSizes = [3]float64{18, 15, 13}

// Metadata describes the report being exported.
type Metadata struct {
	Title       string
	Company     string
	Industry    string
	ReportType  string
	GeneratedAt time.Time
}

// Result describes a generated document.
type Result struct {
	Pages    int
	Filename string
	Bytes    int
}

// Exporter renders report text to PDF. The zero value produces compressed output.
type Exporter struct {
	// Uncompressed leaves page content streams readable.
	Uncompressed bool
}

func NewExporter() *Exporter {
	return &Exporter{}
}

// Export writes the PDF for text to w. Nothing is written to w on failure.
func (e *Exporter) Export(w io.Writer, text string, meta Metadata, theme Theme) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrGenerateFailed, r)
		}
		if err != nil {
			slog.Error("pdf export failed", "company", meta.Company, "report_type", meta.ReportType, "error", err)
		}
	}()

	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now()
	}
	if theme.Margin <= 0 {
		theme = DefaultTheme
	}

	doc := newLayout(theme, !e.Uncompressed)
	doc.header(meta)
	for _, b := range markdown.Parse(text) {
		doc.block(b)
	}
	doc.footers(footerLabel(meta))

	var buf bytes.Buffer
	if err := doc.pdf.Output(&buf); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrGenerateFailed, err)
	}
	n, err := w.Write(buf.Bytes())
	if err != nil {
		return Result{}, fmt.Errorf("%w: writing output: %v", ErrGenerateFailed, err)
	}

	return Result{
		Pages:    doc.pages,
		Filename: Filename(meta.Company, meta.ReportType, meta.GeneratedAt),
		Bytes:    n,
	}, nil
}

// layout tracks the running cursor while drawing.
type layout struct {
	pdf    *fpdf.Fpdf
	theme  Theme
	tr     func(string) string
	pageW  float64
	pageH  float64
	y      float64
	pages  int
	bottom float64
}

func newLayout(theme Theme, compress bool) *layout {
	p := fpdf.New("P", "mm", "A4", "")
	p.SetCompression(compress)
	p.SetMargins(theme.Margin, theme.Margin, theme.Margin)
	p.SetAutoPageBreak(false, 0)
	p.SetCreator("bizlens", false)

	w, h := p.GetPageSize()
	l := &layout{
		pdf:    p,
		theme:  theme,
		tr:     p.UnicodeTranslatorFromDescriptor(""),
		pageW:  w,
		pageH:  h,
		bottom: h - theme.Margin - footerSpace,
	}
	l.newPage()
	return l
}

func (l *layout) newPage() {
	l.pdf.AddPage()
	l.pages = l.pdf.PageCount()
	l.y = l.theme.Margin
}

// ensure starts a new page when h more millimetres would overflow.
func (l *layout) ensure(h float64) {
	if l.y+h > l.bottom {
		l.newPage()
	}
}

func (l *layout) contentWidth() float64 {
	return l.pageW - 2*l.theme.Margin
}

func lineHeight(size float64) float64 {
	return size * ptToMM * lineFactor
}

func (l *layout) header(meta Metadata) {
	t := l.theme
	p := l.pdf

	p.SetFillColor(t.Primary.R, t.Primary.G, t.Primary.B)
	p.Rect(0, 0, l.pageW, bandHeight, "F")

	title := meta.Title
	if title == "" {
		title = meta.ReportType
	}
	p.SetTextColor(255, 255, 255)
	p.SetFont(fontFamily, "B", 20)
	p.Text(t.Margin, 15, l.tr(title))

	var parts []string
	if meta.Company != "" {
		parts = append(parts, "Company: "+meta.Company)
	}
	if meta.Industry != "" {
		parts = append(parts, "Industry: "+meta.Industry)
	}
	parts = append(parts, "Generated: "+meta.GeneratedAt.Format("January 2, 2006"))
	p.SetFont(fontFamily, "", 10)
	p.Text(t.Margin, 24, l.tr(strings.Join(parts, "  |  ")))

	l.y = bandHeight + 10
}

func (l *layout) block(b markdown.Block) {
	switch b.Kind {
	case markdown.BlockHeading:
		l.heading(b)
	case markdown.BlockBullet:
		l.text(b, bulletIndent, true)
	case markdown.BlockBlank:
		if l.y > l.theme.Margin {
			l.y += 2.5
		}
	default:
		l.text(b, 0, false)
	}
}

func (l *layout) heading(b markdown.Block) {
	t := l.theme
	size := headingSizes[min(max(b.Level, 1), 3)-1]
	lh := lineHeight(size)

	l.pdf.SetFont(fontFamily, "B", size)
	lines := l.split(b.Plain(), l.contentWidth())

	l.ensure(lh*float64(len(lines)) + 4)
	l.y += 3
	l.pdf.SetTextColor(t.Primary.R, t.Primary.G, t.Primary.B)
	for _, line := range lines {
		l.y += lh
		l.pdf.Text(t.Margin, l.y, line)
	}

	if b.Level == 1 {
		l.pdf.SetDrawColor(t.Accent.R, t.Accent.G, t.Accent.B)
		l.pdf.SetLineWidth(0.6)
		l.pdf.Line(t.Margin, l.y+2, l.pageW-t.Margin, l.y+2)
		l.y += 3
	}
	l.y += 2
}

// text draws a paragraph or bullet wrapped to the content width. Bullets get
// a drawn glyph and a hanging indent.
func (l *layout) text(b markdown.Block, indent float64, bullet bool) {
	t := l.theme
	style := ""
	if b.AllBold() {
		style = "B"
	}
	lh := lineHeight(bodySize)

	l.pdf.SetFont(fontFamily, style, bodySize)
	lines := l.split(b.Plain(), l.contentWidth()-indent)

	for i, line := range lines {
		l.ensure(lh)
		l.y += lh
		if bullet && i == 0 {
			l.pdf.SetFillColor(t.Accent.R, t.Accent.G, t.Accent.B)
			l.pdf.Circle(t.Margin+2, l.y-1.3, 0.9, "F")
		}
		l.pdf.SetTextColor(t.Text.R, t.Text.G, t.Text.B)
		l.pdf.Text(t.Margin+indent, l.y, line)
	}
	l.y += 1.5
}

func (l *layout) split(s string, width float64) []string {
	s = l.tr(s)
	if s == "" {
		return []string{""}
	}
	raw := l.pdf.SplitLines([]byte(s), width)
	lines := make([]string, 0, len(raw))
	for _, r := range raw {
		lines = append(lines, string(r))
	}
	return lines
}

// footers revisits every page and stamps the label and "Page X of Y", now
// that the total is known.
func (l *layout) footers(label string) {
	t := l.theme
	p := l.pdf
	total := p.PageCount()
	y := l.pageH - t.Margin

	for i := 1; i <= total; i++ {
		p.SetPage(i)
		// Re-select the font so the Tf operator lands in this page's stream.
		p.SetFont(fontFamily, "", footerSize+1)
		p.SetFont(fontFamily, "", footerSize)
		p.SetDrawColor(t.Muted.R, t.Muted.G, t.Muted.B)
		p.SetFillColor(255, 255, 255)
		p.SetTextColor(t.Muted.R, t.Muted.G, t.Muted.B)
		p.SetLineWidth(0.2)
		p.Line(t.Margin, y, l.pageW-t.Margin, y)

		p.Text(t.Margin, y+5, l.tr(label))
		page := fmt.Sprintf("Page %d of %d", i, total)
		p.Text(l.pageW-t.Margin-p.GetStringWidth(page), y+5, page)
	}
	p.SetPage(total)
	l.pages = total
}

func footerLabel(meta Metadata) string {
	switch {
	case meta.Company != "" && meta.ReportType != "":
		return meta.Company + " - " + meta.ReportType
	case meta.ReportType != "":
		return meta.ReportType
	default:
		return meta.Company
	}
}

// BaseName is "{company}_{report_type}_{YYYY-MM-DD}" with every character
// outside letters, digits, dot, dash and underscore replaced by "_".
func BaseName(company, reportType string, date time.Time) string {
	if company == "" {
		company = "report"
	}
	if reportType == "" {
		reportType = "analysis"
	}
	return sanitize(company) + "_" + sanitize(reportType) + "_" + date.Format("2006-01-02")
}

// Filename is BaseName with the .pdf extension.
func Filename(company, reportType string, date time.Time) string {
	return BaseName(company, reportType, date) + ".pdf"
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.') {
			return r
		}
		return '_'
	}, strings.TrimSpace(s))
}
