package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageMargin       = 20.0 // mm
	titleFontSize    = 32.0 // pt
	minTitleFontSize = 14.0 // pt
	titleLineSpacing = 1.25
)

// TitlePage renders a single A4 page with title centered in large bold text.
// It is used for cover pages and section dividers. Titles too wide for the
// page shrink down to minTitleFontSize and then wrap. Characters outside
// cp1252 are drawn as '.'.
func TitlePage(title string) ([]byte, error) {
	doc := newPage()

	tr := doc.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := doc.GetPageSize()
	usable := pageW - 2*pageMargin

	size := titleFontSize
	doc.SetFont("Helvetica", "B", size)
	for size > minTitleFontSize && doc.GetStringWidth(tr(title)) > usable {
		size -= 2
		doc.SetFont("Helvetica", "B", size)
	}

	lines := wrapTitle(doc, tr, title, usable)
	lineHeight := doc.PointConvert(size) * titleLineSpacing
	y := (pageH - float64(len(lines))*lineHeight) / 2

	for _, line := range lines {
		doc.SetXY(pageMargin, y)
		doc.CellFormat(usable, lineHeight, line, "", 0, "C", false, 0, "")
		y += lineHeight
	}

	return output(doc)
}

// wrapTitle breaks title into translated lines no wider than width at the
// current font. Words wider than a line are split between characters.
// Wrapping works on the UTF-8 text; only finished lines are translated, since
// the core font width tables are indexed by single-byte codes.
func wrapTitle(doc *gofpdf.Fpdf, tr func(string) string, title string, width float64) []string {
	fits := func(s string) bool { return doc.GetStringWidth(tr(s)) <= width }

	var lines []string
	line := ""
	for _, word := range strings.Fields(title) {
		for _, chunk := range splitWord(word, fits) {
			switch {
			case line == "":
				line = chunk
			case fits(line + " " + chunk):
				line += " " + chunk
			default:
				lines = append(lines, tr(line))
				line = chunk
			}
		}
	}
	if line != "" {
		lines = append(lines, tr(line))
	}
	return lines
}

// splitWord cuts word into pieces that fit, keeping at least one rune per
// piece.
func splitWord(word string, fits func(string) bool) []string {
	if fits(word) {
		return []string{word}
	}
	var pieces []string
	runes := []rune(word)
	start := 0
	for i := start + 1; i <= len(runes); i++ {
		if i-start > 1 && !fits(string(runes[start:i])) {
			pieces = append(pieces, string(runes[start:i-1]))
			start = i - 1
		}
	}
	return append(pieces, string(runes[start:]))
}

// BlankPage renders a single empty A4 page.
func BlankPage() ([]byte, error) {
	return output(newPage())
}

func newPage() *gofpdf.Fpdf {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()
	return doc
}

func output(doc *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return buf.Bytes(), nil
}
