package document

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfSource reads PDFs with the pure-Go parser.
type pdfSource struct {
	file   *os.File
	reader *pdf.Reader
}

func openPDF(path string) (src *pdfSource, err error) {
	// the parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			src, err = nil, fmt.Errorf("parsing PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	return &pdfSource{file: f, reader: r}, nil
}

func (s *pdfSource) NumPages() int { return s.reader.NumPage() }

func (s *pdfSource) PageText(i int) (string, error) {
	page := s.reader.Page(i + 1)
	if page.V.IsNull() {
		return "", nil
	}
	return layoutText(page.Content().Text), nil
}

func (s *pdfSource) Close() error { return s.file.Close() }

// layoutText groups positioned glyph runs into lines by baseline, orders each
// line left to right and inserts a space wherever the horizontal gap exceeds
// a fraction of the font size.
func layoutText(glyphs []pdf.Text) string {
	if len(glyphs) == 0 {
		return ""
	}
	runs := append([]pdf.Text(nil), glyphs...)
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Y > runs[j].Y })

	var lines [][]pdf.Text
	var baseline float64
	for i, g := range runs {
		if i == 0 || math.Abs(g.Y-baseline) > lineTolerance(g) {
			lines = append(lines, nil)
			baseline = g.Y
		}
		lines[len(lines)-1] = append(lines[len(lines)-1], g)
	}

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })
		var end float64
		for j, g := range line {
			if j > 0 && g.X-end > spaceGap(g) {
				b.WriteByte(' ')
			}
			b.WriteString(g.S)
			end = g.X + g.W
		}
	}
	return b.String()
}

func lineTolerance(g pdf.Text) float64 {
	if g.FontSize > 0 {
		return g.FontSize / 2
	}
	return 2
}

func spaceGap(g pdf.Text) float64 {
	if g.FontSize > 0 {
		return g.FontSize * 0.15
	}
	return 1
}
