// Package document turns a page-oriented source into ordered page texts and
// the joined full text of a contract.
package document

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// Backends accepted by Open.
const (
	BackendAuto  = "auto"
	BackendPDF   = "pdf"
	BackendMuPDF = "mupdf"
	BackendText  = "text"
)

// Backends lists the explicit backend names.
var Backends = []string{BackendPDF, BackendMuPDF, BackendText}

// Source yields the text layer of a document page by page. Pages are indexed
// from zero.
type Source interface {
	NumPages() int
	PageText(i int) (string, error)
	Close() error
}

// ReadError reports a document that could not be opened at all.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading document %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Document is the text of one contract. It is built once per extraction and
// discarded afterwards.
type Document struct {
	// Pages holds the raw text of each page in order; failed pages are ""
	Pages []string

	// Text is Pages joined with newlines
	Text string
}

// PageLengths returns the rune count of every page.
func (d *Document) PageLengths() []int {
	lengths := make([]int, len(d.Pages))
	for i, p := range d.Pages {
		lengths[i] = utf8.RuneCountInString(p)
	}
	return lengths
}

// Open opens path with the named backend. BackendAuto (or "") reads .txt
// files as text and everything else as PDF.
func Open(path, backend string) (Source, error) {
	if backend == "" || backend == BackendAuto {
		backend = detectBackend(path)
	}

	var (
		src Source
		err error
	)
	switch backend {
	case BackendPDF:
		src, err = openPDF(path)
	case BackendMuPDF:
		src, err = openMuPDF(path)
	case BackendText:
		src, err = openText(path)
	default:
		err = fmt.Errorf("unknown backend %q", backend)
	}
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return src, nil
}

func detectBackend(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		return BackendText
	default:
		return BackendPDF
	}
}

// Read collects the text of every page of src in order. A page that fails or
// panics contributes "" and is logged; Read itself never fails.
func Read(src Source, logger zerolog.Logger) *Document {
	n := src.NumPages()
	doc := &Document{Pages: make([]string, n)}
	for i := 0; i < n; i++ {
		text, err := pageText(src, i)
		if err != nil {
			logger.Warn().Err(err).Int("page", i+1).Msg("page text extraction failed")
			continue
		}
		doc.Pages[i] = text
	}
	doc.Text = strings.Join(doc.Pages, "\n")
	return doc
}

func pageText(src Source, i int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("panic: %v", r)
		}
	}()
	return src.PageText(i)
}
