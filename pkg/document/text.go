package document

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// pageBreak separates pages in plain-text documents.
const pageBreak = "\f"

// textSource serves a UTF-8 text file whose pages are separated by form feeds.
type textSource struct {
	pages []string
}

func openText(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("not valid UTF-8 text")
	}
	return NewText(string(data)), nil
}

// NewText returns a Source over s, split into pages at form feeds.
func NewText(s string) Source {
	pages := strings.Split(s, pageBreak)
	// a trailing form feed does not start a page
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return &textSource{pages: pages}
}

func (s *textSource) NumPages() int { return len(s.pages) }

func (s *textSource) PageText(i int) (string, error) {
	if i < 0 || i >= len(s.pages) {
		return "", fmt.Errorf("page %d out of range", i+1)
	}
	return s.pages[i], nil
}

func (s *textSource) Close() error { return nil }
