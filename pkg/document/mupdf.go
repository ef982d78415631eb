package document

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// mupdfSource reads documents through MuPDF.
type mupdfSource struct {
	doc *fitz.Document
}

func openMuPDF(path string) (*mupdfSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening with MuPDF: %w", err)
	}
	return &mupdfSource{doc: doc}, nil
}

func (s *mupdfSource) NumPages() int { return s.doc.NumPage() }

func (s *mupdfSource) PageText(i int) (string, error) {
	return s.doc.Text(i)
}

func (s *mupdfSource) Close() error { return s.doc.Close() }
