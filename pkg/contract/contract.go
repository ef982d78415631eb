// Package contract assembles the field extractors into one record per lease
// contract: it reads the pages, normalizes the text, locates the sections and
// merges what each extractor finds.
package contract

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/coolbeans/ejar/pkg/document"
	"github.com/coolbeans/ejar/pkg/section"
	"github.com/coolbeans/ejar/pkg/template"
	"github.com/coolbeans/ejar/pkg/textnorm"
	"github.com/coolbeans/ejar/pkg/value"
)

// ErrNoTemplate is returned when no registered template matches a document
// and no fallback is configured.
var ErrNoTemplate = errors.New("no template matches the document")

// Options control a single extraction.
type Options struct {
	// Debug adds a "debug" object with spans, page count and page lengths
	Debug bool

	// DatePolicy overrides the template's payment date policy when set
	DatePolicy string
}

// Assembler runs the extraction pipeline. It holds no per-call state and may
// be shared by concurrent callers.
type Assembler struct {
	tmpl     *template.Template
	detector *template.Detector
	logger   zerolog.Logger
}

// New returns an Assembler that always uses tmpl, which must be compiled.
func New(tmpl *template.Template, logger zerolog.Logger) *Assembler {
	return &Assembler{tmpl: tmpl, logger: logger}
}

// NewWithDetector returns an Assembler that picks the best matching template
// of the registry for every document. When nothing matches, fallback is used;
// a nil fallback makes Extract fail with ErrNoTemplate.
func NewWithDetector(registry template.Registry, fallback *template.Template, logger zerolog.Logger) *Assembler {
	return &Assembler{
		tmpl:     fallback,
		detector: template.NewDetector(registry),
		logger:   logger,
	}
}

// ExtractFile opens path with the named backend, extracts it and closes it.
// Open failures are returned as *document.ReadError.
func (a *Assembler) ExtractFile(path, backend string, opts Options) (*value.Object, string, error) {
	src, err := document.Open(path, backend)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			a.logger.Warn().Err(cerr).Str("path", path).Msg("closing document")
		}
	}()
	return a.Extract(src, opts)
}

// Extract reads every page of src and returns the contract record together
// with the normalized full text.
func (a *Assembler) Extract(src document.Source, opts Options) (*value.Object, string, error) {
	doc := document.Read(src, a.logger)

	tmpl, err := a.selectTemplate(doc.Text)
	if err != nil {
		return nil, "", err
	}
	if opts.DatePolicy != "" {
		tmpl = tmpl.WithDatePolicy(opts.DatePolicy)
	}

	text := tmpl.Normalizer().Normalize(doc.Text)
	spans := section.NewSegmenter(tmpl.SectionRules()).Segment(text)

	rec := assemble(tmpl, text, spans)

	if opts.Debug {
		rec.Set("debug", value.ObjectValue(debugObject(doc, text, spans, tmpl)))
	}

	a.logger.Debug().
		Str("template", tmpl.FormatID).
		Int("pages", len(doc.Pages)).
		Int("sections", spans.Len()).
		Int("fields", rec.Len()).
		Msg("contract extracted")

	return rec, text, nil
}

func (a *Assembler) selectTemplate(raw string) (*template.Template, error) {
	if a.detector == nil {
		if a.tmpl == nil {
			return nil, ErrNoTemplate
		}
		return a.tmpl, nil
	}

	if m := a.detector.DetectBest(textnorm.Normalize(raw)); m != nil {
		a.logger.Debug().
			Str("template", m.FormatID).
			Float64("confidence", m.Confidence).
			Msg("template detected")
		return m.Template, nil
	}
	if a.tmpl == nil {
		return nil, ErrNoTemplate
	}
	a.logger.Info().Str("template", a.tmpl.FormatID).Msg("no template detected, using fallback")
	return a.tmpl, nil
}

func debugObject(doc *document.Document, text string, spans section.Spans, tmpl *template.Template) *value.Object {
	lengths := doc.PageLengths()
	items := make([]value.Value, len(lengths))
	for i, n := range lengths {
		items[i] = value.Scalar(fmt.Sprint(n))
	}
	return value.NewObject().
		Set("spans", value.ObjectValue(spans.Object(text))).
		SetString("pages_count", fmt.Sprint(len(doc.Pages))).
		Set("per_page_lengths", value.List(items...)).
		SetString("template", tmpl.FormatID)
}
