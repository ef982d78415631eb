// Package textnorm cleans text pulled out of bilingual Arabic/English documents
// so that pattern matching sees one canonical form: ASCII digits, single spaces,
// composed Arabic letters in natural reading order.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// honorific is the single-glyph eulogy ligature (U+FDFA). It has no useful
// content for extraction and expands to a long phrase under NFKC.
const honorific = "\uFDFA"

// DefaultProtected lists tokens whose letters are never reordered: the divine
// name and the connectives that appear inside personal names.
var DefaultProtected = []string{"الله", "بن", "بنت", "أبو", "آل"}

// Normalizer applies the full normalization chain. It is immutable and safe
// for concurrent use.
type Normalizer struct {
	protected map[string]bool
}

// New returns a Normalizer protecting the given tokens. With no arguments
// DefaultProtected is used.
func New(protected ...string) *Normalizer {
	if len(protected) == 0 {
		protected = DefaultProtected
	}
	n := &Normalizer{protected: make(map[string]bool, len(protected))}
	for _, tok := range protected {
		tok = Compose(strings.TrimSpace(tok))
		if tok != "" {
			n.protected[tok] = true
		}
	}
	return n
}

var defaultNormalizer = New()

// Normalize runs the default Normalizer.
func Normalize(s string) string {
	return defaultNormalizer.Normalize(s)
}

// Normalize folds digits, collapses whitespace and bidi marks, restores the
// reading order of reversed Arabic lines and composes presentation forms.
// Normalize(Normalize(s)) == Normalize(s).
func (n *Normalizer) Normalize(s string) string {
	s = FoldDigits(s)
	s = CollapseSpace(s)
	s = n.FixDirection(s)
	// some isolated presentation forms compose to a space plus a mark
	return CollapseSpace(Compose(s))
}

// Clean normalizes a single extracted field value and trims it.
func (n *Normalizer) Clean(s string) string {
	return strings.TrimSpace(n.Normalize(s))
}

// FoldDigits maps Arabic-indic and extended Arabic-indic digits to ASCII.
func FoldDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '\u0660' && r <= '\u0669':
			return '0' + (r - '\u0660')
		case r >= '\u06F0' && r <= '\u06F9':
			return '0' + (r - '\u06F0')
		}
		return r
	}, s)
}

// CollapseSpace normalizes line endings, turns bidi control marks into
// spaces, drops zero-width characters and collapses horizontal whitespace.
// Line structure is kept; each line is trimmed.
func CollapseSpace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		var b strings.Builder
		b.Grow(len(line))
		pending := false
		for _, r := range line {
			switch {
			case isZeroWidth(r):
				continue
			case isBidiMark(r) || unicode.IsSpace(r):
				pending = true
				continue
			}
			if pending && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pending = false
			b.WriteRune(r)
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

// Compose applies compatibility composition so presentation-form glyphs become
// base Arabic letters and ligatures expand to their letters.
func Compose(s string) string {
	if strings.Contains(s, honorific) {
		s = strings.ReplaceAll(s, honorific, "")
	}
	return norm.NFKC.String(s)
}

// IsArabic reports whether r lies in one of the Arabic blocks, presentation
// forms included.
func IsArabic(r rune) bool {
	switch {
	case r >= 0x0600 && r <= 0x06FF,
		r >= 0x0750 && r <= 0x077F,
		r >= 0x08A0 && r <= 0x08FF,
		r >= 0xFB50 && r <= 0xFDFF,
		r >= 0xFE70 && r <= 0xFEFC:
		return true
	}
	return false
}

// HasArabic reports whether s contains any Arabic character.
func HasArabic(s string) bool {
	for _, r := range s {
		if IsArabic(r) {
			return true
		}
	}
	return false
}

// isPresentationForm reports glyph-level Arabic code points that composition
// rewrites. Ornate parentheses and other symbols in the same blocks survive
// composition and are not counted.
func isPresentationForm(r rune) bool {
	if (r < 0xFB50 || r > 0xFDFF) && (r < 0xFE70 || r > 0xFEFC) {
		return false
	}
	return !norm.NFKC.IsNormalString(string(r))
}

func isBidiMark(r rune) bool {
	switch {
	case r == '\u200E', r == '\u200F', r == '\u061C':
		return true
	case r >= '\u202A' && r <= '\u202E':
		return true
	case r >= '\u2066' && r <= '\u2069':
		return true
	}
	return false
}

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200B', '\u200C', '\u200D', '\u2060', '\uFEFF':
		return true
	}
	return false
}
