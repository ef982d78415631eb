// Package extract pulls typed fields out of the normalized text of each
// contract section. Every pattern comes from a compiled template; the
// extractors only decide how candidates are combined and cleaned.
package extract

import (
	"strings"

	"github.com/coolbeans/ejar/pkg/match"
	"github.com/coolbeans/ejar/pkg/template"
	"github.com/coolbeans/ejar/pkg/textnorm"
)

// valueTrim is stripped from both ends of cleaned values.
const valueTrim = " \t:：،,.-"

// Extractor runs the field extractors of one template. It holds no per-call
// state and is safe for concurrent use.
type Extractor struct {
	tmpl *template.Template
	norm *textnorm.Normalizer
}

// New returns an Extractor over a compiled template.
func New(tmpl *template.Template) *Extractor {
	return &Extractor{tmpl: tmpl, norm: tmpl.Normalizer()}
}

// Template returns the template driving e.
func (e *Extractor) Template() *template.Template {
	return e.tmpl
}

func (e *Extractor) field(key, text string) string {
	return e.tmpl.Field(key).Value(text)
}

// text cleans a free-text value: Arabic is direction-corrected and composed,
// whitespace collapsed and edge punctuation trimmed.
func (e *Extractor) text(s string) string {
	if textnorm.HasArabic(s) {
		s = e.norm.Clean(s)
	} else {
		s = strings.Join(strings.Fields(s), " ")
	}
	return strings.Trim(s, valueTrim)
}

// stripLabels removes every fragment of the label group from s.
func (e *Extractor) stripLabels(group, s string) string {
	s = e.tmpl.LabelMatcher(group).Strip(s)
	return strings.Trim(strings.Join(strings.Fields(s), " "), valueTrim)
}

// stripEdgeLabels removes label fragments of group found at either end of s,
// repeating until none is left.
func (e *Extractor) stripEdgeLabels(group, s string) string {
	labels := e.tmpl.LabelMatcher(group)
	s = strings.Trim(s, valueTrim)
	for changed := true; changed && s != ""; {
		changed = false
		for _, re := range labels.Patterns() {
			for _, loc := range re.FindAllStringIndex(s, -1) {
				if loc[0] == loc[1] {
					continue
				}
				if loc[0] == 0 || loc[1] == len(s) {
					s = strings.Trim(s[:loc[0]]+" "+s[loc[1]:], valueTrim)
					changed = true
					break
				}
			}
			if changed {
				break
			}
		}
	}
	return s
}

// segments splits text at each marker match. Each segment starts at its
// marker and runs to the next one or the end of text.
func segments(marker *match.Matcher, text string) []string {
	locs := marker.FindAllIndex(text)
	out := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out = append(out, text[loc[0]:end])
	}
	return out
}
