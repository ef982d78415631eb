// Package section splits a contract's full text into labeled regions keyed by
// the bilingual section headers of the lease form.
package section

import (
	"regexp"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/coolbeans/ejar/pkg/value"
)

// Section kinds of the lease form.
const (
	Lessor    = "lessor"
	LessorRep = "lessor_rep"
	Tenant    = "tenant"
	TenantRep = "tenant_rep"
	Brokerage = "brokerage"
	Titles    = "titles"
	Property  = "property"
	Units     = "units"
	Financial = "financial"
	Payments  = "payments"
)

// Kinds lists every section kind in form order.
var Kinds = []string{
	Lessor, LessorRep, Tenant, TenantRep, Brokerage,
	Titles, Property, Units, Financial, Payments,
}

// IsKind reports whether key names a known section kind.
func IsKind(key string) bool {
	for _, k := range Kinds {
		if k == key {
			return true
		}
	}
	return false
}

// Rule maps a header pattern to a section kind.
type Rule struct {
	Key     string
	Pattern *regexp.Regexp
}

// Span is the byte range [Start, End) of one section in the full text.
type Span struct {
	Key   string
	Start int
	End   int
}

// Spans holds the located sections ordered by position.
type Spans struct {
	order []Span
	byKey map[string]int
}

// Segmenter locates section headers. It holds no per-call state.
type Segmenter struct {
	rules []Rule
}

// NewSegmenter returns a Segmenter over rules, in priority order.
func NewSegmenter(rules []Rule) *Segmenter {
	return &Segmenter{rules: rules}
}

type mark struct {
	pos   int
	key   string
	order int
}

// Segment finds the first match of each rule, orders the found headers by
// position and lets each span run to the next header or the end of text.
// Kinds without a header are absent.
func (s *Segmenter) Segment(text string) Spans {
	var marks []mark
	seen := make(map[string]bool, len(s.rules))
	for i, rule := range s.rules {
		if seen[rule.Key] || rule.Pattern == nil {
			continue
		}
		loc := rule.Pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		seen[rule.Key] = true
		marks = append(marks, mark{pos: loc[0], key: rule.Key, order: i})
	}

	sort.SliceStable(marks, func(i, j int) bool {
		if marks[i].pos != marks[j].pos {
			return marks[i].pos < marks[j].pos
		}
		return marks[i].order < marks[j].order
	})

	spans := Spans{byKey: make(map[string]int, len(marks))}
	for i, m := range marks {
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1].pos
		}
		spans.byKey[m.key] = len(spans.order)
		spans.order = append(spans.order, Span{Key: m.key, Start: m.pos, End: end})
	}
	return spans
}

// Get returns the span for key.
func (s Spans) Get(key string) (Span, bool) {
	i, ok := s.byKey[key]
	if !ok {
		return Span{}, false
	}
	return s.order[i], true
}

// Slice returns the text of section key, or "" when it was not found.
func (s Spans) Slice(text, key string) string {
	sp, ok := s.Get(key)
	if !ok || sp.End > len(text) {
		return ""
	}
	return text[sp.Start:sp.End]
}

// All returns the spans in document order.
func (s Spans) All() []Span {
	return append([]Span(nil), s.order...)
}

// Len returns the number of located sections.
func (s Spans) Len() int { return len(s.order) }

// Object renders the spans of text as key -> [start, end] in document
// order. Offsets are counted in runes, like the page lengths of a document.
func (s Spans) Object(text string) *value.Object {
	o := value.NewObject()
	for _, sp := range s.order {
		if sp.End > len(text) {
			continue
		}
		start := utf8.RuneCountInString(text[:sp.Start])
		end := start + utf8.RuneCountInString(text[sp.Start:sp.End])
		o.Set(sp.Key, value.List(
			value.Scalar(strconv.Itoa(start)),
			value.Scalar(strconv.Itoa(end)),
		))
	}
	return o
}
