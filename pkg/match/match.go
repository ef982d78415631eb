// Package match provides small combinators over compiled regular expressions:
// ordered alternatives where the first success wins, and label-bounded
// captures that stop at the next known label.
package match

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher tries its patterns in priority order.
type Matcher struct {
	patterns []*regexp.Regexp
}

// New returns a Matcher over already compiled patterns.
func New(patterns ...*regexp.Regexp) *Matcher {
	return &Matcher{patterns: patterns}
}

// Compile compiles exprs in order.
func Compile(exprs ...string) (*Matcher, error) {
	m := &Matcher{patterns: make([]*regexp.Regexp, 0, len(exprs))}
	for i, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %d %q: %w", i, expr, err)
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

// MustCompile is like Compile but panics on a bad expression.
func MustCompile(exprs ...string) *Matcher {
	m, err := Compile(exprs...)
	if err != nil {
		panic(err)
	}
	return m
}

// Len returns the number of alternatives.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.patterns)
}

// Patterns returns the compiled alternatives in priority order.
func (m *Matcher) Patterns() []*regexp.Regexp {
	if m == nil {
		return nil
	}
	return m.patterns
}

// Find returns the submatches of the first pattern that matches s, or nil.
func (m *Matcher) Find(s string) []string {
	if m == nil {
		return nil
	}
	for _, re := range m.patterns {
		if sub := re.FindStringSubmatch(s); sub != nil {
			return sub
		}
	}
	return nil
}

// First returns the trimmed first capture group of the first pattern whose
// capture is non-empty. Patterns without groups yield the whole match.
func (m *Matcher) First(s string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, re := range m.patterns {
		sub := re.FindStringSubmatch(s)
		if sub == nil {
			continue
		}
		v := sub[0]
		if len(sub) > 1 {
			v = sub[1]
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, true
		}
	}
	return "", false
}

// Value is First without the found flag.
func (m *Matcher) Value(s string) string {
	v, _ := m.First(s)
	return v
}

// Index returns the location of the first pattern that matches s.
func (m *Matcher) Index(s string) []int {
	if m == nil {
		return nil
	}
	for _, re := range m.patterns {
		if loc := re.FindStringIndex(s); loc != nil {
			return loc
		}
	}
	return nil
}

// FindAll returns every match of the first pattern that matches s at least
// once.
func (m *Matcher) FindAll(s string) [][]string {
	if m == nil {
		return nil
	}
	for _, re := range m.patterns {
		if all := re.FindAllStringSubmatch(s, -1); len(all) > 0 {
			return all
		}
	}
	return nil
}

// FindAllIndex returns the locations of every match of the first pattern that
// matches s at least once.
func (m *Matcher) FindAllIndex(s string) [][]int {
	if m == nil {
		return nil
	}
	for _, re := range m.patterns {
		if locs := re.FindAllStringIndex(s, -1); len(locs) > 0 {
			return locs
		}
	}
	return nil
}

// Strip removes every match of every pattern from s.
func (m *Matcher) Strip(s string) string {
	if m == nil {
		return s
	}
	for _, re := range m.patterns {
		s = re.ReplaceAllString(s, " ")
	}
	return s
}
