// Package template provides the pattern configuration that drives extraction:
// section headers, per-field pattern tables, label lists, protected tokens and
// the payment calendar policy. Templates are loaded from YAML, compiled once
// and then shared read-only.
package template

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/coolbeans/ejar/pkg/match"
	"github.com/coolbeans/ejar/pkg/section"
	"github.com/coolbeans/ejar/pkg/textnorm"
)

// Payment date policies.
const (
	DatePolicyGregorian = "gregorian"
	DatePolicyHijri     = "hijri"
)

// Template describes one contract layout.
type Template struct {
	// Metadata
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version" json:"version"`
	FormatID    string `yaml:"format_id" json:"format_id"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Detection configuration
	Detection DetectionConfig `yaml:"detection" json:"detection"`

	// Section headers in priority order
	Sections []SectionRule `yaml:"sections" json:"sections"`

	// Fields maps a field key to its candidate patterns, highest priority first
	Fields map[string][]string `yaml:"fields" json:"fields"`

	// Bounded maps a field key to a label whose value stops at the next label
	Bounded map[string]BoundedRule `yaml:"bounded" json:"bounded"`

	// Labels groups label fragments stripped from extracted values
	Labels map[string][]string `yaml:"labels" json:"labels"`

	// ProtectedTokens are never reordered by direction correction
	ProtectedTokens []string `yaml:"protected_tokens" json:"protected_tokens"`

	Payments PaymentConfig `yaml:"payments" json:"payments"`

	// Compiled patterns (populated after loading)
	compiled *Compiled
}

// DetectionConfig defines how to recognize a document of this layout.
type DetectionConfig struct {
	// RequiredIndicators must have at least one match for detection
	RequiredIndicators []Indicator `yaml:"required_indicators" json:"required_indicators"`

	// OptionalIndicators add to confidence but are not required
	OptionalIndicators []Indicator `yaml:"optional_indicators" json:"optional_indicators"`

	// NegativeIndicators reduce confidence (use negative weights)
	NegativeIndicators []Indicator `yaml:"negative_indicators" json:"negative_indicators"`
}

// Indicator is a weighted pattern used during detection.
type Indicator struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Weight  int    `yaml:"weight" json:"weight"`

	compiled *regexp.Regexp
}

// SectionRule maps a header pattern to a section kind. Header patterns are
// matched case-insensitively.
type SectionRule struct {
	Key     string `yaml:"key" json:"key"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// BoundedRule captures the rest of the line after Label, cut at any Stop.
type BoundedRule struct {
	Label []string `yaml:"label" json:"label"`
	Stop  []string `yaml:"stop" json:"stop"`
}

// PaymentConfig configures the payment-schedule parser.
type PaymentConfig struct {
	// DatePolicy selects which calendar's due date wins: gregorian or hijri
	DatePolicy string `yaml:"date_policy" json:"date_policy"`

	// Row matches a full schedule row; it must define the named groups
	// amount, hijri and gregorian
	Row string `yaml:"row" json:"row"`

	Amount    []string `yaml:"amount" json:"amount"`
	Gregorian []string `yaml:"gregorian" json:"gregorian"`
	Hijri     []string `yaml:"hijri" json:"hijri"`
}

// Compiled holds the compiled form of a Template.
type Compiled struct {
	Indicators struct {
		Required []*regexp.Regexp
		Optional []*regexp.Regexp
		Negative []*regexp.Regexp
	}
	Sections   []section.Rule
	Fields     map[string]*match.Matcher
	Bounded    map[string]match.Bounded
	Labels     map[string]*match.Matcher
	Normalizer *textnorm.Normalizer

	Row       *regexp.Regexp
	Amount    *match.Matcher
	Gregorian *match.Matcher
	Hijri     *match.Matcher
}

// Compile compiles every pattern in the template.
// Returns an error naming the first pattern that fails to compile.
func (t *Template) Compile() error {
	c := &Compiled{
		Fields:  make(map[string]*match.Matcher, len(t.Fields)),
		Bounded: make(map[string]match.Bounded, len(t.Bounded)),
		Labels:  make(map[string]*match.Matcher, len(t.Labels)),
	}

	// Compile detection indicators
	indicatorSets := []struct {
		kind string
		list []Indicator
		out  *[]*regexp.Regexp
	}{
		{"required", t.Detection.RequiredIndicators, &c.Indicators.Required},
		{"optional", t.Detection.OptionalIndicators, &c.Indicators.Optional},
		{"negative", t.Detection.NegativeIndicators, &c.Indicators.Negative},
	}
	for _, set := range indicatorSets {
		for i := range set.list {
			ind := &set.list[i]
			re, err := regexp.Compile(ind.Pattern)
			if err != nil {
				return fmt.Errorf("compiling %s indicator %d pattern %q: %w", set.kind, i, ind.Pattern, err)
			}
			ind.compiled = re
			*set.out = append(*set.out, re)
		}
	}

	// Section headers are case-insensitive
	for i, rule := range t.Sections {
		re, err := regexp.Compile(`(?i)` + rule.Pattern)
		if err != nil {
			return fmt.Errorf("compiling section %d (%s) pattern %q: %w", i, rule.Key, rule.Pattern, err)
		}
		c.Sections = append(c.Sections, section.Rule{Key: rule.Key, Pattern: re})
	}

	for _, key := range sortedKeys(t.Fields) {
		m, err := match.Compile(t.Fields[key]...)
		if err != nil {
			return fmt.Errorf("compiling field %s: %w", key, err)
		}
		c.Fields[key] = m
	}

	for key, rule := range t.Bounded {
		label, err := match.Compile(rule.Label...)
		if err != nil {
			return fmt.Errorf("compiling bounded field %s label: %w", key, err)
		}
		stop, err := match.Compile(rule.Stop...)
		if err != nil {
			return fmt.Errorf("compiling bounded field %s stop: %w", key, err)
		}
		c.Bounded[key] = match.Bounded{Label: label, Stop: stop}
	}

	for _, group := range sortedKeys(t.Labels) {
		m, err := match.Compile(t.Labels[group]...)
		if err != nil {
			return fmt.Errorf("compiling label %s: %w", group, err)
		}
		c.Labels[group] = m
	}

	if t.Payments.Row != "" {
		re, err := regexp.Compile(t.Payments.Row)
		if err != nil {
			return fmt.Errorf("compiling payment row pattern: %w", err)
		}
		for _, name := range []string{"amount", "hijri", "gregorian"} {
			if re.SubexpIndex(name) < 0 {
				return fmt.Errorf("payment row pattern lacks group %q", name)
			}
		}
		c.Row = re
	}
	var err error
	if c.Amount, err = match.Compile(t.Payments.Amount...); err != nil {
		return fmt.Errorf("compiling payment amount: %w", err)
	}
	if c.Gregorian, err = match.Compile(t.Payments.Gregorian...); err != nil {
		return fmt.Errorf("compiling payment gregorian date: %w", err)
	}
	if c.Hijri, err = match.Compile(t.Payments.Hijri...); err != nil {
		return fmt.Errorf("compiling payment hijri date: %w", err)
	}

	c.Normalizer = textnorm.New(t.ProtectedTokens...)
	t.compiled = c
	return nil
}

// IsCompiled returns true if the template has been compiled.
func (t *Template) IsCompiled() bool {
	return t.compiled != nil
}

// Compiled returns the compiled patterns, or nil before Compile.
func (t *Template) Compiled() *Compiled {
	return t.compiled
}

// Field returns the matcher for key. Unknown keys yield a nil Matcher, which
// never matches.
func (t *Template) Field(key string) *match.Matcher {
	if t.compiled == nil {
		return nil
	}
	return t.compiled.Fields[key]
}

// HasField reports whether key has at least one pattern.
func (t *Template) HasField(key string) bool {
	return t.Field(key).Len() > 0
}

// BoundedField returns the bounded capture for key.
func (t *Template) BoundedField(key string) match.Bounded {
	if t.compiled == nil {
		return match.Bounded{}
	}
	return t.compiled.Bounded[key]
}

// LabelMatcher returns the label fragments of group. Unknown groups yield a
// nil Matcher, which strips nothing.
func (t *Template) LabelMatcher(group string) *match.Matcher {
	if t.compiled == nil {
		return nil
	}
	return t.compiled.Labels[group]
}

// SectionRules returns the compiled section headers in priority order.
func (t *Template) SectionRules() []section.Rule {
	if t.compiled == nil {
		return nil
	}
	return t.compiled.Sections
}

// Normalizer returns the text normalizer configured with the template's
// protected tokens.
func (t *Template) Normalizer() *textnorm.Normalizer {
	if t.compiled == nil {
		return textnorm.New(t.ProtectedTokens...)
	}
	return t.compiled.Normalizer
}

// DatePolicy returns the payment date policy, defaulting to gregorian.
func (t *Template) DatePolicy() string {
	if t.Payments.DatePolicy == "" {
		return DatePolicyGregorian
	}
	return t.Payments.DatePolicy
}

// WithDatePolicy returns a compiled copy of t using policy. The receiver is
// not modified.
func (t *Template) WithDatePolicy(policy string) *Template {
	cp := *t
	cp.Payments.DatePolicy = policy
	return &cp
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
