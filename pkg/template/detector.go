package template

import (
	"fmt"
	"sort"
)

// Match is a scored template candidate for a document.
type Match struct {
	FormatID   string
	Template   *Template
	Confidence float64
	Score      float64
	MaxScore   float64
	Indicators []IndicatorMatch

	// Scoring details for tie-breaking
	RequiredMatched int
	RequiredTotal   int
	OptionalMatched int
	OptionalTotal   int
	NegativeMatched int
	TotalMatchCount int
	Specificity     float64
}

// IndicatorMatch represents a matched indicator.
type IndicatorMatch struct {
	Pattern    string
	Weight     int
	MatchCount int
	Type       string // "required", "optional", "negative"
}

// String returns a human-readable summary of the match.
func (m *Match) String() string {
	return fmt.Sprintf("%s: %.1f%% confidence (score: %.1f/%.1f, %d indicators matched)",
		m.FormatID, m.Confidence*100, m.Score, m.MaxScore, len(m.Indicators))
}

// DetectorOptions configures the detector.
type DetectorOptions struct {
	// MinConfidence filters out matches at or below this threshold (0.0-1.0)
	MinConfidence float64

	// MaxResults limits the number of results returned (0 = unlimited)
	MaxResults int
}

// Detector ranks registered templates against document text.
type Detector struct {
	registry Registry
	options  DetectorOptions
}

// NewDetector creates a detector with default options.
func NewDetector(registry Registry) *Detector {
	return &Detector{registry: registry}
}

// NewDetectorWithOptions creates a detector with custom options.
func NewDetectorWithOptions(registry Registry, options DetectorOptions) *Detector {
	return &Detector{registry: registry, options: options}
}

// Detect returns template matches ranked by confidence.
func (d *Detector) Detect(content string) []Match {
	templates := d.registry.List()
	if len(templates) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(templates))
	for _, t := range templates {
		m := evaluate(content, t)
		if m.Confidence > d.options.MinConfidence {
			matches = append(matches, m)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		// more specific templates win
		if matches[i].Specificity != matches[j].Specificity {
			return matches[i].Specificity > matches[j].Specificity
		}
		if matches[i].TotalMatchCount != matches[j].TotalMatchCount {
			return matches[i].TotalMatchCount > matches[j].TotalMatchCount
		}
		return matches[i].FormatID < matches[j].FormatID
	})

	if d.options.MaxResults > 0 && len(matches) > d.options.MaxResults {
		matches = matches[:d.options.MaxResults]
	}
	return matches
}

// DetectBest returns the best matching template, or nil if none matched.
func (d *Detector) DetectBest(content string) *Match {
	matches := d.Detect(content)
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

func evaluate(content string, t *Template) Match {
	m := Match{
		FormatID:      t.FormatID,
		Template:      t,
		RequiredTotal: len(t.Detection.RequiredIndicators),
		OptionalTotal: len(t.Detection.OptionalIndicators),
	}

	for _, ind := range t.Detection.RequiredIndicators {
		m.MaxScore += float64(ind.Weight)
	}
	m.RequiredMatched = m.score(content, t.Detection.RequiredIndicators, "required")

	// Without a required indicator the template does not apply
	if m.RequiredMatched == 0 {
		return m
	}

	m.OptionalMatched = m.score(content, t.Detection.OptionalIndicators, "optional")
	m.NegativeMatched = m.score(content, t.Detection.NegativeIndicators, "negative")

	if m.MaxScore > 0 {
		m.Confidence = m.Score / m.MaxScore
		if m.Confidence < 0 {
			m.Confidence = 0
		}
		if m.Confidence > 1 {
			m.Confidence = 1
		}
	}
	m.Specificity = specificity(&m)
	return m
}

// score adds the weights of matching indicators and returns how many matched.
func (m *Match) score(content string, indicators []Indicator, kind string) int {
	matched := 0
	for _, ind := range indicators {
		if ind.compiled == nil {
			continue
		}
		n := len(ind.compiled.FindAllStringIndex(content, -1))
		if n == 0 {
			continue
		}
		matched++
		m.Score += float64(ind.Weight)
		m.TotalMatchCount += n
		m.Indicators = append(m.Indicators, IndicatorMatch{
			Pattern:    ind.Pattern,
			Weight:     ind.Weight,
			MatchCount: n,
			Type:       kind,
		})
	}
	return matched
}

// specificity blends required coverage, optional coverage and the number of
// indicators a template defines.
func specificity(m *Match) float64 {
	if m.RequiredTotal == 0 {
		return 0
	}

	required := float64(m.RequiredMatched) / float64(m.RequiredTotal) * 0.5

	var optional float64
	if m.OptionalTotal > 0 {
		optional = float64(m.OptionalMatched) / float64(m.OptionalTotal) * 0.3
	}

	complexity := float64(min(m.RequiredTotal+m.OptionalTotal, 10)) / 10.0 * 0.2

	return required + optional + complexity
}
