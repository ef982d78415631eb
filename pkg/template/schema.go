package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/coolbeans/ejar/pkg/section"
)

var (
	formatIDPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	versionPattern  = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)
)

// ValidationError names the template key that failed and why.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	if e.Value == nil {
		return e.Field + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every failure of one template.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	switch len(errs) {
	case 0:
		return "no errors"
	case 1:
		return errs[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:", len(errs))
	for _, e := range errs {
		b.WriteString("\n  - ")
		b.WriteString(e.Error())
	}
	return b.String()
}

func (errs *ValidationErrors) add(field, msg string, value interface{}) {
	*errs = append(*errs, ValidationError{Field: field, Message: msg, Value: value})
}

func (errs *ValidationErrors) missing(field string) {
	errs.add(field, "required field is missing", nil)
}

// Validate checks the template for structural problems. Regular expressions
// are checked by Compile.
func (t *Template) Validate() error {
	if errs := ValidateSchema(t); len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateSchema returns every validation failure of t.
func ValidateSchema(t *Template) ValidationErrors {
	var errs ValidationErrors

	if t.Name == "" {
		errs.missing("name")
	}

	switch {
	case t.FormatID == "":
		errs.missing("format_id")
	case !isValidFormatID(t.FormatID):
		errs.add("format_id", "must be lowercase letters, digits and hyphens, starting with a letter", t.FormatID)
	}

	switch {
	case t.Version == "":
		errs.missing("version")
	case !isValidVersion(t.Version):
		errs.add("version", "must be MAJOR.MINOR.PATCH", t.Version)
	}

	checkDetection(&errs, &t.Detection)
	checkSections(&errs, t.Sections)
	checkFields(&errs, t)

	switch t.Payments.DatePolicy {
	case "", DatePolicyGregorian, DatePolicyHijri:
	default:
		errs.add("payments.date_policy", "must be gregorian or hijri", t.Payments.DatePolicy)
	}

	return errs
}

func checkDetection(errs *ValidationErrors, d *DetectionConfig) {
	if len(d.RequiredIndicators) == 0 {
		errs.add("detection.required_indicators", "at least one required indicator is needed", nil)
	}

	groups := []struct {
		name       string
		indicators []Indicator
		negative   bool
	}{
		{"required_indicators", d.RequiredIndicators, false},
		{"optional_indicators", d.OptionalIndicators, false},
		{"negative_indicators", d.NegativeIndicators, true},
	}
	for _, g := range groups {
		for i, ind := range g.indicators {
			field := fmt.Sprintf("detection.%s[%d]", g.name, i)
			if ind.Pattern == "" {
				errs.add(field+".pattern", "pattern is required", nil)
			}
			if g.negative {
				if ind.Weight < -100 || ind.Weight > -1 {
					errs.add(field+".weight", "negative indicator weight must be between -100 and -1", ind.Weight)
				}
			} else if ind.Weight < 1 || ind.Weight > 100 {
				errs.add(field+".weight", "weight must be between 1 and 100", ind.Weight)
			}
		}
	}
}

func checkSections(errs *ValidationErrors, rules []SectionRule) {
	if len(rules) == 0 {
		errs.add("sections", "at least one section header is needed", nil)
	}

	seen := make(map[string]bool, len(rules))
	for i, rule := range rules {
		field := fmt.Sprintf("sections[%d]", i)
		if !section.IsKind(rule.Key) {
			errs.add(field+".key", "unknown section kind", rule.Key)
		} else if seen[rule.Key] {
			errs.add(field+".key", "duplicate section kind", rule.Key)
		}
		seen[rule.Key] = true

		if rule.Pattern == "" {
			errs.add(field+".pattern", "pattern is required", nil)
		}
	}
}

func checkFields(errs *ValidationErrors, t *Template) {
	for _, key := range sortedKeys(t.Fields) {
		patterns := t.Fields[key]
		if len(patterns) == 0 {
			errs.add("fields."+key, "at least one pattern is needed", nil)
		}
		for i, p := range patterns {
			if p == "" {
				errs.add(fmt.Sprintf("fields.%s[%d]", key, i), "pattern is required", nil)
			}
		}
	}

	for key, rule := range t.Bounded {
		if len(rule.Label) == 0 {
			errs.add("bounded."+key+".label", "at least one label pattern is needed", nil)
		}
	}
}

func isValidFormatID(id string) bool {
	return formatIDPattern.MatchString(id)
}

func isValidVersion(v string) bool {
	return versionPattern.MatchString(v)
}
