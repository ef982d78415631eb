package match

import (
	"strings"
)

// valueTrim is stripped from both ends of a bounded capture.
const valueTrim = " \t:：،,.-"

// Bounded captures the text that follows a label up to the end of its line,
// cut short at the earliest match of any stop label.
type Bounded struct {
	Label *Matcher
	Stop  *Matcher
}

// Find returns the captured value after the first label match whose value
// is not empty.
func (b Bounded) Find(s string) (string, bool) {
	if b.Label == nil {
		return "", false
	}
	for _, re := range b.Label.Patterns() {
		for _, loc := range re.FindAllStringIndex(s, -1) {
			if v := b.cut(s[loc[1]:]); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// Value is Find without the found flag.
func (b Bounded) Value(s string) string {
	v, _ := b.Find(s)
	return v
}

func (b Bounded) cut(rest string) string {
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	end := len(rest)
	for _, re := range b.Stop.Patterns() {
		if loc := re.FindStringIndex(rest); loc != nil && loc[0] < end {
			end = loc[0]
		}
	}
	return strings.Trim(rest[:end], valueTrim)
}
