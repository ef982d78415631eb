package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/coolbeans/ejar/pkg/textnorm"
)

// dateLayouts are tried in order after separators are unified to '-'.
var dateLayouts = []string{
	"2006-1-2",
	"2-1-2006",
	"1-2-2006",
	"2-1-06",
}

var (
	isoDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dmyDatePattern   = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	digitGroupsRegex = regexp.MustCompile(`\d+`)
)

// ParseDate converts a date token to YYYY-MM-DD. Slashes and backslashes are
// accepted as separators. A token already shaped like an ISO date is returned
// as is even when it is not a valid Gregorian day (Hijri dates).
func ParseDate(s string) (string, bool) {
	s = unifySeparators(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	if isoDatePattern.MatchString(s) {
		return s, true
	}
	return "", false
}

// DateOrRaw returns the ISO form of s, or s trimmed when it cannot be parsed.
func DateOrRaw(s string) string {
	if d, ok := ParseDate(s); ok {
		return d
	}
	return strings.TrimSpace(s)
}

// HijriDate reorders a day-first Hijri date to YYYY-MM-DD without calendar
// validation. Other shapes are returned unchanged.
func HijriDate(s string) string {
	u := unifySeparators(s)
	if m := dmyDatePattern.FindStringSubmatch(u); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%s-%02d-%02d", m[3], month, day)
	}
	if isoDatePattern.MatchString(u) {
		return u
	}
	return strings.TrimSpace(s)
}

func unifySeparators(s string) string {
	s = textnorm.FoldDigits(strings.TrimSpace(s))
	return strings.NewReplacer(`\`, "-", "/", "-").Replace(s)
}

// FormatMoney renders an amount with two decimals after dropping thousands
// separators.
func FormatMoney(s string) (string, bool) {
	return formatDecimal(s, 2)
}

// MoneyOrRaw returns the two-decimal form of s, or s trimmed when it is not a
// number.
func MoneyOrRaw(s string) string {
	if v, ok := FormatMoney(s); ok {
		return v
	}
	return strings.TrimSpace(s)
}

// FormatArea renders an area with one decimal.
func FormatArea(s string) (string, bool) {
	return formatDecimal(s, 1)
}

func formatDecimal(s string, places int) (string, bool) {
	s = strings.ReplaceAll(textnorm.FoldDigits(strings.TrimSpace(s)), ",", "")
	if s == "" {
		return "", false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', places, 64), true
}

// DigitGroups keeps only the digit runs of s, joined by an Arabic comma.
func DigitGroups(s string) string {
	return strings.Join(digitGroupsRegex.FindAllString(textnorm.FoldDigits(s), -1), "، ")
}
