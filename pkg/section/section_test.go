package section

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHeaders = map[string]string{
	Lessor:    "Lessor Data",
	LessorRep: "Lessor Representative Data",
	Tenant:    "Tenant Data",
	TenantRep: "Tenant Representative Data",
	Brokerage: "Brokerage Entity and Broker Data",
	Titles:    "Title Deeds Data",
	Property:  "Property Data",
	Units:     "Rental Units Data",
	Financial: "Financial Data",
	Payments:  "Rent Payments Schedule",
}

func testRules() []Rule {
	exprs := []struct{ key, expr string }{
		{Lessor, `Lessor\s*Data`},
		{LessorRep, `Lessor\s*Representative\s*Data`},
		{Tenant, `Tenant\s*Data`},
		{TenantRep, `Tenant\s*Representative\s*Data`},
		{Brokerage, `Brokerage\s*Entity.*?Data`},
		{Titles, `Title\s*Deeds?\s*Data`},
		{Property, `Property\s*Data`},
		{Units, `Rental\s*Units?\s*Data`},
		{Financial, `Financial\s*Data`},
		{Payments, `Rent\s*Payments?\s*Schedule`},
	}
	rules := make([]Rule, len(exprs))
	for i, e := range exprs {
		rules[i] = Rule{Key: e.key, Pattern: regexp.MustCompile(`(?i)` + e.expr)}
	}
	return rules
}

func TestSegmentOrdersAndBoundsSpans(t *testing.T) {
	text := "Contract No. 1\nTenant Data\nName A\nLessor Data\nName B\nFinancial Data\nVAT 15.00"
	spans := NewSegmenter(testRules()).Segment(text)

	require.Equal(t, 3, spans.Len())
	all := spans.All()
	assert.Equal(t, Tenant, all[0].Key)
	assert.Equal(t, Lessor, all[1].Key)
	assert.Equal(t, Financial, all[2].Key)

	assert.Equal(t, "Tenant Data\nName A\n", spans.Slice(text, Tenant))
	assert.Equal(t, "Lessor Data\nName B\n", spans.Slice(text, Lessor))
	assert.Equal(t, "Financial Data\nVAT 15.00", spans.Slice(text, Financial))

	_, ok := spans.Get(Payments)
	assert.False(t, ok)
	assert.Equal(t, "", spans.Slice(text, Payments))
}

func TestSegmentCaseInsensitiveFirstOccurrence(t *testing.T) {
	text := "PROPERTY DATA\nx\nProperty Data\ny"
	spans := NewSegmenter(testRules()).Segment(text)
	sp, ok := spans.Get(Property)
	require.True(t, ok)
	assert.Equal(t, 0, sp.Start)
	assert.Equal(t, len(text), sp.End)
}

func TestSegmentEmptyText(t *testing.T) {
	spans := NewSegmenter(testRules()).Segment("")
	assert.Equal(t, 0, spans.Len())
	assert.Equal(t, 0, spans.Object("").Len())
}

func TestSegmentSpansProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	seg := NewSegmenter(testRules())

	for iter := 0; iter < 200; iter++ {
		kinds := append([]string(nil), Kinds...)
		rng.Shuffle(len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })
		kinds = kinds[:rng.Intn(len(kinds)+1)]

		var b strings.Builder
		b.WriteString("preamble\n")
		for _, k := range kinds {
			b.WriteString(testHeaders[k])
			b.WriteString("\nfiller line for ")
			b.WriteString(k)
			b.WriteString("\n")
		}
		text := b.String()
		spans := seg.Segment(text).All()

		// every kind present gets a span, and no others do
		require.Len(t, spans, len(kinds), "kinds %v", kinds)
		present := make(map[string]bool)
		for _, k := range kinds {
			present[k] = true
		}
		for i, sp := range spans {
			assert.True(t, present[sp.Key], "unexpected kind %s", sp.Key)
			assert.Less(t, sp.Start, sp.End)
			if i > 0 {
				assert.Equal(t, spans[i-1].End, sp.Start, "spans must be contiguous and disjoint")
			}
		}
		if len(spans) > 0 {
			assert.Equal(t, len(text), spans[len(spans)-1].End)
			assert.Equal(t, strings.Index(text, testHeaders[kinds[0]]), spans[0].Start)
		}
	}
}

func TestSpansObject(t *testing.T) {
	text := "Tenant Data\nLessor Data\n"
	o := NewSegmenter(testRules()).Segment(text).Object(text)
	assert.Equal(t, []string{Tenant, Lessor}, o.Keys())
	raw, err := o.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"tenant":["0","12"],"lessor":["12","24"]}`, string(raw))
}

func TestSpansObjectCountsRunes(t *testing.T) {
	// Arabic letters before the first header are two bytes each
	text := "عقد إيجار سكني موحد\nTenant Data\nالاسم محمد\nLessor Data\n"
	spans := NewSegmenter(testRules()).Segment(text)

	tenant, _ := spans.Object(text).Get(Tenant)
	items := tenant.Items()
	require.Len(t, items, 2)

	sp, _ := spans.Get(Tenant)
	wantStart := utf8.RuneCountInString(text[:sp.Start])
	assert.Equal(t, strconv.Itoa(wantStart), items[0].String())
	assert.Equal(t, strconv.Itoa(wantStart+utf8.RuneCountInString(spans.Slice(text, Tenant))), items[1].String())
	assert.NotEqual(t, strconv.Itoa(sp.Start), items[0].String())

	lessor, _ := spans.Object(text).Get(Lessor)
	assert.Equal(t, strconv.Itoa(utf8.RuneCountInString(text)), lessor.Items()[1].String())
}

func TestIsKind(t *testing.T) {
	assert.True(t, IsKind(Units))
	assert.False(t, IsKind("annex"))
}
