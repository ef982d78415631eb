package template

import (
	"strings"
	"testing"

	"github.com/coolbeans/ejar/pkg/section"
)

func minimalTemplate(id, version string) *Template {
	return &Template{
		Name:     "Test Template",
		FormatID: id,
		Version:  version,
		Detection: DetectionConfig{
			RequiredIndicators: []Indicator{
				{Pattern: `Lessor\s*Data`, Weight: 10},
			},
		},
		Sections: []SectionRule{
			{Key: section.Lessor, Pattern: `Lessor\s*Data`},
			{Key: section.Tenant, Pattern: `Tenant\s*Data`},
		},
		Fields: map[string][]string{
			"contract_no": {`Contract\s+No\.?\s*([0-9]+)`},
		},
	}
}

func TestTemplateCompile(t *testing.T) {
	tmpl := minimalTemplate("test-format", "1.0.0")
	if tmpl.IsCompiled() {
		t.Fatal("IsCompiled() = true before Compile()")
	}
	if err := tmpl.Compile(); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !tmpl.IsCompiled() {
		t.Error("IsCompiled() = false after Compile()")
	}

	rules := tmpl.SectionRules()
	if len(rules) != 2 {
		t.Fatalf("SectionRules() len = %d, want 2", len(rules))
	}
	// header patterns ignore case
	if !rules[0].Pattern.MatchString("LESSOR DATA") {
		t.Error("section pattern should match case-insensitively")
	}

	if got := tmpl.Field("contract_no").Value("Contract No. 4471"); got != "4471" {
		t.Errorf("Field(contract_no).Value() = %q, want %q", got, "4471")
	}
	if tmpl.HasField("missing") {
		t.Error("HasField(missing) = true, want false")
	}
	if got := tmpl.Field("missing").Value("anything"); got != "" {
		t.Errorf("Field(missing).Value() = %q, want empty", got)
	}
}

func TestTemplateCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Template)
		want   string
	}{
		{
			name: "bad indicator",
			modify: func(tmpl *Template) {
				tmpl.Detection.RequiredIndicators[0].Pattern = `[invalid`
			},
			want: "required indicator 0",
		},
		{
			name: "bad section",
			modify: func(tmpl *Template) {
				tmpl.Sections[1].Pattern = `(unclosed`
			},
			want: "section 1 (tenant)",
		},
		{
			name: "bad field",
			modify: func(tmpl *Template) {
				tmpl.Fields["contract_no"] = []string{`ok`, `(?P<x`}
			},
			want: "field contract_no",
		},
		{
			name: "bad label",
			modify: func(tmpl *Template) {
				tmpl.Labels = map[string][]string{"name": {`[`}}
			},
			want: "label name",
		},
		{
			name: "row without groups",
			modify: func(tmpl *Template) {
				tmpl.Payments.Row = `(?P<amount>\d+\.\d{2}) (?P<gregorian>\S+)`
			},
			want: `lacks group "hijri"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := minimalTemplate("test-format", "1.0.0")
			tt.modify(tmpl)
			err := tmpl.Compile()
			if err == nil {
				t.Fatal("Compile() should return error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Compile() error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestTemplateDatePolicy(t *testing.T) {
	tmpl := minimalTemplate("test-format", "1.0.0")
	if got := tmpl.DatePolicy(); got != DatePolicyGregorian {
		t.Errorf("DatePolicy() = %q, want %q", got, DatePolicyGregorian)
	}

	hijri := tmpl.WithDatePolicy(DatePolicyHijri)
	if got := hijri.DatePolicy(); got != DatePolicyHijri {
		t.Errorf("WithDatePolicy().DatePolicy() = %q, want %q", got, DatePolicyHijri)
	}
	if got := tmpl.DatePolicy(); got != DatePolicyGregorian {
		t.Errorf("receiver changed to %q", got)
	}
}

func TestTemplateNormalizerProtectsTokens(t *testing.T) {
	tmpl := minimalTemplate("test-format", "1.0.0")
	tmpl.ProtectedTokens = []string{"ﺔﻛﺮﺷ"}
	if err := tmpl.Compile(); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	got := tmpl.Normalizer().FixDirection("ةيسنجلا ﺔﻛﺮﺷ")
	if want := "ﺔﻛﺮﺷ الجنسية"; got != want {
		t.Errorf("FixDirection() = %q, want %q", got, want)
	}
}

func TestDefault(t *testing.T) {
	tmpl, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if tmpl.FormatID != DefaultFormatID {
		t.Errorf("FormatID = %q, want %q", tmpl.FormatID, DefaultFormatID)
	}
	if got := len(tmpl.SectionRules()); got != len(section.Kinds) {
		t.Errorf("SectionRules() len = %d, want %d", got, len(section.Kinds))
	}
	if tmpl.Compiled().Row == nil {
		t.Error("payment row pattern not compiled")
	}

	again := MustDefault()
	if again != tmpl {
		t.Error("MustDefault() should return the shared template")
	}
}

func TestDefaultFields(t *testing.T) {
	tmpl := MustDefault()

	tests := []struct {
		field string
		input string
		want  string
	}{
		{"contract_no", "Contract No. 10234/5 Ejar", "10234/5"},
		{"contract_no", "رقم العقد: 88812", "88812"},
		{"annual_rent", "Annual Rent 30,000.00 SAR", "30,000.00"},
		{"total_contract_value", "Total Contract Value: 61,500.00", "61,500.00"},
		{"tenancy_start", "Tenancy Start Date 2023-09-15", "2023-09-15"},
		{"tenancy_start", "2023-09-15 تاريخ بداية مدة الإيجار", "2023-09-15"},
		{"tenancy_end", "Tenancy End Date: 14/09/2024", "14/09/2024"},
		{"tenancy_end", "تاريخ نهاية مدة الإيجار 2024-09-14", "2024-09-14"},
		{"person_id", "ID No. 1023456789", "1023456789"},
		{"person_phone", "Mobile No. +966 50 123 4567 Email x@y.sa", "+966 50 123 4567"},
		{"person_email", "Email khalid@example.sa", "khalid@example.sa"},
		{"company_unified_no", "Unified No. 7001234567", "7001234567"},
		{"company_cr_no", "CR No. 1010101010", "1010101010"},
		{"company_cr_date", "Issue Date 2019-01-20", "2019-01-20"},
		{"national_address", "National Address RRRD2929, Riyadh", "RRRD2929, Riyadh"},
		{"num_floors", "Number of Floors 4", "4"},
		{"num_elevators", "Number of Elevator: 1", "1"},
		{"title_deed_no", "Title Deed No. 310112045566", "310112045566"},
		{"unit_marker", "Unit No.: A-12 Unit Type Flat", "A-12"},
		{"unit_type", "Unit Type: Apartment", "Apartment"},
		{"unit_area", "Unit Area 145.5", "145.5"},
		{"electricity_meter_no", "عداد الكهرباء 99887766", "99887766"},
		{"water_meter_no", "Water Meter No. W-1001", "W-1001"},
		{"ac_type", "AC Type Split", "Split"},
		{"vat", "VAT Amount 1,875.00", "1,875.00"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := tmpl.Field(tt.field).Value(tt.input); got != tt.want {
				t.Errorf("Field(%s).Value(%q) = %q, want %q", tt.field, tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultTenancyRange(t *testing.T) {
	tmpl := MustDefault()
	text := "Tenancy Start Date 2023-09-15\nTenancy End Date 2024-09-14"
	sub := tmpl.Field("tenancy_range").Find(text)
	if len(sub) != 3 {
		t.Fatalf("Find() = %v, want two groups", sub)
	}
	if sub[1] != "2023-09-15" || sub[2] != "2024-09-14" {
		t.Errorf("Find() = %q, %q", sub[1], sub[2])
	}
}

func TestDefaultBoundedFields(t *testing.T) {
	tmpl := MustDefault()

	tests := []struct {
		field string
		input string
		want  string
	}{
		{"nationality", "Nationality Saudi Arabia ID Type National ID", "Saudi Arabia"},
		{"nationality", "Nationality الجنسية سعودي", "سعودي"},
		{"title_deed_issuer", "Issuer Riyadh Notary Place of Issue Riyadh", "Riyadh Notary"},
		{"title_deed_place", "Place of Issue: Riyadh Issue Date 1440-01-01", "Riyadh"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := tmpl.BoundedField(tt.field).Value(tt.input); got != tt.want {
				t.Errorf("BoundedField(%s).Value(%q) = %q, want %q", tt.field, tt.input, got, tt.want)
			}
		})
	}
}
