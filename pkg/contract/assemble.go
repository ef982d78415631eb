package contract

import (
	"github.com/coolbeans/ejar/pkg/extract"
	"github.com/coolbeans/ejar/pkg/section"
	"github.com/coolbeans/ejar/pkg/template"
	"github.com/coolbeans/ejar/pkg/value"
)

// assemble builds the record in a fixed key order: contract terms, tenant,
// lessor, brokerage, property, title deed, units, VAT and payments.
func assemble(tmpl *template.Template, text string, spans section.Spans) *value.Object {
	ex := extract.New(tmpl)
	block := func(key string) string { return spans.Slice(text, key) }

	rec := ex.Terms(text).Object()

	tenant(rec, ex, block(section.Tenant), block(section.TenantRep))
	lessor(rec, ex, block(section.Lessor), block(section.LessorRep))

	rec.Merge(ex.Brokerage(block(section.Brokerage)).Object())

	if p := ex.Property(block(section.Property)); !p.IsZero() {
		rec.Set("property", value.ObjectValue(p.Object()))
	}
	rec.Merge(ex.TitleDeed(block(section.Titles)).Object())

	if units := ex.Units(block(section.Units)); len(units) > 0 {
		rec.Set("units", extract.UnitsValue(units))
		first := units[0]
		rec.SetNonEmpty("unit_no", first.UnitNo).
			SetNonEmpty("unit_type", first.Type).
			SetNonEmpty("unit_area", first.Area)
	}

	rec.SetString("vat_value", ex.VAT(block(section.Financial)))

	schedule := ex.Payments(block(section.Payments))
	rec.Merge(schedule.Object())
	rec.SetString("first_payment", schedule.FirstDueDate())

	return rec
}

// tenant resolves the flat tenant fields. A named person card in the tenant
// section wins over the company header; the first tenant representative
// fills in when neither names the tenant. The nested tenant object always
// holds the company header as found.
func tenant(rec *value.Object, ex *extract.Extractor, block, repBlock string) {
	rec.Merge(ex.Company(block).Flat("tenant"))

	people := ex.People(block)
	if len(people) > 0 {
		rec.Set("tenants", extract.PeopleValue(people))
	}
	if len(people) > 0 && people[0].Name != "" {
		p := people[0]
		rec.SetString("tenant_name", p.Name).
			SetNonEmpty("tenant_id", p.ID).
			SetNonEmpty("tenant_phone", p.Phone)
	}

	reps := ex.People(repBlock)
	if len(reps) == 0 {
		return
	}
	rec.Set("tenant_reps", extract.PeopleValue(reps))
	if rec.GetString("tenant_name") == "" {
		r := reps[0]
		rec.SetString("tenant_name", r.Name).
			SetString("tenant_id", r.ID).
			SetString("tenant_phone", r.Phone).
			SetString("tenant_email", r.Email)
	}
}

// lessor lists the lessors and their representatives; the first lessor's
// fields are repeated at the top level.
func lessor(rec *value.Object, ex *extract.Extractor, block, repBlock string) {
	if lessors := ex.People(block); len(lessors) > 0 {
		rec.Set("lessors", extract.PeopleValue(lessors))
		first := lessors[0]
		rec.SetNonEmpty("lessor_name", first.Name).
			SetNonEmpty("lessor_id", first.ID).
			SetNonEmpty("lessor_phone", first.Phone).
			SetNonEmpty("lessor_email", first.Email)
	}
	if reps := ex.People(repBlock); len(reps) > 0 {
		rec.Set("lessor_reps", extract.PeopleValue(reps))
	}
}
