package extract

import (
	"github.com/coolbeans/ejar/pkg/value"
)

// Terms are the contract-level fields, searched for in the full text.
type Terms struct {
	ContractNo         string
	AnnualRent         string
	TotalContractValue string
	TenancyStart       string
	TenancyEnd         string
}

// Terms extracts the contract number, rent figures and tenancy period. A
// combined start/end pattern wins over independent start and end patterns.
func (e *Extractor) Terms(text string) Terms {
	t := Terms{ContractNo: e.field("contract_no", text)}

	if v := e.field("annual_rent", text); v != "" {
		t.AnnualRent = MoneyOrRaw(v)
	}
	if v := e.field("total_contract_value", text); v != "" {
		t.TotalContractValue = MoneyOrRaw(v)
	}

	if sub := e.tmpl.Field("tenancy_range").Find(text); len(sub) > 2 {
		t.TenancyStart = DateOrRaw(sub[1])
		t.TenancyEnd = DateOrRaw(sub[2])
	}
	if t.TenancyStart == "" {
		if v := e.field("tenancy_start", text); v != "" {
			t.TenancyStart = DateOrRaw(v)
		}
	}
	if t.TenancyEnd == "" {
		if v := e.field("tenancy_end", text); v != "" {
			t.TenancyEnd = DateOrRaw(v)
		}
	}
	return t
}

// Object renders the found terms.
func (t Terms) Object() *value.Object {
	return value.NewObject().
		SetNonEmpty("contract_no", t.ContractNo).
		SetNonEmpty("annual_rent", t.AnnualRent).
		SetNonEmpty("total_contract_value", t.TotalContractValue).
		SetNonEmpty("tenancy_start", t.TenancyStart).
		SetNonEmpty("tenancy_end", t.TenancyEnd)
}
