package extract

import (
	"github.com/coolbeans/ejar/pkg/value"
)

// Company is the organization header of a party section.
type Company struct {
	Name      string
	UnifiedNo string
	CRNo      string
	CRDate    string
	Email     string
	Phone     string
}

// IsZero reports whether no field was found.
func (c Company) IsZero() bool {
	return c == Company{}
}

// Company extracts the organization header of a party section.
func (e *Extractor) Company(block string) Company {
	c := Company{
		UnifiedNo: e.field("company_unified_no", block),
		CRNo:      e.field("company_cr_no", block),
		Email:     e.field("company_email", block),
		Phone:     e.field("company_phone", block),
	}
	if name := e.field("company_name", block); name != "" {
		c.Name = e.text(e.stripEdgeLabels("name", name))
	}
	if d := e.field("company_cr_date", block); d != "" {
		c.CRDate = DateOrRaw(d)
	}
	return c
}

// Object renders the found fields.
func (c Company) Object() *value.Object {
	return value.NewObject().
		SetNonEmpty("name", c.Name).
		SetNonEmpty("unified_no", c.UnifiedNo).
		SetNonEmpty("cr_no", c.CRNo).
		SetNonEmpty("cr_date", c.CRDate).
		SetNonEmpty("email", c.Email).
		SetNonEmpty("phone", c.Phone)
}

// Flat renders the found fields as role-prefixed keys followed by the nested
// object under role, e.g. tenant_name ... tenant{...}.
func (c Company) Flat(role string) *value.Object {
	o := value.NewObject().
		SetNonEmpty(role+"_name", c.Name).
		SetNonEmpty(role+"_unified_no", c.UnifiedNo).
		SetNonEmpty(role+"_cr_no", c.CRNo).
		SetNonEmpty(role+"_cr_date", c.CRDate).
		SetNonEmpty(role+"_email", c.Email).
		SetNonEmpty(role+"_phone", c.Phone)
	if !c.IsZero() {
		o.Set(role, value.ObjectValue(c.Object()))
	}
	return o
}
