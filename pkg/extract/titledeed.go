package extract

import (
	"github.com/coolbeans/ejar/pkg/value"
)

// TitleDeed is the ownership document of the property.
type TitleDeed struct {
	DeedNo    string
	Issuer    string
	Place     string
	IssueDate string
}

// IsZero reports whether no field was found.
func (t TitleDeed) IsZero() bool {
	return t == TitleDeed{}
}

// TitleDeed extracts the title deed section. Issuer and place stop at the
// next known label on their line.
func (e *Extractor) TitleDeed(block string) TitleDeed {
	t := TitleDeed{DeedNo: e.field("title_deed_no", block)}
	if v := e.tmpl.BoundedField("title_deed_issuer").Value(block); v != "" {
		t.Issuer = e.stripLabels("title_deed", e.text(v))
	}
	if v := e.tmpl.BoundedField("title_deed_place").Value(block); v != "" {
		t.Place = e.stripLabels("title_deed", e.text(v))
	}
	if v := e.field("title_deed_issue_date", block); v != "" {
		t.IssueDate = DateOrRaw(v)
	}
	return t
}

// Object renders the found fields; the deed number also appears as
// ownership_no.
func (t TitleDeed) Object() *value.Object {
	return value.NewObject().
		SetNonEmpty("title_deed_no", t.DeedNo).
		SetNonEmpty("ownership_no", t.DeedNo).
		SetNonEmpty("title_deed_issuer", t.Issuer).
		SetNonEmpty("title_deed_place", t.Place).
		SetNonEmpty("title_deed_issue_date", t.IssueDate)
}
