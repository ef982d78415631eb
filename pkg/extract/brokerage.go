package extract

import (
	"strings"

	"github.com/coolbeans/ejar/pkg/value"
)

// BrokerageEntity is the real-estate brokerage office named on the contract.
type BrokerageEntity struct {
	Name     string
	Address  string
	CRNo     string
	Landline string
	Fax      string
	Phone    string
}

// IsZero reports whether no field was found.
func (b BrokerageEntity) IsZero() bool {
	return b == BrokerageEntity{}
}

// Object renders the found fields.
func (b BrokerageEntity) Object() *value.Object {
	return value.NewObject().
		SetNonEmpty("name", b.Name).
		SetNonEmpty("address", b.Address).
		SetNonEmpty("cr_no", b.CRNo).
		SetNonEmpty("landline", b.Landline).
		SetNonEmpty("fax", b.Fax).
		SetNonEmpty("phone", b.Phone)
}

// Brokerage is the brokerage section: the office and its brokers.
type Brokerage struct {
	Entity  BrokerageEntity
	Brokers []Person
}

// Object renders brokerage_entity and brokers when found.
func (b Brokerage) Object() *value.Object {
	o := value.NewObject()
	if !b.Entity.IsZero() {
		o.Set("brokerage_entity", value.ObjectValue(b.Entity.Object()))
	}
	if len(b.Brokers) > 0 {
		o.Set("brokers", PeopleValue(b.Brokers))
	}
	return o
}

// Brokerage extracts the brokerage office and its brokers. Brokers are read
// from repeated broker-name markers, or from ordinary party cards when the
// section has none. The office adopts the first broker's phone when it lists
// none of its own.
func (e *Extractor) Brokerage(block string) Brokerage {
	marker := e.tmpl.Field("broker_marker")
	// the office's own phone precedes the first broker
	var head string
	if loc := marker.Index(block); loc != nil {
		head = block[:loc[0]]
	}

	ent := BrokerageEntity{
		CRNo:     e.field("brokerage_cr_no", block),
		Landline: e.field("brokerage_landline", block),
		Fax:      e.field("brokerage_fax", block),
		Phone:    e.field("brokerage_phone", head),
	}
	if name := e.field("brokerage_name", block); name != "" {
		ent.Name = e.brokerageLabel(name)
	}
	if addr := e.field("brokerage_address", block); addr != "" {
		ent.Address = e.brokerageLabel(addr)
	}

	var brokers []Person
	for _, loc := range chunkBounds(marker.FindAllIndex(block), len(block)) {
		if p := e.Person("Name " + block[loc[0]:loc[1]]); !p.IsZero() {
			brokers = append(brokers, p)
		}
	}
	if len(brokers) == 0 {
		brokers = e.People(block)
	}
	for i := range brokers {
		brokers[i].Name = e.brokerName(brokers[i].Name)
	}
	brokers = uniquePeople(brokers)

	if ent.Phone == "" && len(brokers) > 0 && !ent.IsZero() {
		ent.Phone = brokers[0].Phone
	}
	return Brokerage{Entity: ent, Brokers: brokers}
}

// brokerageLabel strips office labels before and after direction correction.
func (e *Extractor) brokerageLabel(s string) string {
	s = e.stripLabels("brokerage", s)
	return e.stripLabels("brokerage", e.text(s))
}

// brokerName drops leading role labels such as "Employee Name".
func (e *Extractor) brokerName(name string) string {
	labels := e.tmpl.LabelMatcher("broker_name")
	for changed := true; changed && name != ""; {
		changed = false
		for _, re := range labels.Patterns() {
			if loc := re.FindStringIndex(name); loc != nil && loc[0] == 0 && loc[1] > 0 {
				name = name[loc[1]:]
				changed = true
			}
		}
	}
	return e.text(strings.TrimSpace(name))
}

// chunkBounds turns marker locations into the ranges between the end of each
// marker and the start of the next one.
func chunkBounds(locs [][]int, n int) [][2]int {
	out := make([][2]int, 0, len(locs))
	for i, loc := range locs {
		end := n
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out = append(out, [2]int{loc[1], end})
	}
	return out
}
