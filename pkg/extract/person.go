package extract

import (
	"strings"

	"github.com/coolbeans/ejar/pkg/value"
)

// Person is one party card: a lessor, tenant, representative or broker.
// Every field is optional.
type Person struct {
	Name        string
	ID          string
	Phone       string
	Email       string
	Nationality string
}

// IsZero reports whether no field was found.
func (p Person) IsZero() bool {
	return p == Person{}
}

func (p Person) key() [3]string {
	return [3]string{p.Name, p.ID, p.Phone}
}

// Object renders the found fields.
func (p Person) Object() *value.Object {
	return value.NewObject().
		SetNonEmpty("name", p.Name).
		SetNonEmpty("id", p.ID).
		SetNonEmpty("phone", p.Phone).
		SetNonEmpty("email", p.Email).
		SetNonEmpty("nationality", p.Nationality)
}

// PeopleValue renders people as a list of objects.
func PeopleValue(people []Person) value.Value {
	items := make([]value.Value, len(people))
	for i, p := range people {
		items[i] = value.ObjectValue(p.Object())
	}
	return value.List(items...)
}

// People splits block into cards at each name line and parses every card.
// Empty cards are dropped and duplicates by (name, id, phone) removed.
func (e *Extractor) People(block string) []Person {
	var people []Person
	for _, card := range segments(e.tmpl.Field("person_card"), block) {
		if p := e.Person(card); !p.IsZero() {
			people = append(people, p)
		}
	}
	return uniquePeople(people)
}

// Person parses a single card.
func (e *Extractor) Person(card string) Person {
	p := Person{
		ID:    e.field("person_id", card),
		Phone: e.field("person_phone", card),
		Email: e.field("person_email", card),
	}
	if name := e.field("person_name", card); name != "" {
		p.Name = e.text(e.stripEdgeLabels("name", name))
	}
	if nat := e.nationality(card); nat != "" {
		p.Nationality = e.text(nat)
	}
	return p
}

// nationality reads the value after the label on the same line, or else the
// first non-empty line after a label line.
func (e *Extractor) nationality(card string) string {
	labels := e.tmpl.Field("nationality_label")

	nat := e.tmpl.BoundedField("nationality").Value(card)
	if nat == "" {
		var lines []string
		for _, l := range strings.Split(card, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
		for i, line := range lines {
			if labels.Index(line) == nil || i+1 >= len(lines) {
				continue
			}
			if next := lines[i+1]; labels.Index(next) == nil {
				nat = next
				break
			}
		}
	}
	return e.stripLabels("nationality", nat)
}

func uniquePeople(people []Person) []Person {
	seen := make(map[[3]string]bool, len(people))
	out := people[:0]
	for _, p := range people {
		if seen[p.key()] {
			continue
		}
		seen[p.key()] = true
		out = append(out, p)
	}
	return out
}
