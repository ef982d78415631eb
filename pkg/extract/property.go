package extract

import (
	"github.com/coolbeans/ejar/pkg/value"
)

// Property describes the leased building.
type Property struct {
	NationalAddress        string
	Usage                  string
	Type                   string
	Units                  string
	Floors                 string
	Parking                string
	Elevators              string
	ElectricityMetersCount string
	WaterMetersCount       string
	GasMetersCount         string
}

// IsZero reports whether no field was found.
func (p Property) IsZero() bool {
	return p == Property{}
}

// Property extracts the property section. The national address is reduced
// to its digit groups.
func (e *Extractor) Property(block string) Property {
	p := Property{
		NationalAddress:        DigitGroups(e.field("national_address", block)),
		Units:                  e.field("num_units", block),
		Floors:                 e.field("num_floors", block),
		Parking:                e.field("num_parking", block),
		Elevators:              e.field("num_elevators", block),
		ElectricityMetersCount: e.field("electricity_meters_count", block),
		WaterMetersCount:       e.field("water_meters_count", block),
		GasMetersCount:         e.field("gas_meters_count", block),
	}
	if v := e.field("property_usage", block); v != "" {
		p.Usage = e.text(v)
	}
	if v := e.field("property_type", block); v != "" {
		p.Type = e.text(v)
	}
	return p
}

// Object renders the found fields.
func (p Property) Object() *value.Object {
	return value.NewObject().
		SetNonEmpty("national_address", p.NationalAddress).
		SetNonEmpty("property_usage", p.Usage).
		SetNonEmpty("property_type", p.Type).
		SetNonEmpty("num_units", p.Units).
		SetNonEmpty("num_floors", p.Floors).
		SetNonEmpty("num_parking", p.Parking).
		SetNonEmpty("num_elevators", p.Elevators).
		SetNonEmpty("electricity_meters_count", p.ElectricityMetersCount).
		SetNonEmpty("water_meters_count", p.WaterMetersCount).
		SetNonEmpty("gas_meters_count", p.GasMetersCount)
}
