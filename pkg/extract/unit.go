package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/coolbeans/ejar/pkg/value"
)

// unitWindow caps how far past its marker a unit segment reaches.
const unitWindow = 600

// Unit is one rental unit with its utility meters.
type Unit struct {
	UnitNo               string
	Type                 string
	Area                 string
	ElectricityAccountNo string
	ElectricityMeterNo   string
	WaterAccountNo       string
	WaterMeterNo         string
	GasAccountNo         string
	GasMeterNo           string
	ACType               string
}

// IsZero reports whether no field was found.
func (u Unit) IsZero() bool {
	return u == Unit{}
}

func (u Unit) key() [6]string {
	return [6]string{u.UnitNo, u.Type, u.Area, u.ElectricityMeterNo, u.WaterMeterNo, u.GasMeterNo}
}

// Object renders the found fields.
func (u Unit) Object() *value.Object {
	return value.NewObject().
		SetNonEmpty("unit_no", u.UnitNo).
		SetNonEmpty("unit_type", u.Type).
		SetNonEmpty("unit_area", u.Area).
		SetNonEmpty("electricity_account_no", u.ElectricityAccountNo).
		SetNonEmpty("electricity_meter_no", u.ElectricityMeterNo).
		SetNonEmpty("water_account_no", u.WaterAccountNo).
		SetNonEmpty("water_meter_no", u.WaterMeterNo).
		SetNonEmpty("gas_account_no", u.GasAccountNo).
		SetNonEmpty("gas_meter_no", u.GasMeterNo).
		SetNonEmpty("ac_type", u.ACType)
}

// UnitsValue renders units as a list of objects.
func UnitsValue(units []Unit) value.Value {
	items := make([]value.Value, len(units))
	for i, u := range units {
		items[i] = value.ObjectValue(u.Object())
	}
	return value.List(items...)
}

// Units extracts every rental unit. Each unit segment starts at a unit-number
// marker and ends at the next marker or a fixed window later, whichever comes
// first. Without markers the whole block is read as a single unit.
func (e *Extractor) Units(block string) []Unit {
	marker := e.tmpl.Field("unit_marker")

	var units []Unit
	locs := marker.FindAllIndex(block)
	for i, loc := range locs {
		end := len(block)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		end = min(end, runeOffset(block, loc[1], unitWindow))
		seg := block[loc[0]:end]

		u := e.unit(seg)
		u.UnitNo = strings.Trim(marker.Value(seg), ".")
		if !u.IsZero() {
			units = append(units, u)
		}
	}

	if len(units) == 0 {
		u := e.unit(block)
		u.UnitNo = strings.Trim(marker.Value(block), ".")
		if !u.IsZero() {
			units = append(units, u)
		}
	}

	seen := make(map[[6]string]bool, len(units))
	out := units[:0]
	for _, u := range units {
		if seen[u.key()] {
			continue
		}
		seen[u.key()] = true
		out = append(out, u)
	}
	return out
}

func (e *Extractor) unit(seg string) Unit {
	u := Unit{
		ElectricityAccountNo: e.field("electricity_account_no", seg),
		ElectricityMeterNo:   e.field("electricity_meter_no", seg),
		WaterAccountNo:       e.field("water_account_no", seg),
		WaterMeterNo:         e.field("water_meter_no", seg),
		GasAccountNo:         e.field("gas_account_no", seg),
		GasMeterNo:           e.field("gas_meter_no", seg),
	}
	if v := e.field("unit_type", seg); v != "" {
		u.Type = e.text(v)
	}
	if v := e.field("unit_area", seg); v != "" {
		u.Area, _ = FormatArea(v)
	}
	if v := e.field("ac_type", seg); v != "" {
		u.ACType = e.text(v)
	}
	return u
}

// runeOffset returns the byte offset n runes after from, capped at len(s).
func runeOffset(s string, from, n int) int {
	i := from
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}
