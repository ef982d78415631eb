package extract

import (
	"strconv"
	"strings"

	"github.com/coolbeans/ejar/pkg/template"
	"github.com/coolbeans/ejar/pkg/value"
)

// VAT returns the two-decimal VAT amount of the financial section, or "" when
// none can be read.
func (e *Extractor) VAT(block string) string {
	v, _ := FormatMoney(e.field("vat", block))
	return v
}

// Payment is one scheduled rent installment.
type Payment struct {
	DueDate string
	Amount  string
}

// Object renders the payment.
func (p Payment) Object() *value.Object {
	return value.NewObject().
		SetString("due_date", p.DueDate).
		SetString("amount", p.Amount)
}

// Schedule is the parsed rent payment schedule.
type Schedule struct {
	Payments []Payment

	// InstallmentAmount is set only when every installment is the same
	InstallmentAmount string
}

// Object renders payments, installments_count and installment_amount when
// the schedule has entries.
func (s Schedule) Object() *value.Object {
	o := value.NewObject()
	if len(s.Payments) == 0 {
		return o
	}
	items := make([]value.Value, len(s.Payments))
	for i, p := range s.Payments {
		items[i] = value.ObjectValue(p.Object())
	}
	o.Set("payments", value.List(items...))
	o.SetString("installments_count", strconv.Itoa(len(s.Payments)))
	o.SetNonEmpty("installment_amount", s.InstallmentAmount)
	return o
}

// FirstDueDate returns the due date of the first installment, or "".
func (s Schedule) FirstDueDate() string {
	if len(s.Payments) == 0 {
		return ""
	}
	return s.Payments[0].DueDate
}

// Payments parses the payment schedule in tiers, each tried only when the
// previous one found nothing: full rows carrying amount, Hijri and Gregorian
// dates; then lines with a date of the preferred calendar and an amount; then
// lines with a date of the other calendar and an amount. The template's date
// policy decides which calendar is preferred.
func (e *Extractor) Payments(block string) Schedule {
	c := e.tmpl.Compiled()
	hijriFirst := e.tmpl.DatePolicy() == template.DatePolicyHijri

	payments := e.paymentRows(block, hijriFirst)

	tiers := []func(string) (string, bool){e.gregorianDate, e.hijriDate}
	if hijriFirst {
		tiers[0], tiers[1] = tiers[1], tiers[0]
	}
	for _, date := range tiers {
		if len(payments) > 0 {
			break
		}
		for _, line := range strings.Split(block, "\n") {
			due, ok := date(line)
			if !ok {
				continue
			}
			amount, ok := FormatMoney(c.Amount.Value(line))
			if !ok {
				continue
			}
			payments = append(payments, Payment{DueDate: due, Amount: amount})
		}
	}

	return newSchedule(payments)
}

func (e *Extractor) paymentRows(block string, hijriFirst bool) []Payment {
	row := e.tmpl.Compiled().Row
	if row == nil {
		return nil
	}
	amountIdx := row.SubexpIndex("amount")
	dateIdx := row.SubexpIndex("gregorian")
	if hijriFirst {
		dateIdx = row.SubexpIndex("hijri")
	}

	var payments []Payment
	for _, m := range row.FindAllStringSubmatch(block, -1) {
		amount, ok := FormatMoney(m[amountIdx])
		if !ok {
			continue
		}
		due := m[dateIdx]
		if hijriFirst {
			due = HijriDate(due)
		} else {
			due = DateOrRaw(due)
		}
		payments = append(payments, Payment{DueDate: due, Amount: amount})
	}
	return payments
}

func (e *Extractor) gregorianDate(line string) (string, bool) {
	v := e.tmpl.Compiled().Gregorian.Value(line)
	if v == "" {
		return "", false
	}
	return DateOrRaw(v), true
}

func (e *Extractor) hijriDate(line string) (string, bool) {
	v := e.tmpl.Compiled().Hijri.Value(line)
	if v == "" {
		return "", false
	}
	return HijriDate(v), true
}

func newSchedule(payments []Payment) Schedule {
	seen := make(map[Payment]bool, len(payments))
	var s Schedule
	for _, p := range payments {
		if seen[p] {
			continue
		}
		seen[p] = true
		s.Payments = append(s.Payments, p)
	}
	if len(s.Payments) == 0 {
		return s
	}

	same := true
	for _, p := range s.Payments[1:] {
		if p.Amount != s.Payments[0].Amount {
			same = false
			break
		}
	}
	if same {
		s.InstallmentAmount = s.Payments[0].Amount
	}
	return s
}
