package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/ejar/pkg/template"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	tmpl, err := template.Default()
	require.NoError(t, err)
	return New(tmpl)
}

func TestTerms(t *testing.T) {
	e := newTestExtractor(t)

	text := strings.Join([]string{
		"Contract No. 10234/5",
		"Annual Rent 30,000.00",
		"Total Contract Value 61,500.00",
		"Tenancy Start Date 15/09/2023",
		"Tenancy End Date 14/09/2024",
	}, "\n")

	got := e.Terms(text)
	assert.Equal(t, Terms{
		ContractNo:         "10234/5",
		AnnualRent:         "30000.00",
		TotalContractValue: "61500.00",
		TenancyStart:       "2023-09-15",
		TenancyEnd:         "2024-09-14",
	}, got)
	assert.Equal(t,
		[]string{"contract_no", "annual_rent", "total_contract_value", "tenancy_start", "tenancy_end"},
		got.Object().Keys())
}

func TestTermsArabicRange(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Terms("تاريخ بداية مدة الإيجار 2023-09-15\nتاريخ نهاية مدة الإيجار 2024-09-14")
	assert.Equal(t, "2023-09-15", got.TenancyStart)
	assert.Equal(t, "2024-09-14", got.TenancyEnd)
}

func TestTermsSentencePunctuation(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Terms("Annual Rent: 30,000.00.\nTotal Contract Value 61,500.00.")
	assert.Equal(t, "30000.00", got.AnnualRent)
	assert.Equal(t, "61500.00", got.TotalContractValue)

	got = e.Terms("قيمة الإيجار السنوي 30,000.")
	assert.Equal(t, "30000.00", got.AnnualRent)
}

func TestTermsKeepsUnparseableValues(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Terms("Tenancy End Date 40/40/2024")
	assert.Equal(t, "40/40/2024", got.TenancyEnd)
	assert.Empty(t, got.TenancyStart)
	assert.False(t, got.Object().Has("tenancy_start"))
}

func TestPeople(t *testing.T) {
	e := newTestExtractor(t)

	block := strings.Join([]string{
		"Tenant Data",
		"Name محمد بن خالد",
		"ID No. 1023456789",
		"Nationality سعودي",
		"Mobile No. 0501234567",
		"Email m@example.sa",
		"Name Sara Ali",
		"Nationality",
		"Egyptian",
		"ID No. 2233445566",
		"Name محمد بن خالد",
		"ID No. 1023456789",
		"Mobile No. 0501234567",
	}, "\n")

	people := e.People(block)
	require.Len(t, people, 2)

	assert.Equal(t, Person{
		Name:        "محمد بن خالد",
		ID:          "1023456789",
		Phone:       "0501234567",
		Email:       "m@example.sa",
		Nationality: "سعودي",
	}, people[0])
	assert.Equal(t, Person{
		Name:        "Sara Ali",
		ID:          "2233445566",
		Nationality: "Egyptian",
	}, people[1])

	assert.Len(t, PeopleValue(people).Items(), 2)
}

func TestPersonStripsNameLabels(t *testing.T) {
	e := newTestExtractor(t)

	p := e.Person("Name محمد العتيبي الاسم\nNationality: سعودي ID No. 1")
	assert.Equal(t, "محمد العتيبي", p.Name)
	assert.Equal(t, "سعودي", p.Nationality)

	// a surname starting with the label text is kept
	p = e.Person("Name خالد الاسمري")
	assert.Equal(t, "خالد الاسمري", p.Name)
}

func TestPeopleWithoutCards(t *testing.T) {
	e := newTestExtractor(t)
	assert.Empty(t, e.People("Tenant Data\nID No. 123"))
}

func TestCompany(t *testing.T) {
	e := newTestExtractor(t)

	block := strings.Join([]string{
		"Tenant Data",
		"Tenant Name شركة الأفق للتجارة",
		"Unified No. 7001234567",
		"CR No. 1010101010",
		"Issue Date 20/01/2019",
		"Email info@ofuq.sa",
		"Mobile No. 0551112222",
	}, "\n")

	c := e.Company(block)
	assert.Equal(t, Company{
		Name:      "شركة الأفق للتجارة",
		UnifiedNo: "7001234567",
		CRNo:      "1010101010",
		CRDate:    "2019-01-20",
		Email:     "info@ofuq.sa",
		Phone:     "0551112222",
	}, c)

	flat := c.Flat("tenant")
	assert.Equal(t, []string{
		"tenant_name", "tenant_unified_no", "tenant_cr_no", "tenant_cr_date",
		"tenant_email", "tenant_phone", "tenant",
	}, flat.Keys())
	nested, ok := flat.Get("tenant")
	require.True(t, ok)
	assert.Equal(t, "7001234567", nested.Object().GetString("unified_no"))
}

func TestCompanyFlatEmpty(t *testing.T) {
	assert.Zero(t, Company{}.Flat("tenant").Len())
}

func TestBrokerage(t *testing.T) {
	e := newTestExtractor(t)

	block := strings.Join([]string{
		"Brokerage Entity Data",
		"Brokerage Entity Name اسم منشأة الوساطة العقارية مكتب الدار للعقار",
		"Brokerage Entity Address الرياض حي العليا",
		"CR No. 1010998877",
		"Landline No. 0114567890",
		"Fax No. 0114567891",
		"Broker Name الموظف أحمد علي",
		"ID No. 1122334455",
		"Mobile No. 0569998888",
		"Broker Name Employee Name John Smith",
		"Mobile No. 0561112222",
	}, "\n")

	b := e.Brokerage(block)
	assert.Equal(t, BrokerageEntity{
		Name:     "مكتب الدار للعقار",
		Address:  "الرياض حي العليا",
		CRNo:     "1010998877",
		Landline: "0114567890",
		Fax:      "0114567891",
		Phone:    "0569998888",
	}, b.Entity)
	assert.Equal(t, []Person{
		{Name: "أحمد علي", ID: "1122334455", Phone: "0569998888"},
		{Name: "John Smith", Phone: "0561112222"},
	}, b.Brokers)
	assert.Equal(t, []string{"brokerage_entity", "brokers"}, b.Object().Keys())
}

func TestBrokerageOwnPhone(t *testing.T) {
	e := newTestExtractor(t)

	block := strings.Join([]string{
		"CR No. 1010998877",
		"Phone No. 0115550000",
		"Broker Name Ali Hassan",
		"Mobile No. 0569998888",
	}, "\n")

	b := e.Brokerage(block)
	assert.Equal(t, "0115550000", b.Entity.Phone)
	require.Len(t, b.Brokers, 1)
	assert.Equal(t, "Ali Hassan", b.Brokers[0].Name)
}

func TestBrokerageFallsBackToCards(t *testing.T) {
	e := newTestExtractor(t)

	b := e.Brokerage("Name Employee Name Omar Saleh\nMobile No. 0500000001")
	assert.True(t, b.Entity.IsZero())
	assert.Equal(t, []Person{{Name: "Omar Saleh", Phone: "0500000001"}}, b.Brokers)
	assert.Equal(t, []string{"brokers"}, b.Object().Keys())
}

func TestProperty(t *testing.T) {
	e := newTestExtractor(t)

	block := strings.Join([]string{
		"Property Data",
		"National Address RRRD2929 ، 8228 الرياض",
		"Property Usage سكن أفراد",
		"Property Type عمارة",
		"Number of Units 12",
		"Number of Floors 4",
		"Number of Parking Lots 10",
		"Number of Elevators 1",
		"Number of Electricity Meters 12",
		"Number of Water Meters 1",
		"Number of Gas Meters 0",
	}, "\n")

	p := e.Property(block)
	assert.Equal(t, Property{
		NationalAddress:        "2929، 8228",
		Usage:                  "سكن أفراد",
		Type:                   "عمارة",
		Units:                  "12",
		Floors:                 "4",
		Parking:                "10",
		Elevators:              "1",
		ElectricityMetersCount: "12",
		WaterMetersCount:       "1",
		GasMetersCount:         "0",
	}, p)
	assert.Equal(t, 10, p.Object().Len())
	assert.True(t, e.Property("Property Data").IsZero())
}

func TestTitleDeed(t *testing.T) {
	e := newTestExtractor(t)

	block := strings.Join([]string{
		"Title Deeds Data",
		"Title Deed No. 310112045566",
		"Issuer Riyadh Notary Place of Issue Riyadh",
		"Issue Date 1440/01/15",
	}, "\n")

	d := e.TitleDeed(block)
	assert.Equal(t, TitleDeed{
		DeedNo:    "310112045566",
		Issuer:    "Riyadh Notary",
		Place:     "Riyadh",
		IssueDate: "1440-01-15",
	}, d)
	assert.Equal(t,
		[]string{"title_deed_no", "ownership_no", "title_deed_issuer", "title_deed_place", "title_deed_issue_date"},
		d.Object().Keys())
	assert.Equal(t, "310112045566", d.Object().GetString("ownership_no"))
}

func TestTitleDeedArabicIssuer(t *testing.T) {
	e := newTestExtractor(t)

	d := e.TitleDeed("Issuer جهة الإصدار كتابة العدل الأولى")
	assert.Equal(t, "كتابة العدل الأولى", d.Issuer)
	assert.Empty(t, d.Place)
}

func TestUnits(t *testing.T) {
	e := newTestExtractor(t)

	block := strings.Join([]string{
		"Rental Units Data",
		"Unit No. 12",
		"Unit Type شقة",
		"Unit Area 120",
		"Electricity Meter No. E-5566",
		"Water Meter No. W-7788",
		"AC Type Split",
		"Unit No. 14",
		"Unit Type شقة",
		"Unit Area 95.5",
		"عداد الكهرباء 99887766",
	}, "\n")

	units := e.Units(block)
	require.Len(t, units, 2)
	assert.Equal(t, Unit{
		UnitNo:             "12",
		Type:               "شقة",
		Area:               "120.0",
		ElectricityMeterNo: "E-5566",
		WaterMeterNo:       "W-7788",
		ACType:             "Split",
	}, units[0])
	assert.Equal(t, Unit{
		UnitNo:             "14",
		Type:               "شقة",
		Area:               "95.5",
		ElectricityMeterNo: "99887766",
	}, units[1])
	assert.Len(t, UnitsValue(units).Items(), 2)
}

func TestUnitsWindow(t *testing.T) {
	e := newTestExtractor(t)

	block := "Unit No. 7\n" + strings.Repeat("x", unitWindow+100) + "\nUnit Type Villa"
	units := e.Units(block)
	require.Len(t, units, 1)
	assert.Equal(t, Unit{UnitNo: "7"}, units[0])
}

func TestUnitsWithoutMarker(t *testing.T) {
	e := newTestExtractor(t)

	units := e.Units("Rental Units Data\nUnit Type Villa\nUnit Area 300")
	assert.Equal(t, []Unit{{Type: "Villa", Area: "300.0"}}, units)
	assert.Empty(t, e.Units("Rental Units Data"))
}

func TestUnitsDeduplicated(t *testing.T) {
	e := newTestExtractor(t)

	units := e.Units("Unit No. 3\nUnit Type Shop\nUnit No. 3\nUnit Type Shop")
	assert.Equal(t, []Unit{{UnitNo: "3", Type: "Shop"}}, units)
}

func TestVAT(t *testing.T) {
	e := newTestExtractor(t)

	assert.Equal(t, "1875.00", e.VAT("Financial Data\nVAT 1,875.00"))
	assert.Equal(t, "1875.00", e.VAT("VAT Amount 1,875.00."))
	assert.Empty(t, e.VAT("VAT: N/A"))
	assert.Empty(t, e.VAT(""))
}

func TestPaymentsRows(t *testing.T) {
	e := newTestExtractor(t)

	block := strings.Join([]string{
		"Rent Payments Schedule",
		"1,250.00 1445-03-01 2023-09-15 note",
		"1,250.00 1445-04-01 2023-10-15",
		"1,250.00 1445-03-01 2023-09-15 note",
	}, "\n")

	s := e.Payments(block)
	assert.Equal(t, []Payment{
		{DueDate: "2023-09-15", Amount: "1250.00"},
		{DueDate: "2023-10-15", Amount: "1250.00"},
	}, s.Payments)
	assert.Equal(t, "1250.00", s.InstallmentAmount)
	assert.Equal(t, "2023-09-15", s.FirstDueDate())

	o := s.Object()
	assert.Equal(t, []string{"payments", "installments_count", "installment_amount"}, o.Keys())
	assert.Equal(t, "2", o.GetString("installments_count"))
}

func TestPaymentsHijriPolicy(t *testing.T) {
	tmpl := template.MustDefault().WithDatePolicy(template.DatePolicyHijri)
	e := New(tmpl)

	s := e.Payments("1,250.00 1445-03-01 2023-09-15")
	assert.Equal(t, []Payment{{DueDate: "1445-03-01", Amount: "1250.00"}}, s.Payments)

	s = e.Payments("1/3/1445 15/09/2023 SAR 2,000.00")
	assert.Equal(t, []Payment{{DueDate: "1445-03-01", Amount: "2000.00"}}, s.Payments)

	assert.Equal(t, template.DatePolicyGregorian, template.MustDefault().DatePolicy())
}

func TestPaymentsDateLines(t *testing.T) {
	e := newTestExtractor(t)

	s := e.Payments("15/09/2023 SAR 2,000.00\n15/10/2023 SAR 1,500.00\nTotal")
	assert.Equal(t, []Payment{
		{DueDate: "2023-09-15", Amount: "2000.00"},
		{DueDate: "2023-10-15", Amount: "1500.00"},
	}, s.Payments)
	assert.Empty(t, s.InstallmentAmount)
	assert.False(t, s.Object().Has("installment_amount"))
}

func TestPaymentsHijriFallback(t *testing.T) {
	e := newTestExtractor(t)

	s := e.Payments("1445-03-01 3,000.00")
	assert.Equal(t, []Payment{{DueDate: "1445-03-01", Amount: "3000.00"}}, s.Payments)
}

func TestPaymentsEmpty(t *testing.T) {
	e := newTestExtractor(t)

	s := e.Payments("Rent Payments Schedule\nno rows")
	assert.Empty(t, s.Payments)
	assert.Empty(t, s.FirstDueDate())
	assert.Zero(t, s.Object().Len())
}

func TestPaymentsIgnoreBareNumbers(t *testing.T) {
	e := newTestExtractor(t)

	s := e.Payments("1234 2023-09-15")
	assert.Empty(t, s.Payments)
	assert.Empty(t, s.FirstDueDate())
}
