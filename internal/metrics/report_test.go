package metrics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursedash/internal/catalog"
	"coursedash/internal/edition"
)

func sampleRows(t *testing.T) (*catalog.Catalog, []edition.Edition) {
	t.Helper()
	cat := catalog.Default()
	ds, ok := cat.Program("Data Science")
	require.True(t, ok)
	da, ok := cat.Program("Data Analysis")
	require.True(t, ok)

	a := edition.New(ds, 2025, 10, "Oct", 40, [4]float64{50, 20, 20, 10}, 12)
	a.Channel, a.Region, a.Discipline = "Referrals", "Madrid (ES)", "STEM"
	b := edition.New(da, 2025, 4, "Apr", 25, [4]float64{}, 5)
	b.Channel, b.Region, b.Discipline = "LinkedIn", "CDMX (MX)", "Law"
	c := edition.New(da, 2024, 4, "Apr", 18, [4]float64{}, 0)
	c.Channel, c.Region, c.Discipline = "LinkedIn", "Bogota (CO)", "Design"
	return cat, []edition.Edition{a, b, c}
}

func TestEvaluateTotals(t *testing.T) {
	cat, rows := sampleRows(t)
	r := Evaluate(rows, AllOf(cat, rows, 2025))

	require.False(t, r.Empty)
	assert.Equal(t, 65, r.TotalEnrollment)
	assert.Equal(t, 500000.0, r.TotalRevenue)
	assert.Equal(t, 2, r.Editions)
	assert.Equal(t, 17, r.TotalPlacements)
	assert.InDelta(t, 500000.0/65, r.TicketPerStudent, 1e-9)
	assert.InDelta(t, 17.0/65*100, r.EmployabilityRate, 1e-9)

	assert.Equal(t, "Data Science", r.LeadingProgram)
	assert.Equal(t, "Madrid (ES)", r.TopRegion)
	assert.Equal(t, "Referrals", r.TopChannel)

	assert.Equal(t, PaymentTotals{Debit: 30, Credit: 13, Transfer: 16, Other: 7}, r.Payments)
}

func TestEvaluateBreakdowns(t *testing.T) {
	cat, rows := sampleRows(t)
	r := Evaluate(rows, AllOf(cat, rows, 2025))

	var order []string
	for _, row := range r.Rows {
		order = append(order, row.ID)
	}
	assert.Equal(t, []string{"DAT-2025-04", "DAT-2025-10"}, order)
	assert.Equal(t, 140000.0, r.Rows[0].Revenue)
	assert.Equal(t, [4]int{10, 5, 8, 3}, r.Rows[0].MethodCounts)

	wantMonths := []MonthTotal{
		{Month: 4, MonthLabel: "Apr", Enrollment: 25},
		{Month: 10, MonthLabel: "Oct", Enrollment: 40},
	}
	if diff := cmp.Diff(wantMonths, r.ByMonth); diff != "" {
		t.Errorf("ByMonth mismatch (-want +got):\n%s", diff)
	}

	wantPrograms := []ProgramTotal{
		{Program: "Data Science", Enrollment: 40, Revenue: 360000, Placements: 12, EmployabilityRate: 30},
		{Program: "Data Analysis", Enrollment: 25, Revenue: 140000, Placements: 5, EmployabilityRate: 20},
	}
	if diff := cmp.Diff(wantPrograms, r.ByProgram); diff != "" {
		t.Errorf("ByProgram mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"Data Analysis", "Data Science"}, r.Heatmap.Programs)
	assert.Equal(t, 25, r.Heatmap.Cells[0][3])
	assert.Equal(t, 40, r.Heatmap.Cells[1][9])
}

func TestEvaluateProgramSumsMatchTotals(t *testing.T) {
	cat, rows := sampleRows(t)
	for _, year := range []int{2024, 2025} {
		r := Evaluate(rows, AllOf(cat, rows, year))
		require.False(t, r.Empty)

		enrollment, revenue := 0, 0.0
		for _, p := range r.ByProgram {
			enrollment += p.Enrollment
			revenue += p.Revenue
		}
		assert.Equal(t, r.TotalEnrollment, enrollment, "year %d", year)
		assert.InDelta(t, r.TotalRevenue, revenue, 1e-6, "year %d", year)

		cells := 0
		for _, c := range r.ByMonthProgram {
			cells += c.Enrollment
		}
		assert.Equal(t, r.TotalEnrollment, cells, "year %d", year)
	}
}

func TestEvaluateEmpty(t *testing.T) {
	cat, rows := sampleRows(t)

	tests := []struct {
		name   string
		filter Filter
	}{
		{"year without rows", AllOf(cat, rows, 2019)},
		{"no programs selected", Filter{Year: 2025, Channels: cat.Channels.Values, Regions: cat.Regions.Values}},
		{"region excluded", Filter{Year: 2025, Programs: []string{"Data Science"}, Channels: cat.Channels.Values, Regions: []string{"Tijuana (MX)"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Evaluate(rows, tt.filter)
			assert.True(t, r.Empty)
			assert.Zero(t, r.TotalEnrollment)
			assert.Empty(t, r.Rows)
			assert.Empty(t, r.LeadingProgram)
		})
	}
}

func TestEvaluateTiesAlphabetical(t *testing.T) {
	cat := catalog.Default()
	ds, _ := cat.Program("Data Science")
	da, _ := cat.Program("Data Analysis")

	a := edition.New(ds, 2023, 3, "Mar", 30, [4]float64{}, 0)
	a.Channel, a.Region = "Referrals", "Tijuana (MX)"
	b := edition.New(da, 2023, 8, "Aug", 30, [4]float64{}, 0)
	b.Channel, b.Region = "LinkedIn", "Auckland (NZ)"
	rows := []edition.Edition{a, b}

	r := Evaluate(rows, AllOf(cat, rows, 2023))
	assert.Equal(t, "Data Analysis", r.LeadingProgram)
	assert.Equal(t, "Auckland (NZ)", r.TopRegion)
	assert.Equal(t, "LinkedIn", r.TopChannel)
	assert.Zero(t, r.EmployabilityRate)
}

func TestRatioGuards(t *testing.T) {
	assert.Zero(t, TicketPerStudent(1000, 0))
	assert.Zero(t, EmployabilityRate(3, 0))
	assert.Equal(t, 250.0, TicketPerStudent(1000, 4))
	assert.Equal(t, 75.0, EmployabilityRate(3, 4))
}

func TestFilterHelpers(t *testing.T) {
	cat, rows := sampleRows(t)

	assert.Equal(t, 2025, LatestYear(rows))
	assert.Zero(t, LatestYear(nil))

	f := AllOf(cat, rows, 2024)
	assert.Equal(t, []string{"Data Analysis", "Data Science"}, f.Programs)
	assert.Len(t, Apply(rows, f), 1)

	f.Channels = []string{"Referrals"}
	assert.Empty(t, Apply(rows, f))
}
