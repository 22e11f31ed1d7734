// Package metrics is the reporting engine: it filters the working dataset,
// derives per-row revenue and payment counts, and aggregates the totals the
// dashboard displays. Every function is pure over its inputs.
package metrics

import (
	"cmp"
	"slices"
	"time"

	"coursedash/internal/edition"
	"coursedash/internal/logging"
)

// DerivedRow is an edition plus its computed fields.
type DerivedRow struct {
	edition.Edition
	Revenue      float64 `json:"revenue"`
	MethodCounts [4]int  `json:"method_counts"`
}

// MonthProgramTotal is one cell of the month × program breakdown.
type MonthProgramTotal struct {
	Month      int     `json:"month"`
	MonthLabel string  `json:"month_label"`
	Program    string  `json:"program"`
	Enrollment int     `json:"enrollment"`
	Revenue    float64 `json:"revenue"`
}

// MonthTotal is the enrollment of one month.
type MonthTotal struct {
	Month      int    `json:"month"`
	MonthLabel string `json:"month_label"`
	Enrollment int    `json:"enrollment"`
}

// ProgramTotal aggregates one program.
type ProgramTotal struct {
	Program           string  `json:"program"`
	Enrollment        int     `json:"enrollment"`
	Revenue           float64 `json:"revenue"`
	Placements        int     `json:"placements"`
	EmployabilityRate float64 `json:"employability_rate"`
}

// KeyTotal is enrollment grouped by a category value.
type KeyTotal struct {
	Key        string `json:"key"`
	Enrollment int    `json:"enrollment"`
}

// PaymentTotals sums the per-row method counts.
type PaymentTotals struct {
	Debit    int `json:"debit"`
	Credit   int `json:"credit"`
	Transfer int `json:"transfer"`
	Other    int `json:"other"`
}

// Heatmap is program × month enrollment; Cells[i][m-1] is Programs[i] in month m.
type Heatmap struct {
	Programs []string  `json:"programs"`
	Cells    [][12]int `json:"cells"`
}

// Report is everything the presentation layer needs for one filter.
// When Empty is set no aggregate is populated.
type Report struct {
	Filter Filter `json:"filter"`
	Empty  bool   `json:"empty"`

	Rows []DerivedRow `json:"rows,omitempty"`

	TotalEnrollment   int     `json:"total_enrollment"`
	TotalRevenue      float64 `json:"total_revenue"`
	Editions          int     `json:"editions"`
	TicketPerStudent  float64 `json:"ticket_per_student"`
	TotalPlacements   int     `json:"total_placements"`
	EmployabilityRate float64 `json:"employability_rate"`

	LeadingProgram string `json:"leading_program"`
	TopRegion      string `json:"top_region"`
	TopChannel     string `json:"top_channel"`

	ByMonthProgram []MonthProgramTotal `json:"by_month_program,omitempty"`
	ByMonth        []MonthTotal        `json:"by_month,omitempty"`
	ByProgram      []ProgramTotal      `json:"by_program,omitempty"`
	ByRegion       []KeyTotal          `json:"by_region,omitempty"`
	ByChannel      []KeyTotal          `json:"by_channel,omitempty"`
	Payments       PaymentTotals       `json:"payments"`
	Heatmap        Heatmap             `json:"heatmap"`
}

// TicketPerStudent is revenue per enrolled student, 0 without students.
func TicketPerStudent(revenue float64, enrollment int) float64 {
	if enrollment <= 0 {
		return 0
	}
	return revenue / float64(enrollment)
}

// EmployabilityRate is placements as a percentage of enrollment, 0 without students.
func EmployabilityRate(placements, enrollment int) float64 {
	if enrollment <= 0 {
		return 0
	}
	return float64(placements) / float64(enrollment) * 100
}

// Derive computes the per-row fields.
func Derive(e edition.Edition) DerivedRow {
	return DerivedRow{
		Edition:      e,
		Revenue:      edition.Revenue(e),
		MethodCounts: edition.MethodCounts(e.Enrollment, e.Payments),
	}
}

// Evaluate filters rows, derives per-row fields and aggregates them.
// An empty selection yields Report{Empty: true}; it is not an error.
func Evaluate(rows []edition.Edition, f Filter) *Report {
	timer := logging.StartTimer(logging.CategoryMetrics, "evaluate")
	defer timer.StopWithThreshold(250 * time.Millisecond)

	selected := Apply(rows, f)
	if len(selected) == 0 {
		logging.Get(logging.CategoryMetrics).Info("no editions match filter for %d", f.Year)
		return &Report{Filter: f, Empty: true}
	}

	r := &Report{Filter: f}
	r.Rows = make([]DerivedRow, len(selected))
	for i, e := range selected {
		r.Rows[i] = Derive(e)
	}
	slices.SortStableFunc(r.Rows, func(a, b DerivedRow) int {
		return cmp.Or(cmp.Compare(a.Month, b.Month), cmp.Compare(a.Program, b.Program))
	})

	aggregate(r)
	logging.Get(logging.CategoryMetrics).Debug("evaluated %d of %d editions for %d", len(selected), len(rows), f.Year)
	return r
}

func aggregate(r *Report) {
	ids := make(map[string]bool)
	programs := make(map[string]*ProgramTotal)
	type cell struct {
		month   int
		program string
	}
	monthProgram := make(map[cell]*MonthProgramTotal)
	months := make(map[int]*MonthTotal)
	regions := make(map[string]int)
	channels := make(map[string]int)

	for _, row := range r.Rows {
		r.TotalEnrollment += row.Enrollment
		r.TotalRevenue += row.Revenue
		r.TotalPlacements += row.Placements
		ids[row.ID] = true

		pt := programs[row.Program]
		if pt == nil {
			pt = &ProgramTotal{Program: row.Program}
			programs[row.Program] = pt
		}
		pt.Enrollment += row.Enrollment
		pt.Revenue += row.Revenue
		pt.Placements += row.Placements

		key := cell{row.Month, row.Program}
		mp := monthProgram[key]
		if mp == nil {
			mp = &MonthProgramTotal{Month: row.Month, MonthLabel: row.MonthLabel, Program: row.Program}
			monthProgram[key] = mp
		}
		mp.Enrollment += row.Enrollment
		mp.Revenue += row.Revenue

		mt := months[row.Month]
		if mt == nil {
			mt = &MonthTotal{Month: row.Month, MonthLabel: row.MonthLabel}
			months[row.Month] = mt
		}
		mt.Enrollment += row.Enrollment

		regions[row.Region] += row.Enrollment
		channels[row.Channel] += row.Enrollment

		r.Payments.Debit += row.MethodCounts[edition.Debit]
		r.Payments.Credit += row.MethodCounts[edition.Credit]
		r.Payments.Transfer += row.MethodCounts[edition.Transfer]
		r.Payments.Other += row.MethodCounts[edition.Other]
	}

	r.Editions = len(ids)
	r.TicketPerStudent = TicketPerStudent(r.TotalRevenue, r.TotalEnrollment)
	r.EmployabilityRate = EmployabilityRate(r.TotalPlacements, r.TotalEnrollment)

	for _, pt := range programs {
		pt.EmployabilityRate = EmployabilityRate(pt.Placements, pt.Enrollment)
		r.ByProgram = append(r.ByProgram, *pt)
	}
	slices.SortFunc(r.ByProgram, func(a, b ProgramTotal) int {
		return cmp.Or(cmp.Compare(b.Enrollment, a.Enrollment), cmp.Compare(a.Program, b.Program))
	})
	r.LeadingProgram = r.ByProgram[0].Program

	for _, mp := range monthProgram {
		r.ByMonthProgram = append(r.ByMonthProgram, *mp)
	}
	slices.SortFunc(r.ByMonthProgram, func(a, b MonthProgramTotal) int {
		return cmp.Or(cmp.Compare(a.Month, b.Month), cmp.Compare(a.Program, b.Program))
	})

	for _, mt := range months {
		r.ByMonth = append(r.ByMonth, *mt)
	}
	slices.SortFunc(r.ByMonth, func(a, b MonthTotal) int { return cmp.Compare(a.Month, b.Month) })

	r.ByRegion = ranked(regions)
	r.ByChannel = ranked(channels)
	r.TopRegion = r.ByRegion[0].Key
	r.TopChannel = r.ByChannel[0].Key

	r.Heatmap = heatmap(r.ByMonthProgram)
}

// ranked orders totals by enrollment descending, ties alphabetical.
func ranked(totals map[string]int) []KeyTotal {
	out := make([]KeyTotal, 0, len(totals))
	for k, v := range totals {
		out = append(out, KeyTotal{Key: k, Enrollment: v})
	}
	slices.SortFunc(out, func(a, b KeyTotal) int {
		return cmp.Or(cmp.Compare(b.Enrollment, a.Enrollment), cmp.Compare(a.Key, b.Key))
	})
	return out
}

func heatmap(cells []MonthProgramTotal) Heatmap {
	var h Heatmap
	for _, c := range cells {
		if !slices.Contains(h.Programs, c.Program) {
			h.Programs = append(h.Programs, c.Program)
		}
	}
	slices.Sort(h.Programs)
	h.Cells = make([][12]int, len(h.Programs))
	for _, c := range cells {
		i := slices.Index(h.Programs, c.Program)
		h.Cells[i][c.Month-1] += c.Enrollment
	}
	return h
}
