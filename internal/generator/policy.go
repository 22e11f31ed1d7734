package generator

import (
	"fmt"

	"coursedash/internal/catalog"
)

// Mode selects the offering rule.
type Mode string

const (
	// ModeFixed uses hand-assigned (program, month) pairs per year.
	ModeFixed Mode = "fixed"
	// ModeRandomized draws programs, start months, payment mix and placements.
	ModeRandomized Mode = "randomized"
)

// Band is an inclusive enrollment range.
type Band struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Slot is one scheduled start in fixed mode.
type Slot struct {
	Program string `yaml:"program"`
	Month   int    `yaml:"month"`
}

// Policy configures generation.
type Policy struct {
	Mode  Mode  `yaml:"mode"`
	Years []int `yaml:"years"`

	// Fixed mode.
	YearBands map[int]Band   `yaml:"year_bands,omitempty"`
	Schedule  map[int][]Slot `yaml:"schedule,omitempty"`

	// Randomized mode.
	MaxProgramsPerYear  int       `yaml:"max_programs_per_year,omitempty"`
	MaxStartsPerProgram int       `yaml:"max_starts_per_program,omitempty"`
	CandidateMonths     []int     `yaml:"candidate_months,omitempty"`
	PlacementRatio      float64   `yaml:"placement_ratio,omitempty"`
	PaymentAlpha        []float64 `yaml:"payment_alpha,omitempty"`
}

// DefaultPolicy returns the fixed 2022–2025 schedule.
func DefaultPolicy() Policy {
	return Policy{
		Mode:  ModeFixed,
		Years: []int{2022, 2023, 2024, 2025},
		YearBands: map[int]Band{
			2022: {20, 30},
			2023: {40, 80},
			2024: {80, 160},
			2025: {100, 200},
		},
		Schedule: map[int][]Slot{
			2022: {
				{"Data Science", 5},
				{"Excel Basics & Analytics", 11},
			},
			2023: {
				{"Data Science", 3},
				{"Data Analysis", 8},
				{"No-Code Web Development", 10},
			},
			2024: {
				{"AI/Data Bootcamp (Intensive)", 1},
				{"Advanced MCP (AI+MCP)", 5},
				{"Excel Basics & Analytics", 7},
				{"No-Code Web Development", 10},
			},
			2025: {
				{"AI/Data Bootcamp (Intensive)", 1},
				{"Data Analysis", 4},
				{"Advanced MCP (AI+MCP)", 6},
				{"Excel Basics & Analytics", 8},
				{"Data Science", 10},
			},
		},
		MaxProgramsPerYear:  4,
		MaxStartsPerProgram: 2,
		CandidateMonths:     []int{1, 3, 4, 6, 8, 10},
		PlacementRatio:      0.55,
		PaymentAlpha:        []float64{4, 2, 3, 1},
	}
}

// RandomizedPolicy returns the default policy switched to randomized offering.
func RandomizedPolicy() Policy {
	p := DefaultPolicy()
	p.Mode = ModeRandomized
	return p
}

// Validate checks the policy against a catalog.
func (p Policy) Validate(cat *catalog.Catalog) error {
	if len(p.Years) == 0 {
		return catalog.Configf("generator.years", "no years configured")
	}

	switch p.Mode {
	case ModeFixed:
		for _, y := range p.Years {
			band, ok := p.YearBands[y]
			if !ok {
				return catalog.Configf("generator.year_bands", "no band for %d", y)
			}
			if band.Min < 1 || band.Max < band.Min {
				return catalog.Configf("generator.year_bands", "band [%d, %d] for %d", band.Min, band.Max, y)
			}
			for i, s := range p.Schedule[y] {
				field := fmt.Sprintf("generator.schedule[%d][%d]", y, i)
				if _, ok := cat.Program(s.Program); !ok {
					return catalog.Configf(field, "unknown program %q", s.Program)
				}
				if s.Month < 1 || s.Month > 12 {
					return catalog.Configf(field, "month %d out of range", s.Month)
				}
			}
		}
	case ModeRandomized:
		if p.MaxProgramsPerYear < 1 {
			return catalog.Configf("generator.max_programs_per_year", "must be at least 1")
		}
		if p.MaxStartsPerProgram < 1 {
			return catalog.Configf("generator.max_starts_per_program", "must be at least 1")
		}
		if len(p.CandidateMonths) == 0 {
			return catalog.Configf("generator.candidate_months", "no candidate months")
		}
		seen := make(map[int]bool, len(p.CandidateMonths))
		for _, m := range p.CandidateMonths {
			if m < 1 || m > 12 {
				return catalog.Configf("generator.candidate_months", "month %d out of range", m)
			}
			if seen[m] {
				return catalog.Configf("generator.candidate_months", "duplicate month %d", m)
			}
			seen[m] = true
		}
		if p.PlacementRatio < 0 || p.PlacementRatio > 1 {
			return catalog.Configf("generator.placement_ratio", "%v outside [0, 1]", p.PlacementRatio)
		}
		if len(p.PaymentAlpha) != 4 {
			return catalog.Configf("generator.payment_alpha", "need 4 concentrations, got %d", len(p.PaymentAlpha))
		}
		for i, a := range p.PaymentAlpha {
			if a <= 0 {
				return catalog.Configf("generator.payment_alpha", "concentration %d is %v", i, a)
			}
		}
	default:
		return catalog.Configf("generator.mode", "unknown mode %q", p.Mode)
	}
	return nil
}
