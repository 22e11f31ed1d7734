// Package edition defines the Edition row and the per-row derivations:
// revenue, payment-mix normalization, per-method enrollment and placement clamping.
package edition

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"coursedash/internal/catalog"
)

// Edition is one scheduled offering of a program. Program fields are
// denormalized copies taken when the row is created.
type Edition struct {
	ID         string
	StartDate  time.Time
	Year       int
	Month      int
	MonthLabel string

	Program        string
	Format         string
	Unit           catalog.PricingUnit
	UnitPrice      float64
	DurationMonths int
	DurationWeeks  int

	Enrollment int
	Channel    string
	Region     string
	Discipline string

	Payments   PaymentMix
	Placements int
}

// New builds an edition from a catalog program. Payments are normalized from
// raw and placements are clamped to enrollment.
func New(p catalog.Program, year, month int, monthLabel string, enrollment int, raw [4]float64, placements int) Edition {
	e := Edition{
		ID:             ID(p.Name, year, month),
		StartDate:      time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
		Year:           year,
		Month:          month,
		MonthLabel:     monthLabel,
		Program:        p.Name,
		Format:         p.Format,
		Unit:           p.Unit,
		UnitPrice:      p.UnitPrice,
		DurationMonths: p.DurationMonths,
		DurationWeeks:  p.DurationWeeks,
		Enrollment:     enrollment,
		Payments:       Normalize(raw),
		Placements:     placements,
	}
	e.Placements = ClampPlacements(e.Placements, e.Enrollment)
	return e
}

// ID derives the edition identifier: the upper-cased first three letters of
// the program name, the year and the zero-padded month. Not unique.
func ID(program string, year, month int) string {
	return fmt.Sprintf("%s-%d-%02d", Abbrev(program), year, month)
}

// Abbrev returns the first three runes of name, upper-cased.
func Abbrev(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) > 3 {
		runes = runes[:3]
	}
	for i, r := range runes {
		runes[i] = unicode.ToUpper(r)
	}
	return string(runes)
}

// Revenue is the estimated revenue of a row.
func Revenue(e Edition) float64 {
	if e.Unit == catalog.PerMonth {
		months := e.DurationMonths
		if months <= 0 {
			months = catalog.DefaultDurationMonths
		}
		return e.UnitPrice * float64(months) * float64(e.Enrollment)
	}
	weeks := e.DurationWeeks
	if weeks <= 0 {
		weeks = catalog.DefaultDurationWeeks
	}
	return e.UnitPrice * float64(weeks) * float64(e.Enrollment)
}

// ClampPlacements keeps placements within [0, enrollment].
func ClampPlacements(placements, enrollment int) int {
	if placements < 0 {
		return 0
	}
	if placements > enrollment {
		return enrollment
	}
	return placements
}
