package edition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"coursedash/internal/catalog"
)

func TestRevenue(t *testing.T) {
	tests := []struct {
		name string
		e    Edition
		want float64
	}{
		{"per month", Edition{Unit: catalog.PerMonth, UnitPrice: 1500, DurationMonths: 6, Enrollment: 10}, 90000},
		{"per week", Edition{Unit: catalog.PerWeek, UnitPrice: 700, DurationWeeks: 8, Enrollment: 10}, 56000},
		{"per month default duration", Edition{Unit: catalog.PerMonth, UnitPrice: 100, Enrollment: 2}, 1200},
		{"per week default duration", Edition{Unit: catalog.PerWeek, UnitPrice: 100, Enrollment: 2}, 1600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Revenue(tt.e))
			assert.Equal(t, Revenue(tt.e), Revenue(tt.e))
		})
	}
}

func TestID(t *testing.T) {
	assert.Equal(t, "DAT-2025-10", ID("Data Science", 2025, 10))
	assert.Equal(t, "EXC-2022-01", ID("Excel Basics & Analytics", 2022, 1))
	assert.Equal(t, "ANÁ", Abbrev("análisis"))
	assert.Equal(t, "AI", Abbrev("ai"))
}

func TestNew(t *testing.T) {
	p, ok := catalog.Default().Program("Data Analysis")
	if !ok {
		t.Fatal("program missing from default catalog")
	}

	e := New(p, 2024, 7, "Jul", 30, [4]float64{}, 45)

	assert.Equal(t, "DAT-2024-07", e.ID)
	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), e.StartDate)
	assert.Equal(t, catalog.PerWeek, e.Unit)
	assert.Equal(t, 8, e.DurationWeeks)
	assert.Zero(t, e.DurationMonths)
	assert.Equal(t, DefaultMix, e.Payments)
	assert.Equal(t, 30, e.Placements, "placements clamp to enrollment")
}

func TestClampPlacements(t *testing.T) {
	assert.Equal(t, 0, ClampPlacements(-3, 10))
	assert.Equal(t, 10, ClampPlacements(11, 10))
	assert.Equal(t, 4, ClampPlacements(4, 10))
}
