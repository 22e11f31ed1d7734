package store

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"coursedash/internal/catalog"
	"coursedash/internal/edition"
)

func ptr[T any](v T) *T { return &v }

func testRows(t *testing.T, cat *catalog.Catalog) []edition.Edition {
	t.Helper()
	ds, _ := cat.Program("Data Science")
	da, _ := cat.Program("Data Analysis")

	a := edition.New(ds, 2025, 10, "Oct", 40, [4]float64{50, 20, 20, 10}, 12)
	a.Channel, a.Region, a.Discipline = "Referrals", "Madrid (ES)", "STEM"
	b := edition.New(da, 2025, 4, "Apr", 25, [4]float64{}, 5)
	b.Channel, b.Region, b.Discipline = "LinkedIn", "CDMX (MX)", "Law"
	c := edition.New(da, 2024, 4, "Apr", 18, [4]float64{}, 0)
	c.Channel, c.Region, c.Discipline = "LinkedIn", "Bogota (CO)", "Design"
	return []edition.Edition{a, b, c}
}

func TestNewCopiesRows(t *testing.T) {
	cat := catalog.Default()
	rows := testRows(t, cat)
	s := New(cat, rows)

	rows[0].Enrollment = 999
	if got := s.Snapshot()[0].Enrollment; got != 40 {
		t.Fatalf("store shares caller slice: enrollment=%d", got)
	}

	snap := s.Snapshot()
	snap[1].Region = "Auckland (NZ)"
	if got := s.Snapshot()[1].Region; got != "CDMX (MX)" {
		t.Fatalf("snapshot shares store slice: region=%s", got)
	}

	if diff := cmp.Diff([]int{2024, 2025}, s.Years()); diff != "" {
		t.Errorf("Years mismatch (-want +got):\n%s", diff)
	}
}

func TestAppend(t *testing.T) {
	cat := catalog.Default()
	s := New(cat, testRows(t, cat))

	e, err := s.Append(NewEdition{
		Year:       2025,
		Month:      12,
		Program:    "Advanced MCP (AI+MCP)",
		Enrollment: 120,
		Channel:    "Referrals",
		Region:     "Guadalajara (MX)",
		Discipline: "Economics",
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if s.Len() != 4 {
		t.Errorf("expected 4 rows, got %d", s.Len())
	}
	if e.ID != "ADV-2025-12" || e.MonthLabel != "Dec" {
		t.Errorf("unexpected id/label: %s %s", e.ID, e.MonthLabel)
	}
	if e.UnitPrice != 2500 || e.DurationWeeks != 12 || e.Unit != catalog.PerWeek {
		t.Errorf("program fields not copied: %+v", e)
	}
	if e.Payments != edition.DefaultMix {
		t.Errorf("expected default mix, got %v", e.Payments)
	}
}

func TestAppendValidation(t *testing.T) {
	cat := catalog.Default()
	s := New(cat, nil)

	valid := NewEdition{Year: 2025, Month: 3, Program: "Data Science", Enrollment: 10,
		Channel: "LinkedIn", Region: "CDMX (MX)", Discipline: "STEM"}

	tests := []struct {
		name   string
		mutate func(n *NewEdition)
		want   error
	}{
		{"unknown program", func(n *NewEdition) { n.Program = "Pottery" }, ErrUnknownProgram},
		{"zero enrollment", func(n *NewEdition) { n.Enrollment = 0 }, ErrInvalidEdition},
		{"month 13", func(n *NewEdition) { n.Month = 13 }, ErrInvalidEdition},
		{"unknown channel", func(n *NewEdition) { n.Channel = "TV" }, ErrInvalidEdition},
		{"unknown region", func(n *NewEdition) { n.Region = "Lima (PE)" }, ErrInvalidEdition},
		{"unknown discipline", func(n *NewEdition) { n.Discipline = "Alchemy" }, ErrInvalidEdition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			if _, err := s.Append(in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if s.Len() != 0 {
				t.Fatalf("rejected edition was stored")
			}
		})
	}
}
