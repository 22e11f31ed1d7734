package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"coursedash/internal/catalog"
	"coursedash/internal/config"
	"coursedash/internal/export"
	"coursedash/internal/generator"
	"coursedash/internal/notes"
	"coursedash/internal/store"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(config.DefaultConfig())
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	s := newSession(t)

	assert.NotEmpty(t, s.ID())
	assert.Len(t, s.Rows(), 14)
	assert.Equal(t, []int{2022, 2023, 2024, 2025}, s.Years())
	assert.Equal(t, 2025, s.Filter().Year)

	r := s.Report()
	require.False(t, r.Empty)
	assert.Equal(t, 5, r.Editions)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Generator.Schedule[2022] = append(cfg.Generator.Schedule[2022], generator.Slot{Program: "Astrology", Month: 2})

	_, err := New(cfg)
	assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)

	cfg = config.DefaultConfig()
	cfg.Merge.UnknownIDs = "drop"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestSessionsAreIndependent(t *testing.T) {
	a := newSession(t)
	b := newSession(t)
	require.Equal(t, a.Rows(), b.Rows(), "same seed, same table")

	target := a.Rows()[0]
	_, err := a.Merge([]store.Edit{{ID: target.ID, Enrollment: ptr(target.Enrollment + 1)}})
	require.NoError(t, err)

	assert.Equal(t, target.Enrollment+1, a.Rows()[0].Enrollment)
	assert.Equal(t, target.Enrollment, b.Rows()[0].Enrollment)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestSelectYear(t *testing.T) {
	s := newSession(t)

	s.SelectYear(2019)
	assert.True(t, s.Report().Empty)

	s.SelectYear(2022)
	r := s.Report()
	require.False(t, r.Empty)
	assert.Equal(t, []string{"Data Science", "Excel Basics & Analytics"}, s.Filter().Programs)
	assert.Equal(t, 2, r.Editions)
}

func TestAppendExtendsFilter(t *testing.T) {
	s := newSession(t)
	s.SelectYear(2022)

	e, err := s.Append(store.NewEdition{
		Year:       2022,
		Month:      9,
		Program:    "Data Analysis",
		Enrollment: 30,
		Channel:    "Referrals",
		Region:     "Monterrey (MX)",
		Discipline: "Economics",
	})
	require.NoError(t, err)
	assert.Equal(t, "DAT-2022-09", e.ID)
	assert.Contains(t, s.Filter().Programs, "Data Analysis")
	assert.Equal(t, 3, s.Report().Editions)

	_, err = s.Append(store.NewEdition{Year: 2022, Month: 9, Program: "Knitting"})
	assert.ErrorIs(t, err, store.ErrUnknownProgram)
}

func TestMergeFile(t *testing.T) {
	s := newSession(t)
	target := s.Rows()[0]

	path := filepath.Join(t.TempDir(), "edits.csv")
	require.NoError(t, os.WriteFile(path, []byte("edition,region\n"+target.ID+",Auckland (NZ)\n"), 0644))

	res, err := s.MergeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, "Auckland (NZ)", s.Rows()[0].Region)

	_, err = s.MergeFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestMergeFileRejectsNonFinitePrice(t *testing.T) {
	for _, price := range []string{"NaN", "+Inf", "-Inf"} {
		t.Run(price, func(t *testing.T) {
			s := newSession(t)
			before := s.Report()

			path := filepath.Join(t.TempDir(), "edits.csv")
			require.NoError(t, os.WriteFile(path, []byte("edition,unit_price\n"+s.Rows()[0].ID+","+price+"\n"), 0644))

			_, err := s.MergeFile(path)
			assert.ErrorIs(t, err, store.ErrInvalidEdit)

			after := s.Report()
			assert.Equal(t, before.TotalRevenue, after.TotalRevenue)
			_, err = json.Marshal(after)
			assert.NoError(t, err)
		})
	}
}

func TestNotesAndExport(t *testing.T) {
	s := newSession(t)

	_, err := s.AddNote("", "idea", "run a referral promo in Q3")
	require.NoError(t, err)
	_, err = s.AddNote("Data Science", "nope", "x")
	assert.Error(t, err)
	_, err = s.AddNote("Dta Science", "idea", "typo in program")
	assert.ErrorIs(t, err, store.ErrUnknownProgram)
	_, err = s.AddNote(notes.GeneralProgram, "nope", "x")
	assert.Error(t, err)
	require.Len(t, s.Notes(), 1)
	assert.Equal(t, 2025, s.Notes()[0].Year)

	var rows strings.Builder
	require.NoError(t, s.ExportRows(&rows))
	assert.Equal(t, 1+5, strings.Count(rows.String(), "\n"))

	var notesOut strings.Builder
	require.NoError(t, s.ExportNotes(&notesOut))
	assert.Contains(t, notesOut.String(), "run a referral promo in Q3")
}

func TestExportAllYears(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newSession(t)
	_, err := s.AddNote("", "task", "check Madrid numbers")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := s.ExportAllYears(context.Background(), dir)
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "courses_2022.csv"),
		filepath.Join(dir, "courses_2023.csv"),
		filepath.Join(dir, "courses_2024.csv"),
		filepath.Join(dir, "courses_2025.csv"),
		filepath.Join(dir, export.NotesFileName),
	}
	assert.Equal(t, want, paths)

	data, err := os.ReadFile(filepath.Join(dir, "courses_2024.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 1+4)
	assert.True(t, strings.HasPrefix(lines[0], "start_date,year,month"))
}

func TestExportAllYearsCanceled(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ExportAllYears(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func ptr[T any](v T) *T { return &v }
