// Package export writes derived rows and notes as CSV and reads CSV edit sets.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"coursedash/internal/edition"
	"coursedash/internal/logging"
	"coursedash/internal/metrics"
	"coursedash/internal/notes"
	"coursedash/internal/store"
)

// NotesFileName is the default name of the notes export.
const NotesFileName = "notes.csv"

// RowHeader is the column order of the derived-rows export.
var RowHeader = []string{
	"start_date", "year", "month", "month_label", "program", "format", "unit",
	"unit_price", "duration_months", "duration_weeks", "enrollment", "channel",
	"region", "discipline", "edition", "revenue",
	"pct_debit", "pct_credit", "pct_transfer", "pct_other",
	"students_debit", "students_credit", "students_transfer", "students_other",
	"placements",
}

// NoteHeader is the column order of the notes export.
var NoteHeader = []string{"timestamp", "year", "program", "tag", "text"}

// ErrMalformedEdits is wrapped by every ReadEdits failure.
var ErrMalformedEdits = errors.New("malformed edit file")

// YearFileName is the per-year export name, e.g. courses_2025.csv.
func YearFileName(year int) string {
	return fmt.Sprintf("courses_%d.csv", year)
}

// WriteRows writes the header and one record per row. Revenue is rounded to
// a whole amount.
func WriteRows(w io.Writer, rows []metrics.DerivedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RowHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(rowRecord(r)); err != nil {
			return fmt.Errorf("write %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	logging.Get(logging.CategoryExport).Debug("wrote %d rows", len(rows))
	return nil
}

func rowRecord(r metrics.DerivedRow) []string {
	rec := []string{
		r.StartDate.Format(time.DateOnly),
		strconv.Itoa(r.Year),
		strconv.Itoa(r.Month),
		r.MonthLabel,
		r.Program,
		r.Format,
		string(r.Unit),
		strconv.FormatFloat(r.UnitPrice, 'f', -1, 64),
		optionalInt(r.DurationMonths),
		optionalInt(r.DurationWeeks),
		strconv.Itoa(r.Enrollment),
		r.Channel,
		r.Region,
		r.Discipline,
		r.ID,
		strconv.FormatFloat(math.Round(r.Revenue), 'f', 0, 64),
	}
	for _, pct := range r.Payments {
		rec = append(rec, strconv.Itoa(pct))
	}
	for _, n := range r.MethodCounts {
		rec = append(rec, strconv.Itoa(n))
	}
	return append(rec, strconv.Itoa(r.Placements))
}

func optionalInt(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// WriteNotes writes the notes log.
func WriteNotes(w io.Writer, list []notes.Note) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(NoteHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, n := range list {
		rec := []string{n.Timestamp.Format(time.RFC3339), strconv.Itoa(n.Year), n.Program, n.Tag, n.Text}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write note %s: %w", n.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush notes: %w", err)
	}
	logging.Get(logging.CategoryExport).Debug("wrote %d notes", len(list))
	return nil
}

// ReadEdits parses an edit set. The file needs an "edition" column; any of
// enrollment, unit_price, channel, region, pct_debit, pct_credit,
// pct_transfer, pct_other and placements may follow. Blank cells leave the
// field untouched. When any pct cell is set, blank pct cells count as 0.
func ReadEdits(r io.Reader) ([]store.Edit, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedEdits)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedEdits, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := index["edition"]; !ok {
		return nil, fmt.Errorf("%w: missing edition column", ErrMalformedEdits)
	}

	var edits []store.Edit
	line := 1
	for {
		line++
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedEdits, line, err)
		}
		ed, err := parseEdit(rec, index)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedEdits, line, err)
		}
		if ed.ID == "" && ed.Empty() {
			continue
		}
		edits = append(edits, ed)
	}
	logging.Get(logging.CategoryExport).Debug("read %d edits", len(edits))
	return edits, nil
}

func parseEdit(rec []string, index map[string]int) (store.Edit, error) {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	ed := store.Edit{ID: cell("edition")}
	if v := cell("enrollment"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ed, fmt.Errorf("enrollment %q: %w", v, err)
		}
		ed.Enrollment = &n
	}
	if v := cell("unit_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return ed, fmt.Errorf("unit_price %q: %w", v, err)
		}
		ed.UnitPrice = &f
	}
	if v := cell("channel"); v != "" {
		ed.Channel = &v
	}
	if v := cell("region"); v != "" {
		ed.Region = &v
	}
	if v := cell("placements"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ed, fmt.Errorf("placements %q: %w", v, err)
		}
		ed.Placements = &n
	}

	var raw [4]float64
	set := false
	for i, name := range edition.MethodNames {
		v := cell("pct_" + name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return ed, fmt.Errorf("pct_%s %q: %w", name, v, err)
		}
		raw[i] = f
		set = true
	}
	if set {
		ed.Payments = &raw
	}
	return ed, nil
}
