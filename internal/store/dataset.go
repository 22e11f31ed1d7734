// Package store owns the session's working dataset of editions. Rows are
// appended from the new-edition form or overwritten field-by-field by merging
// an edited subset keyed by edition id; nothing is ever deleted.
package store

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"coursedash/internal/catalog"
	"coursedash/internal/edition"
	"coursedash/internal/logging"
)

var (
	// ErrUnknownProgram is returned when a new edition names a program missing from the catalog.
	ErrUnknownProgram = errors.New("unknown program")
	// ErrInvalidEdition is returned when a new edition fails validation.
	ErrInvalidEdition = errors.New("invalid edition")
	// ErrInvalidEdit is returned when an edit set fails validation; nothing is applied.
	ErrInvalidEdit = errors.New("invalid edit")
	// ErrUnknownEditions is wrapped by UnknownEditionsError.
	ErrUnknownEditions = errors.New("unknown edition ids")
)

// MergePolicy decides what happens to edits whose id matches no row.
type MergePolicy string

const (
	// IgnoreUnknown drops unmatched edits silently (logged at debug).
	IgnoreUnknown MergePolicy = "ignore"
	// ReportUnknown applies the matched edits and returns UnknownEditionsError.
	ReportUnknown MergePolicy = "report"
)

// Valid reports whether p is a known policy.
func (p MergePolicy) Valid() bool {
	return p == IgnoreUnknown || p == ReportUnknown
}

// Store is the mutable dataset of one session. It is not safe for concurrent use.
type Store struct {
	cat    *catalog.Catalog
	rows   []edition.Edition
	policy MergePolicy
}

// Option configures a Store.
type Option func(*Store)

// WithMergePolicy sets the unknown-id policy for Merge.
func WithMergePolicy(p MergePolicy) Option {
	return func(s *Store) {
		s.policy = p
	}
}

// New returns a store holding a private copy of rows.
func New(cat *catalog.Catalog, rows []edition.Edition, opts ...Option) *Store {
	s := &Store{
		cat:    cat,
		rows:   slices.Clone(rows),
		policy: IgnoreUnknown,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the catalog the store validates against.
func (s *Store) Catalog() *catalog.Catalog { return s.cat }

// Len returns the number of rows.
func (s *Store) Len() int { return len(s.rows) }

// Snapshot returns a copy of the rows; callers may mutate it freely.
func (s *Store) Snapshot() []edition.Edition {
	return slices.Clone(s.rows)
}

// Years returns the distinct years present, ascending.
func (s *Store) Years() []int {
	var years []int
	for _, e := range s.rows {
		if !slices.Contains(years, e.Year) {
			years = append(years, e.Year)
		}
	}
	slices.Sort(years)
	return years
}

// NewEdition is the input of the new-edition form.
type NewEdition struct {
	Year       int
	Month      int
	Program    string
	Enrollment int
	Channel    string
	Region     string
	Discipline string

	// Optional payment mix input; nil means the default mix.
	Payments   *[4]float64
	Placements int
}

// Append validates in, builds the row from the catalog and appends it.
func (s *Store) Append(in NewEdition) (edition.Edition, error) {
	p, ok := s.cat.Program(in.Program)
	if !ok {
		return edition.Edition{}, fmt.Errorf("%w: %q", ErrUnknownProgram, in.Program)
	}
	if err := s.validateNew(in); err != nil {
		return edition.Edition{}, err
	}

	var raw [4]float64
	if in.Payments != nil {
		raw = *in.Payments
	}
	e := edition.New(p, in.Year, in.Month, s.cat.MonthLabel(in.Month), in.Enrollment, raw, in.Placements)
	e.Channel = in.Channel
	e.Region = in.Region
	e.Discipline = in.Discipline

	s.rows = append(s.rows, e)
	logging.Get(logging.CategoryStore).Info("appended edition %s (%s, %d students)", e.ID, e.Program, e.Enrollment)
	return e, nil
}

func (s *Store) validateNew(in NewEdition) error {
	var problems []string
	if in.Year < 1 {
		problems = append(problems, fmt.Sprintf("year %d", in.Year))
	}
	if in.Month < 1 || in.Month > 12 {
		problems = append(problems, fmt.Sprintf("month %d", in.Month))
	}
	if in.Enrollment < 1 {
		problems = append(problems, fmt.Sprintf("enrollment %d", in.Enrollment))
	}
	if !s.cat.Channels.Contains(in.Channel) {
		problems = append(problems, fmt.Sprintf("channel %q", in.Channel))
	}
	if !s.cat.Regions.Contains(in.Region) {
		problems = append(problems, fmt.Sprintf("region %q", in.Region))
	}
	if !s.cat.Disciplines.Contains(in.Discipline) {
		problems = append(problems, fmt.Sprintf("discipline %q", in.Discipline))
	}
	if in.Placements < 0 {
		problems = append(problems, fmt.Sprintf("placements %d", in.Placements))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidEdition, strings.Join(problems, ", "))
	}
	return nil
}
