package store

import (
	"fmt"
	"math"
	"strings"

	"coursedash/internal/edition"
	"coursedash/internal/logging"
)

// Edit is one row of an edited subset. Nil fields are absent and keep the
// base value.
type Edit struct {
	ID         string
	Enrollment *int
	UnitPrice  *float64
	Channel    *string
	Region     *string
	Payments   *[4]float64
	Placements *int
}

// Empty reports whether the edit carries no field values.
func (e Edit) Empty() bool {
	return e.Enrollment == nil && e.UnitPrice == nil && e.Channel == nil &&
		e.Region == nil && e.Payments == nil && e.Placements == nil
}

// MergeResult summarizes a merge.
type MergeResult struct {
	Applied     int      // edits that matched at least one row
	RowsUpdated int      // rows touched (ids are not unique)
	Unknown     []string // ids that matched nothing, first-seen order
}

// UnknownEditionsError lists edit ids that matched no row.
type UnknownEditionsError struct {
	IDs []string
}

func (e *UnknownEditionsError) Error() string {
	return fmt.Sprintf("%d unknown edition ids: %s", len(e.IDs), strings.Join(e.IDs, ", "))
}

func (e *UnknownEditionsError) Unwrap() error { return ErrUnknownEditions }

// Merge overwrites base fields with the present values of each edit, keyed by
// edition id. Every base row sharing an id receives the edit; later edits win.
// Touched rows get their payment mix re-normalized and placements re-clamped.
// An invalid edit rejects the whole set before anything changes.
func (s *Store) Merge(edits []Edit) (MergeResult, error) {
	var result MergeResult
	for i, ed := range edits {
		if err := s.validateEdit(ed); err != nil {
			return result, fmt.Errorf("edit %d (%s): %w", i, ed.ID, err)
		}
	}

	index := make(map[string][]int, len(s.rows))
	for i, e := range s.rows {
		index[e.ID] = append(index[e.ID], i)
	}

	log := logging.Get(logging.CategoryStore)
	touched := make(map[int]bool)
	unknown := make(map[string]bool)
	for _, ed := range edits {
		idxs, ok := index[ed.ID]
		if !ok {
			if !unknown[ed.ID] {
				unknown[ed.ID] = true
				result.Unknown = append(result.Unknown, ed.ID)
			}
			continue
		}
		result.Applied++
		for _, i := range idxs {
			apply(&s.rows[i], ed)
			touched[i] = true
		}
	}

	for i := range touched {
		e := &s.rows[i]
		e.Payments = edition.Normalize(e.Payments.Raw())
		e.Placements = edition.ClampPlacements(e.Placements, e.Enrollment)
	}
	result.RowsUpdated = len(touched)
	log.Info("merged %d edits into %d rows", result.Applied, result.RowsUpdated)

	if len(result.Unknown) == 0 {
		return result, nil
	}
	if s.policy == ReportUnknown {
		return result, &UnknownEditionsError{IDs: result.Unknown}
	}
	log.Debug("ignored edits for unknown editions: %v", result.Unknown)
	return result, nil
}

func apply(e *edition.Edition, ed Edit) {
	if ed.Enrollment != nil {
		e.Enrollment = *ed.Enrollment
	}
	if ed.UnitPrice != nil {
		e.UnitPrice = *ed.UnitPrice
	}
	if ed.Channel != nil {
		e.Channel = *ed.Channel
	}
	if ed.Region != nil {
		e.Region = *ed.Region
	}
	if ed.Payments != nil {
		e.Payments = edition.Normalize(*ed.Payments)
	}
	if ed.Placements != nil {
		e.Placements = *ed.Placements
	}
}

func (s *Store) validateEdit(ed Edit) error {
	if ed.ID == "" {
		return fmt.Errorf("%w: missing edition id", ErrInvalidEdit)
	}
	if ed.Enrollment != nil && *ed.Enrollment < 1 {
		return fmt.Errorf("%w: enrollment %d", ErrInvalidEdit, *ed.Enrollment)
	}
	if ed.UnitPrice != nil && (*ed.UnitPrice < 0 || math.IsNaN(*ed.UnitPrice) || math.IsInf(*ed.UnitPrice, 0)) {
		return fmt.Errorf("%w: unit price %v", ErrInvalidEdit, *ed.UnitPrice)
	}
	if ed.Channel != nil && !s.cat.Channels.Contains(*ed.Channel) {
		return fmt.Errorf("%w: channel %q", ErrInvalidEdit, *ed.Channel)
	}
	if ed.Region != nil && !s.cat.Regions.Contains(*ed.Region) {
		return fmt.Errorf("%w: region %q", ErrInvalidEdit, *ed.Region)
	}
	if ed.Placements != nil && *ed.Placements < 0 {
		return fmt.Errorf("%w: placements %d", ErrInvalidEdit, *ed.Placements)
	}
	return nil
}
