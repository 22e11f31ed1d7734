// Package notes keeps the team's free-text notes for a session.
package notes

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"coursedash/internal/logging"
)

// GeneralProgram marks a note not tied to one program.
const GeneralProgram = "(General)"

// Tags a note may carry.
var Tags = []string{"risk", "idea", "task", "follow-up", "data"}

var (
	ErrEmptyNote  = errors.New("note text is empty")
	ErrUnknownTag = errors.New("unknown note tag")
)

// Note is one entry of the log.
type Note struct {
	ID        string
	Timestamp time.Time
	Year      int
	Program   string
	Tag       string
	Text      string
}

// Log is an append-only list of notes. Not safe for concurrent use.
type Log struct {
	notes []Note
	now   func() time.Time
}

// NewLog returns an empty log using the wall clock.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// WithClock replaces the clock, for tests.
func (l *Log) WithClock(now func() time.Time) *Log {
	l.now = now
	return l
}

// Add records a note. Text is trimmed; blank text or an unknown tag is rejected.
// An empty program means GeneralProgram.
func (l *Log) Add(year int, program, tag, text string) (Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Note{}, ErrEmptyNote
	}
	if !slices.Contains(Tags, tag) {
		return Note{}, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownTag, tag, strings.Join(Tags, ", "))
	}
	if program == "" {
		program = GeneralProgram
	}

	n := Note{
		ID:        uuid.NewString(),
		Timestamp: l.now(),
		Year:      year,
		Program:   program,
		Tag:       tag,
		Text:      text,
	}
	l.notes = append(l.notes, n)
	logging.Get(logging.CategoryNotes).Debug("note %s added (%s, %s)", n.ID, n.Tag, n.Program)
	return n, nil
}

// Len returns the number of notes.
func (l *Log) Len() int { return len(l.notes) }

// List returns the notes newest first; ties keep insertion order reversed.
func (l *Log) List() []Note {
	out := slices.Clone(l.notes)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b Note) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out
}
