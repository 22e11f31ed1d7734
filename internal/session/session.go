// Package session ties one user's working state together: the catalog, the
// generated and edited dataset, the notes log and the current filter. Every
// session owns its data; nothing is shared between sessions.
package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"coursedash/internal/catalog"
	"coursedash/internal/config"
	"coursedash/internal/edition"
	"coursedash/internal/export"
	"coursedash/internal/generator"
	"coursedash/internal/logging"
	"coursedash/internal/metrics"
	"coursedash/internal/notes"
	"coursedash/internal/store"
)

// Session is the per-user context object. Not safe for concurrent use
// except where a method says otherwise.
type Session struct {
	id     string
	cfg    *config.Config
	cat    *catalog.Catalog
	store  *store.Store
	notes  *notes.Log
	filter metrics.Filter
}

// Option configures a Session.
type Option func(*options)

type options struct {
	rng     generator.Rand
	catalog *catalog.Catalog
	notes   *notes.Log
}

// WithRand replaces the seeded random source.
func WithRand(r generator.Rand) Option {
	return func(o *options) { o.rng = r }
}

// WithCatalog uses cat instead of loading cfg.CatalogPath.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(o *options) { o.catalog = cat }
}

// WithNotes uses an existing notes log, e.g. one with a fixed clock.
func WithNotes(l *notes.Log) Option {
	return func(o *options) { o.notes = l }
}

// New loads the catalog, generates the base table and selects the latest
// year with every program, channel and region.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	log := logging.Get(logging.CategorySession)
	timer := logging.StartTimer(logging.CategorySession, "new session")
	defer timer.Stop()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cat := o.catalog
	if cat == nil {
		var err error
		cat, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}
	if o.rng == nil {
		o.rng = generator.NewRand(cfg.Seed)
	}
	if o.notes == nil {
		o.notes = notes.NewLog()
	}

	rows, err := generator.Generate(cat, cfg.Generator, o.rng)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dataset: %w", err)
	}

	s := &Session{
		id:    uuid.NewString(),
		cfg:   cfg,
		cat:   cat,
		store: store.New(cat, rows, store.WithMergePolicy(cfg.Merge.UnknownIDs)),
		notes: o.notes,
	}
	s.filter = metrics.AllOf(cat, rows, metrics.LatestYear(rows))

	log.Info("session %s started: %d editions, seed=%d, mode=%s", s.id, len(rows), cfg.Seed, cfg.Generator.Mode)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Catalog returns the session catalog.
func (s *Session) Catalog() *catalog.Catalog { return s.cat }

// Rows returns a copy of the working dataset.
func (s *Session) Rows() []edition.Edition { return s.store.Snapshot() }

// Years returns the distinct years in the dataset.
func (s *Session) Years() []int { return s.store.Years() }

// Filter returns the current filter.
func (s *Session) Filter() metrics.Filter { return s.filter }

// SetFilter replaces the current filter.
func (s *Session) SetFilter(f metrics.Filter) {
	s.filter = f
	logging.Get(logging.CategorySession).Debug("filter set: year=%d programs=%d channels=%d regions=%d",
		f.Year, len(f.Programs), len(f.Channels), len(f.Regions))
}

// SelectYear switches to year with everything selected.
func (s *Session) SelectYear(year int) {
	s.SetFilter(metrics.AllOf(s.cat, s.store.Snapshot(), year))
}

// Report evaluates the current filter over the working dataset.
func (s *Session) Report() *metrics.Report {
	return metrics.Evaluate(s.store.Snapshot(), s.filter)
}

// Append adds a new edition. A program not yet in the current filter is
// added to it when the row belongs to the filtered year.
func (s *Session) Append(in store.NewEdition) (edition.Edition, error) {
	e, err := s.store.Append(in)
	if err != nil {
		return edition.Edition{}, err
	}
	if e.Year == s.filter.Year && !slices.Contains(s.filter.Programs, e.Program) {
		s.filter.Programs = append(slices.Clone(s.filter.Programs), e.Program)
		slices.Sort(s.filter.Programs)
	}
	return e, nil
}

// Merge applies an edit set to the working dataset.
func (s *Session) Merge(edits []store.Edit) (store.MergeResult, error) {
	return s.store.Merge(edits)
}

// MergeFile reads a CSV edit set from path and merges it.
func (s *Session) MergeFile(path string) (store.MergeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return store.MergeResult{}, fmt.Errorf("failed to open edits: %w", err)
	}
	defer f.Close()

	edits, err := export.ReadEdits(f)
	if err != nil {
		return store.MergeResult{}, err
	}
	return s.store.Merge(edits)
}

// AddNote records a note against the current filter year. program must be
// empty, notes.GeneralProgram or a catalog program.
func (s *Session) AddNote(program, tag, text string) (notes.Note, error) {
	if program != "" && program != notes.GeneralProgram {
		if _, ok := s.cat.Program(program); !ok {
			return notes.Note{}, fmt.Errorf("%w: %q", store.ErrUnknownProgram, program)
		}
	}
	return s.notes.Add(s.filter.Year, program, tag, text)
}

// Notes returns the notes newest first.
func (s *Session) Notes() []notes.Note { return s.notes.List() }

// ExportRows writes the current report's rows as CSV.
func (s *Session) ExportRows(w io.Writer) error {
	return export.WriteRows(w, s.Report().Rows)
}

// ExportNotes writes the notes log as CSV.
func (s *Session) ExportNotes(w io.Writer) error {
	return export.WriteNotes(w, s.notes.List())
}

// ExportAllYears writes one CSV per year, every program, channel and region
// selected, plus the notes log when it is not empty. Years are written
// concurrently, each from its own snapshot. It returns the written paths.
func (s *Session) ExportAllYears(ctx context.Context, dir string) ([]string, error) {
	timer := logging.StartTimer(logging.CategoryExport, "export all years")
	defer timer.Stop()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	var (
		mu    sync.Mutex
		paths []string
	)
	record := func(p string) {
		mu.Lock()
		paths = append(paths, p)
		mu.Unlock()
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.cfg.Export.Parallelism)

	for _, year := range s.store.Years() {
		rows := s.store.Snapshot()
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			r := metrics.Evaluate(rows, metrics.AllOf(s.cat, rows, year))
			path := filepath.Join(dir, export.YearFileName(year))
			if err := writeFile(path, func(w io.Writer) error { return export.WriteRows(w, r.Rows) }); err != nil {
				return fmt.Errorf("export %d: %w", year, err)
			}
			record(path)
			return nil
		})
	}

	if list := s.notes.List(); len(list) > 0 {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, export.NotesFileName)
			if err := writeFile(path, func(w io.Writer) error { return export.WriteNotes(w, list) }); err != nil {
				return fmt.Errorf("export notes: %w", err)
			}
			record(path)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	slices.Sort(paths)
	logging.Get(logging.CategoryExport).Info("exported %d files to %s", len(paths), dir)
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
