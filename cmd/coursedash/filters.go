package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coursedash/internal/metrics"
	"coursedash/internal/session"
	"coursedash/internal/store"
)

// filterFlags are the report filters shared by report, export and the shell.
type filterFlags struct {
	year     int
	programs []string
	channels []string
	regions  []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.year, "year", "y", 0, "Year to report (default: current selection, initially the latest)")
	cmd.Flags().StringSliceVarP(&f.programs, "program", "p", nil, "Program to include, repeatable (default: all)")
	cmd.Flags().StringSliceVar(&f.channels, "channel", nil, "Acquisition channel to include, repeatable (default: all)")
	cmd.Flags().StringSliceVar(&f.regions, "region", nil, "Region to include, repeatable (default: all)")
}

// build starts from everything selected for the year and narrows each set
// that was given. Unknown names are rejected.
func (f *filterFlags) build(sess *session.Session) (metrics.Filter, error) {
	cat := sess.Catalog()
	year := f.year
	if year == 0 {
		year = sess.Filter().Year
	}
	flt := metrics.AllOf(cat, sess.Rows(), year)

	if len(f.programs) > 0 {
		for _, p := range f.programs {
			if _, ok := cat.Program(p); !ok {
				return flt, fmt.Errorf("unknown program %q (known: %v)", p, cat.ProgramNames())
			}
		}
		flt.Programs = f.programs
	}
	if len(f.channels) > 0 {
		for _, c := range f.channels {
			if !cat.Channels.Contains(c) {
				return flt, fmt.Errorf("unknown channel %q (known: %v)", c, cat.Channels.Values)
			}
		}
		flt.Channels = f.channels
	}
	if len(f.regions) > 0 {
		for _, r := range f.regions {
			if !cat.Regions.Contains(r) {
				return flt, fmt.Errorf("unknown region %q (known: %v)", r, cat.Regions.Values)
			}
		}
		flt.Regions = f.regions
	}
	return flt, nil
}

// applyEdits merges a CSV edit file into the session. Unknown ids under the
// report policy are printed as a warning, not returned.
func applyEdits(sess *session.Session, path string, out io.Writer) error {
	if path == "" {
		return nil
	}
	res, err := sess.MergeFile(path)
	var unknown *store.UnknownEditionsError
	switch {
	case errors.As(err, &unknown):
		fmt.Fprintln(out, styles.Warning.Render(fmt.Sprintf("Skipped %d unknown edition id(s): %v", len(unknown.IDs), unknown.IDs)))
	case err != nil:
		return fmt.Errorf("failed to apply edits: %w", err)
	}
	logger.Info("edits merged",
		zap.String("file", path),
		zap.Int("applied", res.Applied),
		zap.Int("rows", res.RowsUpdated),
		zap.Int("unknown", len(res.Unknown)))
	return nil
}
