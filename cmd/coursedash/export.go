package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportFilters filterFlags
	exportEdits   string
	exportOutput  string
	exportDir     string
)

// exportCmd groups the CSV exports
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export report rows as CSV",
}

var exportRowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "Write the filtered rows, with revenue and payment counts, as CSV",
	Args:  cobra.NoArgs,
	RunE:  runExportRows,
}

var exportAllYearsCmd = &cobra.Command{
	Use:   "all-years",
	Short: "Write one courses_<year>.csv per year into a directory",
	Args:  cobra.NoArgs,
	RunE:  runExportAllYears,
}

func init() {
	exportFilters.register(exportRowsCmd)
	exportRowsCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")

	exportAllYearsCmd.Flags().StringVarP(&exportDir, "dir", "d", "", "Output directory (default: export.dir from config)")

	exportCmd.PersistentFlags().StringVar(&exportEdits, "edits", "", "CSV edit set merged before exporting")
	exportCmd.AddCommand(exportRowsCmd)
	exportCmd.AddCommand(exportAllYearsCmd)
}

func runExportRows(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		return err
	}
	if err := applyEdits(sess, exportEdits, cmd.ErrOrStderr()); err != nil {
		return err
	}
	f, err := exportFilters.build(sess)
	if err != nil {
		return err
	}
	sess.SetFilter(f)

	if exportOutput == "" {
		return sess.ExportRows(cmd.OutOrStdout())
	}
	file, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOutput, err)
	}
	if err := sess.ExportRows(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	logger.Info("rows exported", zap.String("file", exportOutput), zap.Int("year", f.Year))
	fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render("Wrote "+exportOutput))
	return nil
}

func runExportAllYears(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := newSession()
	if err != nil {
		return err
	}
	if err := applyEdits(sess, exportEdits, cmd.ErrOrStderr()); err != nil {
		return err
	}

	dir := exportDir
	if dir == "" {
		dir = cfg.Export.Dir
	}
	paths, err := sess.ExportAllYears(ctx, dir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, p := range paths {
		fmt.Fprintln(out, styles.Success.Render("Wrote "+p))
	}
	return nil
}
