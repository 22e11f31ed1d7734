package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"coursedash/cmd/coursedash/ui"
)

var (
	reportFilters filterFlags
	reportEdits   string
	reportJSON    bool
	reportPlain   bool
)

// reportCmd evaluates the filters and prints the report
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report students, revenue and breakdowns for a year",
	Long: `Filters the editions table and prints KPIs, per-program, per-month,
per-region, per-channel and payment-method totals, the month × program
heatmap and a conclusions summary.

Examples:
  coursedash report --year 2024
  coursedash report -y 2025 -p "Data Science" -p "Data Analysis" --region "CDMX (MX)"
  coursedash report --edits edits.csv --json`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportFilters.register(reportCmd)
	reportCmd.Flags().StringVar(&reportEdits, "edits", "", "CSV edit set merged before reporting")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Print the report as JSON")
	reportCmd.Flags().BoolVar(&reportPlain, "plain", false, "Print conclusions as raw markdown")
}

func runReport(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if err := applyEdits(sess, reportEdits, out); err != nil {
		return err
	}
	f, err := reportFilters.build(sess)
	if err != nil {
		return err
	}
	sess.SetFilter(f)
	r := sess.Report()

	if reportJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	}
	fmt.Fprint(out, ui.ReportView(r, sess.Catalog(), styles, reportPlain))
	return nil
}
