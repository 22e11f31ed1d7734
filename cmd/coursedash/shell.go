package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"coursedash/cmd/coursedash/ui"
	"coursedash/internal/edition"
	"coursedash/internal/session"
	"coursedash/internal/store"
)

var shellExternal bool

// errExternal is returned by editing and notes commands in external mode.
var errExternal = errors.New("not available in external mode")

// shellCmd runs an interactive session
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive session: filter, report, add or edit editions, take notes",
	Long: `Starts one session and reads commands line by line. Edits and notes
live as long as the shell. Type "help" for the command list.

External mode (--external) is for presenting: adding, editing and notes
are disabled.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession()
		if err != nil {
			return err
		}
		return runREPL(sess, cmd.InOrStdin(), cmd.OutOrStdout(), shellExternal)
	},
}

func init() {
	shellCmd.Flags().BoolVar(&shellExternal, "external", false, "Presentation mode: hide editing and notes")
}

// runREPL reads commands from in until EOF or exit/quit.
func runREPL(sess *session.Session, in io.Reader, out io.Writer, external bool) error {
	fmt.Fprintln(out, styles.RenderDivider(60))
	mode := ""
	if external {
		mode = " (external mode)"
	}
	fmt.Fprintf(out, "coursedash session %s%s - %d editions. Type help, or quit to leave.\n", sess.ID()[:8], mode, len(sess.Rows()))
	fmt.Fprintln(out, styles.RenderDivider(60))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, styles.Prompt.Render("coursedash> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		}

		words, err := splitLine(line)
		if err != nil {
			fmt.Fprintln(out, styles.Error.Render("error: "+err.Error()))
			continue
		}
		root := shellCommands(sess, out, external)
		root.SetArgs(words)
		if err := root.Execute(); err != nil {
			fmt.Fprintln(out, styles.Error.Render("error: "+err.Error()))
		}
	}
}

// splitLine splits a command line on whitespace. Single or double quotes
// group words; a backslash escapes the next rune outside single quotes.
func splitLine(line string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		quote   rune
		escaped bool
		inWord  bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case unicode.IsSpace(r):
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}

// shellCommands builds a fresh command tree bound to sess, so flag values
// never leak from one line to the next.
func shellCommands(sess *session.Session, out io.Writer, external bool) *cobra.Command {
	root := &cobra.Command{
		Use:           "coursedash>",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(out)
	root.SetErr(out)

	guard := func(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if external {
				return errExternal
			}
			return run(cmd, args)
		}
	}

	var filters filterFlags
	filterCmd := &cobra.Command{
		Use:   "filter",
		Short: "Set the year and program/channel/region filters (no flags: everything for the current year)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filters.build(sess)
			if err != nil {
				return err
			}
			sess.SetFilter(f)
			fmt.Fprintf(out, "Year %d · %d programs · %d channels · %d regions\n",
				f.Year, len(f.Programs), len(f.Channels), len(f.Regions))
			return nil
		},
	}
	filters.register(filterCmd)

	var plain bool
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print the report for the current filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(out, ui.ReportView(sess.Report(), sess.Catalog(), styles, plain))
			return nil
		},
	}
	reportCmd.Flags().BoolVar(&plain, "plain", false, "Print conclusions as raw markdown")

	rowsCmd := &cobra.Command{
		Use:   "rows",
		Short: "List the editions matching the current filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := sess.Report()
			if r.Empty {
				fmt.Fprintln(out, styles.Warning.Render(ui.EmptyMessage))
				return nil
			}
			rows := make([]edition.Edition, len(r.Rows))
			for i, d := range r.Rows {
				rows[i] = d.Edition
			}
			fmt.Fprint(out, ui.EditionsTable(fmt.Sprintf("%d editions", len(rows)), rows).View(styles))
			return nil
		},
	}

	var (
		in          store.NewEdition
		payments    [4]float64
		paymentKeys = [4]string{"debit", "credit", "transfer", "other"}
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Append a new edition",
		Args:  cobra.NoArgs,
		RunE: guard(func(cmd *cobra.Command, args []string) error {
			for _, k := range paymentKeys {
				if cmd.Flags().Changed(k) {
					in.Payments = &payments
					break
				}
			}
			e, err := sess.Append(in)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, styles.Success.Render(fmt.Sprintf("Added %s: %s, %d students, %s", e.ID, e.Program, e.Enrollment, ui.Money(edition.Revenue(e)))))
			return nil
		}),
	}
	addCmd.Flags().IntVar(&in.Year, "year", sess.Filter().Year, "Year")
	addCmd.Flags().IntVar(&in.Month, "month", 1, "Start month (1-12)")
	addCmd.Flags().StringVar(&in.Program, "program", "", "Program name")
	addCmd.Flags().IntVar(&in.Enrollment, "enrollment", 0, "Students")
	addCmd.Flags().StringVar(&in.Channel, "channel", "", "Acquisition channel")
	addCmd.Flags().StringVar(&in.Region, "region", "", "Region")
	addCmd.Flags().StringVar(&in.Discipline, "discipline", "", "Discipline")
	addCmd.Flags().IntVar(&in.Placements, "placements", 0, "Students placed in jobs")
	for i, k := range paymentKeys {
		addCmd.Flags().Float64Var(&payments[i], k, 0, "Payment share for "+k)
	}

	var (
		enrollment, placements int
		price                  float64
		channel, region        string
		editPay                [4]float64
	)
	editCmd := &cobra.Command{
		Use:   "edit <edition-id>",
		Short: "Overwrite fields of every edition with the given id",
		Args:  cobra.ExactArgs(1),
		RunE: guard(func(cmd *cobra.Command, args []string) error {
			ed := store.Edit{ID: args[0]}
			flags := cmd.Flags()
			if flags.Changed("enrollment") {
				ed.Enrollment = &enrollment
			}
			if flags.Changed("price") {
				ed.UnitPrice = &price
			}
			if flags.Changed("channel") {
				ed.Channel = &channel
			}
			if flags.Changed("region") {
				ed.Region = &region
			}
			if flags.Changed("placements") {
				ed.Placements = &placements
			}
			for _, k := range paymentKeys {
				if flags.Changed(k) {
					ed.Payments = &editPay
					break
				}
			}
			if ed.Empty() {
				return errors.New("nothing to change: pass at least one field flag")
			}
			res, err := sess.Merge([]store.Edit{ed})
			if err != nil {
				return err
			}
			if len(res.Unknown) > 0 {
				fmt.Fprintln(out, styles.Warning.Render("No edition with id "+args[0]))
				return nil
			}
			fmt.Fprintln(out, styles.Success.Render(fmt.Sprintf("Updated %d row(s)", res.RowsUpdated)))
			return nil
		}),
	}
	editCmd.Flags().IntVar(&enrollment, "enrollment", 0, "Students")
	editCmd.Flags().Float64Var(&price, "price", 0, "Unit price (MXN)")
	editCmd.Flags().StringVar(&channel, "channel", "", "Acquisition channel")
	editCmd.Flags().StringVar(&region, "region", "", "Region")
	editCmd.Flags().IntVar(&placements, "placements", 0, "Students placed in jobs")
	for i, k := range paymentKeys {
		editCmd.Flags().Float64Var(&editPay[i], k, 0, "Payment share for "+k)
	}

	editsCmd := &cobra.Command{
		Use:   "edits <file.csv>",
		Short: "Merge a CSV edit set",
		Args:  cobra.ExactArgs(1),
		RunE: guard(func(cmd *cobra.Command, args []string) error {
			if err := applyEdits(sess, args[0], out); err != nil {
				return err
			}
			fmt.Fprintln(out, styles.Success.Render("Merged "+args[0]))
			return nil
		}),
	}

	var noteProgram string
	noteCmd := &cobra.Command{
		Use:   "note <tag> <text...>",
		Short: "Record a team note (tags: risk, idea, task, follow-up, data)",
		Args:  cobra.MinimumNArgs(2),
		RunE: guard(func(cmd *cobra.Command, args []string) error {
			n, err := sess.AddNote(noteProgram, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, styles.Success.Render("Note saved ("+n.Tag+", "+n.Program+")"))
			return nil
		}),
	}
	noteCmd.Flags().StringVarP(&noteProgram, "program", "p", "", "Program the note refers to (default: general)")

	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "List notes, newest first",
		Args:  cobra.NoArgs,
		RunE: guard(func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(out, ui.NotesView(sess.Notes(), styles))
			return nil
		}),
	}

	var dir, rowsFile, notesFile string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write CSVs: every year into --dir, or the filtered rows / notes to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case rowsFile != "":
				if err := writeTo(rowsFile, sess.ExportRows); err != nil {
					return err
				}
				fmt.Fprintln(out, styles.Success.Render("Wrote "+rowsFile))
			case notesFile != "":
				if external {
					return errExternal
				}
				if err := writeTo(notesFile, sess.ExportNotes); err != nil {
					return err
				}
				fmt.Fprintln(out, styles.Success.Render("Wrote "+notesFile))
			default:
				paths, err := sess.ExportAllYears(context.Background(), dir)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintln(out, styles.Success.Render("Wrote "+p))
				}
			}
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&dir, "dir", "d", cfg.Export.Dir, "Directory for per-year files")
	exportCmd.Flags().StringVar(&rowsFile, "rows", "", "Write the filtered rows to this file")
	exportCmd.Flags().StringVar(&notesFile, "notes", "", "Write the notes log to this file")

	root.AddCommand(filterCmd, reportCmd, rowsCmd, addCmd, editCmd, editsCmd, noteCmd, notesCmd, exportCmd)
	return root
}

func writeTo(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
