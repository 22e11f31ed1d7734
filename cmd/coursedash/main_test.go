package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coursedash/internal/config"
	"coursedash/internal/metrics"
	"coursedash/internal/session"
)

func setup(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	cfg = config.DefaultConfig()
	cfg.Export.Dir = t.TempDir()
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"report", []string{"report"}},
		{"  filter   --year 2024 ", []string{"filter", "--year", "2024"}},
		{`filter -p "Data Science" -p 'Excel Basics & Analytics'`, []string{"filter", "-p", "Data Science", "-p", "Excel Basics & Analytics"}},
		{`note idea it\'s cheap`, []string{"note", "idea", "it's", "cheap"}},
		{`note data ""`, []string{"note", "data", ""}},
	}
	for _, tt := range tests {
		got, err := splitLine(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := splitLine(`note idea "unterminated`)
	assert.Error(t, err)
	_, err = splitLine(`edit X\`)
	assert.Error(t, err)
}

func TestREPL(t *testing.T) {
	setup(t)
	sess, err := session.New(cfg)
	require.NoError(t, err)

	script := strings.Join([]string{
		"filter --year 2022",
		"report --plain",
		`note idea "promo for Q3" -p "Data Science"`,
		"notes",
		"edit EXC-2022-11 --enrollment 50",
		"edit EXC-2022-11 --enrollment 0",
		`add --year 2022 --month 9 --program "Data Analysis" --enrollment 30 --channel Referrals --region "Monterrey (MX)" --discipline Law`,
		"bogus",
		"quit",
		"report",
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, runREPL(sess, strings.NewReader(script), &out, false))
	got := out.String()

	assert.Contains(t, got, "Year 2022 · 2 programs")
	assert.Contains(t, got, "### Conclusions")
	assert.Contains(t, got, "Note saved (idea, Data Science)")
	assert.Contains(t, got, "promo for Q3")
	assert.Contains(t, got, "Updated 1 row(s)")
	assert.Contains(t, got, "invalid edit")
	assert.Contains(t, got, "Added DAT-2022-09")
	assert.Contains(t, got, `unknown command "bogus"`)
	assert.Equal(t, 1, strings.Count(got, "### Conclusions"), "commands after quit must not run")

	rows := sess.Rows()
	assert.Len(t, rows, 15)
	for _, e := range rows {
		if e.ID == "EXC-2022-11" {
			assert.Equal(t, 50, e.Enrollment)
		}
	}
}

func TestREPLExternalMode(t *testing.T) {
	setup(t)
	sess, err := session.New(cfg)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runREPL(sess, strings.NewReader("note idea hi\nedit EXC-2022-11 --enrollment 5\nnotes\n"), &out, true))

	assert.Equal(t, 3, strings.Count(out.String(), errExternal.Error()))
	assert.Empty(t, sess.Notes())
}

func TestRunReportJSON(t *testing.T) {
	setup(t)
	reportFilters = filterFlags{year: 2024}
	reportJSON = true
	t.Cleanup(func() {
		reportFilters = filterFlags{}
		reportJSON = false
	})

	output := captureOutput(t, func() {
		if err := runReport(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runReport returned error: %v", err)
		}
	})

	var r metrics.Report
	require.NoError(t, json.Unmarshal([]byte(output), &r))
	assert.Equal(t, 2024, r.Filter.Year)
	assert.Equal(t, 4, r.Editions)
	assert.False(t, r.Empty)
}

func TestRunReportRejectsUnknownProgram(t *testing.T) {
	setup(t)
	reportFilters = filterFlags{programs: []string{"Pottery"}}
	t.Cleanup(func() { reportFilters = filterFlags{} })

	err := runReport(&cobra.Command{}, nil)
	assert.ErrorContains(t, err, `unknown program "Pottery"`)
}

func TestRunReportWithEdits(t *testing.T) {
	setup(t)
	edits := filepath.Join(t.TempDir(), "edits.csv")
	require.NoError(t, os.WriteFile(edits, []byte("edition,enrollment\nDAT-2025-10,999\nNOPE-2025-01,3\n"), 0644))

	reportEdits = edits
	reportPlain = true
	t.Cleanup(func() {
		reportEdits = ""
		reportPlain = false
	})

	output := captureOutput(t, func() {
		if err := runReport(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runReport returned error: %v", err)
		}
	})
	assert.Contains(t, output, "**Leading program:** Data Science")
}

func TestRunGenerateCSV(t *testing.T) {
	setup(t)
	generateCSV = true
	t.Cleanup(func() { generateCSV = false })

	output := captureOutput(t, func() {
		if err := runGenerate(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runGenerate returned error: %v", err)
		}
	})

	lines := strings.Split(strings.TrimSpace(output), "\n")
	assert.Len(t, lines, 15)
	assert.True(t, strings.HasPrefix(lines[0], "start_date,"))
}

func TestRunExportAllYears(t *testing.T) {
	setup(t)

	output := captureOutput(t, func() {
		if err := runExportAllYears(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runExportAllYears returned error: %v", err)
		}
	})

	assert.Equal(t, 4, strings.Count(output, "Wrote "))
	_, err := os.Stat(filepath.Join(cfg.Export.Dir, "courses_2025.csv"))
	assert.NoError(t, err)
}

func TestConfigInit(t *testing.T) {
	setup(t)
	configPath = filepath.Join(t.TempDir(), "coursedash.yaml")
	t.Cleanup(func() { configPath = config.DefaultPath })

	output := captureOutput(t, func() {
		require.NoError(t, configInitCmd.RunE(&cobra.Command{}, nil))
	})
	assert.Contains(t, output, "Wrote ")

	loaded, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "coursedash", loaded.Name)

	assert.Error(t, configInitCmd.RunE(&cobra.Command{}, nil), "refuses to overwrite without --force")
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		_, _ = io.Copy(&buf, rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}
