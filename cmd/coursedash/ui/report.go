package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"coursedash/internal/catalog"
	"coursedash/internal/edition"
	"coursedash/internal/metrics"
	"coursedash/internal/notes"
)

// EmptyMessage is shown instead of a report when the filter matches nothing.
const EmptyMessage = "No editions match the current filters. Adjust the year, programs, channels or regions."

// Money formats an amount as whole MXN with thousands separators.
func Money(x float64) string {
	return "$" + humanize.Commaf(math.Round(x)) + " MXN"
}

// Count formats an integer with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Percent formats a rate with one decimal.
func Percent(x float64) string {
	return strconv.FormatFloat(x, 'f', 1, 64) + "%"
}

// FilterSummary is the one-line header above a report: year, the first
// three programs and channels, and when the report was built.
func FilterSummary(f metrics.Filter, updated time.Time) string {
	return fmt.Sprintf("Filters: year %d · programs: %s · channels: %s · updated %s",
		f.Year, firstN(f.Programs, 3), firstN(f.Channels, 3), updated.Format("2006-01-02 15:04"))
}

func firstN(values []string, n int) string {
	if len(values) == 0 {
		return "none"
	}
	if len(values) <= n {
		return strings.Join(values, ", ")
	}
	return fmt.Sprintf("%s (+%d)", strings.Join(values[:n], ", "), len(values)-n)
}

// KPICards renders the headline figures side by side.
func KPICards(r *metrics.Report, s Styles) string {
	card := func(label, value string) string {
		return s.Card.Render(s.CardLabel.Render(label) + "\n" + s.CardValue.Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card(fmt.Sprintf("Students %d", r.Filter.Year), Count(r.TotalEnrollment)),
		card("Estimated revenue", "$"+metrics.FormatCompact(r.TotalRevenue)+" MXN"),
		card("Editions", Count(r.Editions)),
		card("Leading program", r.LeadingProgram),
		card("Employability", Percent(r.EmployabilityRate)),
	)
}

// Conclusions summarizes the report as markdown.
func Conclusions(r *metrics.Report) string {
	var sb strings.Builder
	sb.WriteString("### Conclusions\n\n")
	fmt.Fprintf(&sb, "- **Total students %d:** %s\n", r.Filter.Year, Count(r.TotalEnrollment))
	fmt.Fprintf(&sb, "- **Estimated revenue:** %s _(by duration and pricing unit)_\n", Money(r.TotalRevenue))
	fmt.Fprintf(&sb, "- **Ticket per student:** %s\n", Money(r.TicketPerStudent))
	fmt.Fprintf(&sb, "- **Leading program:** %s\n", r.LeadingProgram)
	fmt.Fprintf(&sb, "- **Most active region:** %s\n", r.TopRegion)
	fmt.Fprintf(&sb, "- **Dominant channel:** %s\n", r.TopChannel)
	fmt.Fprintf(&sb, "- **Placements:** %s (%s employability)\n", Count(r.TotalPlacements), Percent(r.EmployabilityRate))
	return sb.String()
}

// RenderMarkdown renders md for the terminal. On renderer failure the
// markdown is returned as is.
func RenderMarkdown(md string, s Styles) string {
	style := glamour.WithStylePath("light")
	if s.Theme.IsDark {
		style = glamour.WithStylePath("dark")
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(80))
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

// ReportView renders the full report: KPI cards, breakdown tables, heatmap
// and the conclusions block. plain skips markdown rendering.
func ReportView(r *metrics.Report, cat *catalog.Catalog, s Styles, plain bool) string {
	if r.Empty {
		return s.Warning.Render(EmptyMessage) + "\n"
	}

	var sb strings.Builder
	sb.WriteString(s.Subtitle.Render(FilterSummary(r.Filter, time.Now())))
	sb.WriteString("\n")
	sb.WriteString(KPICards(r, s))
	sb.WriteString("\n\n")

	programs := NewTable("Students and revenue by program", "Program", "Students", "Revenue", "Placements", "Employability").AlignRight(1, 2, 3, 4)
	for _, p := range r.ByProgram {
		programs.AddRow(p.Program, Count(p.Enrollment), Money(p.Revenue), Count(p.Placements), Percent(p.EmployabilityRate))
	}
	sb.WriteString(programs.View(s))
	sb.WriteString("\n")

	months := NewTable("Students by month × program", "Month", "Program", "Students", "Revenue").AlignRight(2, 3)
	for _, c := range r.ByMonthProgram {
		months.AddRow(c.MonthLabel, c.Program, Count(c.Enrollment), Money(c.Revenue))
	}
	sb.WriteString(months.View(s))
	sb.WriteString("\n")

	trend := NewTable("Monthly trend", "Month", "Students").AlignRight(1)
	for _, m := range r.ByMonth {
		trend.AddRow(m.MonthLabel, Count(m.Enrollment))
	}
	sb.WriteString(trend.View(s))
	sb.WriteString("\n")

	sb.WriteString(keyTable("Students by region", "Region", r.ByRegion).View(s))
	sb.WriteString("\n")
	sb.WriteString(keyTable("Students by channel", "Channel", r.ByChannel).View(s))
	sb.WriteString("\n")

	pay := NewTable("Students by payment method", "Method", "Students").AlignRight(1)
	pay.AddRow("Debit", Count(r.Payments.Debit))
	pay.AddRow("Credit", Count(r.Payments.Credit))
	pay.AddRow("Transfer", Count(r.Payments.Transfer))
	pay.AddRow("Other", Count(r.Payments.Other))
	sb.WriteString(pay.View(s))
	sb.WriteString("\n")

	sb.WriteString(HeatmapView(r.Heatmap, cat, s))
	sb.WriteString("\n")

	md := Conclusions(r)
	if plain {
		sb.WriteString(md)
	} else {
		sb.WriteString(RenderMarkdown(md, s))
	}
	return sb.String()
}

func keyTable(title, header string, totals []metrics.KeyTotal) *Table {
	t := NewTable(title, header, "Students").AlignRight(1)
	for _, k := range totals {
		t.AddRow(k.Key, Count(k.Enrollment))
	}
	return t
}

// HeatmapView renders the program × month matrix, shading each cell by its
// share of the largest cell.
func HeatmapView(h metrics.Heatmap, cat *catalog.Catalog, s Styles) string {
	if len(h.Programs) == 0 {
		return ""
	}
	peak := 0
	for _, row := range h.Cells {
		for _, v := range row {
			peak = max(peak, v)
		}
	}

	headers := []string{"Program"}
	for m := 1; m <= 12; m++ {
		headers = append(headers, cat.MonthLabel(m))
	}
	t := NewTable("Heatmap month × program (students)", headers...)
	for i := 1; i <= 12; i++ {
		t.AlignRight(i)
	}
	for i, p := range h.Programs {
		cells := []string{p}
		for _, v := range h.Cells[i] {
			cells = append(cells, heatCell(v, peak))
		}
		t.AddRow(cells...)
	}
	return t.View(s)
}

func heatCell(v, peak int) string {
	if v == 0 || peak == 0 {
		return "·"
	}
	idx := min(v*len(Heat)/peak, len(Heat)-1)
	fg := lipgloss.Color("#101F38")
	if idx >= len(Heat)/2 {
		fg = lipgloss.Color("#ffffff")
	}
	return lipgloss.NewStyle().Background(Heat[idx]).Foreground(fg).Render(strconv.Itoa(v))
}

// EditionsTable lists editions with their revenue.
func EditionsTable(title string, rows []edition.Edition) *Table {
	t := NewTable(title, "Edition", "Start", "Program", "Unit", "Price", "Students", "Channel", "Region", "Discipline", "Revenue").
		AlignRight(4, 5, 9)
	for _, e := range rows {
		t.AddRow(
			e.ID,
			e.StartDate.Format("2006-01-02"),
			e.Program,
			string(e.Unit),
			humanize.Commaf(e.UnitPrice),
			Count(e.Enrollment),
			e.Channel,
			e.Region,
			e.Discipline,
			Money(edition.Revenue(e)),
		)
	}
	return t
}

// NotesView lists notes newest first.
func NotesView(list []notes.Note, s Styles) string {
	if len(list) == 0 {
		return s.Muted.Render("No notes yet. Use `note <tag> <text>` to record findings, tasks or ideas.") + "\n"
	}
	var sb strings.Builder
	sb.WriteString(s.Title.Render("Recent notes"))
	sb.WriteString("\n")
	for _, n := range list {
		fmt.Fprintf(&sb, "%s %s · %s\n  %s\n",
			s.Badge.Render(n.Tag),
			s.Bold.Render(n.Program),
			s.Muted.Render(n.Timestamp.Format("2006-01-02 15:04")),
			n.Text)
	}
	return sb.String()
}
