package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/buemura/threatscore/pkg/types"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// TableFormatter renders reports as colored terminal tables.
type TableFormatter struct{}

func (f *TableFormatter) Format(w io.Writer, reports []types.PlatformReport) error {
	for _, report := range reports {
		if report.Error != "" || report.Result == nil {
			fmt.Fprintf(w, "\n[%s] Error: %s\n", report.Platform, report.Error)
			continue
		}

		r := report.Result
		fmt.Fprintf(w, "\n[%s] %s\n", report.Platform, r.Platform)
		fmt.Fprintf(w, "  Stars: %s  %s   Overall: %s\n",
			colorStars(r.Stars), StarBar(r.Stars), colorPercent(r.Overall))

		dims := newTable(w, []string{"Dimension", "Score", "Severity"})
		for _, dim := range types.Dimensions() {
			d := r.Dimensions[dim]
			score := dimensionScoreText(d)
			if d.HasMetrics() {
				score = colorPercent(d.Score)
			}
			dims.Append([]string{dimensionLabel(dim), score, fmt.Sprintf("%d/%d", d.Current, d.Maximum)})
		}
		dims.Render()

		if len(r.Metrics) > 0 {
			threats := newTable(w, []string{"Status", "Sev", "Threat", "Dimension"})
			for _, m := range types.SortMetrics(r.Metrics) {
				threats.Append([]string{colorStatus(m), strconv.Itoa(m.Severity), m.Name, string(m.Dimension)})
			}
			threats.Render()
		}

		if len(r.Compliance) > 0 {
			comp := newTable(w, []string{"Compliance", "Percent", "Compliant"})
			for _, tag := range r.ComplianceTags() {
				c := r.Compliance[tag]
				comp.Append([]string{tag, fmt.Sprintf("%.1f%%", c.Percentage), fmt.Sprintf("%d/%d", c.Compliant, c.Total)})
			}
			comp.Render()
		}

		fmt.Fprintf(w, "  Summary: %s\n", tableSummary(report))
	}

	return nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetColumnSeparator("│")
	return table
}

func colorStatus(m types.Metric) string {
	if m.Active {
		return color.RedString("ACTIVE")
	}
	return color.GreenString("OK")
}

func colorPercent(p int) string {
	s := fmt.Sprintf("%d%%", p)
	switch {
	case p >= 80:
		return color.GreenString(s)
	case p >= 50:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

func colorStars(stars float64) string {
	return color.New(color.Bold).Sprintf("%.1f / 5.0", stars)
}

func tableSummary(report types.PlatformReport) string {
	r := report.Result
	parts := []string{fmt.Sprintf("%d threats (%d active, %d inactive)", r.TotalMetrics, r.ActiveThreats, r.InactiveThreats)}
	if r.DroppedMetrics > 0 {
		parts = append(parts, fmt.Sprintf("%d dropped", r.DroppedMetrics))
	}
	if len(report.Unknown) > 0 {
		parts = append(parts, "unknown names ignored: "+strings.Join(report.Unknown, ", "))
	}
	return strings.Join(parts, "; ")
}
