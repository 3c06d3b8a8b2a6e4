package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/buemura/threatscore/pkg/types"
)

// TextFormatter renders the plain-text score report.
type TextFormatter struct{}

func (f *TextFormatter) Format(w io.Writer, reports []types.PlatformReport) error {
	for i, report := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if report.Error != "" || report.Result == nil {
			fmt.Fprintf(w, "Error loading threat model for %s: %s\n", report.Platform, report.Error)
			continue
		}
		if _, err := io.WriteString(w, TextReport(report.Result)); err != nil {
			return err
		}
	}
	return nil
}

// TextReport formats a single result as a human-readable report.
func TextReport(r *types.ScoreResult) string {
	var b strings.Builder
	rule := strings.Repeat("-", 40)

	fmt.Fprintf(&b, "EDAMAME Security Score - %s\n", r.Platform)
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", 60))

	fmt.Fprintf(&b, "  Stars:   %.1f / 5.0  [%s]\n", r.Stars, StarBar(r.Stars))
	fmt.Fprintf(&b, "  Overall: %d%%\n\n", r.Overall)

	fmt.Fprintf(&b, "Dimension Scores\n%s\n", rule)
	for _, dim := range types.Dimensions() {
		d := r.Dimensions[dim]
		fmt.Fprintf(&b, "  %-20s %6s  (%d/%d)\n", dimensionLabel(dim), dimensionScoreText(d), d.Current, d.Maximum)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Threats: %d total, %d active, %d inactive\n%s\n",
		r.TotalMetrics, r.ActiveThreats, r.InactiveThreats, rule)
	for _, m := range types.SortMetrics(r.Metrics) {
		fmt.Fprintf(&b, "  [%-6s] (sev %d) %s\n", metricStatus(m), m.Severity, m.Name)
	}
	b.WriteString("\n")

	if len(r.Compliance) > 0 {
		fmt.Fprintf(&b, "Compliance\n%s\n", rule)
		for _, tag := range r.ComplianceTags() {
			c := r.Compliance[tag]
			fmt.Fprintf(&b, "  %-30s %5.1f%%  (%d/%d)\n", tag, c.Percentage, c.Compliant, c.Total)
		}
		b.WriteString("\n")
	}

	return b.String()
}
