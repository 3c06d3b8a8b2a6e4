package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/buemura/threatscore/pkg/types"
)

// MarkdownFormatter renders reports as Markdown tables suitable for
// pasting into docs, issues, or pull-request descriptions.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, reports []types.PlatformReport) error {
	for i, report := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}

		if report.Error != "" || report.Result == nil {
			fmt.Fprintf(w, "## %s: Error\n\n> %s\n", report.Platform, report.Error)
			continue
		}

		r := report.Result
		fmt.Fprintf(w, "## %s: %s\n\n", report.Platform, escapeMarkdown(r.Platform))
		fmt.Fprintf(w, "**Stars:** %.1f / 5.0 `[%s]`  \n", r.Stars, StarBar(r.Stars))
		fmt.Fprintf(w, "**Overall:** %d%%\n\n", r.Overall)

		fmt.Fprintln(w, "| Dimension | Score | Severity |")
		fmt.Fprintln(w, "|-----------|-------|----------|")
		for _, dim := range types.Dimensions() {
			d := r.Dimensions[dim]
			fmt.Fprintf(w, "| %s | %s | %d/%d |\n", dimensionLabel(dim), dimensionScoreText(d), d.Current, d.Maximum)
		}

		if len(r.Metrics) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "| Status | Severity | Threat | Tags |")
			fmt.Fprintln(w, "|--------|----------|--------|------|")
			for _, m := range types.SortMetrics(r.Metrics) {
				fmt.Fprintf(w, "| %s | %d | %s | %s |\n",
					statusBadge(m), m.Severity, escapeMarkdown(m.Name), escapeMarkdown(strings.Join(m.Tags, ", ")))
			}
		}

		if len(r.Compliance) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "| Compliance | Percent | Compliant |")
			fmt.Fprintln(w, "|------------|---------|-----------|")
			for _, tag := range r.ComplianceTags() {
				c := r.Compliance[tag]
				fmt.Fprintf(w, "| %s | %.1f%% | %d/%d |\n", escapeMarkdown(tag), c.Percentage, c.Compliant, c.Total)
			}
		}

		fmt.Fprintf(w, "\n**Summary:** %d threats, %d active, %d inactive\n", r.TotalMetrics, r.ActiveThreats, r.InactiveThreats)
		if len(report.Unknown) > 0 {
			fmt.Fprintf(w, "\n_Unknown threat names ignored: %s_\n", escapeMarkdown(strings.Join(report.Unknown, ", ")))
		}
	}

	return nil
}

// statusBadge returns a bold status label for Markdown.
func statusBadge(m types.Metric) string {
	return fmt.Sprintf("**%s**", metricStatus(m))
}

// escapeMarkdown escapes pipe characters that would break Markdown tables.
func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
