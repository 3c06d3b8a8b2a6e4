package output

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/buemura/threatscore/pkg/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Formatter renders platform reports to a writer.
type Formatter interface {
	Format(w io.Writer, reports []types.PlatformReport) error
}

// Formats lists the supported output format names.
func Formats() []string {
	return []string{"text", "table", "json", "markdown", "html"}
}

// GetFormatter returns the appropriate formatter for the given format string.
func GetFormatter(format string) (Formatter, error) {
	switch format {
	case "text", "":
		return &TextFormatter{}, nil
	case "table":
		return &TableFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "markdown":
		return &MarkdownFormatter{}, nil
	case "html":
		return &HTMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: %s)", format, strings.Join(Formats(), ", "))
	}
}

var titleCaser = cases.Title(language.English)

// dimensionLabel returns the display name of a dimension, e.g. "System Services".
func dimensionLabel(d types.Dimension) string {
	return titleCaser.String(string(d))
}

// StarBar draws the star rating with '*' for full stars, '+' for a half
// star and '.' for the remainder, five positions in total.
func StarBar(stars float64) string {
	filled := int(stars)
	if filled < 0 {
		filled = 0
	}
	if filled > 5 {
		filled = 5
	}
	half := 0
	if stars-float64(filled) >= 0.5 && filled < 5 {
		half = 1
	}
	empty := 5 - filled - half

	var b strings.Builder
	b.WriteString(strings.Repeat("*", filled))
	if half == 1 {
		b.WriteByte('+')
	}
	b.WriteString(strings.Repeat(".", empty))
	return b.String()
}

// dimensionScoreText formats a dimension percentage or the no-metrics marker.
func dimensionScoreText(d types.DimensionScore) string {
	if !d.HasMetrics() {
		return "N/A (no metrics)"
	}
	return fmt.Sprintf("%d%%", d.Score)
}

func metricStatus(m types.Metric) string {
	if m.Active {
		return "ACTIVE"
	}
	return "OK"
}

// round2 rounds to two decimals, ties to even.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
