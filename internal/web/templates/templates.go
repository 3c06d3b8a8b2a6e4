package templates

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/buemura/threatscore/internal/output"
	"github.com/buemura/threatscore/pkg/types"
)

//go:embed *.html
var templateFS embed.FS

// pages holds a per-page template set, each cloned from the base layout.
var pages map[string]*template.Template

func init() {
	funcMap := template.FuncMap{
		"scoreClass":  scoreClass,
		"scoreText":   scoreText,
		"starBar":     output.StarBar,
		"dimensions":  types.Dimensions,
		"dimension":   dimension,
		"truncateID":  truncateID,
		"formatTime":  formatTime,
		"formatStars": formatStars,
		"lower":       strings.ToLower,
		"join":        strings.Join,
	}

	// Parse the base layout first.
	base := template.Must(template.New("").Funcs(funcMap).ParseFS(templateFS, "base.html"))

	// Each page template clones the base and adds its own content block.
	pageNames := []string{"index.html", "scores.html", "score_detail.html", "not_found.html"}
	pages = make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone := template.Must(base.Clone())
		pages[name] = template.Must(clone.ParseFS(templateFS, name))
	}
}

// RenderPage executes the named page template into the response writer.
func RenderPage(w http.ResponseWriter, name string, data interface{}) error {
	tmpl, ok := pages[name]
	if !ok {
		return fmt.Errorf("render template %q: template not found", name)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		return fmt.Errorf("render template %q: %w", name, err)
	}
	return nil
}

// scoreClass returns the badge class for a percentage; negative means no score.
func scoreClass(percent int) string {
	switch {
	case percent < 0:
		return "none"
	case percent >= 80:
		return "good"
	case percent >= 50:
		return "fair"
	default:
		return "poor"
	}
}

func scoreText(percent int) string {
	if percent < 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d%%", percent)
}

// dimension looks up one dimension score of a result.
func dimension(r *types.ScoreResult, d types.Dimension) types.DimensionScore {
	if r == nil {
		return types.DimensionScore{Name: d, Score: types.NoMetricsScore}
	}
	return r.Dimensions[d]
}

// truncateID shortens a run ID for display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatStars(stars float64) string {
	return fmt.Sprintf("%.1f", stars)
}
