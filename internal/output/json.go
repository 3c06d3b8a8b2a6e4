package output

import (
	"io"

	"github.com/buemura/threatscore/pkg/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONFormatter renders a single report as an indented JSON object and
// several reports as an array of them.
type JSONFormatter struct{}

type jsonDimension struct {
	ScorePercent    int `json:"score_percent"`
	CurrentSeverity int `json:"current_severity"`
	MaxSeverity     int `json:"max_severity"`
}

type jsonCompliance struct {
	Percentage float64 `json:"percentage"`
	Compliant  int     `json:"compliant"`
	Total      int     `json:"total"`
}

type jsonMetric struct {
	Name      string   `json:"name"`
	Dimension string   `json:"dimension"`
	Severity  int      `json:"severity"`
	Active    bool     `json:"active"`
	Tags      []string `json:"tags"`
}

type jsonReport struct {
	Platform        string                    `json:"platform"`
	Stars           float64                   `json:"stars"`
	OverallPercent  int                       `json:"overall_percent"`
	TotalMetrics    int                       `json:"total_metrics"`
	ActiveThreats   int                       `json:"active_threats"`
	InactiveThreats int                       `json:"inactive_threats"`
	DroppedMetrics  int                       `json:"dropped_metrics"`
	UnknownNames    []string                  `json:"unknown_names,omitempty"`
	Dimensions      map[string]jsonDimension  `json:"dimensions"`
	Compliance      map[string]jsonCompliance `json:"compliance"`
	Metrics         []jsonMetric              `json:"metrics"`
}

type jsonFailure struct {
	Platform string `json:"platform"`
	Error    string `json:"error"`
}

func (f *JSONFormatter) Format(w io.Writer, reports []types.PlatformReport) error {
	out := make([]any, 0, len(reports))
	for _, report := range reports {
		if report.Error != "" || report.Result == nil {
			out = append(out, jsonFailure{Platform: string(report.Platform), Error: report.Error})
			continue
		}
		out = append(out, newJSONReport(report))
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if len(out) == 1 {
		return encoder.Encode(out[0])
	}
	return encoder.Encode(out)
}

// MarshalReport renders a single platform report in the JSON report layout.
func MarshalReport(report types.PlatformReport) ([]byte, error) {
	if report.Error != "" || report.Result == nil {
		return json.MarshalIndent(jsonFailure{Platform: string(report.Platform), Error: report.Error}, "", "  ")
	}
	return json.MarshalIndent(newJSONReport(report), "", "  ")
}

func newJSONReport(report types.PlatformReport) jsonReport {
	r := report.Result
	out := jsonReport{
		Platform:        r.Platform,
		Stars:           round2(r.Stars),
		OverallPercent:  r.Overall,
		TotalMetrics:    r.TotalMetrics,
		ActiveThreats:   r.ActiveThreats,
		InactiveThreats: r.InactiveThreats,
		DroppedMetrics:  r.DroppedMetrics,
		UnknownNames:    report.Unknown,
		Dimensions:      make(map[string]jsonDimension, len(r.Dimensions)),
		Compliance:      make(map[string]jsonCompliance, len(r.Compliance)),
		Metrics:         make([]jsonMetric, 0, len(r.Metrics)),
	}

	for name, d := range r.Dimensions {
		out.Dimensions[string(name)] = jsonDimension{
			ScorePercent:    d.Score,
			CurrentSeverity: d.Current,
			MaxSeverity:     d.Maximum,
		}
	}
	for tag, c := range r.Compliance {
		out.Compliance[tag] = jsonCompliance{
			Percentage: round2(c.Percentage),
			Compliant:  c.Compliant,
			Total:      c.Total,
		}
	}
	for _, m := range types.SortMetrics(r.Metrics) {
		tags := m.Tags
		if tags == nil {
			tags = []string{}
		}
		out.Metrics = append(out.Metrics, jsonMetric{
			Name:      m.Name,
			Dimension: string(m.Dimension),
			Severity:  m.Severity,
			Active:    m.Active,
			Tags:      tags,
		})
	}

	return out
}
