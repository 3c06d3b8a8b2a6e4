package output

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/buemura/threatscore/pkg/types"
)

// HTMLFormatter renders reports as a self-contained HTML page with
// per-dimension score bars and a threat list.
type HTMLFormatter struct{}

func (f *HTMLFormatter) Format(w io.Writer, reports []types.PlatformReport) error {
	return htmlTpl.Execute(w, templateData{Reports: reports})
}

type templateData struct {
	Reports []types.PlatformReport
}

// scoreClass maps a percentage to a CSS class name.
func scoreClass(p int) string {
	switch {
	case p < 0:
		return "none"
	case p >= 80:
		return "good"
	case p >= 50:
		return "fair"
	default:
		return "poor"
	}
}

type dimensionRow struct {
	Label string
	Score types.DimensionScore
	Text  string
}

var funcMap = template.FuncMap{
	"scoreClass": scoreClass,
	"starBar":    StarBar,
	"dimensions": func(r *types.ScoreResult) []dimensionRow {
		rows := make([]dimensionRow, 0, len(types.Dimensions()))
		for _, dim := range types.Dimensions() {
			d := r.Dimensions[dim]
			rows = append(rows, dimensionRow{Label: dimensionLabel(dim), Score: d, Text: dimensionScoreText(d)})
		}
		return rows
	},
	"sortedMetrics": types.SortMetrics,
	"compliance": func(r *types.ScoreResult) []types.ComplianceResult {
		out := make([]types.ComplianceResult, 0, len(r.Compliance))
		for _, tag := range r.ComplianceTags() {
			out = append(out, r.Compliance[tag])
		}
		return out
	},
	"join":   strings.Join,
	"status": metricStatus,
	"width": func(p int) int {
		if p < 0 {
			return 0
		}
		return p
	},
}

var htmlTpl = template.Must(template.New("report").Funcs(funcMap).Parse(fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Security Score Report</title>
<style>%s</style>
</head>
<body>
<div class="container">
  <h1>Security Score Report</h1>

  {{range .Reports}}
  <section class="platform-section">
    {{if or .Error (not .Result)}}
      <h2>{{.Platform}} &mdash; Error</h2>
      <div class="error-box">{{.Error}}</div>
    {{else}}
      {{$r := .Result}}
      <h2>{{.Platform}} &mdash; {{$r.Platform}}</h2>
      <div class="summary-bar">
        <span class="stars">{{printf "%%.1f" $r.Stars}} / 5.0 <code>[{{starBar $r.Stars}}]</code></span>
        <span class="badge {{scoreClass $r.Overall}}">{{$r.Overall}}%%</span>
        <span class="total">{{$r.TotalMetrics}} threats, {{$r.ActiveThreats}} active, {{$r.InactiveThreats}} inactive</span>
      </div>

      <table>
        <thead><tr><th>Dimension</th><th>Score</th><th>Severity</th></tr></thead>
        <tbody>
          {{range dimensions $r}}
          <tr>
            <td>{{.Label}}</td>
            <td><div class="bar"><div class="fill {{scoreClass .Score.Score}}" style="width:{{width .Score.Score}}%%"></div></div> {{.Text}}</td>
            <td>{{.Score.Current}}/{{.Score.Maximum}}</td>
          </tr>
          {{end}}
        </tbody>
      </table>

      {{if $r.Metrics}}
      <table>
        <thead><tr><th>Status</th><th>Severity</th><th>Threat</th><th>Tags</th></tr></thead>
        <tbody>
          {{range sortedMetrics $r.Metrics}}
          <tr>
            <td><span class="badge {{if .Active}}poor{{else}}good{{end}}">{{status .}}</span></td>
            <td>{{.Severity}}</td>
            <td>{{.Name}}</td>
            <td>{{join .Tags ", "}}</td>
          </tr>
          {{end}}
        </tbody>
      </table>
      {{end}}

      {{with compliance $r}}
      <table>
        <thead><tr><th>Compliance</th><th>Percent</th><th>Compliant</th></tr></thead>
        <tbody>
          {{range .}}
          <tr><td>{{.Tag}}</td><td>{{printf "%%.1f" .Percentage}}%%</td><td>{{.Compliant}}/{{.Total}}</td></tr>
          {{end}}
        </tbody>
      </table>
      {{end}}

      {{if .Unknown}}<p class="note">Unknown threat names ignored: {{join .Unknown ", "}}</p>{{end}}
    {{end}}
  </section>
  {{end}}
</div>
</body>
</html>`, cssStyles)))

const cssStyles = `
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,Helvetica,Arial,sans-serif;
     line-height:1.6;color:#1a1a2e;background:#f5f5fa;padding:2rem}
.container{max-width:960px;margin:0 auto}
h1{margin-bottom:1rem;font-size:1.8rem}
h2{margin:1.5rem 0 .75rem;font-size:1.3rem;border-bottom:2px solid #e0e0e0;padding-bottom:.3rem}
.summary-bar{display:flex;gap:.75rem;flex-wrap:wrap;align-items:center;margin-bottom:1rem}
.stars{font-weight:700}
.total{margin-left:.5rem;font-weight:600}
.badge{display:inline-block;padding:2px 10px;border-radius:12px;font-size:.8rem;font-weight:700;color:#fff;text-transform:uppercase}
.badge.good,.fill.good{background:#2e7d32}
.badge.fair,.fill.fair{background:#f9a825;color:#333}
.badge.poor,.fill.poor{background:#d32f2f}
.badge.none,.fill.none{background:#757575}
.bar{display:inline-block;width:120px;height:10px;background:#e0e0e0;border-radius:5px;vertical-align:middle;margin-right:.5rem}
.fill{height:10px;border-radius:5px}
table{width:100%;border-collapse:collapse;margin-bottom:1rem}
th,td{text-align:left;padding:.5rem .75rem;border-bottom:1px solid #e0e0e0}
th{background:#eaeaea;font-weight:600}
tr:hover{background:#f0f0ff}
.error-box{background:#ffebee;color:#c62828;padding:.75rem 1rem;border-radius:6px;margin-bottom:1rem}
.note{color:#666;font-style:italic}
.platform-section{margin-bottom:2rem}
`
