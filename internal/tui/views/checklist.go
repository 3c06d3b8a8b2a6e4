package views

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/buemura/threatscore/internal/output"
	"github.com/buemura/threatscore/internal/score"
	"github.com/buemura/threatscore/internal/threatmodel"
	"github.com/buemura/threatscore/internal/tui/styles"
	"github.com/buemura/threatscore/pkg/types"
	tea "github.com/charmbracelet/bubbletea"
)

// ChecklistModel lists the metrics of a threat model. Toggling a metric
// marks it inactive and the score is recomputed immediately.
type ChecklistModel struct {
	platform types.Platform
	doc      *threatmodel.Document
	rows     []threatmodel.MetricRecord
	inactive threatmodel.Checks
	result   *types.ScoreResult
	cursor   int
	offset   int
	maxRows  int

	exportPath string
	exported   bool
	err        string
}

// NewChecklistModel creates a checklist with every metric active.
func NewChecklistModel(platform types.Platform, doc *threatmodel.Document) ChecklistModel {
	rows := append([]threatmodel.MetricRecord(nil), doc.Metrics...)
	sort.SliceStable(rows, func(i, j int) bool {
		si, sj := severityOf(rows[i]), severityOf(rows[j])
		if si != sj {
			return si > sj
		}
		return rows[i].Name < rows[j].Name
	})

	m := ChecklistModel{
		platform:   platform,
		doc:        doc,
		rows:       rows,
		inactive:   threatmodel.NewChecks(),
		maxRows:    15,
		exportPath: fmt.Sprintf("threatscore-%s.json", platform),
	}
	m.recompute()
	return m
}

// SetExportPath changes where 'e' writes the JSON report.
func (m *ChecklistModel) SetExportPath(path string) {
	m.exportPath = path
}

// Init returns nil (no initial command).
func (m ChecklistModel) Init() tea.Cmd {
	return nil
}

// Update handles navigation, toggling and export.
func (m ChecklistModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.maxRows {
				m.offset = m.cursor - m.maxRows + 1
			}
		}
	case " ":
		if len(m.rows) > 0 {
			m.toggle(m.rows[m.cursor].Name)
		}
	case "a":
		m.toggleAll()
	case "e":
		m.exportJSON()
	case "q":
		return m, tea.Quit
	}

	return m, nil
}

// View renders the live score and the checklist.
func (m ChecklistModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("threatscore: %s", m.doc.Name)))
	b.WriteString("\n\n")

	if m.result != nil {
		b.WriteString(m.scoreView())
		b.WriteString("\n")
	}

	if len(m.rows) == 0 {
		b.WriteString("The threat model has no metrics.\n")
	} else {
		header := fmt.Sprintf("      %-8s %-4s %-44s %s", "STATUS", "SEV", "THREAT", "DIMENSION")
		b.WriteString(styles.HeaderStyle.Render(header))
		b.WriteString("\n")

		end := m.offset + m.maxRows
		if end > len(m.rows) {
			end = len(m.rows)
		}

		for i := m.offset; i < end; i++ {
			row := m.rows[i]
			cursor := "  "
			if i == m.cursor {
				cursor = styles.CursorStyle.Render("> ")
			}

			box := "[ ]"
			status := styles.ActiveStyle.Render(fmt.Sprintf("%-8s", "ACTIVE"))
			if m.inactive.Has(row.Name) {
				box = "[x]"
				status = styles.InactiveStyle.Render(fmt.Sprintf("%-8s", "OK"))
			}
			sev := styles.SeverityStyle(severityOf(row)).Render(fmt.Sprintf("%-4d", severityOf(row)))

			b.WriteString(fmt.Sprintf("%s%s %s %s %-44s %s\n",
				cursor, box, status, sev, truncate(row.Title(), 44), styles.HelpStyle.Render(row.Dimension)))
		}

		if len(m.rows) > m.maxRows {
			b.WriteString(fmt.Sprintf("\n  Showing %d-%d of %d threats\n", m.offset+1, end, len(m.rows)))
		}
	}

	if m.exported {
		b.WriteString("\n")
		b.WriteString(styles.SelectedStyle.Render("Report exported to " + m.exportPath))
	}
	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(m.err))
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("↑/↓ move • space toggle • a toggle all • e export JSON • esc back • q quit"))

	return b.String()
}

// Result returns the score for the current selection.
func (m ChecklistModel) Result() *types.ScoreResult {
	return m.result
}

// Inactive returns the names currently marked inactive.
func (m ChecklistModel) Inactive() []string {
	return m.inactive.Names()
}

// Cursor returns the current cursor position.
func (m ChecklistModel) Cursor() int {
	return m.cursor
}

func (m ChecklistModel) scoreView() string {
	r := m.result

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Stars: %.1f / 5.0 [%s]   Overall: %s   Threats: %d active, %d inactive\n",
		r.Stars, output.StarBar(r.Stars),
		styles.ScoreStyle(r.Overall).Render(fmt.Sprintf("%d%%", r.Overall)),
		r.ActiveThreats, r.InactiveThreats))

	parts := make([]string, 0, len(types.Dimensions()))
	for _, dim := range types.Dimensions() {
		d := r.Dimensions[dim]
		text := "N/A"
		if d.HasMetrics() {
			text = fmt.Sprintf("%d%%", d.Score)
		}
		parts = append(parts, fmt.Sprintf("%s %s", dim, styles.ScoreStyle(d.Score).Render(text)))
	}

	return styles.BorderStyle.Render(strings.TrimRight(b.String(), "\n") + "\n" + strings.Join(parts, " • "))
}

func (m *ChecklistModel) toggle(name string) {
	if m.inactive.Has(name) {
		delete(m.inactive, name)
	} else {
		m.inactive.Add(name)
	}
	m.exported = false
	m.recompute()
}

// toggleAll marks every metric inactive, or clears the selection when every
// metric already is.
func (m *ChecklistModel) toggleAll() {
	if m.allInactive() {
		m.inactive = threatmodel.NewChecks()
	} else {
		for _, row := range m.rows {
			m.inactive.Add(row.Name)
		}
	}
	m.exported = false
	m.recompute()
}

func (m ChecklistModel) allInactive() bool {
	for _, row := range m.rows {
		if !m.inactive.Has(row.Name) {
			return false
		}
	}
	return true
}

func (m *ChecklistModel) recompute() {
	result, err := score.Compute(m.doc, m.inactive, false)
	if err != nil {
		m.err = fmt.Sprintf("score failed: %v", err)
		m.result = nil
		return
	}
	m.result = result
	m.err = ""
}

func (m *ChecklistModel) exportJSON() {
	if m.result == nil {
		return
	}

	data, err := output.MarshalReport(types.PlatformReport{Platform: m.platform, Result: m.result})
	if err != nil {
		m.err = fmt.Sprintf("export failed: %v", err)
		return
	}

	if err := os.WriteFile(m.exportPath, append(data, '\n'), 0644); err != nil {
		m.err = fmt.Sprintf("export failed: %v", err)
		return
	}

	m.exported = true
	m.err = ""
}

func severityOf(m threatmodel.MetricRecord) int {
	if m.Severity == nil {
		return 0
	}
	return *m.Severity
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
