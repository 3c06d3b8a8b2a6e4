package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/buemura/threatscore/internal/threatmodel"
	"github.com/buemura/threatscore/internal/tui/styles"
	"github.com/buemura/threatscore/pkg/types"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LoadFunc fetches the threat model of platform from branch.
type LoadFunc func(ctx context.Context, platform types.Platform, branch string) (*threatmodel.Document, error)

// LoadedMsg is sent when the threat model has been loaded.
type LoadedMsg struct {
	Platform types.Platform
	Branch   string
	Document *threatmodel.Document
}

// loadErrorMsg is sent when loading fails.
type loadErrorMsg struct {
	err error
}

// LoadingModel is the view model shown while a threat model downloads.
type LoadingModel struct {
	spinner  spinner.Model
	load     LoadFunc
	platform types.Platform
	branch   string
	timeout  time.Duration
	done     bool
	err      string
}

// NewLoadingModel creates a loading view for platform on branch.
func NewLoadingModel(load LoadFunc, platform types.Platform, branch string, timeout time.Duration) LoadingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.ColorAccent)

	return LoadingModel{
		spinner:  sp,
		load:     load,
		platform: platform,
		branch:   branch,
		timeout:  timeout,
	}
}

// Init starts the spinner and launches the download.
func (m LoadingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

// Update handles spinner ticks and load completion.
func (m LoadingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.done = true
		return m, nil

	case loadErrorMsg:
		m.done = true
		m.err = msg.err.Error()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the loading progress.
func (m LoadingModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("threatscore: Interactive Mode"))
	b.WriteString("\n\n")

	if m.err != "" {
		b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("Loading failed: %s", m.err)))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("esc back • ctrl+c quit"))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("%s Loading %s threat model...\n",
		m.spinner.View(),
		styles.SelectedStyle.Render(string(m.platform))))
	b.WriteString(fmt.Sprintf("  Branch: %s\n", m.branch))

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("ctrl+c quit"))

	return b.String()
}

// Err returns the load error, if any.
func (m LoadingModel) Err() string {
	return m.err
}

func (m LoadingModel) fetch() tea.Cmd {
	load, platform, branch, timeout := m.load, m.platform, m.branch, m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		doc, err := load(ctx, platform, branch)
		if err != nil {
			return loadErrorMsg{err: err}
		}
		return LoadedMsg{Platform: platform, Branch: branch, Document: doc}
	}
}
