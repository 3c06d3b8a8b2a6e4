package tui

import (
	"fmt"
	"time"

	"github.com/buemura/threatscore/internal/tui/views"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive TUI. Threat models are fetched with load,
// starting from defaultBranch.
func Run(load views.LoadFunc, defaultBranch string, timeout time.Duration) error {
	m := NewModel(load, defaultBranch, timeout)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
