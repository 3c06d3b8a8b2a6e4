package tui

import (
	"time"

	"github.com/buemura/threatscore/internal/tui/views"
	tea "github.com/charmbracelet/bubbletea"
)

// appState represents which view is currently active.
type appState int

const (
	stateMenu      appState = iota // Platform selection menu
	stateBranch                    // Threat model branch input
	stateLoading                   // Threat model download in progress
	stateChecklist                 // Live score checklist
)

// Model is the root Bubble Tea model that manages view transitions.
type Model struct {
	state         appState
	load          views.LoadFunc
	defaultBranch string
	timeout       time.Duration
	width         int
	height        int

	// Sub-models for each view.
	menu      views.MenuModel
	branch    views.BranchModel
	loading   views.LoadingModel
	checklist views.ChecklistModel
}

// NewModel creates a root model that fetches threat models with load.
func NewModel(load views.LoadFunc, defaultBranch string, timeout time.Duration) Model {
	return Model{
		state:         stateMenu,
		load:          load,
		defaultBranch: defaultBranch,
		timeout:       timeout,
		menu:          views.NewMenuModel(views.DefaultPlatformItems()),
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and manages state transitions.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m.handleBack()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	switch m.state {
	case stateMenu:
		return m.updateMenu(msg)
	case stateBranch:
		return m.updateBranch(msg)
	case stateLoading:
		return m.updateLoading(msg)
	case stateChecklist:
		return m.updateChecklist(msg)
	}

	return m, nil
}

// View renders the current view.
func (m Model) View() string {
	switch m.state {
	case stateMenu:
		return m.menu.View()
	case stateBranch:
		return m.branch.View()
	case stateLoading:
		return m.loading.View()
	case stateChecklist:
		return m.checklist.View()
	}
	return ""
}

func (m Model) handleBack() (tea.Model, tea.Cmd) {
	switch m.state {
	case stateBranch, stateChecklist:
		m.state = stateMenu
	case stateLoading:
		// Only a failed load can be left; a running one finishes first.
		if m.loading.Err() != "" {
			m.state = stateBranch
		}
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
		if selected := m.menu.Selected(); selected != nil {
			m.branch = views.NewBranchModel(selected.Platform, m.defaultBranch)
			m.state = stateBranch
			return m, m.branch.Init()
		}
	}

	updated, cmd := m.menu.Update(msg)
	m.menu = updated.(views.MenuModel)
	return m, cmd
}

func (m Model) updateBranch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
		if branch, err := m.branch.ValidatedBranch(); err == nil {
			m.loading = views.NewLoadingModel(m.load, m.branch.Platform(), branch, m.timeout)
			m.state = stateLoading
			return m, m.loading.Init()
		}
	}

	updated, cmd := m.branch.Update(msg)
	m.branch = updated.(views.BranchModel)
	return m, cmd
}

func (m Model) updateLoading(msg tea.Msg) (tea.Model, tea.Cmd) {
	if loaded, ok := msg.(views.LoadedMsg); ok {
		m.checklist = views.NewChecklistModel(loaded.Platform, loaded.Document)
		m.state = stateChecklist
		return m, nil
	}

	updated, cmd := m.loading.Update(msg)
	m.loading = updated.(views.LoadingModel)
	return m, cmd
}

func (m Model) updateChecklist(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.checklist.Update(msg)
	m.checklist = updated.(views.ChecklistModel)
	return m, cmd
}
