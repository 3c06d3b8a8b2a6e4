package views

import (
	"fmt"
	"strings"

	"github.com/buemura/threatscore/internal/tui/styles"
	"github.com/buemura/threatscore/pkg/types"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// BranchModel is the view model for the threat model branch input.
type BranchModel struct {
	textInput textinput.Model
	platform  types.Platform
	err       string
}

// NewBranchModel creates a branch input prefilled with def.
func NewBranchModel(platform types.Platform, def string) BranchModel {
	ti := textinput.New()
	ti.Placeholder = "e.g. main or dev"
	ti.SetValue(def)
	ti.Focus()
	ti.CharLimit = 128
	ti.Width = 40
	ti.PromptStyle = styles.CursorStyle
	ti.TextStyle = styles.SelectedStyle

	return BranchModel{textInput: ti, platform: platform}
}

// Platform returns the platform the branch is chosen for.
func (m BranchModel) Platform() types.Platform {
	return m.platform
}

// Init returns the text input blink command.
func (m BranchModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input events.
func (m BranchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
		if _, err := m.ValidatedBranch(); err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.err = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	m.err = ""
	return m, cmd
}

// View renders the branch input form.
func (m BranchModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("threatscore: Interactive Mode"))
	b.WriteString("\n\n")
	b.WriteString(styles.HeaderStyle.Render(fmt.Sprintf("Platform: %s", m.platform)))
	b.WriteString("\n")
	b.WriteString("Threat model branch:\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n")

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(m.err))
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("enter load • esc back"))

	return b.String()
}

// ValidatedBranch returns the trimmed branch, or an error if it is empty or
// not a plausible branch name.
func (m BranchModel) ValidatedBranch() (string, error) {
	value := strings.TrimSpace(m.textInput.Value())
	if value == "" {
		return "", fmt.Errorf("branch is required")
	}
	if strings.Contains(value, "..") || strings.ContainsAny(value, " \t?#") {
		return "", fmt.Errorf("invalid branch %q", value)
	}
	return value, nil
}
