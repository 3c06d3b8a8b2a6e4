package views

import (
	"fmt"
	"strings"

	"github.com/buemura/threatscore/internal/tui/styles"
	"github.com/buemura/threatscore/pkg/types"
	tea "github.com/charmbracelet/bubbletea"
)

// PlatformItem is a platform available in the menu.
type PlatformItem struct {
	Platform    types.Platform
	Description string
}

// DefaultPlatformItems lists every supported platform.
func DefaultPlatformItems() []PlatformItem {
	descriptions := map[types.Platform]string{
		types.PlatformMacOS:   "Apple desktops and laptops",
		types.PlatformWindows: "Microsoft Windows workstations",
		types.PlatformLinux:   "Linux distributions",
		types.PlatformIOS:     "iPhone and iPad",
		types.PlatformAndroid: "Android phones and tablets",
	}

	platforms := types.Platforms()
	items := make([]PlatformItem, len(platforms))
	for i, p := range platforms {
		items[i] = PlatformItem{Platform: p, Description: descriptions[p]}
	}
	return items
}

// MenuModel is the view model for the platform selection menu.
type MenuModel struct {
	items  []PlatformItem
	cursor int
}

// NewMenuModel creates a menu with the given platform items.
func NewMenuModel(items []PlatformItem) MenuModel {
	return MenuModel{items: items}
}

// Init returns nil (no initial command).
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles key navigation in the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the platform selection menu.
func (m MenuModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("threatscore: Interactive Mode"))
	b.WriteString("\n\n")
	b.WriteString(styles.HeaderStyle.Render("Select a platform:"))
	b.WriteString("\n")

	for i, item := range m.items {
		cursor := "  "
		nameStyle := styles.HelpStyle
		if i == m.cursor {
			cursor = styles.CursorStyle.Render("> ")
			nameStyle = styles.SelectedStyle
		}

		b.WriteString(fmt.Sprintf("%s%s  %s\n",
			cursor,
			nameStyle.Render(fmt.Sprintf("%-8s", item.Platform)),
			styles.HelpStyle.Render(item.Description),
		))
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("↑/↓ navigate • enter select • q quit"))

	return b.String()
}

// Selected returns the currently highlighted item, or nil if empty.
func (m MenuModel) Selected() *PlatformItem {
	if len(m.items) == 0 {
		return nil
	}
	return &m.items[m.cursor]
}

// Cursor returns the current cursor position.
func (m MenuModel) Cursor() int {
	return m.cursor
}

// Items returns the menu items.
func (m MenuModel) Items() []PlatformItem {
	return m.items
}
