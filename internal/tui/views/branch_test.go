package views

import (
	"testing"

	"github.com/buemura/threatscore/pkg/types"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranchModelPrefilled(t *testing.T) {
	m := NewBranchModel(types.PlatformLinux, "main")

	branch, err := m.ValidatedBranch()
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
	assert.Equal(t, types.PlatformLinux, m.Platform())
}

func TestBranchModelView(t *testing.T) {
	m := NewBranchModel(types.PlatformIOS, "main")
	view := m.View()

	assert.Contains(t, view, "Platform: iOS")
	assert.Contains(t, view, "branch")
	assert.Contains(t, view, "esc back")
}

func TestBranchModelEmptyShowsError(t *testing.T) {
	m := NewBranchModel(types.PlatformLinux, "")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(BranchModel)
	assert.Contains(t, m.View(), "branch is required")
}

func TestBranchModelTyping(t *testing.T) {
	m := NewBranchModel(types.PlatformLinux, "")

	updated, _ := m.Update(keyRune("dev"))
	m = updated.(BranchModel)

	branch, err := m.ValidatedBranch()
	require.NoError(t, err)
	assert.Equal(t, "dev", branch)
}

func TestBranchModelRejectsTraversal(t *testing.T) {
	m := NewBranchModel(types.PlatformLinux, "../x")

	_, err := m.ValidatedBranch()
	assert.Error(t, err)
}
