package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// Tabs is the view switcher shown at the top of the screen
type Tabs struct {
	labels []string
	active int
	width  int
}

// NewTabs creates a switcher with the given labels
func NewTabs(labels ...string) Tabs {
	return Tabs{labels: labels}
}

// SetActive selects the tab at index i
func (t *Tabs) SetActive(i int) {
	if i >= 0 && i < len(t.labels) {
		t.active = i
	}
}

// Active returns the selected tab index
func (t Tabs) Active() int {
	return t.active
}

// SetWidth updates the available width
func (t *Tabs) SetWidth(width int) {
	t.width = width
}

// View renders the tab bar. Each tab shows its number shortcut.
func (t Tabs) View() string {
	parts := make([]string, 0, len(t.labels)+1)
	parts = append(parts, styles.AccentStyle.Bold(true).Render("reel")+"  ")
	for i, label := range t.labels {
		text := fmt.Sprintf("%d %s", i+1, label)
		if i == t.active {
			parts = append(parts, styles.ActiveTabStyle.Render(text))
		} else {
			parts = append(parts, styles.TabStyle.Render(text))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if t.width > 0 {
		bar = lipgloss.NewStyle().MaxWidth(t.width).Render(bar)
	}
	return bar
}
