package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/reel/internal/overlay"
	"github.com/mmcdole/reel/internal/tui/components"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// Layout proportions
const (
	PanelPercent  = 32
	MinPanelWidth = 28
	MaxPanelWidth = 56
	MinRailWidth  = components.CellWidth + 2

	// Tab bar and footer
	ChromeHeight = 2
)

// panelWidth returns the side panel width, 0 when hidden
func (m Model) panelWidth() int {
	if !m.ShowPanel || !m.Page.hasPanel() {
		return 0
	}
	w := m.Width * PanelPercent / 100
	w = max(w, MinPanelWidth)
	w = min(w, MaxPanelWidth)
	if m.Width-w < MinRailWidth {
		return 0
	}
	return w
}

// updateLayout propagates the window size to the components
func (m *Model) updateLayout() {
	m.Tabs.SetWidth(m.Width)
	m.Overlay.SetSize(m.Width, m.Height)
	m.Search.SetSize(m.Width, m.Height)
	m.Filter.SetSize(m.Width, m.Height)

	railWidth := m.Width - m.panelWidth()
	for _, rail := range m.Rails {
		rail.SetWidth(railWidth)
	}
	m.Panel.SetSize(m.panelWidth(), m.Height-ChromeHeight)
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}
	if m.ShowHelp {
		return m.renderHelp()
	}

	spinner := RenderSpinner(m.SpinnerFrame)

	if m.Search.IsVisible() {
		return m.Search.View(spinner)
	}
	if m.Filter.IsVisible() {
		return m.Filter.View()
	}
	if st := m.Session.Overlay(); st.IsOpen() {
		mem := m.Session.Membership()
		return m.Overlay.View(st, mem.IsInList(st.Target), mem.IsPending(st.Target), spinner)
	}

	contentHeight := m.Height - ChromeHeight
	var body string
	if m.Page == ViewRandom {
		body = m.renderRandom(contentHeight)
	} else {
		body = m.renderRails(contentHeight)
	}
	body = lipgloss.NewStyle().Height(contentHeight).MaxHeight(contentHeight).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, m.Tabs.View(), body, m.renderFooter())
}

// renderRails stacks the rails of the current view, keeping the focused rail
// on screen, with the side panel on the right.
func (m Model) renderRails(height int) string {
	rails := m.currentRails()
	if len(rails) == 0 {
		return ""
	}

	perRail := components.RailHeight + 1
	visible := max(height/perRail, 1)
	start := 0
	if m.focus >= visible {
		start = m.focus - visible + 1
	}
	end := min(start+visible, len(rails))

	parts := make([]string, 0, end-start)
	for _, rail := range rails[start:end] {
		parts = append(parts, rail.View()+"\n")
	}
	column := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if m.panelWidth() == 0 {
		return column
	}
	column = lipgloss.NewStyle().Width(m.Width - m.panelWidth()).Render(column)
	return lipgloss.JoinHorizontal(lipgloss.Top, column, m.Panel.View())
}

// renderRandom renders the random pick page
func (m Model) renderRandom(height int) string {
	var b strings.Builder
	switch {
	case m.RandomErr != nil:
		b.WriteString(styles.ErrorStyle.Render("Could not pick something: " + m.RandomErr.Error()))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpKeyStyle.Render("n") + styles.HelpDescStyle.Render(" try again"))

	case m.Random == nil:
		b.WriteString(RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Picking something…"))

	default:
		pick := m.Random
		width := min(m.Width-8, 80)
		b.WriteString(styles.DimStyle.Render("Tonight you could watch"))
		b.WriteString("\n\n")
		b.WriteString(m.marker(pick.Ref) + " " + styles.TitleStyle.Render(pick.Title))
		b.WriteString("\n")

		meta := pick.Ref.Type.Label()
		if year := pick.YearString(); year != "" {
			meta = year + " · " + meta
		}
		if pick.Rating > 0 {
			meta += " · " + styles.RatingStyle.Render(fmt.Sprintf("★ %.1f", pick.Rating))
		}
		b.WriteString(styles.SubtitleStyle.Render(meta))
		b.WriteString("\n\n")
		if pick.Overview != "" {
			b.WriteString(styles.Wrap(pick.Overview, width))
			b.WriteString("\n\n")
		}

		hints := []string{
			styles.HelpKeyStyle.Render("enter") + styles.HelpDescStyle.Render(" details"),
			styles.HelpKeyStyle.Render("w") + styles.HelpDescStyle.Render(" watch"),
			styles.HelpKeyStyle.Render("a") + styles.HelpDescStyle.Render(" my list"),
			styles.HelpKeyStyle.Render("n") + styles.HelpDescStyle.Render(" another"),
		}
		b.WriteString(strings.Join(hints, "   "))
	}

	return lipgloss.Place(m.Width, height, lipgloss.Center, lipgloss.Center, b.String())
}

// loading reports whether any rail on the page is waiting for data
func (m Model) loading() bool {
	for _, rail := range m.currentRails() {
		if rail.Loading() {
			return true
		}
	}
	return false
}

// renderFooter renders a single-line minimal footer
func (m Model) renderFooter() string {
	var left string
	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.DimStyle.Render(m.StatusMsg)
	case m.loading():
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Loading…")
	}

	var center string
	if m.Session.Overlay().Phase == overlay.Closed {
		center = styles.AccentStyle.Render("enter") + styles.DimStyle.Render(" details  ") +
			styles.AccentStyle.Render("a") + styles.DimStyle.Render(" my list  ") +
			styles.AccentStyle.Render("/") + styles.DimStyle.Render(" search")
		if _, ok := m.Page.discoverType(); ok {
			center += styles.AccentStyle.Render("  f") + styles.DimStyle.Render(" filter")
		}
	}

	right := styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help")

	leftWidth := lipgloss.Width(left)
	centerWidth := lipgloss.Width(center)
	rightWidth := lipgloss.Width(right)

	if leftWidth+centerWidth+rightWidth >= m.Width {
		gap := max(m.Width-leftWidth-rightWidth, 0)
		return left + strings.Repeat(" ", gap) + right
	}

	available := m.Width - leftWidth - rightWidth
	leftPad := (available - centerWidth) / 2
	rightPad := available - centerWidth - leftPad
	return left + strings.Repeat(" ", leftPad) + center + strings.Repeat(" ", rightPad) + right
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
BROWSE                          DETAILS
  h/l        Previous/next item    enter  Watch
  j/k        Previous/next rail    t      Play/stop trailer
  g/G        First/last item       a      Add/remove My List
  enter      Open details          esc    Close

VIEWS                           OTHER
  1-5        Home/Series/Movies/   /      Search (tab: type)
             List/Random           f      Discover filter
  tab        Next view             w      Watch
  n          New random pick       r      Refresh
                                   q      Quit

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}
