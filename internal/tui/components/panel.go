package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// Panel mirrors the active item of a rail, like the releases side panel on
// the home view.
type Panel struct {
	heading string
	item    *domain.MediaSummary
	width   int
	height  int
	active  bool
	marker  Marker
}

// NewPanel creates a side panel with the given heading
func NewPanel(heading string) Panel {
	return Panel{heading: heading}
}

// SetItem sets the mirrored item; nil clears the panel
func (p *Panel) SetItem(item *domain.MediaSummary) {
	p.item = item
}

// SetMarker sets the membership marker renderer. It is called on every
// render, so the marker follows membership changes.
func (p *Panel) SetMarker(m Marker) {
	p.marker = m
}

// SetActive highlights the border while the mirrored rail has focus
func (p *Panel) SetActive(active bool) {
	p.active = active
}

// Item returns the mirrored item
func (p Panel) Item() *domain.MediaSummary {
	return p.item
}

// SetSize updates the component dimensions
func (p *Panel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// View renders the panel
func (p Panel) View() string {
	contentWidth := p.width - 4
	if contentWidth < 10 {
		contentWidth = 10
	}

	lines := []string{styles.AccentStyle.Render(styles.Truncate(p.heading, contentWidth)), ""}
	if p.item == nil {
		lines = append(lines, styles.DimStyle.Render("Nothing selected"))
	} else {
		it := p.item
		lines = append(lines, styles.TitleStyle.Render(styles.Truncate(it.Title, contentWidth)))

		meta := it.Ref.Type.Label()
		if year := it.YearString(); year != "" {
			meta = year + " · " + meta
		}
		if it.Rating > 0 {
			meta += " · " + styles.RatingStyle.Render(fmt.Sprintf("★ %.1f", it.Rating))
		}
		lines = append(lines, styles.SubtitleStyle.Render(meta))
		if p.marker != nil {
			lines = append(lines, p.marker(it.Ref)+styles.DimStyle.Render(" my list"))
		}
		if it.Overview != "" {
			lines = append(lines, "")
			lines = append(lines, strings.Split(styles.Wrap(it.Overview, contentWidth), "\n")...)
		}
	}

	// Border (2) + title zone already counted in lines
	maxLines := p.height - 2
	if maxLines > 0 && len(lines) > maxLines {
		lines = append(lines[:maxLines-1], styles.DimStyle.Render("↓ more"))
	}

	body := lipgloss.NewStyle().
		Width(p.width - 2).
		Height(max(p.height-2, 1)).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
	if p.active {
		return styles.ActiveBorder.Render(body)
	}
	return styles.InactiveBorder.Render(body)
}
