package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/selection"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// Layout constants for rail cells
const (
	CellWidth   = 22
	CellGap     = 1
	RailHeight  = 7 // title line + bordered cell
	cellContent = CellWidth - 4
)

// Marker renders the membership marker for an item
type Marker func(ref domain.MediaRef) string

// Rail is a horizontal strip of media cards bound to one rail query
type Rail struct {
	Query   domain.RailQuery
	title   string
	sel     *selection.Synchronizer
	loading bool
	cached  bool
	err     error
	focused bool
	width   int
	marker  Marker
}

// NewRail creates an empty rail for q
func NewRail(q domain.RailQuery, title string) *Rail {
	return &Rail{
		Query:   q,
		title:   title,
		sel:     selection.New(),
		loading: true,
	}
}

// SetItems replaces the rail contents. cached marks contents restored from
// disk that have not been revalidated yet.
func (r *Rail) SetItems(items []domain.MediaSummary, cached bool) {
	prev := r.sel.ActiveIndex()
	r.sel.SetItems(items)
	if prev > 0 {
		r.sel.Select(min(prev, len(items)-1))
	}
	r.cached = cached
	r.loading = cached
	r.err = nil
}

// SetError records a failed load. Items already shown are kept.
func (r *Rail) SetError(err error) {
	r.loading = false
	r.err = err
}

// SetLoading marks the rail as waiting for a load
func (r *Rail) SetLoading() {
	r.loading = true
}

// SetFocused sets whether the rail has keyboard focus
func (r *Rail) SetFocused(focused bool) {
	r.focused = focused
}

// SetWidth updates the rail width
func (r *Rail) SetWidth(width int) {
	r.width = width
}

// SetMarker sets the membership marker renderer
func (r *Rail) SetMarker(m Marker) {
	r.marker = m
}

// Selection exposes the rail's selection
func (r *Rail) Selection() *selection.Synchronizer {
	return r.sel
}

// Active returns the selected item
func (r *Rail) Active() (domain.MediaSummary, bool) {
	return r.sel.Active()
}

// Loading reports whether a load is outstanding
func (r *Rail) Loading() bool {
	return r.loading
}

// Err returns the last load error
func (r *Rail) Err() error {
	return r.err
}

// Title returns the rail heading
func (r *Rail) Title() string {
	return r.title
}

// visibleCells returns how many cards fit in the rail width
func (r *Rail) visibleCells() int {
	n := (r.width + CellGap) / (CellWidth + CellGap)
	if n < 1 {
		n = 1
	}
	return n
}

// View renders the rail
func (r *Rail) View() string {
	heading := styles.SubtitleStyle.Render(r.title)
	if r.focused {
		heading = styles.AccentStyle.Bold(true).Render(r.title)
	}
	switch {
	case r.err != nil:
		heading += "  " + styles.ErrorStyle.Render("failed to load")
	case r.cached:
		heading += "  " + styles.DimStyle.Render("cached")
	case r.loading:
		heading += "  " + styles.DimStyle.Render("loading…")
	}
	if n := r.sel.Len(); n > 0 && r.focused {
		heading += styles.DimStyle.Render(fmt.Sprintf("  %d/%d", r.sel.ActiveIndex()+1, n))
	}

	if r.sel.Len() == 0 {
		empty := "Nothing here yet"
		if r.loading {
			empty = "Loading…"
		}
		body := lipgloss.NewStyle().Height(RailHeight - 1).Render(styles.DimStyle.Render("  " + empty))
		return lipgloss.JoinVertical(lipgloss.Left, heading, body)
	}

	start, end := r.sel.Window(r.visibleCells())
	items := r.sel.Items()
	cells := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		cells = append(cells, r.renderCell(items[i], r.focused && i == r.sel.ActiveIndex()))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, joinWithGap(cells)...)
	return lipgloss.JoinVertical(lipgloss.Left, heading, row)
}

func (r *Rail) renderCell(item domain.MediaSummary, selected bool) string {
	title := styles.Truncate(item.Title, cellContent-2)
	if r.marker != nil {
		title = r.marker(item.Ref) + " " + title
	}

	meta := item.Ref.Type.Label()
	if year := item.YearString(); year != "" {
		meta = year + " · " + meta
	}
	lines := []string{
		styles.TitleStyle.Render(title),
		styles.DimStyle.Render(styles.Truncate(meta, cellContent)),
	}
	if item.Rating > 0 {
		lines = append(lines, styles.RatingStyle.Render(fmt.Sprintf("★ %.1f", item.Rating)))
	} else {
		lines = append(lines, "")
	}
	if item.Progress > 0 {
		lines = append(lines, styles.RenderProgressBar(item.Progress, cellContent))
	} else {
		lines = append(lines, "")
	}

	style := styles.CellStyle
	if selected {
		style = styles.CellSelectedStyle
	}
	return style.Width(CellWidth - 2).Render(strings.Join(lines, "\n"))
}

func joinWithGap(cells []string) []string {
	gap := strings.Repeat(" ", CellGap)
	out := make([]string, 0, len(cells)*2)
	for i, c := range cells {
		if i > 0 {
			out = append(out, gap)
		}
		out = append(out, c)
	}
	return out
}
