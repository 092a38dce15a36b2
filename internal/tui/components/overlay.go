package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/reel/internal/overlay"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// Overlay renders the shared detail overlay. It holds no state of its own
// beyond layout; the overlay machine owns the lifecycle.
type Overlay struct {
	width  int
	height int
}

// NewOverlay creates an overlay renderer
func NewOverlay() Overlay {
	return Overlay{}
}

// SetSize updates the screen dimensions the modal is centered in
func (o *Overlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// modalWidth clamps the modal to a readable width
func (o Overlay) modalWidth() int {
	w := o.width * 2 / 3
	if w < 40 {
		w = 40
	}
	if w > 90 {
		w = 90
	}
	return w
}

// View renders the overlay for state s. inList and pending describe the
// membership of the target.
func (o Overlay) View(s overlay.State, inList, pending bool, spinner string) string {
	if !s.IsOpen() {
		return ""
	}
	width := o.modalWidth()
	inner := width - 6

	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render(styles.Truncate(s.Title, inner)))
	b.WriteString("\n")

	switch s.Phase {
	case overlay.Loading:
		b.WriteString(spinner + " " + styles.DimStyle.Render("Loading details…"))
		b.WriteString("\n")

	case overlay.Failed:
		b.WriteString(styles.ErrorStyle.Render(s.Message))
		b.WriteString("\n")

	case overlay.Ready:
		if d := s.Detail; d != nil {
			if meta := d.MetaLine(); meta != "" {
				b.WriteString(styles.SubtitleStyle.Render(meta))
				b.WriteString("\n\n")
			}
			overview := d.Overview
			if overview == "" {
				overview = "No description."
			}
			body := styles.Wrap(overview, inner)
			maxLines := o.height - 14
			if maxLines < 3 {
				maxLines = 3
			}
			lines := strings.Split(body, "\n")
			if len(lines) > maxLines {
				lines = append(lines[:maxLines-1], styles.DimStyle.Render("…"))
			}
			b.WriteString(strings.Join(lines, "\n"))
			b.WriteString("\n")
		}
		switch s.Trailer {
		case overlay.TrailerLoading:
			b.WriteString("\n" + spinner + " " + styles.DimStyle.Render("Finding trailer…"))
		case overlay.TrailerPlaying:
			b.WriteString("\n" + styles.SuccessStyle.Render("▶ Trailer playing"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(o.renderActions(s, inList, pending))

	content := lipgloss.NewStyle().Width(inner).Render(b.String())
	modal := styles.ModalStyle.Width(width).Render(content)
	return lipgloss.Place(o.width, o.height, lipgloss.Center, lipgloss.Center, modal)
}

func (o Overlay) renderActions(s overlay.State, inList, pending bool) string {
	hint := func(k, desc string) string {
		return styles.HelpKeyStyle.Render(k) + " " + styles.HelpDescStyle.Render(desc)
	}

	list := "add to my list"
	switch {
	case pending:
		list = "saving…"
	case inList:
		list = "remove from my list"
	}

	parts := []string{hint("enter", "watch")}
	if s.Phase == overlay.Ready {
		trailer := "trailer"
		if s.Trailer == overlay.TrailerPlaying {
			trailer = "stop trailer"
		}
		parts = append(parts, hint("t", trailer))
	}
	parts = append(parts,
		styles.RenderMembership(inList, pending)+" "+hint("a", list),
		hint("esc", "close"),
	)
	return strings.Join(parts, "   ")
}
