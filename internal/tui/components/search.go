package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/search"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// SearchEvent reports what a key press did to the search modal
type SearchEvent int

const (
	SearchNone SearchEvent = iota
	SearchChanged
	SearchSelected
	SearchDismissed
	SearchFilterChanged
)

const maxSearchRows = 10

// searchRow is one displayed result, either from the catalog or an instant
// local match.
type searchRow struct {
	item    domain.MediaSummary
	matched []int
	local   bool
}

// Search is the search modal. The coordinator owns the query lifecycle;
// the modal owns the text input and the cursor.
type Search struct {
	input   textinput.Model
	typ     domain.MediaType // Type filter, empty for all
	state   search.State
	rows    []searchRow
	cursor  int
	visible bool
	width   int
	height  int
}

// NewSearch creates the search modal
func NewSearch() Search {
	ti := textinput.New()
	ti.Placeholder = "Movies and series…"
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "/ "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return Search{input: ti}
}

// Show makes the modal visible with an empty input
func (s *Search) Show() {
	s.visible = true
	s.input.SetValue("")
	s.input.Focus()
	s.rows = nil
	s.cursor = 0
	s.typ = ""
	s.state = search.State{}
}

// TypeFilter returns the media type results are narrowed to, empty for all
func (s Search) TypeFilter() domain.MediaType {
	return s.typ
}

// Hide hides the modal
func (s *Search) Hide() {
	s.visible = false
	s.input.Blur()
}

// IsVisible returns true if the modal is visible
func (s Search) IsVisible() bool {
	return s.visible
}

// SetSize updates the component dimensions
func (s *Search) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.input.Width = s.modalWidth() - 10
}

// Value returns the text in the input
func (s Search) Value() string {
	return s.input.Value()
}

// SetState refreshes the rows from the coordinator snapshot. Local matches
// fill the list until catalog results arrive.
func (s *Search) SetState(st search.State, local []search.LocalMatch) {
	s.state = st
	s.rows = nil
	if st.Status == search.Results {
		for _, item := range st.Results {
			s.rows = append(s.rows, searchRow{item: item})
		}
	} else if st.Status == search.Pending || st.Status == search.Searching {
		for _, m := range local {
			s.rows = append(s.rows, searchRow{item: m.Summary, matched: m.MatchedIndexes, local: true})
		}
	}
	if s.cursor >= len(s.rows) {
		s.cursor = max(len(s.rows)-1, 0)
	}
}

// Selected returns the result under the cursor
func (s Search) Selected() (domain.MediaSummary, bool) {
	if s.cursor < 0 || s.cursor >= len(s.rows) {
		return domain.MediaSummary{}, false
	}
	return s.rows[s.cursor].item, true
}

// Init initializes the component
func (s Search) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages while visible
func (s Search) Update(msg tea.Msg) (Search, tea.Cmd, SearchEvent) {
	if !s.visible {
		return s, nil, SearchNone
	}

	var cmd tea.Cmd
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, SearchKeys.Escape):
			s.Hide()
			return s, nil, SearchDismissed

		case key.Matches(msg, SearchKeys.Enter):
			if _, ok := s.Selected(); ok {
				return s, nil, SearchSelected
			}
			return s, nil, SearchNone

		case key.Matches(msg, SearchKeys.Type):
			switch s.typ {
			case "":
				s.typ = domain.MediaTypeMovie
			case domain.MediaTypeMovie:
				s.typ = domain.MediaTypeTV
			default:
				s.typ = ""
			}
			s.cursor = 0
			return s, nil, SearchFilterChanged

		case key.Matches(msg, SearchKeys.Down):
			if s.cursor < len(s.rows)-1 {
				s.cursor++
			}
			return s, nil, SearchNone

		case key.Matches(msg, SearchKeys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
			return s, nil, SearchNone
		}

		before := s.input.Value()
		s.input, cmd = s.input.Update(msg)
		if s.input.Value() != before {
			s.cursor = 0
			return s, cmd, SearchChanged
		}
		return s, cmd, SearchNone
	}

	s.input, cmd = s.input.Update(msg)
	return s, cmd, SearchNone
}

func (s Search) modalWidth() int {
	w := s.width * 2 / 3
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

// View renders the modal
func (s Search) View(spinner string) string {
	if !s.visible {
		return ""
	}
	width := s.modalWidth()

	scope := styles.DimBadgeStyle.Render("All")
	if s.typ != "" {
		scope = styles.BadgeStyle.Render(s.typ.Label())
	}

	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Search") + "  " + scope)
	b.WriteString("\n")
	b.WriteString(s.input.View())
	b.WriteString("\n\n")

	switch s.state.Status {
	case search.Short:
		b.WriteString(styles.DimStyle.Render(s.state.Message))
	case search.Failed:
		b.WriteString(styles.ErrorStyle.Render(s.state.Message))
	case search.Pending, search.Searching:
		b.WriteString(spinner + " " + styles.DimStyle.Render("Searching…"))
		if len(s.rows) > 0 {
			b.WriteString("\n\n")
			s.renderRows(&b, width)
		}
	case search.Results:
		if len(s.rows) == 0 {
			b.WriteString(styles.DimStyle.Render(s.state.Message))
		} else {
			s.renderRows(&b, width)
		}
	}

	content := lipgloss.NewStyle().Width(width - 4).Render(b.String())
	modal := styles.ModalStyle.Width(width).Render(content)
	return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center, modal)
}

func (s Search) renderRows(b *strings.Builder, width int) {
	start := 0
	if s.cursor >= maxSearchRows {
		start = s.cursor - maxSearchRows + 1
	}
	end := min(start+maxSearchRows, len(s.rows))
	rowWidth := width - 4

	for i := start; i < end; i++ {
		row := s.rows[i]

		badge := "MOVIE"
		if row.item.Ref.Type == domain.MediaTypeTV {
			badge = "TV"
		}
		title := styles.Truncate(row.item.Title, rowWidth-24)

		parts := []styles.RowPart{{Text: styles.Pad(badge, 6), Foreground: &styles.DimGray}}
		parts = append(parts, highlightMatches(title, row.matched)...)
		if year := row.item.YearString(); year != "" {
			parts = append(parts, styles.RowPart{Text: " (" + year + ")", Foreground: &styles.DimGray})
		}
		if row.local {
			parts = append(parts, styles.RowPart{Text: "  on screen", Foreground: &styles.DimGray})
		}
		b.WriteString(styles.RenderListRow(parts, i == s.cursor, rowWidth))
		b.WriteString("\n")
	}

	if len(s.rows) > end {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("… and %d more", len(s.rows)-end)))
	}
}

// highlightMatches splits text into row parts, colouring the runs at the
// matched byte offsets
func highlightMatches(text string, matched []int) []styles.RowPart {
	if len(matched) == 0 {
		return []styles.RowPart{{Text: text}}
	}

	set := make(map[int]bool, len(matched))
	for _, idx := range matched {
		set[idx] = true
	}

	var parts []styles.RowPart
	var run strings.Builder
	inMatch := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		part := styles.RowPart{Text: run.String()}
		if inMatch {
			part.Foreground = &styles.Crimson
		}
		parts = append(parts, part)
		run.Reset()
	}
	for i, r := range text {
		if set[i] != inMatch {
			flush()
			inMatch = set[i]
		}
		run.WriteRune(r)
	}
	flush()
	return parts
}
