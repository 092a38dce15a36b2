package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// FilterEvent reports what a key press did to the filter modal
type FilterEvent int

const (
	FilterNone FilterEvent = iota
	FilterApplied
	FilterDismissed
)

const (
	fieldGenre = iota
	fieldYear
)

const (
	minYear = 1900
	maxYear = 2100
)

// Filter is the discover filter modal: a genre picker and a year input for
// one media type.
type Filter struct {
	typ     domain.MediaType
	genres  []domain.Genre
	genre   int // Index into genres, -1 for any
	pending int // Genre id to select once genres arrive
	loading bool
	loadErr error
	year    textinput.Model
	field   int
	invalid string
	visible bool
	width   int
	height  int
}

// NewFilter creates the filter modal
func NewFilter() Filter {
	ti := textinput.New()
	ti.Placeholder = "any"
	ti.CharLimit = 4
	ti.Width = 6
	ti.Prompt = ""
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle
	ti.Validate = func(s string) error {
		for _, r := range s {
			if r < '0' || r > '9' {
				return fmt.Errorf("year must be digits")
			}
		}
		return nil
	}
	return Filter{year: ti, genre: -1}
}

// Show opens the modal for typ with the current filter preselected. genres
// may be nil while they load.
func (f *Filter) Show(typ domain.MediaType, current domain.Filter, genres []domain.Genre) {
	f.visible = true
	f.typ = typ
	f.field = fieldGenre
	f.invalid = ""
	f.loadErr = nil
	f.pending = current.Genre
	f.genre = -1
	f.genres = nil
	f.loading = genres == nil
	if genres != nil {
		f.SetGenres(genres, nil)
	}
	f.year.SetValue("")
	if current.Year > 0 {
		f.year.SetValue(strconv.Itoa(current.Year))
	}
	f.year.Blur()
}

// Hide hides the modal
func (f *Filter) Hide() {
	f.visible = false
	f.year.Blur()
}

// IsVisible returns true if the modal is visible
func (f Filter) IsVisible() bool {
	return f.visible
}

// Type returns the media type being filtered
func (f Filter) Type() domain.MediaType {
	return f.typ
}

// SetGenres fills the genre picker. A load error leaves only "Any".
func (f *Filter) SetGenres(genres []domain.Genre, err error) {
	f.loading = false
	f.loadErr = err
	f.genres = genres
	f.genre = -1
	for i, g := range genres {
		if g.ID == f.pending {
			f.genre = i
		}
	}
}

// SetSize updates the component dimensions
func (f *Filter) SetSize(width, height int) {
	f.width = width
	f.height = height
}

// Value returns the chosen filter. The year must be empty or within range.
func (f Filter) Value() (domain.Filter, error) {
	out := domain.Filter{Type: f.typ}
	if f.genre >= 0 && f.genre < len(f.genres) {
		out.Genre = f.genres[f.genre].ID
	} else if f.loading || f.loadErr != nil {
		// Keep the old genre while the list is unavailable
		out.Genre = f.pending
	}
	if text := strings.TrimSpace(f.year.Value()); text != "" {
		year, err := strconv.Atoi(text)
		if err != nil || year < minYear || year > maxYear {
			return domain.Filter{}, fmt.Errorf("year must be between %d and %d", minYear, maxYear)
		}
		out.Year = year
	}
	return out, nil
}

// Update handles messages while visible
func (f Filter) Update(msg tea.Msg) (Filter, tea.Cmd, FilterEvent) {
	if !f.visible {
		return f, nil, FilterNone
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		f.year, cmd = f.year.Update(msg)
		return f, cmd, FilterNone
	}

	switch {
	case key.Matches(keyMsg, FilterKeys.Escape):
		f.Hide()
		return f, nil, FilterDismissed

	case key.Matches(keyMsg, FilterKeys.Apply):
		if _, err := f.Value(); err != nil {
			f.invalid = err.Error()
			return f, nil, FilterNone
		}
		f.Hide()
		return f, nil, FilterApplied

	case key.Matches(keyMsg, FilterKeys.Next, FilterKeys.Prev):
		return f, f.focus(1 - f.field), FilterNone

	case key.Matches(keyMsg, FilterKeys.Clear):
		f.genre = -1
		f.pending = 0
		f.year.SetValue("")
		f.invalid = ""
		return f, nil, FilterNone
	}

	if f.field == fieldGenre {
		n := len(f.genres) + 1 // "Any" plus every genre
		switch {
		case key.Matches(keyMsg, FilterKeys.Right):
			f.genre = (f.genre+2)%n - 1
		case key.Matches(keyMsg, FilterKeys.Left):
			f.genre = (f.genre+n)%n - 1
		}
		return f, nil, FilterNone
	}

	var cmd tea.Cmd
	f.year, cmd = f.year.Update(keyMsg)
	f.invalid = ""
	return f, cmd, FilterNone
}

func (f *Filter) focus(field int) tea.Cmd {
	f.field = field
	if field == fieldYear {
		return f.year.Focus()
	}
	f.year.Blur()
	return nil
}

// genreLabel names the selected genre
func (f Filter) genreLabel() string {
	switch {
	case f.loading:
		return "loading…"
	case f.genre >= 0 && f.genre < len(f.genres):
		return f.genres[f.genre].Name
	default:
		return "Any"
	}
}

// View renders the modal
func (f Filter) View() string {
	if !f.visible {
		return ""
	}

	label := func(text string, field int) string {
		if f.field == field {
			return styles.AccentStyle.Render("› " + text)
		}
		return styles.DimStyle.Render("  " + text)
	}

	genre := "‹ " + f.genreLabel() + " ›"
	if f.field == fieldGenre {
		genre = styles.HighlightStyle.Render(genre)
	} else {
		genre = styles.SubtitleStyle.Render(genre)
	}

	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Discover " + f.typ.Label()))
	b.WriteString("\n")
	b.WriteString(label(styles.Pad("Genre", 7), fieldGenre) + genre)
	b.WriteString("\n")
	b.WriteString(label(styles.Pad("Year", 7), fieldYear) + f.year.View())
	b.WriteString("\n\n")

	switch {
	case f.invalid != "":
		b.WriteString(styles.ErrorStyle.Render(f.invalid))
	case f.loadErr != nil:
		b.WriteString(styles.ErrorStyle.Render("Genres unavailable"))
	default:
		b.WriteString(styles.HelpKeyStyle.Render("enter") + styles.HelpDescStyle.Render(" apply  ") +
			styles.HelpKeyStyle.Render("C-u") + styles.HelpDescStyle.Render(" clear  ") +
			styles.HelpKeyStyle.Render("esc") + styles.HelpDescStyle.Render(" cancel"))
	}

	modal := styles.ModalStyle.Render(b.String())
	return lipgloss.Place(f.width, f.height, lipgloss.Center, lipgloss.Center, modal)
}
