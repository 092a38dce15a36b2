package tui

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/overlay"
	"github.com/mmcdole/reel/internal/search"
	"github.com/mmcdole/reel/internal/session"
	"github.com/mmcdole/reel/internal/tui/components"
	"github.com/mmcdole/reel/internal/tui/styles"
)

const spinnerInterval = 100 * time.Millisecond

// Options configures the model
type Options struct {
	DefaultView View
	ShowPanel   bool
}

// Model is the main Bubble Tea model for the application
type Model struct {
	Session  *session.Controller
	Launcher Launcher
	Keys     KeyMap
	logger   *slog.Logger

	// Pages
	Page      View
	ShowPanel bool
	Tabs      components.Tabs
	Rails     map[string]*components.Rail // Keyed by rail query; shared across views
	focus     int                         // Index of the focused rail in the current view

	// Discover filters per media type, and the genres offered for them
	filters map[domain.MediaType]domain.Filter
	genres  map[domain.MediaType][]domain.Genre

	// UI components
	Panel   components.Panel
	Overlay components.Overlay
	Search  components.Search
	Filter  components.Filter

	// Random pick page
	Random    *domain.MediaSummary
	RandomErr error

	// The summary the overlay was opened from
	overlayItem domain.MediaSummary

	// Most recent debounce scheduled by typing
	lastSearch search.Schedule

	// Dimensions
	Width  int
	Height int
	Ready  bool

	// UI state
	ShowHelp     bool
	StatusMsg    string
	StatusIsErr  bool
	statusID     int // Bumped per status so older clear timers are ignored
	SpinnerFrame int
}

// NewModel creates a new application model
func NewModel(s *session.Controller, launcher Launcher, opts Options, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	labels := make([]string, len(allViews))
	for i, v := range allViews {
		labels[i] = v.Title()
	}
	tabs := components.NewTabs(labels...)
	tabs.SetActive(int(opts.DefaultView))

	m := Model{
		Session:   s,
		Launcher:  launcher,
		Keys:      DefaultKeyMap(),
		logger:    logger,
		Page:      opts.DefaultView,
		ShowPanel: opts.ShowPanel,
		Tabs:      tabs,
		Rails:     make(map[string]*components.Rail),
		filters:   make(map[domain.MediaType]domain.Filter),
		genres:    make(map[domain.MediaType][]domain.Genre),
		Panel:     components.NewPanel(domain.RailReleases.Title()),
		Overlay:   components.NewOverlay(),
		Search:    components.NewSearch(),
		Filter:    components.NewFilter(),
	}
	m.Panel.SetMarker(m.marker)
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := m.loadView(m.Page)
	cmds = append(cmds, TickCmd(spinnerInterval))
	return tea.Batch(cmds...)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		return m, TickCmd(spinnerInterval)

	case RailLoadedMsg:
		return m.handleRailLoaded(msg)

	case DetailLoadedMsg:
		m.Session.ApplyDetail(msg.Effect, msg.Detail, msg.Err)
		return m, nil

	case TrailerLoadedMsg:
		outcome := m.Session.ApplyTrailer(msg.Effect, msg.Trailer, msg.Err)
		switch outcome {
		case overlay.TrailerApplied:
			return m, PlayTrailerCmd(m.Launcher, msg.Trailer.WatchURL())
		case overlay.TrailerNotFound:
			return m, m.setStatus(outcome.Notice(), false)
		case overlay.TrailerFailed:
			return m, m.setStatus(outcome.Notice(), true)
		}
		return m, nil

	case SearchTickMsg:
		q, ok := m.Session.FireSearch(msg.Gen)
		if !ok {
			return m, nil
		}
		m.refreshSearch()
		return m, RunSearchCmd(m.Session, q)

	case SearchResultsMsg:
		if m.Session.ApplySearch(msg.Query, msg.Results, msg.Err) {
			m.refreshSearch()
		}
		return m, nil

	case ToggleResultMsg:
		return m.handleToggleResult(msg)

	case RandomLoadedMsg:
		if !m.Session.ApplyRandom(msg.Load, msg.Pick, msg.Err) {
			return m, nil
		}
		m.Random = msg.Pick
		m.RandomErr = msg.Err
		return m, nil

	case GenresLoadedMsg:
		if msg.Err == nil {
			m.genres[msg.Type] = msg.Genres
		}
		if m.Filter.IsVisible() && m.Filter.Type() == msg.Type {
			m.Filter.SetGenres(msg.Genres, msg.Err)
		}
		return m, nil

	case ErrMsg:
		return m, m.setStatus(msg.Error(), true)

	case StatusMsg:
		return m, m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		if msg.ID != m.statusID {
			return m, nil
		}
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	if m.Search.IsVisible() {
		var cmd tea.Cmd
		m.Search, cmd, _ = m.Search.Update(msg)
		return m, cmd
	}
	if m.Filter.IsVisible() {
		var cmd tea.Cmd
		m.Filter, cmd, _ = m.Filter.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleRailLoaded(msg RailLoadedMsg) (tea.Model, tea.Cmd) {
	if !m.Session.ApplyRail(msg.Load, msg.Items, msg.Err) {
		return m, nil
	}
	rail, ok := m.Rails[msg.Load.Query.Key()]
	if !ok {
		return m, nil
	}
	if msg.Err != nil {
		rail.SetError(msg.Err)
		if errors.Is(msg.Err, context.Canceled) {
			return m, nil
		}
		return m, m.setStatus("Failed to load "+rail.Title(), true)
	}
	rail.SetItems(msg.Items, false)
	m.syncPanel()
	return m, nil
}

func (m Model) handleToggleResult(msg ToggleResultMsg) (tea.Model, tea.Cmd) {
	m.syncPanel()
	if msg.Err != nil {
		m.logger.Warn("my list update failed", "ref", msg.Ref.Key(), "error", msg.Err)
		return m, m.setStatus("Could not update My List: "+msg.Title, true)
	}
	text := "Removed from My List: " + msg.Title
	if msg.InList {
		text = "Added to My List: " + msg.Title
	}
	cmds := []tea.Cmd{m.setStatus(text, false)}
	if cmd := m.reloadRail(m.Session.RailQuery(domain.RailMyList, "")); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// setStatus shows a footer message and schedules its removal
func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	delay := 3 * time.Second
	if isErr {
		delay = 5 * time.Second
	}
	m.statusID++
	return ClearStatusCmd(m.statusID, delay)
}

// === Views and rails ===

// setView switches the page and starts its loads
func (m *Model) setView(v View) tea.Cmd {
	if v == m.Page {
		return nil
	}
	m.Page = v
	m.Tabs.SetActive(int(v))
	m.focus = 0
	cmds := m.loadView(v)
	m.updateLayout()
	return tea.Batch(cmds...)
}

// loadView creates the rails of v, restores cached contents and revalidates
// every rail.
func (m *Model) loadView(v View) []tea.Cmd {
	var cmds []tea.Cmd
	defs := railsFor(v)
	for i, q := range m.queriesFor(v) {
		m.ensureRail(q, m.railTitle(defs[i]))
		cmds = append(cmds, m.reloadRail(q))
	}
	if v == ViewRandom && m.Random == nil {
		cmds = append(cmds, m.reroll())
	}
	m.syncFocus()
	m.syncPanel()
	return cmds
}

// ensureRail creates the rail for q on first use, restoring cached contents
func (m *Model) ensureRail(q domain.RailQuery, title string) *components.Rail {
	if rail, ok := m.Rails[q.Key()]; ok {
		return rail
	}
	rail := components.NewRail(q, title)
	rail.SetMarker(m.marker)
	rail.SetWidth(m.Width - m.panelWidth())
	if items, ok := m.Session.CachedRail(q); ok {
		rail.SetItems(items, true)
	}
	m.Rails[q.Key()] = rail
	return rail
}

// reroll drops the current pick and requests a new one
func (m *Model) reroll() tea.Cmd {
	m.Random = nil
	m.RandomErr = nil
	return RandomCmd(m.Session, m.Session.BeginRandom())
}

// reloadRail supersedes any load of q and starts a new one
func (m *Model) reloadRail(q domain.RailQuery) tea.Cmd {
	if rail, ok := m.Rails[q.Key()]; ok {
		rail.SetLoading()
	}
	load := m.Session.BeginRail(q)
	return LoadRailCmd(m.Session, load)
}

// currentRails returns the rails of the current view in display order
func (m Model) currentRails() []*components.Rail {
	queries := m.queriesFor(m.Page)
	rails := make([]*components.Rail, 0, len(queries))
	for _, q := range queries {
		if rail, ok := m.Rails[q.Key()]; ok {
			rails = append(rails, rail)
		}
	}
	return rails
}

// focusedRail returns the rail with keyboard focus
func (m Model) focusedRail() *components.Rail {
	rails := m.currentRails()
	if m.focus < 0 || m.focus >= len(rails) {
		return nil
	}
	return rails[m.focus]
}

// activeItem returns the item under the cursor on the current page
func (m Model) activeItem() (domain.MediaSummary, bool) {
	if m.Page == ViewRandom {
		if m.Random == nil {
			return domain.MediaSummary{}, false
		}
		return *m.Random, true
	}
	if rail := m.focusedRail(); rail != nil {
		return rail.Active()
	}
	return domain.MediaSummary{}, false
}

func (m *Model) syncFocus() {
	rails := m.currentRails()
	if m.focus >= len(rails) {
		m.focus = len(rails) - 1
	}
	if m.focus < 0 {
		m.focus = 0
	}
	for i, rail := range rails {
		rail.SetFocused(i == m.focus)
	}
	m.Panel.SetActive(m.focus == 0)
}

// syncPanel mirrors the active item of the first rail into the side panel
func (m *Model) syncPanel() {
	if !m.Page.hasPanel() {
		return
	}
	rails := m.currentRails()
	if len(rails) == 0 {
		m.Panel.SetItem(nil)
		return
	}
	item, ok := rails[0].Active()
	if !ok {
		m.Panel.SetItem(nil)
		return
	}
	m.Panel.SetItem(&item)
}

// marker renders the membership marker for ref
func (m Model) marker(ref domain.MediaRef) string {
	return styles.RenderMembership(m.Session.IsInList(ref), m.Session.Membership().IsPending(ref))
}

// === Overlay, search and membership intents ===

// openDetail targets the overlay at item and starts its detail load
func (m *Model) openDetail(item domain.MediaSummary) tea.Cmd {
	m.overlayItem = item
	fx := m.Session.OpenDetail(item.Ref, item.Title)
	return FetchDetailCmd(m.Session, fx)
}

// closeAll closes the search surface, the filter and the overlay
func (m *Model) closeAll() {
	if m.Search.IsVisible() {
		m.Search.Hide()
	}
	m.Filter.Hide()
	m.Session.DismissSearch()
	m.Session.CloseOverlay()
}

// openSearch shows the search modal
func (m *Model) openSearch() tea.Cmd {
	m.Session.OpenSearch()
	m.Search.Show()
	m.refreshSearch()
	return m.Search.Init()
}

// refreshSearch copies the coordinator snapshot into the modal
func (m *Model) refreshSearch() {
	st := m.Session.SearchState()
	m.Search.SetState(st, m.Session.LocalMatches(st.Query, 5))
}

// openFilter shows the discover filter of the current page, loading its
// genres on first use
func (m *Model) openFilter() tea.Cmd {
	typ, ok := m.Page.discoverType()
	if !ok {
		return nil
	}
	genres, loaded := m.genres[typ]
	m.Filter.Show(typ, m.filters[typ], genres)
	if loaded {
		return nil
	}
	return GenresCmd(m.Session, typ)
}

// applyFilter narrows the discover rail of typ and loads it
func (m *Model) applyFilter(f domain.Filter) tea.Cmd {
	typ := f.Type
	m.filters[typ] = f
	q := m.Session.DiscoverQuery(typ, f)
	m.ensureRail(q, m.discoverTitle(typ))
	m.syncFocus()
	return m.reloadRail(q)
}

// discoverTitle names the discover rail of typ after its filter
func (m Model) discoverTitle(typ domain.MediaType) string {
	f := m.filters[typ]
	title := domain.RailDiscover.Title()
	if f.Genre > 0 {
		name := domain.GenreName(m.genres[typ], f.Genre)
		if name == "" {
			name = "genre " + strconv.Itoa(f.Genre)
		}
		title += " · " + name
	}
	if f.Year > 0 {
		title += " · " + strconv.Itoa(f.Year)
	}
	return title
}

// railTitle returns the heading of a rail on its page
func (m Model) railTitle(def railDef) string {
	if def.rail == domain.RailDiscover {
		return m.discoverTitle(def.typ)
	}
	return def.title
}

// toggle flips membership of ref optimistically and commits in the background
func (m *Model) toggle(entry domain.ListEntry) tea.Cmd {
	mut, err := m.Session.BeginToggle(entry.Ref, entry)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyPending) {
			return m.setStatus("Still saving "+entry.Title+"…", false)
		}
		return m.setStatus(err.Error(), true)
	}
	m.syncPanel()
	return CommitToggleCmd(m.Session, mut)
}

// overlayEntry returns the list entry for the overlay target
func (m Model) overlayEntry() domain.ListEntry {
	st := m.Session.Overlay()
	if st.Detail != nil {
		return st.Detail.ListEntry()
	}
	if m.overlayItem.Ref == st.Target {
		return m.overlayItem.ListEntry()
	}
	return domain.ListEntry{Ref: st.Target, Title: st.Title}
}

// watch opens the watch destination for ref
func (m Model) watch(ref domain.MediaRef, title string) tea.Cmd {
	return OpenWatchCmd(m.Launcher, m.Session.WatchURL(ref), title)
}
