package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/overlay"
	"github.com/mmcdole/reel/internal/tui/components"
)

// handleKeyMsg handles keyboard input. Modals see keys first: help, then
// search, then the filter, then the overlay.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.ShowHelp {
		m.ShowHelp = false
		return m, nil
	}

	if m.Search.IsVisible() {
		return m.handleSearchKey(msg)
	}

	if m.Filter.IsVisible() {
		return m.handleFilterKey(msg)
	}

	if m.Session.Overlay().IsOpen() {
		return m.handleOverlayKey(msg)
	}

	return m.handleBrowseKey(msg)
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var event components.SearchEvent
	m.Search, cmd, event = m.Search.Update(msg)

	switch event {
	case components.SearchDismissed:
		m.closeAll()
		return m, nil

	case components.SearchSelected:
		item, _ := m.Search.Selected()
		m.Search.Hide()
		m.Session.DismissSearch()
		return m, m.openDetail(item)

	case components.SearchChanged:
		sched, ok := m.Session.SearchInput(m.Search.Value())
		m.refreshSearch()
		if ok {
			m.lastSearch = sched
			return m, tea.Batch(cmd, SearchDebounceCmd(sched))
		}

	case components.SearchFilterChanged:
		sched, ok := m.Session.SetSearchFilter(domain.Filter{Type: m.Search.TypeFilter()})
		m.refreshSearch()
		if ok {
			m.lastSearch = sched
			return m, tea.Batch(cmd, SearchDebounceCmd(sched))
		}
	}
	return m, cmd
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var event components.FilterEvent
	m.Filter, cmd, event = m.Filter.Update(msg)

	if event == components.FilterApplied {
		f, _ := m.Filter.Value()
		return m, tea.Batch(cmd, m.applyFilter(f))
	}
	return m, cmd
}

func (m Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.Session.Overlay()

	switch {
	case key.Matches(msg, m.Keys.Escape):
		m.closeAll()
		return m, nil

	case key.Matches(msg, components.OverlayKeys.Close):
		m.Session.CloseOverlay()
		return m, nil

	case key.Matches(msg, m.Keys.Search):
		return m, m.openSearch()

	case key.Matches(msg, components.OverlayKeys.Watch):
		return m, m.watch(st.Target, st.Title)

	case key.Matches(msg, components.OverlayKeys.Trailer):
		if st.Trailer == overlay.TrailerPlaying {
			m.Session.StopTrailer()
			return m, nil
		}
		fx, ok := m.Session.RequestTrailer()
		if !ok {
			return m, nil
		}
		return m, FetchTrailerCmd(m.Session, fx)

	case key.Matches(msg, components.OverlayKeys.Toggle):
		return m, m.toggle(m.overlayEntry())
	}
	return m, nil
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Help):
		m.ShowHelp = true
		return m, nil

	case key.Matches(msg, m.Keys.Escape):
		m.closeAll()
		return m, nil

	case key.Matches(msg, m.Keys.Search):
		return m, m.openSearch()

	case key.Matches(msg, m.Keys.ViewHome):
		return m, m.setView(ViewHome)
	case key.Matches(msg, m.Keys.ViewSeries):
		return m, m.setView(ViewSeries)
	case key.Matches(msg, m.Keys.ViewMovies):
		return m, m.setView(ViewMovies)
	case key.Matches(msg, m.Keys.ViewList):
		return m, m.setView(ViewMyList)
	case key.Matches(msg, m.Keys.ViewPick):
		return m, m.setView(ViewRandom)

	case key.Matches(msg, m.Keys.NextView):
		return m, m.setView(allViews[(int(m.Page)+1)%len(allViews)])
	case key.Matches(msg, m.Keys.PrevView):
		return m, m.setView(allViews[(int(m.Page)+len(allViews)-1)%len(allViews)])

	case key.Matches(msg, m.Keys.Filter):
		return m, m.openFilter()

	case key.Matches(msg, m.Keys.Up):
		if m.focus > 0 {
			m.focus--
			m.syncFocus()
		}
		return m, nil

	case key.Matches(msg, m.Keys.Down):
		if m.focus < len(m.currentRails())-1 {
			m.focus++
			m.syncFocus()
		}
		return m, nil

	case key.Matches(msg, m.Keys.Left, m.Keys.Right, m.Keys.Home, m.Keys.End):
		m.moveSelection(msg)
		return m, nil

	case key.Matches(msg, m.Keys.Enter):
		if item, ok := m.activeItem(); ok {
			return m, m.openDetail(item)
		}
		return m, nil

	case key.Matches(msg, m.Keys.Toggle):
		if item, ok := m.activeItem(); ok {
			return m, m.toggle(item.ListEntry())
		}
		return m, nil

	case key.Matches(msg, m.Keys.Watch):
		if item, ok := m.activeItem(); ok {
			return m, m.watch(item.Ref, item.Title)
		}
		return m, nil

	case key.Matches(msg, m.Keys.Reroll):
		if m.Page == ViewRandom {
			return m, m.reroll()
		}
		return m, nil

	case key.Matches(msg, m.Keys.Refresh):
		return m, m.refreshView()
	}
	return m, nil
}

// moveSelection moves the cursor of the focused rail
func (m *Model) moveSelection(msg tea.KeyMsg) {
	rail := m.focusedRail()
	if rail == nil {
		return
	}
	sel := rail.Selection()
	switch {
	case key.Matches(msg, m.Keys.Left):
		sel.Prev()
	case key.Matches(msg, m.Keys.Right):
		sel.Next()
	case key.Matches(msg, m.Keys.Home):
		sel.Select(0)
	case key.Matches(msg, m.Keys.End):
		sel.Select(sel.Len() - 1)
	}
	m.syncPanel()
}

// refreshView reloads every rail of the current page
func (m *Model) refreshView() tea.Cmd {
	if m.Page == ViewRandom {
		return m.reroll()
	}
	var cmds []tea.Cmd
	for _, q := range m.queriesFor(m.Page) {
		cmds = append(cmds, m.reloadRail(q))
	}
	return tea.Batch(cmds...)
}
