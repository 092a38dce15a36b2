package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/membership"
	"github.com/mmcdole/reel/internal/overlay"
	"github.com/mmcdole/reel/internal/search"
	"github.com/mmcdole/reel/internal/session"
)

// Launcher opens external destinations
type Launcher interface {
	OpenWatch(url string) error
	PlayTrailer(url string) error
}

// Command factories for async operations. Every fetch goes through the
// session, which owns cancellation and the staleness guard.

// LoadRailCmd performs a rail load
func LoadRailCmd(s *session.Controller, load session.RailLoad) tea.Cmd {
	return func() tea.Msg {
		items, err := s.FetchRail(load)
		return RailLoadedMsg{Load: load, Items: items, Err: err}
	}
}

// FetchDetailCmd loads the overlay detail
func FetchDetailCmd(s *session.Controller, fx overlay.FetchDetail) tea.Cmd {
	return func() tea.Msg {
		detail, err := s.FetchDetail(fx)
		return DetailLoadedMsg{Effect: fx, Detail: detail, Err: err}
	}
}

// FetchTrailerCmd looks up the overlay trailer
func FetchTrailerCmd(s *session.Controller, fx overlay.FetchTrailer) tea.Cmd {
	return func() tea.Msg {
		trailer, err := s.FetchTrailer(fx)
		return TrailerLoadedMsg{Effect: fx, Trailer: trailer, Err: err}
	}
}

// SearchDebounceCmd waits out the debounce window of a schedule
func SearchDebounceCmd(sched search.Schedule) tea.Cmd {
	return tea.Tick(sched.Delay, func(time.Time) tea.Msg {
		return SearchTickMsg{Gen: sched.Gen}
	})
}

// RunSearchCmd performs a catalog search
func RunSearchCmd(s *session.Controller, q search.Query) tea.Cmd {
	return func() tea.Msg {
		results, err := s.RunSearch(q)
		return SearchResultsMsg{Query: q, Results: results, Err: err}
	}
}

// CommitToggleCmd sends an optimistic membership change to the server
func CommitToggleCmd(s *session.Controller, m *membership.Mutation) tea.Cmd {
	return func() tea.Msg {
		inList, err := s.CommitToggle(m)
		return ToggleResultMsg{Ref: m.Ref, Title: m.Entry.Title, InList: inList, Err: err}
	}
}

// RandomCmd fetches a random pick
func RandomCmd(s *session.Controller, load session.RandomLoad) tea.Cmd {
	return func() tea.Msg {
		pick, err := s.FetchRandom(load)
		return RandomLoadedMsg{Load: load, Pick: pick, Err: err}
	}
}

// GenresCmd loads the discover genres of a media type
func GenresCmd(s *session.Controller, typ domain.MediaType) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		genres, err := s.Genres(ctx, typ)
		return GenresLoadedMsg{Type: typ, Genres: genres, Err: err}
	}
}

// OpenWatchCmd opens the watch destination
func OpenWatchCmd(l Launcher, url, title string) tea.Cmd {
	return func() tea.Msg {
		if err := l.OpenWatch(url); err != nil {
			return ErrMsg{Err: err, Context: "opening " + title}
		}
		return StatusMsg{Message: "Opened: " + title}
	}
}

// PlayTrailerCmd starts trailer playback
func PlayTrailerCmd(l Launcher, url string) tea.Cmd {
	return func() tea.Msg {
		if err := l.PlayTrailer(url); err != nil {
			return ErrMsg{Err: err, Context: "playing trailer"}
		}
		return StatusMsg{Message: "Trailer launched"}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(id int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ClearStatusMsg{ID: id}
	})
}
