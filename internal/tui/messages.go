package tui

import (
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/overlay"
	"github.com/mmcdole/reel/internal/search"
	"github.com/mmcdole/reel/internal/session"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// RailLoadedMsg carries the result of a rail load
type RailLoadedMsg struct {
	Load  session.RailLoad
	Items []domain.MediaSummary
	Err   error
}

// DetailLoadedMsg carries the result of an overlay detail fetch
type DetailLoadedMsg struct {
	Effect overlay.FetchDetail
	Detail *domain.MediaDetail
	Err    error
}

// TrailerLoadedMsg carries the result of a trailer lookup
type TrailerLoadedMsg struct {
	Effect  overlay.FetchTrailer
	Trailer *domain.TrailerRef
	Err     error
}

// SearchTickMsg fires when the debounce for Gen elapses
type SearchTickMsg struct {
	Gen uint64
}

// SearchResultsMsg carries the result of a catalog search
type SearchResultsMsg struct {
	Query   search.Query
	Results []domain.MediaSummary
	Err     error
}

// ToggleResultMsg reports the server's answer to a membership change
type ToggleResultMsg struct {
	Ref    domain.MediaRef
	Title  string
	InList bool
	Err    error
}

// RandomLoadedMsg carries a random pick
type RandomLoadedMsg struct {
	Load session.RandomLoad
	Pick *domain.MediaSummary
	Err  error
}

// GenresLoadedMsg carries the discover genres of a media type
type GenresLoadedMsg struct {
	Type   domain.MediaType
	Genres []domain.Genre
	Err    error
}

// StatusMsg displays a status message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status message set with the same ID
type ClearStatusMsg struct {
	ID int
}

// TickMsg advances the spinner
type TickMsg struct{}
