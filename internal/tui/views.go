package tui

import (
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// View identifies one of the top-level pages
type View int

const (
	ViewHome View = iota
	ViewSeries
	ViewMovies
	ViewMyList
	ViewRandom
)

var allViews = []View{ViewHome, ViewSeries, ViewMovies, ViewMyList, ViewRandom}

// Title returns the tab label of the view
func (v View) Title() string {
	switch v {
	case ViewHome:
		return "Home"
	case ViewSeries:
		return "Series"
	case ViewMovies:
		return "Movies"
	case ViewMyList:
		return "My List"
	case ViewRandom:
		return "Random"
	default:
		return "?"
	}
}

// ParseView maps a config name (home, series, movies, my_list, random) to a view
func ParseView(name string) (View, bool) {
	switch name {
	case "home", "":
		return ViewHome, true
	case "series":
		return ViewSeries, true
	case "movies":
		return ViewMovies, true
	case "my_list":
		return ViewMyList, true
	case "random":
		return ViewRandom, true
	default:
		return ViewHome, false
	}
}

// railDef names a rail shown on a view
type railDef struct {
	rail  domain.Rail
	typ   domain.MediaType
	title string
}

// railsFor lists the rails of a view from top to bottom. The first rail of
// Home drives the side panel.
func railsFor(v View) []railDef {
	switch v {
	case ViewHome:
		return []railDef{
			{rail: domain.RailReleases, typ: domain.MediaTypeMovie, title: "New Releases"},
			{rail: domain.RailRecommendations, title: domain.RailRecommendations.Title()},
			{rail: domain.RailTrending, title: domain.RailTrending.Title()},
			{rail: domain.RailContinueWatching, title: domain.RailContinueWatching.Title()},
		}
	case ViewSeries:
		return []railDef{
			{rail: domain.RailReleases, typ: domain.MediaTypeTV, title: "New Episodes"},
			{rail: domain.RailRecommendations, typ: domain.MediaTypeTV, title: "Series For You"},
			{rail: domain.RailTop, typ: domain.MediaTypeTV, title: "Top Rated Series"},
			{rail: domain.RailDiscover, typ: domain.MediaTypeTV},
		}
	case ViewMovies:
		return []railDef{
			{rail: domain.RailRecommendations, typ: domain.MediaTypeMovie, title: "Movies For You"},
			{rail: domain.RailTop, typ: domain.MediaTypeMovie, title: "Top Rated Movies"},
			{rail: domain.RailDiscover, typ: domain.MediaTypeMovie},
		}
	case ViewMyList:
		return []railDef{
			{rail: domain.RailContinueWatching, title: domain.RailContinueWatching.Title()},
			{rail: domain.RailMyList, title: domain.RailMyList.Title()},
		}
	default:
		return nil
	}
}

// hasPanel reports whether the view mirrors its first rail in a side panel
func (v View) hasPanel() bool {
	return v == ViewHome
}

// discoverType returns the media type of the view's discover rail
func (v View) discoverType() (domain.MediaType, bool) {
	for _, def := range railsFor(v) {
		if def.rail == domain.RailDiscover {
			return def.typ, true
		}
	}
	return "", false
}

// queriesFor resolves the rail queries of a view against the session and
// the discover filters
func (m Model) queriesFor(v View) []domain.RailQuery {
	defs := railsFor(v)
	out := make([]domain.RailQuery, len(defs))
	for i, def := range defs {
		if def.rail == domain.RailDiscover {
			out[i] = m.Session.DiscoverQuery(def.typ, m.filters[def.typ])
			continue
		}
		out[i] = m.Session.RailQuery(def.rail, def.typ)
	}
	return out
}

// RenderSpinner renders a loading spinner
func RenderSpinner(frame int) string {
	return styles.SpinnerStyle.Render(styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])
}
