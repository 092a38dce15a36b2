package domain

import (
	"strconv"
	"strings"
)

// Rail names a catalog collection served by the remote API
type Rail string

const (
	RailRecommendations  Rail = "recommendations"
	RailTrending         Rail = "trending"
	RailContinueWatching Rail = "continue_watching"
	RailReleases         Rail = "releases"
	RailMyList           Rail = "my_list"
	RailTop              Rail = "top"
	RailDiscover         Rail = "discover"
)

// AllRails lists every rail in display order
var AllRails = []Rail{
	RailReleases,
	RailRecommendations,
	RailTrending,
	RailTop,
	RailDiscover,
	RailContinueWatching,
	RailMyList,
}

// Top list sizes served by the catalog
const (
	TopKind30 = "top30"
	TopKind60 = "top60"
)

// Title returns the heading shown above the rail
func (r Rail) Title() string {
	switch r {
	case RailRecommendations:
		return "Recommended"
	case RailTrending:
		return "Trending"
	case RailContinueWatching:
		return "Continue Watching"
	case RailReleases:
		return "New Releases"
	case RailMyList:
		return "My List"
	case RailTop:
		return "Top Rated"
	case RailDiscover:
		return "Discover"
	default:
		return string(r)
	}
}

// Typed reports whether the rail is served per media type and needs one
func (r Rail) Typed() bool {
	return r == RailTop || r == RailDiscover
}

// ParseRail converts a CLI value to a Rail
func ParseRail(s string) (Rail, bool) {
	for _, r := range AllRails {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// RailQuery describes one rail load
type RailQuery struct {
	Rail  Rail
	Limit int
	Type  MediaType // recommendations, top and discover; empty for all types
	Kind  string    // releases media type, or top list size
	Genre int       // discover only, 0 for any
	Year  int       // discover only, 0 for any
}

// Key identifies the query for sequencing and caching, e.g. "recommendations:tv:20"
// or "discover:movie:g18:y2020:20"
func (q RailQuery) Key() string {
	var b strings.Builder
	b.WriteString(string(q.Rail))
	if q.Type != "" {
		b.WriteString(":" + string(q.Type))
	}
	if q.Kind != "" {
		b.WriteString(":" + q.Kind)
	}
	if q.Genre > 0 {
		b.WriteString(":g" + strconv.Itoa(q.Genre))
	}
	if q.Year > 0 {
		b.WriteString(":y" + strconv.Itoa(q.Year))
	}
	if q.Limit > 0 {
		b.WriteString(":" + strconv.Itoa(q.Limit))
	}
	return b.String()
}

// Filter narrows discover rails and searches by type, genre and year.
// The zero value matches everything.
type Filter struct {
	Type  MediaType
	Genre int
	Year  int
}

// IsZero reports whether the filter matches everything
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Genre is a catalog genre offered by discover filters
type Genre struct {
	ID   int
	Name string
}

// GenreName returns the name of id in genres, or "" when absent
func GenreName(genres []Genre, id int) string {
	for _, g := range genres {
		if g.ID == id {
			return g.Name
		}
	}
	return ""
}
