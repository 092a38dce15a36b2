package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MediaType distinguishes catalog content types
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// ParseMediaType converts a wire or CLI value to a MediaType
func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(strings.ToLower(strings.TrimSpace(s))) {
	case MediaTypeMovie:
		return MediaTypeMovie, nil
	case MediaTypeTV:
		return MediaTypeTV, nil
	default:
		return "", fmt.Errorf("unknown media type %q", s)
	}
}

// MediaTypeOrDefault maps unknown values to movie, the catalog's default
func MediaTypeOrDefault(s string) MediaType {
	t, err := ParseMediaType(s)
	if err != nil {
		return MediaTypeMovie
	}
	return t
}

// Label returns a short human label for the type
func (t MediaType) Label() string {
	if t == MediaTypeTV {
		return "Series"
	}
	return "Movie"
}

// MediaRef identifies a catalog item. Two refs are equal iff both fields match,
// so MediaRef can be used directly as a map key.
type MediaRef struct {
	ID   int64
	Type MediaType
}

// Key returns a stable string form, e.g. "movie:42"
func (r MediaRef) Key() string {
	return string(r.Type) + ":" + strconv.FormatInt(r.ID, 10)
}

// String implements fmt.Stringer
func (r MediaRef) String() string {
	return r.Key()
}

// IsZero reports whether the ref is unset
func (r MediaRef) IsZero() bool {
	return r.ID == 0 && r.Type == ""
}

// WatchPath returns the opaque watch destination for the item
func (r MediaRef) WatchPath() string {
	return "/watch/" + string(r.Type) + "/" + strconv.FormatInt(r.ID, 10)
}

// ParseMediaRef parses "tv/7" or "tv:7"
func ParseMediaRef(s string) (MediaRef, error) {
	sep := strings.IndexAny(s, "/:")
	if sep < 0 {
		return MediaRef{}, fmt.Errorf("invalid media ref %q: expected <type>/<id>", s)
	}
	t, err := ParseMediaType(s[:sep])
	if err != nil {
		return MediaRef{}, err
	}
	id, err := strconv.ParseInt(s[sep+1:], 10, 64)
	if err != nil || id <= 0 {
		return MediaRef{}, fmt.Errorf("invalid media id in %q", s)
	}
	return MediaRef{ID: id, Type: t}, nil
}

// MediaSummary is a catalog item as shown in rails and search results.
// Summaries are never mutated; a refetch replaces them wholesale.
type MediaSummary struct {
	Ref       MediaRef
	Title     string
	Year      int     // Release year, 0 when unknown
	PosterURL string  // Empty when the catalog has no poster
	Rating    float64 // Average vote, 0-10
	Overview  string
	Progress  int // Watch progress 0-100 (continue watching only)
}

// YearString returns the year or an empty string when unknown
func (s MediaSummary) YearString() string {
	if s.Year == 0 {
		return ""
	}
	return strconv.Itoa(s.Year)
}

// ListEntry returns the payload needed to add the summary to My List
func (s MediaSummary) ListEntry() ListEntry {
	return ListEntry{Ref: s.Ref, Title: s.Title, PosterURL: s.PosterURL}
}

// MediaDetail is the full record shown in the detail overlay
type MediaDetail struct {
	Ref       MediaRef
	Title     string
	Overview  string
	Genres    []string
	PosterURL string
	Year      int
}

// MetaLine renders the year and genres, e.g. "2020 · Drama, Comedy"
func (d MediaDetail) MetaLine() string {
	var parts []string
	if d.Year > 0 {
		parts = append(parts, strconv.Itoa(d.Year))
	}
	if len(d.Genres) > 0 {
		parts = append(parts, strings.Join(d.Genres, ", "))
	}
	return strings.Join(parts, " · ")
}

// ListEntry returns the payload needed to add the detail to My List
func (d MediaDetail) ListEntry() ListEntry {
	return ListEntry{Ref: d.Ref, Title: d.Title, PosterURL: d.PosterURL}
}

// TrailerRef points at an externally hosted trailer
type TrailerRef struct {
	ProviderKey string
}

// WatchURL returns the YouTube URL for the trailer
func (t TrailerRef) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + t.ProviderKey
}

// ListEntry is the payload of an add-to-list mutation
type ListEntry struct {
	Ref       MediaRef
	Title     string
	PosterURL string
}
