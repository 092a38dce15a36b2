package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// SummaryDTO is a catalog card as returned by search and rail endpoints
type SummaryDTO struct {
	TmdbID      int64     `json:"tmdb_id"`
	ID          int64     `json:"id,omitempty"` // /api/random uses "id"
	MediaType   string    `json:"media_type"`
	Title       string    `json:"title"`
	Year        yearField `json:"year,omitempty"`
	ReleaseDate string    `json:"release_date,omitempty"`
	Date        string    `json:"date,omitempty"` // /api/random
	PosterURL   *string   `json:"poster_url"`
	VoteAverage float64   `json:"vote_average,omitempty"`
	Vote        float64   `json:"vote,omitempty"` // /api/random
	Overview    string    `json:"overview,omitempty"`
	Progress    int       `json:"progress,omitempty"`
}

// ItemsResponse wraps rail payloads
type ItemsResponse struct {
	Items []SummaryDTO `json:"items"`
}

// SearchResponse wraps search payloads
type SearchResponse struct {
	Results []SummaryDTO `json:"results"`
}

// GenreDTO is one entry of /api/genres/{type}
type GenreDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenresResponse wraps genre payloads
type GenresResponse struct {
	Items []GenreDTO `json:"items"`
}

// AssistantSearchRequest is the body of POST /api/assistant/search
type AssistantSearchRequest struct {
	Query     string `json:"query"`
	MediaType string `json:"media_type"` // multi, movie or tv
	Year      *int   `json:"year"`
	GenreID   *int   `json:"genre_id"`
	Lang      string `json:"lang"`
	Limit     int    `json:"limit"`
}

// DetailDTO is the payload of /api/tmdb/details/{id}
type DetailDTO struct {
	TmdbID      int64    `json:"tmdb_id"`
	MediaType   string   `json:"media_type"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	Genres      []string `json:"genres"`
	PosterURL   *string  `json:"poster_url"`
	ReleaseDate *string  `json:"release_date"`
}

// TrailerDTO is the payload of /api/tmdb/trailer/{id}
type TrailerDTO struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// AddRequest is the body of POST /api/my_list/add
type AddRequest struct {
	TmdbID    int64   `json:"tmdb_id"`
	MediaType string  `json:"media_type"`
	Title     string  `json:"title"`
	PosterURL *string `json:"poster_url"`
}

// RemoveRequest is the body of POST /api/my_list/remove
type RemoveRequest struct {
	TmdbID    int64  `json:"tmdb_id"`
	MediaType string `json:"media_type"`
}

// MutationResponse is returned by list mutations
type MutationResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// errorBody is the error envelope used by every endpoint
type errorBody struct {
	Error string `json:"error"`
}

// yearField accepts "2020", "", null or 2020
type yearField int

func (y *yearField) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*y = 0
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*y = yearField(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*y = yearField(parseYear(s))
	return nil
}

// parseYear reads the leading four digits of a date or year string
func parseYear(s string) int {
	s = strings.TrimSpace(s)
	if len(s) > 4 {
		s = s[:4]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
