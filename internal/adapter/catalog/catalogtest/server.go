// Package catalogtest provides an in-memory catalog API for tests.
package catalogtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Item is a catalog entry served by the fake
type Item struct {
	ID        int64
	Type      string
	Title     string
	Year      string
	Overview  string
	Genres    []string
	GenreIDs  []int // Matched by discover and assistant search
	PosterURL string
	Vote      float64
	Progress  int
	Trailer   string // YouTube key, empty for none
}

// Genre is a genre served by /api/genres/{type}
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// AssistantRequest is a decoded POST /api/assistant/search body
type AssistantRequest struct {
	Query     string `json:"query"`
	MediaType string `json:"media_type"`
	Year      *int   `json:"year"`
	GenreID   *int   `json:"genre_id"`
	Lang      string `json:"lang"`
	Limit     int    `json:"limit"`
}

// Server is a fake catalog API backed by maps
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	items     map[string]Item
	rails     map[string][]string
	top       map[string][]string
	genres    map[string][]Genre
	myList    []string
	random    string
	failures  map[string]int
	hooks     map[string]func(*http.Request)
	counts    map[string]int
	params    map[string]url.Values
	queries   []string
	assistant []AssistantRequest
}

// NewServer starts a fake catalog
func NewServer() *Server {
	s := &Server{
		items:    make(map[string]Item),
		rails:    make(map[string][]string),
		top:      make(map[string][]string),
		genres:   make(map[string][]Genre),
		failures: make(map[string]int),
		hooks:    make(map[string]func(*http.Request)),
		counts:   make(map[string]int),
		params:   make(map[string]url.Values),
	}

	r := chi.NewRouter()
	r.Use(s.track)
	r.Route("/api", func(r chi.Router) {
		r.Route("/tmdb", func(r chi.Router) {
			r.Get("/details/{id:[0-9]+}", s.getDetails)
			r.Get("/trailer/{id:[0-9]+}", s.getTrailer)
			r.Get("/search", s.getSearch)
		})
		r.Get("/genres/{type}", s.getGenres)
		r.Get("/movies/discover", s.discover("movie"))
		r.Get("/tv/discover", s.discover("tv"))
		r.Get("/movies/top", s.getTop("movie"))
		r.Get("/tv/top", s.getTop("tv"))
		r.Post("/assistant/search", s.postAssistant)
		r.Get("/random", s.getRandom)
		r.Get("/my_list", s.getMyList)
		r.Post("/my_list/add", s.postAdd)
		r.Post("/my_list/remove", s.postRemove)
		r.Get("/{rail}", s.getRail)
	})

	s.Server = httptest.NewServer(r)
	return s
}

func key(typ string, id int64) string {
	return typ + ":" + strconv.FormatInt(id, 10)
}

// AddItem registers an item
func (s *Server) AddItem(it Item) {
	if it.Type == "" {
		it.Type = "movie"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key(it.Type, it.ID)] = it
}

// SetRail sets the items of a rail by "type:id" keys
func (s *Server) SetRail(rail string, keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rails[rail] = keys
}

// SetTop sets the top-rated list of a media type by "type:id" keys
func (s *Server) SetTop(typ string, keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.top[typ] = keys
}

// SetGenres sets the genres served for a media type
func (s *Server) SetGenres(typ string, genres ...Genre) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genres[typ] = genres
}

// SetMyList replaces the watch-list contents
func (s *Server) SetMyList(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.myList = append([]string(nil), keys...)
}

// MyList returns the watch-list contents
func (s *Server) MyList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.myList...)
}

// SetRandom sets the item returned by /api/random
func (s *Server) SetRandom(k string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.random = k
}

// FailPath makes requests whose path starts with prefix answer with status
func (s *Server) FailPath(prefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[prefix] = status
}

// OnRequest runs fn before requests whose path starts with prefix are served.
// Tests use it to block a response until they release it.
func (s *Server) OnRequest(prefix string, fn func(*http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[prefix] = fn
}

// Count returns how many requests hit paths starting with prefix
func (s *Server) Count(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for p, c := range s.counts {
		if strings.HasPrefix(p, prefix) {
			n += c
		}
	}
	return n
}

// LastQuery returns the query parameters of the latest request to path
func (s *Server) LastQuery(path string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params[path]
}

// AssistantRequests returns every assistant search body received, in order
func (s *Server) AssistantRequests() []AssistantRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AssistantRequest(nil), s.assistant...)
}

// SearchQueries returns every q parameter received, in order
func (s *Server) SearchQueries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.counts[r.URL.Path]++
		s.params[r.URL.Path] = r.URL.Query()
		if r.URL.Path == "/api/tmdb/search" {
			s.queries = append(s.queries, r.URL.Query().Get("q"))
		}
		var hook func(*http.Request)
		status := 0
		for prefix, fn := range s.hooks {
			if strings.HasPrefix(r.URL.Path, prefix) {
				hook = fn
			}
		}
		for prefix, code := range s.failures {
			if strings.HasPrefix(r.URL.Path, prefix) {
				status = code
			}
		}
		s.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		if status != 0 {
			writeJSON(w, status, map[string]any{"error": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func poster(it Item) any {
	if it.PosterURL == "" {
		return nil
	}
	return it.PosterURL
}

func card(it Item) map[string]any {
	return map[string]any{
		"tmdb_id":      it.ID,
		"media_type":   it.Type,
		"title":        it.Title,
		"year":         it.Year,
		"poster_url":   poster(it),
		"vote_average": it.Vote,
		"overview":     it.Overview,
		"progress":     it.Progress,
	}
}

func (s *Server) lookup(r *http.Request) (Item, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return Item{}, false
	}
	typ := r.URL.Query().Get("type")
	if typ != "tv" {
		typ = "movie"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[key(typ, id)]
	return it, ok
}

func (s *Server) getDetails(w http.ResponseWriter, r *http.Request) {
	it, ok := s.lookup(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	date := it.Year
	if date != "" {
		date += "-01-01"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tmdb_id":      it.ID,
		"media_type":   it.Type,
		"title":        it.Title,
		"overview":     it.Overview,
		"genres":       it.Genres,
		"poster_url":   poster(it),
		"release_date": date,
	})
}

func (s *Server) getTrailer(w http.ResponseWriter, r *http.Request) {
	it, ok := s.lookup(r)
	if !ok || it.Trailer == "" {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "no trailer"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": it.Trailer, "type": "Trailer"})
}

func (s *Server) getSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	s.mu.Lock()
	results := []map[string]any{}
	for _, it := range s.items {
		if q != "" && strings.Contains(strings.ToLower(it.Title), q) {
			results = append(results, card(it))
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) cards(keys []string) []map[string]any {
	out := []map[string]any{}
	for _, k := range keys {
		if it, ok := s.items[k]; ok {
			out = append(out, card(it))
		}
	}
	return out
}

func (s *Server) getRail(w http.ResponseWriter, r *http.Request) {
	rail := chi.URLParam(r, "rail")
	s.mu.Lock()
	keys, ok := s.rails[rail]
	var items []map[string]any
	if ok {
		items = s.cards(keys)
		if typ := r.URL.Query().Get("type"); typ != "" {
			filtered := items[:0]
			for _, c := range items {
				if c["media_type"] == typ {
					filtered = append(filtered, c)
				}
			}
			items = filtered
		}
	}
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown rail"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) getMyList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := s.cards(s.myList)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) getRandom(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	it, ok := s.items[s.random]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "empty catalog"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         it.ID,
		"media_type": it.Type,
		"title":      it.Title,
		"date":       it.Year,
		"vote":       it.Vote,
		"overview":   it.Overview,
		"poster_url": poster(it),
	})
}

type mutation struct {
	TmdbID    int64  `json:"tmdb_id"`
	MediaType string `json:"media_type"`
	Title     string `json:"title"`
}

func decodeMutation(w http.ResponseWriter, r *http.Request) (string, bool) {
	var m mutation
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil || m.TmdbID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "tmdb_id required"})
		return "", false
	}
	if m.MediaType != "tv" {
		m.MediaType = "movie"
	}
	return key(m.MediaType, m.TmdbID), true
}

func (s *Server) postAdd(w http.ResponseWriter, r *http.Request) {
	k, ok := decodeMutation(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	present := false
	for _, existing := range s.myList {
		if existing == k {
			present = true
		}
	}
	if !present {
		s.myList = append([]string{k}, s.myList...)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) postRemove(w http.ResponseWriter, r *http.Request) {
	k, ok := decodeMutation(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	kept := s.myList[:0]
	for _, existing := range s.myList {
		if existing != k {
			kept = append(kept, existing)
		}
	}
	s.myList = kept
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) getGenres(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")
	if typ != "movie" && typ != "tv" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "media_type must be movie or tv"})
		return
	}
	s.mu.Lock()
	genres := append([]Genre{}, s.genres[typ]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"items": genres})
}

func hasGenre(it Item, id int) bool {
	for _, g := range it.GenreIDs {
		if g == id {
			return true
		}
	}
	return false
}

// matches reports whether it passes the type, genre and year filters; zero
// values match everything
func matches(it Item, typ string, genre int, year string) bool {
	if typ != "" && it.Type != typ {
		return false
	}
	if genre > 0 && !hasGenre(it, genre) {
		return false
	}
	return year == "" || it.Year == year
}

// sortedItems returns the items in id order so fake responses are stable
func (s *Server) sortedItems() []Item {
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) discover(typ string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		genre, _ := strconv.Atoi(strings.Split(q.Get("genres"), ",")[0])
		year := q.Get("year")

		s.mu.Lock()
		items := []map[string]any{}
		for _, it := range s.sortedItems() {
			if matches(it, typ, genre, year) {
				items = append(items, card(it))
			}
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "page": 1, "total_pages": 1})
	}
}

func (s *Server) getTop(typ string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 30
		if r.URL.Query().Get("kind") == "top60" {
			limit = 60
		}
		s.mu.Lock()
		items := s.cards(s.top[typ])
		s.mu.Unlock()
		if len(items) > limit {
			items = items[:limit]
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

func (s *Server) postAssistant(w http.ResponseWriter, r *http.Request) {
	var req AssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "query required"})
		return
	}

	typ := req.MediaType
	if typ == "multi" {
		typ = ""
	}
	genre, year := 0, ""
	if req.GenreID != nil {
		genre = *req.GenreID
	}
	if req.Year != nil {
		year = strconv.Itoa(*req.Year)
	}
	text := strings.ToLower(strings.TrimSpace(req.Query))

	s.mu.Lock()
	s.assistant = append(s.assistant, req)
	items := []map[string]any{}
	for _, it := range s.sortedItems() {
		if strings.Contains(strings.ToLower(it.Title), text) && matches(it, typ, genre, year) {
			items = append(items, card(it))
		}
	}
	s.mu.Unlock()
	if req.Limit > 0 && len(items) > req.Limit {
		items = items[:req.Limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
