package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/reel/internal/adapter/catalog/catalogtest"
	"github.com/mmcdole/reel/internal/domain"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(Options{BaseURL: baseURL, Language: "ru-ru", Timeout: 2 * time.Second}, nil)
}

func fixture(t *testing.T) *catalogtest.Server {
	t.Helper()
	srv := catalogtest.NewServer()
	t.Cleanup(srv.Close)

	srv.AddItem(catalogtest.Item{ID: 42, Type: "movie", Title: "Arrival", Year: "2016", Genres: []string{"драма", "TV Movie"}, GenreIDs: []int{18, 10770}, Trailer: "tFMo3UJ4B4g", Vote: 7.9})
	srv.AddItem(catalogtest.Item{ID: 7, Type: "tv", Title: "Dark", Year: "2017"})
	return srv
}

func TestLanguageIsCanonicalised(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://example.invalid/", Language: "ru-ru"}, nil)
	if c.Language() != "ru-RU" {
		t.Fatalf("expected ru-RU, got %q", c.Language())
	}
	if c.BaseURL() != "http://example.invalid" {
		t.Fatalf("expected trailing slash trimmed, got %q", c.BaseURL())
	}

	c = NewClient(Options{BaseURL: "http://example.invalid", Language: "not a tag!"}, nil)
	if c.Language() != defaultLanguage {
		t.Fatalf("expected fallback language, got %q", c.Language())
	}
}

func TestDetails(t *testing.T) {
	srv := fixture(t)
	c := newTestClient(t, srv.URL)

	ref := domain.MediaRef{ID: 42, Type: domain.MediaTypeMovie}
	d, err := c.Details(context.Background(), ref)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if d.Ref != ref || d.Title != "Arrival" || d.Year != 2016 {
		t.Fatalf("unexpected detail: %+v", d)
	}
	// Genre names are shown as the catalog spells them
	if len(d.Genres) != 2 || d.Genres[0] != "драма" || d.Genres[1] != "TV Movie" {
		t.Fatalf("genres rewritten: %v", d.Genres)
	}
	if d.MetaLine() != "2016 · драма, TV Movie" {
		t.Fatalf("unexpected meta line %q", d.MetaLine())
	}
}

func TestDetailsHTTPStatus(t *testing.T) {
	srv := fixture(t)
	c := newTestClient(t, srv.URL)

	_, err := c.Details(context.Background(), domain.MediaRef{ID: 999, Type: domain.MediaTypeMovie})
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Kind != domain.FetchHTTPStatus || fe.StatusCode != http.StatusNotFound || fe.Message != "not found" {
		t.Fatalf("unexpected error %+v", fe)
	}
}

func TestTrailer(t *testing.T) {
	srv := fixture(t)
	c := newTestClient(t, srv.URL)

	tr, err := c.Trailer(context.Background(), domain.MediaRef{ID: 42, Type: domain.MediaTypeMovie})
	if err != nil {
		t.Fatalf("Trailer: %v", err)
	}
	if tr.ProviderKey != "tFMo3UJ4B4g" {
		t.Fatalf("unexpected key %q", tr.ProviderKey)
	}

	_, err = c.Trailer(context.Background(), domain.MediaRef{ID: 7, Type: domain.MediaTypeTV})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTrailerWithoutKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"teaser"}`))
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL).Trailer(context.Background(), domain.MediaRef{ID: 1, Type: domain.MediaTypeMovie})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDecodeFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [`))
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL).Search(context.Background(), "dune")
	var fe *domain.FetchError
	if !errors.As(err, &fe) || fe.Kind != domain.FetchDecode {
		t.Fatalf("expected decode failure, got %v", err)
	}
}

func TestNetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := newTestClient(t, url).Search(context.Background(), "dune")
	var fe *domain.FetchError
	if !errors.As(err, &fe) || fe.Kind != domain.FetchNetwork {
		t.Fatalf("expected network failure, got %v", err)
	}
}

func TestTimeoutIsNetworkFailure(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	c := NewClient(Options{BaseURL: ts.URL, Timeout: 50 * time.Millisecond}, nil)
	_, err := c.Search(context.Background(), "dune")
	var fe *domain.FetchError
	if !errors.As(err, &fe) || fe.Kind != domain.FetchNetwork {
		t.Fatalf("expected network failure on timeout, got %v", err)
	}
}

func TestCancelledRequest(t *testing.T) {
	srv := fixture(t)
	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Details(ctx, domain.MediaRef{ID: 42, Type: domain.MediaTypeMovie})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation to be visible through the error, got %v", err)
	}
}

func TestSearchAndRail(t *testing.T) {
	srv := fixture(t)
	srv.SetRail("trending", "movie:42", "tv:7")
	c := newTestClient(t, srv.URL)

	results, err := c.Search(context.Background(), "arr")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Ref.ID != 42 || results[0].Year != 2016 {
		t.Fatalf("unexpected results %+v", results)
	}

	items, err := c.Rail(context.Background(), domain.RailQuery{Rail: domain.RailTrending, Limit: 20})
	if err != nil {
		t.Fatalf("Rail: %v", err)
	}
	if len(items) != 2 || items[1].Ref != (domain.MediaRef{ID: 7, Type: domain.MediaTypeTV}) {
		t.Fatalf("unexpected rail %+v", items)
	}
	if srv.Count("/api/trending") != 1 {
		t.Fatal("expected one trending request")
	}
}

func TestTopAndDiscoverRails(t *testing.T) {
	srv := fixture(t)
	srv.AddItem(catalogtest.Item{ID: 43, Type: "movie", Title: "Sicario", Year: "2015", GenreIDs: []int{28}})
	srv.SetTop("movie", "movie:43", "movie:42")
	c := newTestClient(t, srv.URL)

	top, err := c.Rail(context.Background(), domain.RailQuery{Rail: domain.RailTop, Type: domain.MediaTypeMovie, Limit: 1})
	if err != nil {
		t.Fatalf("Rail(top): %v", err)
	}
	if len(top) != 1 || top[0].Title != "Sicario" {
		t.Fatalf("expected top list cut to the limit, got %+v", top)
	}
	if srv.Count("/api/movies/top") != 1 {
		t.Fatal("expected one /api/movies/top request")
	}

	q := domain.RailQuery{Rail: domain.RailDiscover, Type: domain.MediaTypeMovie, Genre: 18, Year: 2016}
	found, err := c.Rail(context.Background(), q)
	if err != nil {
		t.Fatalf("Rail(discover): %v", err)
	}
	if len(found) != 1 || found[0].Ref.ID != 42 {
		t.Fatalf("unexpected discover results %+v", found)
	}
	params := srv.LastQuery("/api/movies/discover")
	if params.Get("genres") != "18" || params.Get("year") != "2016" || params.Get("lang") != "ru-RU" {
		t.Fatalf("unexpected discover params %v", params)
	}

	tv, err := c.Rail(context.Background(), domain.RailQuery{Rail: domain.RailDiscover, Type: domain.MediaTypeTV})
	if err != nil {
		t.Fatalf("Rail(tv discover): %v", err)
	}
	if len(tv) != 1 || tv[0].Ref.Type != domain.MediaTypeTV {
		t.Fatalf("unexpected tv discover results %+v", tv)
	}
}

func TestGenres(t *testing.T) {
	srv := fixture(t)
	srv.SetGenres("tv", catalogtest.Genre{ID: 18, Name: "Драма"}, catalogtest.Genre{ID: 0, Name: "broken"})
	c := newTestClient(t, srv.URL)

	genres, err := c.Genres(context.Background(), domain.MediaTypeTV)
	if err != nil {
		t.Fatalf("Genres: %v", err)
	}
	if len(genres) != 1 || genres[0] != (domain.Genre{ID: 18, Name: "Драма"}) {
		t.Fatalf("unexpected genres %+v", genres)
	}
	if srv.Count("/api/genres/tv") != 1 {
		t.Fatal("expected one /api/genres/tv request")
	}
}

func TestSearchFiltered(t *testing.T) {
	srv := fixture(t)
	c := newTestClient(t, srv.URL)

	results, err := c.SearchFiltered(context.Background(), "arr", domain.Filter{Type: domain.MediaTypeMovie, Year: 2016})
	if err != nil {
		t.Fatalf("SearchFiltered: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Arrival" {
		t.Fatalf("unexpected results %+v", results)
	}

	body := srv.AssistantRequests()[0]
	if body.Query != "arr" || body.MediaType != "movie" || body.Year == nil || *body.Year != 2016 {
		t.Fatalf("unexpected request %+v", body)
	}
	if body.GenreID != nil || body.Limit != 24 || body.Lang != "ru-RU" {
		t.Fatalf("unexpected request %+v", body)
	}

	if _, err := c.SearchFiltered(context.Background(), "dark", domain.Filter{Genre: 18}); err != nil {
		t.Fatalf("SearchFiltered: %v", err)
	}
	if body := srv.AssistantRequests()[1]; body.MediaType != "multi" || body.GenreID == nil || *body.GenreID != 18 {
		t.Fatalf("unexpected request %+v", body)
	}
}

func TestRandom(t *testing.T) {
	srv := fixture(t)
	srv.SetRandom("movie:42")
	c := newTestClient(t, srv.URL)

	pick, err := c.Random(context.Background())
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if pick.Ref.ID != 42 || pick.Year != 2016 || pick.Rating != 7.9 {
		t.Fatalf("unexpected pick %+v", pick)
	}
}

func TestListMutations(t *testing.T) {
	srv := fixture(t)
	c := newTestClient(t, srv.URL)
	ref := domain.MediaRef{ID: 7, Type: domain.MediaTypeTV}

	if err := c.AddToList(context.Background(), domain.ListEntry{Ref: ref, Title: "Dark"}); err != nil {
		t.Fatalf("AddToList: %v", err)
	}
	if got := srv.MyList(); len(got) != 1 || got[0] != "tv:7" {
		t.Fatalf("unexpected list %v", got)
	}

	if err := c.RemoveFromList(context.Background(), ref); err != nil {
		t.Fatalf("RemoveFromList: %v", err)
	}
	if got := srv.MyList(); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestMutationNotOK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": false}`))
	}))
	defer ts.Close()

	err := newTestClient(t, ts.URL).RemoveFromList(context.Background(), domain.MediaRef{ID: 1, Type: domain.MediaTypeMovie})
	var fe *domain.FetchError
	if !errors.As(err, &fe) || fe.Message != "update not applied" {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"items": []}`))
	}))
	defer ts.Close()

	c := NewClient(Options{BaseURL: ts.URL, SessionID: "session-1"}, nil)
	if _, err := c.Rail(context.Background(), domain.RailQuery{Rail: domain.RailMyList}); err != nil {
		t.Fatalf("Rail: %v", err)
	}
	if got.Get("X-Request-ID") == "" || got.Get("X-Session-ID") != "session-1" || got.Get("Accept") != "application/json" {
		t.Fatalf("unexpected headers %v", got)
	}
}
