package session

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"testing"

	"github.com/mmcdole/reel/internal/adapter"
	"github.com/mmcdole/reel/internal/adapter/catalog"
	"github.com/mmcdole/reel/internal/adapter/catalog/catalogtest"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/overlay"
	"github.com/mmcdole/reel/internal/search"
	"github.com/mmcdole/reel/internal/store"
)

var (
	movie42 = domain.MediaRef{ID: 42, Type: domain.MediaTypeMovie}
	tv7     = domain.MediaRef{ID: 7, Type: domain.MediaTypeTV}
)

// stubCatalog answers from maps and ignores cancellation unless asked
type stubCatalog struct {
	mu          sync.Mutex
	details     map[domain.MediaRef]*domain.MediaDetail
	honourCtx   bool
	detailCalls int
	genreCalls  int
}

func (s *stubCatalog) Details(ctx context.Context, ref domain.MediaRef) (*domain.MediaDetail, error) {
	s.mu.Lock()
	s.detailCalls++
	s.mu.Unlock()
	if s.honourCtx && ctx.Err() != nil {
		return nil, &domain.FetchError{Kind: domain.FetchNetwork, Err: ctx.Err()}
	}
	if d, ok := s.details[ref]; ok {
		return d, nil
	}
	return nil, &domain.FetchError{Kind: domain.FetchHTTPStatus, StatusCode: http.StatusNotFound}
}

func (s *stubCatalog) Trailer(ctx context.Context, ref domain.MediaRef) (*domain.TrailerRef, error) {
	return nil, domain.ErrNotFound
}

func (s *stubCatalog) Search(ctx context.Context, q string) ([]domain.MediaSummary, error) {
	return nil, nil
}

func (s *stubCatalog) SearchFiltered(ctx context.Context, q string, f domain.Filter) ([]domain.MediaSummary, error) {
	return nil, nil
}

func (s *stubCatalog) Genres(ctx context.Context, typ domain.MediaType) ([]domain.Genre, error) {
	s.mu.Lock()
	s.genreCalls++
	s.mu.Unlock()
	return []domain.Genre{{ID: 18, Name: "Drama"}}, nil
}

func (s *stubCatalog) Rail(ctx context.Context, q domain.RailQuery) ([]domain.MediaSummary, error) {
	return nil, nil
}

func (s *stubCatalog) Random(ctx context.Context) (*domain.MediaSummary, error) {
	return nil, domain.ErrNotFound
}

func (s *stubCatalog) AddToList(ctx context.Context, entry domain.ListEntry) error { return nil }

func (s *stubCatalog) RemoveFromList(ctx context.Context, ref domain.MediaRef) error { return nil }

func newStub() *stubCatalog {
	return &stubCatalog{details: map[domain.MediaRef]*domain.MediaDetail{
		movie42: {Ref: movie42, Title: "Arrival"},
		tv7:     {Ref: tv7, Title: "Dark"},
	}}
}

func newServerController(t *testing.T) (*Controller, *catalogtest.Server) {
	t.Helper()
	srv := catalogtest.NewServer()
	t.Cleanup(srv.Close)

	srv.AddItem(catalogtest.Item{ID: 42, Type: "movie", Title: "Arrival", Year: "2016", Trailer: "abc"})
	srv.AddItem(catalogtest.Item{ID: 7, Type: "tv", Title: "Dark", Year: "2017"})
	srv.AddItem(catalogtest.Item{ID: 8, Type: "movie", Title: "Arrival of the Train"})

	client := catalog.NewClient(catalog.Options{BaseURL: srv.URL}, adapter.NullLogger())
	rails, err := store.NewRailStore("", srv.URL)
	if err != nil {
		t.Fatalf("NewRailStore: %v", err)
	}
	c := New(client, rails, Options{BaseURL: srv.URL + "/", RankResults: true}, adapter.NullLogger())
	t.Cleanup(c.Teardown)
	return c, srv
}

func TestLateDetailNeverReplacesNewerTarget(t *testing.T) {
	orders := []struct {
		name      string
		lateFirst bool
	}{
		{"stale response arrives last", false},
		{"stale response arrives first", true},
	}
	for _, o := range orders {
		t.Run(o.name, func(t *testing.T) {
			c := New(newStub(), nil, Options{}, adapter.NullLogger())
			defer c.Teardown()

			first := c.OpenDetail(movie42, "Arrival")
			second := c.OpenDetail(tv7, "Dark")

			d1, err1 := c.FetchDetail(first)
			d2, err2 := c.FetchDetail(second)

			if o.lateFirst {
				if c.ApplyDetail(first, d1, err1) {
					t.Fatal("expected first response to be discarded")
				}
				c.ApplyDetail(second, d2, err2)
			} else {
				c.ApplyDetail(second, d2, err2)
				if c.ApplyDetail(first, d1, err1) {
					t.Fatal("expected first response to be discarded")
				}
			}

			s := c.Overlay()
			if s.Phase != overlay.Ready || s.Target != tv7 || s.Detail.Ref != tv7 {
				t.Fatalf("expected overlay on tv:7, got %+v", s)
			}
		})
	}
}

func TestSupersededDetailIsCancelled(t *testing.T) {
	stub := newStub()
	stub.honourCtx = true
	c := New(stub, nil, Options{}, adapter.NullLogger())
	defer c.Teardown()

	first := c.OpenDetail(movie42, "")
	c.OpenDetail(tv7, "")

	_, err := c.FetchDetail(first)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected superseded fetch to be cancelled, got %v", err)
	}
}

func TestLateResponseOverHTTP(t *testing.T) {
	c, srv := newServerController(t)

	release := make(chan struct{})
	entered := make(chan struct{})
	srv.OnRequest("/api/tmdb/details/42", func(r *http.Request) {
		close(entered)
		<-release
	})

	first := c.OpenDetail(movie42, "Arrival")
	type result struct {
		d   *domain.MediaDetail
		err error
	}
	late := make(chan result, 1)
	go func() {
		d, err := c.FetchDetail(first)
		late <- result{d, err}
	}()
	<-entered

	second := c.OpenDetail(tv7, "Dark")
	d, err := c.FetchDetail(second)
	if err != nil {
		t.Fatalf("FetchDetail: %v", err)
	}
	if !c.ApplyDetail(second, d, err) {
		t.Fatal("expected current response to apply")
	}

	close(release)
	r := <-late
	if c.ApplyDetail(first, r.d, r.err) {
		t.Fatal("expected late response to be discarded")
	}
	if s := c.Overlay(); s.Target != tv7 || s.Title != "Dark" {
		t.Fatalf("expected overlay to show Dark, got %+v", s)
	}
}

func TestDetailFailureShowsError(t *testing.T) {
	c := New(newStub(), nil, Options{}, adapter.NullLogger())
	defer c.Teardown()

	fx := c.OpenDetail(domain.MediaRef{ID: 1, Type: domain.MediaTypeMovie}, "")
	d, err := c.FetchDetail(fx)
	c.ApplyDetail(fx, d, err)

	s := c.Overlay()
	if s.Phase != overlay.Failed || s.Title != "Failed to load" || s.Message != "Try again later." {
		t.Fatalf("unexpected error state %+v", s)
	}
}

func TestTrailerFlow(t *testing.T) {
	c, _ := newServerController(t)

	fx := c.OpenDetail(movie42, "")
	d, err := c.FetchDetail(fx)
	c.ApplyDetail(fx, d, err)

	tfx, ok := c.RequestTrailer()
	if !ok {
		t.Fatal("expected trailer request from ready overlay")
	}
	tr, err := c.FetchTrailer(tfx)
	if got := c.ApplyTrailer(tfx, tr, err); got != overlay.TrailerApplied {
		t.Fatalf("expected trailer applied, got %v (err %v)", got, err)
	}
	if c.Overlay().TrailerKey != "abc" {
		t.Fatal("expected trailer key")
	}

	fx = c.OpenDetail(tv7, "")
	d, err = c.FetchDetail(fx)
	c.ApplyDetail(fx, d, err)
	tfx, _ = c.RequestTrailer()
	tr, err = c.FetchTrailer(tfx)
	if got := c.ApplyTrailer(tfx, tr, err); got != overlay.TrailerNotFound {
		t.Fatalf("expected not found, got %v", got)
	}
	if s := c.Overlay(); s.Phase != overlay.Ready {
		t.Fatal("expected overlay to stay ready after a missing trailer")
	}
}

func TestCloseOverlayIsIdempotent(t *testing.T) {
	c := New(newStub(), nil, Options{}, adapter.NullLogger())
	defer c.Teardown()

	if c.CloseOverlay() {
		t.Fatal("expected closing a closed overlay to be a no-op")
	}
	fx := c.OpenDetail(movie42, "")
	if !c.CloseOverlay() || c.CloseOverlay() {
		t.Fatal("expected exactly one effective close")
	}
	d, err := c.FetchDetail(fx)
	if c.ApplyDetail(fx, d, err) {
		t.Fatal("expected result after close to be discarded")
	}
}

func TestSearchFlow(t *testing.T) {
	c, srv := newServerController(t)

	c.OpenSearch()
	if _, ok := c.SearchInput("a"); ok {
		t.Fatal("expected short input not to schedule")
	}
	s, ok := c.SearchInput("arrival")
	if !ok {
		t.Fatal("expected schedule")
	}
	q, ok := c.FireSearch(s.Gen)
	if !ok {
		t.Fatal("expected query")
	}
	results, err := c.RunSearch(q)
	if err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if !c.ApplySearch(q, results, err) {
		t.Fatal("expected results to apply")
	}

	st := c.SearchState()
	if st.Status != search.Results || len(st.Results) != 2 || st.Results[0].Title != "Arrival" {
		t.Fatalf("expected ranked results, got %+v", st.Results)
	}
	if got := srv.SearchQueries(); len(got) != 1 || got[0] != "arrival" {
		t.Fatalf("expected a single network query, got %v", got)
	}

	c.DismissSearch()
	if c.SearchState().Active {
		t.Fatal("expected search dismissed")
	}
}

func TestMyListSeedsMembership(t *testing.T) {
	c, srv := newServerController(t)
	srv.SetMyList("tv:7")

	items, err := c.LoadRail(c.RailQuery(domain.RailMyList, ""))
	if err != nil || len(items) != 1 {
		t.Fatalf("LoadRail: %v %v", items, err)
	}
	if !c.IsInList(tv7) || c.IsInList(movie42) {
		t.Fatal("expected membership seeded from my list")
	}
	if _, ok := c.CachedRail(c.RailQuery(domain.RailMyList, "")); !ok {
		t.Fatal("expected rail stored for warm start")
	}
}

func TestToggleUpdatesServerAndInvalidatesList(t *testing.T) {
	c, srv := newServerController(t)
	q := c.RailQuery(domain.RailMyList, "")
	c.LoadRail(q)

	in, err := c.Toggle(movie42, domain.ListEntry{Title: "Arrival"})
	if err != nil || !in {
		t.Fatalf("Toggle: in=%v err=%v", in, err)
	}
	if got := srv.MyList(); len(got) != 1 || got[0] != "movie:42" {
		t.Fatalf("unexpected server list %v", got)
	}
	if _, ok := c.CachedRail(q); ok {
		t.Fatal("expected stored my list invalidated after a mutation")
	}
}

func TestToggleFailureRollsBack(t *testing.T) {
	c, srv := newServerController(t)
	srv.FailPath("/api/my_list/add", http.StatusInternalServerError)

	in, err := c.Toggle(movie42, domain.ListEntry{})
	if !errors.Is(err, domain.ErrServerRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if in || c.IsInList(movie42) || c.Membership().IsPending(movie42) {
		t.Fatal("expected rollback to not-in-list")
	}
}

func TestStaleRailDiscarded(t *testing.T) {
	c, srv := newServerController(t)
	srv.SetRail("trending", "movie:42")
	q := c.RailQuery(domain.RailTrending, "")

	first := c.BeginRail(q)
	second := c.BeginRail(q)

	items, err := c.FetchRail(second)
	if !c.ApplyRail(second, items, err) {
		t.Fatal("expected latest rail load to apply")
	}
	if c.ApplyRail(first, nil, nil) {
		t.Fatal("expected superseded rail load to be discarded")
	}
}

func TestLocalMatchesUseLoadedRails(t *testing.T) {
	c, srv := newServerController(t)
	srv.SetRail("trending", "movie:42", "tv:7")
	c.LoadRail(c.RailQuery(domain.RailTrending, ""))

	matches := c.LocalMatches("dark", 5)
	if len(matches) != 1 || matches[0].Summary.Ref != tv7 {
		t.Fatalf("unexpected local matches %+v", matches)
	}
}

func TestLocalMatchesKeepToTypeFilter(t *testing.T) {
	c, srv := newServerController(t)
	srv.SetRail("trending", "movie:42", "tv:7")
	c.LoadRail(c.RailQuery(domain.RailTrending, ""))

	c.OpenSearch()
	c.SetSearchFilter(domain.Filter{Type: domain.MediaTypeMovie})
	if matches := c.LocalMatches("dark", 5); len(matches) != 0 {
		t.Fatalf("series matched under a movie filter: %+v", matches)
	}
}

func TestTeardown(t *testing.T) {
	stub := newStub()
	stub.honourCtx = true
	c := New(stub, nil, Options{ID: "fixed"}, adapter.NullLogger())

	fx := c.OpenDetail(movie42, "")
	c.OpenSearch()
	c.Teardown()
	c.Teardown()

	if c.ID() != "fixed" {
		t.Fatalf("unexpected id %q", c.ID())
	}
	if c.Overlay().IsOpen() || c.SearchState().Active {
		t.Fatal("expected every surface reset")
	}
	if _, err := c.FetchDetail(fx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected in-flight work cancelled, got %v", err)
	}
}

func TestWatchURL(t *testing.T) {
	c := New(newStub(), nil, Options{BaseURL: "http://catalog.example/"}, adapter.NullLogger())
	defer c.Teardown()

	if got := c.WatchURL(tv7); got != "http://catalog.example/watch/tv/7" {
		t.Fatalf("unexpected watch url %q", got)
	}
}

func TestRailQueryForReleases(t *testing.T) {
	c := New(newStub(), nil, Options{RailLimit: 10}, adapter.NullLogger())
	defer c.Teardown()

	q := c.RailQuery(domain.RailReleases, domain.MediaTypeTV)
	if q.Kind != "tv" || q.Type != "" || q.Limit != 10 {
		t.Fatalf("unexpected releases query %+v", q)
	}
}

func TestRailQueryForMyListUsesListLimit(t *testing.T) {
	c := New(newStub(), nil, Options{RailLimit: 10}, adapter.NullLogger())
	defer c.Teardown()

	if q := c.RailQuery(domain.RailMyList, ""); q.Limit != DefaultListLimit || q.Key() != "my_list:60" {
		t.Fatalf("unexpected my list query %+v", q)
	}

	wide := New(newStub(), nil, Options{ListLimit: 100}, adapter.NullLogger())
	defer wide.Teardown()
	if q := wide.RailQuery(domain.RailMyList, ""); q.Limit != 100 {
		t.Fatalf("configured list limit ignored: %+v", q)
	}
}

func TestMyListSeedKeepsEntriesBeyondRailLimit(t *testing.T) {
	c, srv := newServerController(t)
	var keys []string
	for id := int64(100); id < 130; id++ {
		srv.AddItem(catalogtest.Item{ID: id, Type: "movie", Title: "Saved " + strconv.FormatInt(id, 10)})
		keys = append(keys, "movie:"+strconv.FormatInt(id, 10))
	}
	srv.SetMyList(keys...)

	items, err := c.LoadRail(c.RailQuery(domain.RailMyList, ""))
	if err != nil || len(items) != 30 {
		t.Fatalf("LoadRail: %d items, %v", len(items), err)
	}
	if got := srv.LastQuery("/api/my_list").Get("limit"); got != "60" {
		t.Fatalf("expected limit=60, got %q", got)
	}
	if !c.IsInList(domain.MediaRef{ID: 129, Type: domain.MediaTypeMovie}) {
		t.Fatal("expected the 30th entry to be seeded")
	}
}

func TestTypedRailQueries(t *testing.T) {
	c := New(newStub(), nil, Options{RailLimit: 10}, adapter.NullLogger())
	defer c.Teardown()

	if q := c.RailQuery(domain.RailTop, ""); q.Type != domain.MediaTypeMovie || q.Kind != domain.TopKind30 {
		t.Fatalf("unexpected top query %+v", q)
	}
	q := c.DiscoverQuery(domain.MediaTypeTV, domain.Filter{Genre: 18, Year: 2020})
	if q.Rail != domain.RailDiscover || q.Type != domain.MediaTypeTV || q.Genre != 18 || q.Year != 2020 {
		t.Fatalf("unexpected discover query %+v", q)
	}
}

func TestDiscoverFilterChangeSupersedesLoad(t *testing.T) {
	c, srv := newServerController(t)
	srv.AddItem(catalogtest.Item{ID: 9, Type: "movie", Title: "Heat", Year: "1995", GenreIDs: []int{80}})

	unfiltered := c.BeginRail(c.DiscoverQuery(domain.MediaTypeMovie, domain.Filter{}))
	crime := c.BeginRail(c.DiscoverQuery(domain.MediaTypeMovie, domain.Filter{Genre: 80}))

	if _, err := c.FetchRail(unfiltered); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the superseded load to be cancelled, got %v", err)
	}
	if c.ApplyRail(unfiltered, nil, nil) {
		t.Fatal("expected the unfiltered load to be discarded")
	}
	items, err := c.FetchRail(crime)
	if !c.ApplyRail(crime, items, err) {
		t.Fatal("expected the filtered load to apply")
	}
	if err != nil || len(items) != 1 || items[0].Title != "Heat" {
		t.Fatalf("unexpected discover items %+v %v", items, err)
	}
}

func TestRecommendationsFallBackToTopRated(t *testing.T) {
	c, srv := newServerController(t)
	srv.SetRail("recommendations")
	srv.SetTop("tv", "tv:7")
	q := c.RailQuery(domain.RailRecommendations, domain.MediaTypeTV)

	items, err := c.LoadRail(q)
	if err != nil || len(items) != 1 || items[0].Ref != tv7 {
		t.Fatalf("expected top rated fallback for an empty rail, got %+v %v", items, err)
	}
	if got := srv.LastQuery("/api/tv/top").Get("kind"); got != "top30" {
		t.Fatalf("expected kind=top30, got %q", got)
	}

	srv.FailPath("/api/recommendations", http.StatusBadGateway)
	items, err = c.LoadRail(q)
	if err != nil || len(items) != 1 {
		t.Fatalf("expected top rated fallback for a failed rail, got %+v %v", items, err)
	}

	// Untyped recommendations keep their own answer
	srv.SetTop("movie", "movie:42")
	if _, err := c.LoadRail(c.RailQuery(domain.RailRecommendations, "")); err == nil {
		t.Fatal("expected the untyped failure to surface")
	}
}

func TestLateRandomPickDiscarded(t *testing.T) {
	c := New(newStub(), nil, Options{}, adapter.NullLogger())
	defer c.Teardown()

	first := c.BeginRandom()
	second := c.BeginRandom()

	if !c.ApplyRandom(second, &domain.MediaSummary{Ref: tv7, Title: "Dark"}, nil) {
		t.Fatal("expected the latest pick to apply")
	}
	if c.ApplyRandom(first, &domain.MediaSummary{Ref: movie42, Title: "Arrival"}, nil) {
		t.Fatal("expected the superseded pick to be discarded")
	}
}

func TestFilteredSearchUsesAssistant(t *testing.T) {
	c, srv := newServerController(t)

	c.OpenSearch()
	c.SearchInput("arrival")
	s, ok := c.SetSearchFilter(domain.Filter{Type: domain.MediaTypeMovie, Year: 2016})
	if !ok {
		t.Fatal("expected the filter to reschedule")
	}
	q, ok := c.FireSearch(s.Gen)
	if !ok {
		t.Fatal("expected query")
	}
	results, err := c.RunSearch(q)
	if !c.ApplySearch(q, results, err) {
		t.Fatal("expected results to apply")
	}
	if err != nil || len(results) != 1 || results[0].Ref != movie42 {
		t.Fatalf("unexpected filtered results %+v %v", results, err)
	}
	if len(srv.AssistantRequests()) != 1 || len(srv.SearchQueries()) != 0 {
		t.Fatal("expected the assistant endpoint instead of title search")
	}
}

func TestGenresCached(t *testing.T) {
	stub := newStub()
	c := New(stub, nil, Options{}, adapter.NullLogger())
	defer c.Teardown()

	for i := 0; i < 2; i++ {
		genres, err := c.Genres(context.Background(), domain.MediaTypeTV)
		if err != nil || len(genres) != 1 {
			t.Fatalf("Genres: %+v %v", genres, err)
		}
	}
	if stub.genreCalls != 1 {
		t.Fatalf("expected one catalog call, got %d", stub.genreCalls)
	}
}
