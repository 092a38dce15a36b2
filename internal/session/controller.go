// Package session composes the overlay, membership cache, search coordinator
// and rail loading into one controller per running client.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/membership"
	"github.com/mmcdole/reel/internal/overlay"
	"github.com/mmcdole/reel/internal/search"
	"github.com/mmcdole/reel/internal/sequencer"
)

// channelTrailer scopes cancellation of trailer loads. Trailer staleness is
// decided by the overlay, not the sequencer.
const channelTrailer sequencer.Channel = "trailer"

// Catalog is everything the controller needs from the fetch gateway
type Catalog interface {
	domain.CatalogRepository
	domain.ListRepository
}

// DefaultListLimit bounds the My List load. It is larger than the rail limit
// because the list also seeds membership for every other rail.
const DefaultListLimit = 60

// Options configures a Controller
type Options struct {
	ID          string // Session id; generated when empty
	BaseURL     string // Catalog origin used to build watch URLs
	RailLimit   int
	ListLimit   int // My List limit; DefaultListLimit when zero
	Search      search.Options
	RankResults bool
}

// RailLoad is one issued rail request
type RailLoad struct {
	Query domain.RailQuery
	Token sequencer.Token
}

// RandomLoad is one issued random pick request
type RandomLoad struct {
	Token sequencer.Token
}

type inflight struct {
	token  sequencer.Token
	ctx    context.Context
	cancel context.CancelFunc
}

// Controller is the media session controller. Intents return effect
// descriptions; the Fetch methods block on the network; the Apply methods
// fold results back in and report whether they were current.
type Controller struct {
	id      string
	opts    Options
	catalog Catalog
	store   domain.RailStore
	logger  *slog.Logger

	seq        *sequencer.Sequencer
	overlay    *overlay.Machine
	membership *membership.Cache
	search     *search.Coordinator

	base context.Context
	stop context.CancelFunc

	mu       sync.Mutex
	inflight map[sequencer.Channel]inflight
	rails    map[string][]domain.MediaSummary
	genres   map[domain.MediaType][]domain.Genre
	closed   bool
}

// New creates a controller. store may be nil.
func New(catalog Catalog, store domain.RailStore, opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.RailLimit <= 0 {
		opts.RailLimit = 20
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = DefaultListLimit
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	logger = logger.With("session", opts.ID)

	seq := sequencer.New()
	base, stop := context.WithCancel(context.Background())

	c := &Controller{
		id:         opts.ID,
		opts:       opts,
		catalog:    catalog,
		store:      store,
		logger:     logger,
		seq:        seq,
		overlay:    overlay.New(seq, logger),
		membership: membership.NewCache(catalog, logger),
		search:     search.NewCoordinator(seq, opts.Search, logger),
		base:       base,
		stop:       stop,
		inflight:   make(map[sequencer.Channel]inflight),
		rails:      make(map[string][]domain.MediaSummary),
		genres:     make(map[domain.MediaType][]domain.Genre),
	}
	logger.Info("session started")
	return c
}

// ID returns the session id
func (c *Controller) ID() string {
	return c.id
}

// Teardown cancels all in-flight work and resets every surface. Calling it
// again is a no-op.
func (c *Controller) Teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for ch, f := range c.inflight {
		f.cancel()
		delete(c.inflight, ch)
	}
	c.mu.Unlock()

	c.stop()
	c.overlay.Close()
	c.search.Dismiss()
	c.logger.Info("session ended")
}

// track starts a cancellable request on ch, cancelling the previous one
func (c *Controller) track(ch sequencer.Channel, token sequencer.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.inflight[ch]; ok {
		prev.cancel()
	}
	ctx, cancel := context.WithCancel(c.base)
	c.inflight[ch] = inflight{token: token, ctx: ctx, cancel: cancel}
}

// contextFor returns the context of the request, already cancelled when the
// request has been superseded
func (c *Controller) contextFor(ch sequencer.Channel, token sequencer.Token) context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.inflight[ch]; ok && f.token == token {
		return f.ctx
	}
	ctx, cancel := context.WithCancel(c.base)
	cancel()
	return ctx
}

// finish releases the request's context if it is still the tracked one
func (c *Controller) finish(ch sequencer.Channel, token sequencer.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.inflight[ch]; ok && f.token == token {
		f.cancel()
		delete(c.inflight, ch)
	}
}

func (c *Controller) cancelChannel(ch sequencer.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.inflight[ch]; ok {
		f.cancel()
		delete(c.inflight, ch)
	}
}

// === Detail overlay ===

// Overlay returns the overlay snapshot
func (c *Controller) Overlay() overlay.State {
	return c.overlay.State()
}

// OpenDetail targets the overlay at ref. The previous target's loads are
// cancelled.
func (c *Controller) OpenDetail(ref domain.MediaRef, fallbackTitle string) overlay.FetchDetail {
	fx := c.overlay.Open(ref, fallbackTitle)
	c.cancelChannel(channelTrailer)
	c.track(sequencer.ChannelDetail, fx.Token)
	return fx
}

// FetchDetail loads the detail requested by fx
func (c *Controller) FetchDetail(fx overlay.FetchDetail) (*domain.MediaDetail, error) {
	ctx := c.contextFor(sequencer.ChannelDetail, fx.Token)
	return c.catalog.Details(ctx, fx.Ref)
}

// ApplyDetail folds a detail result into the overlay
func (c *Controller) ApplyDetail(fx overlay.FetchDetail, detail *domain.MediaDetail, err error) bool {
	applied := c.overlay.ResolveDetail(fx, detail, err)
	if applied {
		c.finish(sequencer.ChannelDetail, fx.Token)
	}
	return applied
}

// CloseOverlay hides the overlay and cancels its loads
func (c *Controller) CloseOverlay() bool {
	if !c.overlay.Close() {
		return false
	}
	c.cancelChannel(sequencer.ChannelDetail)
	c.cancelChannel(channelTrailer)
	return true
}

// RequestTrailer starts a trailer load for the ready overlay
func (c *Controller) RequestTrailer() (overlay.FetchTrailer, bool) {
	fx, ok := c.overlay.RequestTrailer()
	if ok {
		c.track(channelTrailer, fx.Token)
	}
	return fx, ok
}

// FetchTrailer loads the trailer requested by fx
func (c *Controller) FetchTrailer(fx overlay.FetchTrailer) (*domain.TrailerRef, error) {
	ctx := c.contextFor(channelTrailer, fx.Token)
	return c.catalog.Trailer(ctx, fx.Ref)
}

// ApplyTrailer folds a trailer result into the overlay
func (c *Controller) ApplyTrailer(fx overlay.FetchTrailer, trailer *domain.TrailerRef, err error) overlay.TrailerOutcome {
	outcome := c.overlay.ResolveTrailer(fx, trailer, err)
	if outcome != overlay.TrailerDiscarded {
		c.finish(channelTrailer, fx.Token)
	}
	return outcome
}

// StopTrailer hides a playing trailer
func (c *Controller) StopTrailer() bool {
	return c.overlay.StopTrailer()
}

// === Search ===

// SearchState returns the search surface snapshot
func (c *Controller) SearchState() search.State {
	return c.search.State()
}

// OpenSearch activates the search surface
func (c *Controller) OpenSearch() {
	c.cancelChannel(sequencer.ChannelSearch)
	c.search.Open()
}

// SearchInput records typed text and cancels any running query
func (c *Controller) SearchInput(raw string) (search.Schedule, bool) {
	c.cancelChannel(sequencer.ChannelSearch)
	return c.search.OnInput(raw)
}

// FireSearch is called when the debounce for gen elapses
func (c *Controller) FireSearch(gen uint64) (search.Query, bool) {
	q, ok := c.search.Fire(gen)
	if ok {
		c.track(sequencer.ChannelSearch, q.Token)
	}
	return q, ok
}

// SetSearchFilter narrows the search surface and cancels any running query
func (c *Controller) SetSearchFilter(f domain.Filter) (search.Schedule, bool) {
	c.cancelChannel(sequencer.ChannelSearch)
	return c.search.SetFilter(f)
}

// RunSearch performs the catalog search for q. Filtered queries go through
// the assistant search.
func (c *Controller) RunSearch(q search.Query) ([]domain.MediaSummary, error) {
	ctx := c.contextFor(sequencer.ChannelSearch, q.Token)
	var results []domain.MediaSummary
	var err error
	if q.Filter.IsZero() {
		results, err = c.catalog.Search(ctx, q.Text)
	} else {
		results, err = c.catalog.SearchFiltered(ctx, q.Text, q.Filter)
	}
	if err != nil {
		return nil, err
	}
	if c.opts.RankResults {
		results = search.RankResults(q.Text, results)
	}
	return results, nil
}

// ApplySearch folds search results into the surface
func (c *Controller) ApplySearch(q search.Query, results []domain.MediaSummary, err error) bool {
	applied := c.search.Resolve(q, results, err)
	if applied {
		c.finish(sequencer.ChannelSearch, q.Token)
	}
	return applied
}

// DismissSearch closes the search surface and cancels its work
func (c *Controller) DismissSearch() {
	c.cancelChannel(sequencer.ChannelSearch)
	c.search.Dismiss()
}

// LocalMatches ranks items already loaded into rails against text, keeping
// to the search type filter when one is set
func (c *Controller) LocalMatches(text string, limit int) []search.LocalMatch {
	typ := c.search.State().Filter.Type
	c.mu.Lock()
	keys := make([]string, 0, len(c.rails))
	for key := range c.rails {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var items []domain.MediaSummary
	for _, key := range keys {
		for _, item := range c.rails[key] {
			if typ == "" || item.Ref.Type == typ {
				items = append(items, item)
			}
		}
	}
	c.mu.Unlock()
	return search.MatchLocal(text, items, limit)
}

// === Rails ===

// RailQuery builds the query for a rail using the configured limits. Top and
// discover rails default to movies.
func (c *Controller) RailQuery(rail domain.Rail, typ domain.MediaType) domain.RailQuery {
	q := domain.RailQuery{Rail: rail, Limit: c.opts.RailLimit, Type: typ}
	switch {
	case rail == domain.RailReleases:
		q.Type = ""
		q.Kind = string(domain.MediaTypeMovie)
		if typ != "" {
			q.Kind = string(typ)
		}
	case rail == domain.RailMyList:
		q.Limit = c.opts.ListLimit
	case rail.Typed():
		if q.Type == "" {
			q.Type = domain.MediaTypeMovie
		}
		if rail == domain.RailTop {
			q.Kind = domain.TopKind30
		}
	}
	return q
}

// DiscoverQuery builds the discover rail query for typ narrowed by f's
// genre and year
func (c *Controller) DiscoverQuery(typ domain.MediaType, f domain.Filter) domain.RailQuery {
	q := c.RailQuery(domain.RailDiscover, typ)
	q.Genre = f.Genre
	q.Year = f.Year
	return q
}

// railChannel sequences loads per rail slot. Discover filters share a slot,
// so changing the filter supersedes the previous load.
func railChannel(q domain.RailQuery) sequencer.Channel {
	if q.Rail == domain.RailDiscover {
		q.Genre, q.Year = 0, 0
	}
	return sequencer.RailChannel(q.Key())
}

// CachedRail returns the last stored contents of a rail for a warm start
func (c *Controller) CachedRail(q domain.RailQuery) ([]domain.MediaSummary, bool) {
	if c.store == nil {
		return nil, false
	}
	return c.store.GetRail(q.Key())
}

// BeginRail issues a load of q, superseding earlier loads of the same query
func (c *Controller) BeginRail(q domain.RailQuery) RailLoad {
	ch := railChannel(q)
	token := c.seq.Issue(ch)
	c.track(ch, token)
	return RailLoad{Query: q, Token: token}
}

// FetchRail performs a rail load and stores the result for warm starts.
// Typed recommendations fall back to the top-rated list when they come back
// empty or fail.
func (c *Controller) FetchRail(load RailLoad) ([]domain.MediaSummary, error) {
	ctx := c.contextFor(railChannel(load.Query), load.Token)
	items, err := c.catalog.Rail(ctx, load.Query)
	if c.wantsTopFallback(load.Query, items, err) {
		top := c.RailQuery(domain.RailTop, load.Query.Type)
		top.Limit = load.Query.Limit
		c.logger.Debug("recommendations empty, using top rated", "rail", load.Query.Key(), "error", err)
		items, err = c.catalog.Rail(ctx, top)
	}
	if err != nil {
		return nil, err
	}
	if c.store != nil {
		if err := c.store.SaveRail(load.Query.Key(), items); err != nil {
			c.logger.Warn("failed to store rail", "rail", load.Query.Key(), "error", err)
		}
	}
	return items, nil
}

func (c *Controller) wantsTopFallback(q domain.RailQuery, items []domain.MediaSummary, err error) bool {
	if q.Rail != domain.RailRecommendations || q.Type == "" {
		return false
	}
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	return len(items) == 0
}

// ApplyRail accepts a rail result if it is the latest load of its slot.
// Loading My List seeds the membership cache.
func (c *Controller) ApplyRail(load RailLoad, items []domain.MediaSummary, err error) bool {
	ch := railChannel(load.Query)
	if !c.seq.IsCurrent(ch, load.Token) {
		c.logger.Debug("rail result discarded", "rail", load.Query.Key(), "token", load.Token)
		return false
	}
	c.finish(ch, load.Token)

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Warn("rail load failed", "rail", load.Query.Key(), "error", err)
		}
		return true
	}

	c.mu.Lock()
	c.rails[load.Query.Key()] = items
	c.mu.Unlock()

	if load.Query.Rail == domain.RailMyList {
		refs := make([]domain.MediaRef, len(items))
		for i, it := range items {
			refs[i] = it.Ref
		}
		c.membership.Seed(refs)
	}
	return true
}

// LoadRail runs a complete rail load: begin, fetch and apply
func (c *Controller) LoadRail(q domain.RailQuery) ([]domain.MediaSummary, error) {
	load := c.BeginRail(q)
	items, err := c.FetchRail(load)
	c.ApplyRail(load, items, err)
	return items, err
}

// === Membership ===

// Membership exposes the membership cache
func (c *Controller) Membership() *membership.Cache {
	return c.membership
}

// IsInList reports the current membership belief for ref
func (c *Controller) IsInList(ref domain.MediaRef) bool {
	return c.membership.IsInList(ref)
}

// BeginToggle flips membership optimistically
func (c *Controller) BeginToggle(ref domain.MediaRef, entry domain.ListEntry) (*membership.Mutation, error) {
	return c.membership.Begin(ref, entry)
}

// CommitToggle confirms a mutation with the server. Mutations are not
// cancelled by navigation; only Teardown aborts them.
func (c *Controller) CommitToggle(m *membership.Mutation) (bool, error) {
	inList, err := c.membership.Commit(c.base, m)
	if err == nil && c.store != nil {
		c.store.InvalidateRail(c.RailQuery(domain.RailMyList, "").Key())
	}
	return inList, err
}

// Toggle flips membership and waits for the server
func (c *Controller) Toggle(ref domain.MediaRef, entry domain.ListEntry) (bool, error) {
	m, err := c.BeginToggle(ref, entry)
	if err != nil {
		return c.IsInList(ref), err
	}
	return c.CommitToggle(m)
}

// === Random pick ===

// BeginRandom issues a random pick, superseding the previous one
func (c *Controller) BeginRandom() RandomLoad {
	token := c.seq.Issue(sequencer.ChannelRandom)
	c.track(sequencer.ChannelRandom, token)
	return RandomLoad{Token: token}
}

// FetchRandom performs the pick requested by load
func (c *Controller) FetchRandom(load RandomLoad) (*domain.MediaSummary, error) {
	return c.catalog.Random(c.contextFor(sequencer.ChannelRandom, load.Token))
}

// ApplyRandom reports whether load is the latest pick
func (c *Controller) ApplyRandom(load RandomLoad, pick *domain.MediaSummary, err error) bool {
	if !c.seq.IsCurrent(sequencer.ChannelRandom, load.Token) {
		c.logger.Debug("random pick discarded", "token", load.Token)
		return false
	}
	c.finish(sequencer.ChannelRandom, load.Token)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("random pick failed", "error", err)
	}
	return true
}

// Random returns a random catalog pick
func (c *Controller) Random(ctx context.Context) (*domain.MediaSummary, error) {
	return c.catalog.Random(ctx)
}

// === Misc ===

// Genres returns the discover genres of typ. A successful answer is kept
// for the rest of the session.
func (c *Controller) Genres(ctx context.Context, typ domain.MediaType) ([]domain.Genre, error) {
	c.mu.Lock()
	cached, ok := c.genres[typ]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	genres, err := c.catalog.Genres(ctx, typ)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.genres[typ] = genres
	c.mu.Unlock()
	return genres, nil
}

// WatchURL returns the absolute watch destination for ref
func (c *Controller) WatchURL(ref domain.MediaRef) string {
	return c.opts.BaseURL + ref.WatchPath()
}
