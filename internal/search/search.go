// Package search coordinates debounced incremental catalog search.
package search

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/sequencer"
)

const (
	DefaultDebounce  = 250 * time.Millisecond
	DefaultMinLength = 2

	hintNoResults = "No results"
	hintFailed    = "Search failed"
)

// Status is the search surface state
type Status int

const (
	Idle Status = iota
	Short
	Pending
	Searching
	Results
	Failed
)

// State is a snapshot of the search surface
type State struct {
	Active  bool
	Status  Status
	Input   string // Raw text as typed
	Query   string // Trimmed text of the pending or running query
	Filter  domain.Filter
	Results []domain.MediaSummary
	Message string
}

// Schedule asks the caller to call Fire(Gen) after Delay
type Schedule struct {
	Gen   uint64
	Text  string
	Delay time.Duration
}

// Query asks the caller to run a catalog search
type Query struct {
	Token  sequencer.Token
	Text   string
	Filter domain.Filter // Zero for a plain title search
}

// Options configures a Coordinator
type Options struct {
	Debounce  time.Duration
	MinLength int
}

// Coordinator debounces input and drops superseded results
type Coordinator struct {
	mu       sync.Mutex
	seq      *sequencer.Sequencer
	debounce time.Duration
	minLen   int
	gen      uint64
	state    State
	logger   *slog.Logger
}

// NewCoordinator creates an inactive coordinator
func NewCoordinator(seq *sequencer.Sequencer, opts Options, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}
	return &Coordinator{
		seq:      seq,
		debounce: opts.Debounce,
		minLen:   opts.MinLength,
		logger:   logger,
	}
}

// State returns a snapshot
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Open activates the surface with a clean state
func (c *Coordinator) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersedeLocked()
	c.state = State{Active: true, Status: Short, Message: c.shortHint()}
}

// OnInput records new input. Short input is resolved immediately; anything
// else returns a debounce schedule. Either way any pending timer and any
// in-flight query are superseded.
func (c *Coordinator) OnInput(raw string) (Schedule, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.inputLocked(raw)
}

// SetFilter narrows the search and re-runs the current input under it
func (c *Coordinator) SetFilter(f domain.Filter) (Schedule, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Filter = f
	return c.inputLocked(c.state.Input)
}

func (c *Coordinator) inputLocked(raw string) (Schedule, bool) {
	c.supersedeLocked()
	text := strings.TrimSpace(raw)
	c.state.Active = true
	c.state.Input = raw

	if utf8.RuneCountInString(text) < c.minLen {
		c.state.Status = Short
		c.state.Query = ""
		c.state.Results = nil
		c.state.Message = c.shortHint()
		return Schedule{}, false
	}

	c.state.Status = Pending
	c.state.Query = text
	c.state.Message = ""
	return Schedule{Gen: c.gen, Text: text, Delay: c.debounce}, true
}

// Fire is called when a debounce timer elapses. Only the latest timer for an
// active surface produces a query.
func (c *Coordinator) Fire(gen uint64) (Query, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || !c.state.Active || c.state.Status != Pending {
		return Query{}, false
	}

	token := c.seq.Issue(sequencer.ChannelSearch)
	c.state.Status = Searching
	c.logger.Debug("search fire", "query", c.state.Query, "token", token)
	return Query{Token: token, Text: c.state.Query, Filter: c.state.Filter}, true
}

// Resolve applies search results. Stale results are dropped and false is returned.
func (c *Coordinator) Resolve(q Query, results []domain.MediaSummary, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Active || c.state.Status != Searching || !c.seq.IsCurrent(sequencer.ChannelSearch, q.Token) {
		c.logger.Debug("search result discarded", "query", q.Text, "token", q.Token)
		return false
	}

	if err != nil {
		c.state.Status = Failed
		c.state.Results = nil
		c.state.Message = hintFailed
		c.logger.Warn("search failed", "query", q.Text, "error", err)
		return true
	}

	c.state.Status = Results
	c.state.Results = results
	c.state.Message = ""
	if len(results) == 0 {
		c.state.Message = hintNoResults
	}
	return true
}

// Dismiss cancels any pending timer, supersedes in-flight queries and
// deactivates the surface.
func (c *Coordinator) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersedeLocked()
	c.state = State{}
}

func (c *Coordinator) supersedeLocked() {
	c.gen++
	c.seq.Issue(sequencer.ChannelSearch)
}

func (c *Coordinator) shortHint() string {
	return fmt.Sprintf("Type %d+ chars", c.minLen)
}
