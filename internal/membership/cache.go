// Package membership tracks which items are on the user's watch-list and
// applies optimistic add/remove mutations with rollback.
package membership

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmcdole/reel/internal/domain"
)

// Entry is the client-side view of one item's membership
type Entry struct {
	InList  bool
	Pending bool
}

// Mutation is an optimistic flip awaiting server confirmation
type Mutation struct {
	Ref    domain.MediaRef
	Entry  domain.ListEntry
	Target bool // Value after the flip; true means add
}

// Cache is the membership cache. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[domain.MediaRef]*Entry
	repo    domain.ListRepository
	logger  *slog.Logger
}

// NewCache creates an empty cache that commits mutations through repo
func NewCache(repo domain.ListRepository, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries: make(map[domain.MediaRef]*Entry),
		repo:    repo,
		logger:  logger,
	}
}

// IsInList reports the current belief; unobserved items are not in the list
func (c *Cache) IsInList(ref domain.MediaRef) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[ref]; ok {
		return e.InList
	}
	return false
}

// IsPending reports whether a mutation for ref is in flight
func (c *Cache) IsPending(ref domain.MediaRef) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[ref]; ok {
		return e.Pending
	}
	return false
}

// Entry returns a copy of the entry for ref
func (c *Cache) Entry(ref domain.MediaRef) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[ref]; ok {
		return *e, true
	}
	return Entry{}, false
}

// Observe records server truth for one item. Pending entries are left alone.
func (c *Cache) Observe(ref domain.MediaRef, inList bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observeLocked(ref, inList)
}

func (c *Cache) observeLocked(ref domain.MediaRef, inList bool) {
	if e, ok := c.entries[ref]; ok {
		if !e.Pending {
			e.InList = inList
		}
		return
	}
	c.entries[ref] = &Entry{InList: inList}
}

// Seed replaces the cache with a full list load: refs are in the list and
// every other settled entry is not.
func (c *Cache) Seed(refs []domain.MediaRef) {
	c.mu.Lock()
	defer c.mu.Unlock()

	in := make(map[domain.MediaRef]struct{}, len(refs))
	for _, ref := range refs {
		in[ref] = struct{}{}
	}
	for ref, e := range c.entries {
		if _, ok := in[ref]; !ok && !e.Pending {
			e.InList = false
		}
	}
	for ref := range in {
		c.observeLocked(ref, true)
	}
}

// Members returns the refs currently believed to be in the list
func (c *Cache) Members() []domain.MediaRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	refs := make([]domain.MediaRef, 0, len(c.entries))
	for ref, e := range c.entries {
		if e.InList {
			refs = append(refs, ref)
		}
	}
	return refs
}

// Begin flips ref optimistically and marks it pending. It fails with
// domain.ErrAlreadyPending while another mutation for ref is in flight.
func (c *Cache) Begin(ref domain.MediaRef, entry domain.ListEntry) (*Mutation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[ref]
	if !ok {
		e = &Entry{}
		c.entries[ref] = e
	}
	if e.Pending {
		return nil, fmt.Errorf("toggle %s: %w", ref, domain.ErrAlreadyPending)
	}

	e.InList = !e.InList
	e.Pending = true
	entry.Ref = ref
	return &Mutation{Ref: ref, Entry: entry, Target: e.InList}, nil
}

// Commit sends the mutation to the server. On success the optimistic value
// stands; on failure it is rolled back and the returned error matches
// domain.ErrServerRejected. The settled value is returned either way.
func (c *Cache) Commit(ctx context.Context, m *Mutation) (bool, error) {
	var err error
	if m.Target {
		err = c.repo.AddToList(ctx, m.Entry)
	} else {
		err = c.repo.RemoveFromList(ctx, m.Ref)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[m.Ref]
	if !ok {
		e = &Entry{InList: m.Target}
		c.entries[m.Ref] = e
	}
	e.Pending = false

	if err != nil {
		e.InList = !m.Target
		c.logger.Warn("membership update rolled back", "ref", m.Ref.Key(), "add", m.Target, "error", err)
		return e.InList, fmt.Errorf("%w: %w", domain.ErrServerRejected, err)
	}

	e.InList = m.Target
	c.logger.Debug("membership updated", "ref", m.Ref.Key(), "in_list", m.Target)
	return e.InList, nil
}

// Toggle flips membership of ref and waits for the server
func (c *Cache) Toggle(ctx context.Context, ref domain.MediaRef, entry domain.ListEntry) (bool, error) {
	m, err := c.Begin(ref, entry)
	if err != nil {
		return c.IsInList(ref), err
	}
	return c.Commit(ctx, m)
}
