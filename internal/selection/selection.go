// Package selection keeps a carousel's active item and its mirror panel in
// step. A Synchronizer is owned by one view and is not safe for concurrent use.
package selection

import "github.com/mmcdole/reel/internal/domain"

// Synchronizer tracks the active index of an ordered item list
type Synchronizer struct {
	items  []domain.MediaSummary
	active int
	offset int
}

// New creates an empty synchronizer
func New() *Synchronizer {
	return &Synchronizer{active: -1}
}

// SetItems replaces the list wholesale. The first item becomes active, or
// nothing when the list is empty.
func (s *Synchronizer) SetItems(items []domain.MediaSummary) {
	s.items = append([]domain.MediaSummary(nil), items...)
	s.offset = 0
	if len(s.items) == 0 {
		s.active = -1
		return
	}
	s.active = 0
}

// Items returns the current list
func (s *Synchronizer) Items() []domain.MediaSummary {
	return s.items
}

// Len returns the number of items
func (s *Synchronizer) Len() int {
	return len(s.items)
}

// Select makes index active. Out-of-range indexes are ignored.
func (s *Synchronizer) Select(index int) bool {
	if index < 0 || index >= len(s.items) {
		return false
	}
	old := s.active
	s.active = index
	return old != index
}

// Next moves to the following item, stopping at the end
func (s *Synchronizer) Next() bool {
	return s.Select(s.active + 1)
}

// Prev moves to the previous item, stopping at the start
func (s *Synchronizer) Prev() bool {
	return s.Select(s.active - 1)
}

// ActiveIndex returns the active index, -1 when empty
func (s *Synchronizer) ActiveIndex() int {
	return s.active
}

// Active returns the item mirrored by the side panel
func (s *Synchronizer) Active() (domain.MediaSummary, bool) {
	if s.active < 0 || s.active >= len(s.items) {
		return domain.MediaSummary{}, false
	}
	return s.items[s.active], true
}

// Window returns the [start, end) range of items to draw so that the active
// item stays visible in a viewport of size visible.
func (s *Synchronizer) Window(visible int) (int, int) {
	n := len(s.items)
	if n == 0 || visible <= 0 {
		return 0, 0
	}
	if visible > n {
		visible = n
	}
	if s.active < s.offset {
		s.offset = s.active
	}
	if s.active >= s.offset+visible {
		s.offset = s.active - visible + 1
	}
	if s.offset > n-visible {
		s.offset = n - visible
	}
	if s.offset < 0 {
		s.offset = 0
	}
	return s.offset, s.offset + visible
}
