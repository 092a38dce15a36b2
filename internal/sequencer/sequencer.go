// Package sequencer tags asynchronous requests so that only the most recent
// request on a channel may update visible state.
package sequencer

import (
	"strings"
	"sync"
)

// Channel groups requests that compete for the same piece of UI state
type Channel string

const (
	ChannelDetail Channel = "detail"
	ChannelSearch Channel = "search"
	ChannelRandom Channel = "random"
)

// RailChannel returns the channel for loads of one rail
func RailChannel(key string) Channel {
	return Channel("rail:" + key)
}

// IsRail reports whether ch was created by RailChannel
func (ch Channel) IsRail() bool {
	return strings.HasPrefix(string(ch), "rail:")
}

// Token identifies one issued request. The zero token is never current.
type Token uint64

// Sequencer issues monotonically increasing tokens per channel
type Sequencer struct {
	mu      sync.Mutex
	current map[Channel]Token
}

// New creates a sequencer with every channel at zero
func New() *Sequencer {
	return &Sequencer{current: make(map[Channel]Token)}
}

// Issue advances the channel and returns the new token
func (s *Sequencer) Issue(ch Channel) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current[ch]++
	return s.current[ch]
}

// IsCurrent reports whether t is the latest token issued on ch
func (s *Sequencer) IsCurrent(ch Channel, t Token) bool {
	if t == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current[ch] == t
}

// Current returns the latest token issued on ch (zero if none)
func (s *Sequencer) Current(ch Channel) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current[ch]
}
