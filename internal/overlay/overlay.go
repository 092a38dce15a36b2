// Package overlay implements the single shared detail overlay as a state
// machine. Transitions are synchronous; network work is described by the
// returned effects and reported back through the Resolve methods.
package overlay

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/sequencer"
)

const (
	untitled       = "Untitled"
	failedTitle    = "Failed to load"
	failedMessage  = "Try again later."
	noTrailerTitle = "Trailer not found"
)

// Phase is the overlay lifecycle state
type Phase int

const (
	Closed Phase = iota
	Loading
	Ready
	Failed
)

func (p Phase) String() string {
	switch p {
	case Closed:
		return "closed"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// TrailerPhase is the trailer sub-state, meaningful only while Ready
type TrailerPhase int

const (
	TrailerHidden TrailerPhase = iota
	TrailerLoading
	TrailerPlaying
)

// State is a snapshot of the overlay
type State struct {
	Phase    Phase
	Target   domain.MediaRef
	Fallback string // Title known before the detail arrived
	Detail   *domain.MediaDetail
	Title    string // Display title in every non-closed phase
	Message  string // Error message while Failed

	Trailer    TrailerPhase
	TrailerKey string
}

// IsOpen reports whether the overlay is visible
func (s State) IsOpen() bool {
	return s.Phase != Closed
}

// FetchDetail asks the caller to load the detail for Ref
type FetchDetail struct {
	Ref   domain.MediaRef
	Token sequencer.Token
}

// FetchTrailer asks the caller to load the trailer for Ref. Token is the
// detail token of the open that requested it.
type FetchTrailer struct {
	Ref   domain.MediaRef
	Token sequencer.Token
}

// TrailerOutcome reports how a trailer result was applied
type TrailerOutcome int

const (
	TrailerDiscarded TrailerOutcome = iota
	TrailerApplied
	TrailerNotFound
	TrailerFailed
)

// Notice returns the user-facing message for the outcome, if any
func (o TrailerOutcome) Notice() string {
	switch o {
	case TrailerNotFound:
		return noTrailerTitle
	case TrailerFailed:
		return "Trailer unavailable"
	default:
		return ""
	}
}

// Machine owns the overlay state
type Machine struct {
	mu     sync.Mutex
	seq    *sequencer.Sequencer
	state  State
	gen    sequencer.Token
	logger *slog.Logger
}

// New creates a closed overlay sequenced by seq
func New(seq *sequencer.Sequencer, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{seq: seq, logger: logger}
}

// State returns a snapshot
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Open targets ref from any state. Any in-flight detail or trailer load for
// a previous target becomes stale.
func (m *Machine) Open(ref domain.MediaRef, fallbackTitle string) FetchDetail {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := m.seq.Issue(sequencer.ChannelDetail)
	m.gen = token
	m.state = State{
		Phase:    Loading,
		Target:   ref,
		Fallback: fallbackTitle,
		Title:    fallbackTitle,
	}
	m.logger.Debug("overlay open", "ref", ref.Key(), "token", token)
	return FetchDetail{Ref: ref, Token: token}
}

// ResolveDetail applies a detail result. It returns false, leaving the state
// untouched, when the result is stale.
func (m *Machine) ResolveDetail(fx FetchDetail, detail *domain.MediaDetail, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.seq.IsCurrent(sequencer.ChannelDetail, fx.Token) ||
		m.state.Phase != Loading || m.state.Target != fx.Ref {
		m.logger.Debug("overlay detail discarded", "ref", fx.Ref.Key(), "token", fx.Token)
		return false
	}

	if err != nil || detail == nil {
		title := m.state.Fallback
		if title == "" {
			title = failedTitle
		}
		m.state.Phase = Failed
		m.state.Title = title
		m.state.Message = failedMessage
		m.logger.Warn("overlay detail failed", "ref", fx.Ref.Key(), "error", err)
		return true
	}

	title := detail.Title
	if title == "" {
		title = m.state.Fallback
	}
	if title == "" {
		title = untitled
	}
	m.state.Phase = Ready
	m.state.Detail = detail
	m.state.Title = title
	m.state.Trailer = TrailerHidden
	m.state.TrailerKey = ""
	return true
}

// RequestTrailer starts a trailer load. Only permitted while Ready and no
// trailer load is already running.
func (m *Machine) RequestTrailer() (FetchTrailer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Phase != Ready || m.state.Trailer == TrailerLoading {
		return FetchTrailer{}, false
	}
	m.state.Trailer = TrailerLoading
	m.state.TrailerKey = ""
	return FetchTrailer{Ref: m.state.Target, Token: m.gen}, true
}

// ResolveTrailer applies a trailer result for the open that requested it
func (m *Machine) ResolveTrailer(fx FetchTrailer, trailer *domain.TrailerRef, err error) TrailerOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Phase != Ready || m.state.Target != fx.Ref || m.gen != fx.Token ||
		m.state.Trailer != TrailerLoading {
		m.logger.Debug("overlay trailer discarded", "ref", fx.Ref.Key(), "token", fx.Token)
		return TrailerDiscarded
	}

	switch {
	case errors.Is(err, domain.ErrNotFound) || (err == nil && (trailer == nil || trailer.ProviderKey == "")):
		m.state.Trailer = TrailerHidden
		return TrailerNotFound
	case err != nil:
		m.state.Trailer = TrailerHidden
		m.logger.Warn("overlay trailer failed", "ref", fx.Ref.Key(), "error", err)
		return TrailerFailed
	}

	m.state.Trailer = TrailerPlaying
	m.state.TrailerKey = trailer.ProviderKey
	return TrailerApplied
}

// StopTrailer hides a playing trailer and shows the poster again
func (m *Machine) StopTrailer() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Phase != Ready || m.state.Trailer != TrailerPlaying {
		return false
	}
	m.state.Trailer = TrailerHidden
	m.state.TrailerKey = ""
	return true
}

// Close hides the overlay from any state. Closing a closed overlay is a no-op
// and returns false.
func (m *Machine) Close() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Phase == Closed {
		return false
	}
	m.logger.Debug("overlay close", "ref", m.state.Target.Key())
	m.state = State{}
	return true
}
