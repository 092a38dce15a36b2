package sequencer

import (
	"sync"
	"testing"
)

func TestIssueIsMonotonicPerChannel(t *testing.T) {
	s := New()

	d1 := s.Issue(ChannelDetail)
	d2 := s.Issue(ChannelDetail)
	q1 := s.Issue(ChannelSearch)

	if d1 != 1 || d2 != 2 {
		t.Fatalf("expected detail tokens 1,2, got %d,%d", d1, d2)
	}
	if q1 != 1 {
		t.Fatalf("expected channels to be independent, got search token %d", q1)
	}
}

func TestOnlyLatestTokenIsCurrent(t *testing.T) {
	s := New()

	first := s.Issue(ChannelDetail)
	if !s.IsCurrent(ChannelDetail, first) {
		t.Fatal("expected first token to be current before a second issue")
	}
	second := s.Issue(ChannelDetail)

	if s.IsCurrent(ChannelDetail, first) {
		t.Fatal("expected superseded token to be stale")
	}
	if !s.IsCurrent(ChannelDetail, second) {
		t.Fatal("expected latest token to be current")
	}
	if s.IsCurrent(ChannelSearch, second) {
		t.Fatal("expected token to be scoped to its channel")
	}
}

func TestZeroTokenNeverCurrent(t *testing.T) {
	s := New()
	if s.IsCurrent(ChannelDetail, 0) {
		t.Fatal("expected zero token to be stale on an unused channel")
	}
}

func TestRailChannels(t *testing.T) {
	s := New()
	a := RailChannel("trending:20")
	b := RailChannel("my_list:50")

	if !a.IsRail() || ChannelDetail.IsRail() {
		t.Fatal("unexpected IsRail result")
	}

	ta := s.Issue(a)
	s.Issue(b)
	if !s.IsCurrent(a, ta) {
		t.Fatal("expected rails to sequence independently")
	}
}

func TestConcurrentIssue(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Issue(ChannelSearch)
		}()
	}
	wg.Wait()

	if got := s.Current(ChannelSearch); got != 50 {
		t.Fatalf("expected 50 issued tokens, got %d", got)
	}
}
