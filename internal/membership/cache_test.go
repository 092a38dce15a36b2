package membership

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mmcdole/reel/internal/domain"
)

type fakeList struct {
	mu      sync.Mutex
	fail    error
	block   chan struct{}
	added   []domain.MediaRef
	removed []domain.MediaRef
}

func (f *fakeList) wait() {
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeList) AddToList(ctx context.Context, entry domain.ListEntry) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.added = append(f.added, entry.Ref)
	return nil
}

func (f *fakeList) RemoveFromList(ctx context.Context, ref domain.MediaRef) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.removed = append(f.removed, ref)
	return nil
}

var (
	movie42 = domain.MediaRef{ID: 42, Type: domain.MediaTypeMovie}
	tv42    = domain.MediaRef{ID: 42, Type: domain.MediaTypeTV}
)

func TestUnobservedIsNotInList(t *testing.T) {
	c := NewCache(&fakeList{}, nil)
	if c.IsInList(movie42) || c.IsPending(movie42) {
		t.Fatal("expected unobserved item to be absent and settled")
	}
}

func TestToggleAddsAndRemoves(t *testing.T) {
	repo := &fakeList{}
	c := NewCache(repo, nil)

	in, err := c.Toggle(context.Background(), movie42, domain.ListEntry{Title: "Arrival"})
	if err != nil || !in {
		t.Fatalf("expected add to succeed, got in=%v err=%v", in, err)
	}
	in, err = c.Toggle(context.Background(), movie42, domain.ListEntry{})
	if err != nil || in {
		t.Fatalf("expected remove to succeed, got in=%v err=%v", in, err)
	}
	if len(repo.added) != 1 || len(repo.removed) != 1 {
		t.Fatalf("expected one add and one remove, got %v / %v", repo.added, repo.removed)
	}
	if c.IsInList(tv42) {
		t.Fatal("expected refs with the same id but different type to be distinct")
	}
}

func TestRollbackOnFailure(t *testing.T) {
	repo := &fakeList{fail: &domain.FetchError{Kind: domain.FetchHTTPStatus, StatusCode: 500}}
	c := NewCache(repo, nil)
	c.Observe(movie42, true)

	in, err := c.Toggle(context.Background(), movie42, domain.ListEntry{})
	if !errors.Is(err, domain.ErrServerRejected) {
		t.Fatalf("expected ErrServerRejected, got %v", err)
	}
	var fe *domain.FetchError
	if !errors.As(err, &fe) || fe.StatusCode != 500 {
		t.Fatalf("expected cause to be wrapped, got %v", err)
	}
	if !in || !c.IsInList(movie42) || c.IsPending(movie42) {
		t.Fatal("expected value restored and pending cleared after rollback")
	}
}

func TestSecondToggleWhilePendingIsRejected(t *testing.T) {
	repo := &fakeList{block: make(chan struct{})}
	c := NewCache(repo, nil)

	m, err := c.Begin(movie42, domain.ListEntry{})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !c.IsInList(movie42) || !c.IsPending(movie42) {
		t.Fatal("expected optimistic flip while pending")
	}

	if _, err := c.Begin(movie42, domain.ListEntry{}); !errors.Is(err, domain.ErrAlreadyPending) {
		t.Fatalf("expected ErrAlreadyPending, got %v", err)
	}
	if _, err := c.Toggle(context.Background(), movie42, domain.ListEntry{}); !errors.Is(err, domain.ErrAlreadyPending) {
		t.Fatalf("expected Toggle to be rejected too, got %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.Commit(context.Background(), m)
		done <- err
	}()
	close(repo.block)
	if err := <-done; err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(repo.added) != 1 {
		t.Fatalf("expected exactly one server call, got %d", len(repo.added))
	}
	if c.IsPending(movie42) || !c.IsInList(movie42) {
		t.Fatal("expected settled membership after commit")
	}
}

func TestSeedReplacesSettledEntries(t *testing.T) {
	c := NewCache(&fakeList{}, nil)
	c.Observe(movie42, true)

	c.Seed([]domain.MediaRef{tv42})

	if c.IsInList(movie42) {
		t.Fatal("expected item missing from the load to be cleared")
	}
	if !c.IsInList(tv42) {
		t.Fatal("expected seeded item to be in the list")
	}
	if got := c.Members(); len(got) != 1 || got[0] != tv42 {
		t.Fatalf("unexpected members %v", got)
	}
}

func TestObservationsDoNotOverridePending(t *testing.T) {
	c := NewCache(&fakeList{}, nil)
	if _, err := c.Begin(movie42, domain.ListEntry{}); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	c.Seed(nil)
	c.Observe(movie42, false)

	e, ok := c.Entry(movie42)
	if !ok || !e.InList || !e.Pending {
		t.Fatalf("expected pending optimistic value to survive, got %+v", e)
	}
}
