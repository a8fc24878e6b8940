package main

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type searchRecorder struct {
	mu        sync.Mutex
	fired     []string
	delivered []string
	contexts  map[string]context.Context
	gate      map[string]chan struct{}
}

func newSearchRecorder() *searchRecorder {
	return &searchRecorder{
		contexts: map[string]context.Context{},
		gate:     map[string]chan struct{}{},
	}
}

func (s *searchRecorder) search(ctx context.Context, q Query) SearchResult {
	s.mu.Lock()
	s.fired = append(s.fired, q.Term)
	s.contexts[q.Term] = ctx
	gate := s.gate[q.Term]
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return SearchResult{Stations: []Station{testStation(q.Term)}, Source: SourceLive}
}

func (s *searchRecorder) deliver(q Query, result SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, q.Term)
}

func (s *searchRecorder) firedTerms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fired...)
}

func (s *searchRecorder) deliveredTerms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.delivered...)
}

// TestDebounceCollapsesBursts types three queries in quick succession
// and expects only the last one to reach the network.
func TestDebounceCollapsesBursts(t *testing.T) {
	rec := newSearchRecorder()
	s := NewSearcher(rec.search, rec.deliver, zap.NewNop())
	s.delay = 20 * time.Millisecond
	defer s.Close()

	s.Search(Query{Term: "j"})
	s.Search(Query{Term: "ja"})
	s.Search(Query{Term: "jazz"})

	waitFor(t, "the debounced search to fire", func() bool {
		return len(rec.deliveredTerms()) == 1
	})
	if fired := rec.firedTerms(); len(fired) != 1 || fired[0] != "jazz" {
		t.Errorf("Expected only the last query to fire, got %v", fired)
	}
}

// TestStaleSearchIsDroppedAndCancelled lets an older fetch resolve
// after a newer one and expects its result discarded and its context
// cancelled the moment the newer search fired.
func TestStaleSearchIsDroppedAndCancelled(t *testing.T) {
	rec := newSearchRecorder()
	gate := make(chan struct{})
	rec.gate["slow"] = gate

	s := NewSearcher(rec.search, rec.deliver, zap.NewNop())
	defer s.Close()

	s.SearchNow(Query{Term: "slow"})
	waitFor(t, "the slow fetch to start", func() bool {
		return len(rec.firedTerms()) == 1
	})

	s.SearchNow(Query{Term: "fast"})
	waitFor(t, "the fast result to land", func() bool {
		delivered := rec.deliveredTerms()
		return len(delivered) == 1 && delivered[0] == "fast"
	})

	rec.mu.Lock()
	slowCtx := rec.contexts["slow"]
	rec.mu.Unlock()
	select {
	case <-slowCtx.Done():
	default:
		t.Errorf("Expected the superseded fetch's context to be cancelled")
	}

	close(gate)
	time.Sleep(20 * time.Millisecond)
	if delivered := rec.deliveredTerms(); len(delivered) != 1 {
		t.Errorf("Expected the stale result dropped, got %v", delivered)
	}
}

// TestDeliveryOrderIsMonotonic races many queries whose fetches resolve
// in arbitrary order and expects the delivered sequence to only ever
// move forward. A query resolving late must never land after one that
// superseded it.
func TestDeliveryOrderIsMonotonic(t *testing.T) {
	var mu sync.Mutex
	var delivered []int

	search := func(ctx context.Context, q Query) SearchResult {
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
		return SearchResult{}
	}
	deliver := func(q Query, _ SearchResult) {
		n, err := strconv.Atoi(q.Term)
		if err != nil {
			t.Errorf("Unexpected term %q", q.Term)
			return
		}
		mu.Lock()
		delivered = append(delivered, n)
		mu.Unlock()
	}

	s := NewSearcher(search, deliver, zap.NewNop())
	defer s.Close()

	const queries = 50
	for i := 0; i < queries; i++ {
		s.SearchNow(Query{Term: strconv.Itoa(i)})
	}
	waitFor(t, "the last query to land", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) > 0 && delivered[len(delivered)-1] == queries-1
	})
	time.Sleep(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(delivered); i++ {
		if delivered[i] <= delivered[i-1] {
			t.Fatalf("Expected deliveries in increasing order, got %v", delivered)
		}
	}
}

func TestSearchAfterCloseIsIgnored(t *testing.T) {
	rec := newSearchRecorder()
	s := NewSearcher(rec.search, rec.deliver, zap.NewNop())
	s.delay = time.Millisecond

	s.Close()
	s.Search(Query{Term: "late"})
	s.SearchNow(Query{Term: "later"})

	time.Sleep(20 * time.Millisecond)
	if fired := rec.firedTerms(); len(fired) != 0 {
		t.Errorf("Expected no fetches after Close, got %v", fired)
	}
}
