package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const searchDebounceDelay = 400 * time.Millisecond

// SearchFunc is the directory lookup the searcher coordinates.
type SearchFunc func(ctx context.Context, q Query) SearchResult

// Searcher debounces bursts of search requests and makes sure a
// superseded search can never overwrite a newer one: firing a new query
// cancels the previous fetch's context and bumps a sequence number, and
// completions carrying a stale sequence are dropped. The staleness
// check and the delivery run under the same mutex, so delivered
// results are strictly ordered by sequence and the deliver callback
// must not call back into the Searcher.
type Searcher struct {
	mu      sync.Mutex
	search  SearchFunc
	deliver func(Query, SearchResult)
	delay   time.Duration
	timer   *time.Timer
	cancel  context.CancelFunc
	seq     uint64
	closed  bool
	logger  *zap.Logger
}

func NewSearcher(search SearchFunc, deliver func(Query, SearchResult), logger *zap.Logger) *Searcher {
	return &Searcher{
		search:  search,
		deliver: deliver,
		delay:   searchDebounceDelay,
		logger:  logger,
	}
}

// Search schedules q after the debounce quiet period. Only the last
// call within a burst actually issues a network request.
func (s *Searcher) Search(q Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() { s.fire(q) })
}

// SearchNow skips the debounce. Used for programmatic fetches like the
// initial population at startup.
func (s *Searcher) SearchNow(q Query) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.fire(q)
}

func (s *Searcher) fire(q Query) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	go func() {
		result := s.search(ctx, q)

		s.mu.Lock()
		defer s.mu.Unlock()
		if seq != s.seq || s.closed {
			s.logger.Debug("dropping stale search result",
				zap.String("term", q.Term),
				zap.Uint64("seq", seq),
			)
			return
		}
		s.deliver(q, result)
	}()
}

// Close stops any pending debounce timer and cancels the in-flight
// fetch. Results arriving after Close are dropped.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
