package search

import (
	"context"
	"sync"
)

// Searcher is the operation a Session serializes.
type Searcher interface {
	Search(ctx context.Context, query string) Result
}

// Outcome is a search result tagged with the generation that produced it.
type Outcome struct {
	Result
	Generation uint64

	// Stale is set when a newer search started before this one finished.
	// Callers drop stale outcomes.
	Stale bool
}

// Session gives last-request-wins semantics to a sequence of searches, such
// as keystrokes in an interactive prompt. Starting a search cancels the one
// in flight; its outcome comes back marked Stale.
type Session struct {
	searcher Searcher

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewSession returns a session over searcher.
func NewSession(searcher Searcher) *Session {
	return &Session{searcher: searcher}
}

// Search runs query, superseding any search still in flight.
func (s *Session) Search(ctx context.Context, query string) Outcome {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	s.cancel = cancel
	s.mu.Unlock()

	res := s.searcher.Search(ctx, query)

	s.mu.Lock()
	stale := gen != s.generation
	if !stale {
		s.cancel = nil
	}
	s.mu.Unlock()
	cancel()

	return Outcome{Result: res, Generation: gen, Stale: stale}
}

// Generation returns the id of the most recently started search.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Close cancels the search in flight, if any.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
