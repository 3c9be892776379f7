// Package memory provides an in-memory window store for tests and for running
// without Redis configured. Not distributed.
package memory

import (
	"context"
	"sync"
	"time"

	"tokengate/internal/ratelimit/ports"
)

type Store struct {
	mu     sync.Mutex
	events map[string][]time.Time
}

var _ ports.WindowStore = (*Store)(nil)

func New() *Store {
	return &Store{events: make(map[string][]time.Time)}
}

func (s *Store) CountSince(_ context.Context, key string, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune(key, cutoff)
	return len(s.events[key]), nil
}

func (s *Store) RecordEvent(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[key] = append(s.events[key], at)
	return nil
}

// prune drops events before the cutoff. Events are appended in time order, so
// a single scan from the front suffices. Must be called holding s.mu.
func (s *Store) prune(key string, cutoff time.Time) {
	events := s.events[key]
	i := 0
	for ; i < len(events); i++ {
		if !events[i].Before(cutoff) {
			break
		}
	}
	if i == 0 {
		return
	}
	if i == len(events) {
		delete(s.events, key)
		return
	}
	s.events[key] = events[i:]
}
