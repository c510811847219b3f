package memory

import (
	"sync"

	"resize-orchestrator/internal/domain"
)

// Patch mutates a working copy of the state. Patches must replace pointer
// fields rather than writing through them, snapshots share pointees.
type Patch func(*domain.JobState)

type Listener func(domain.JobState)

// Store holds the single JobState snapshot together with the generation
// token that invalidates writes belonging to a superseded job.
//
// Listeners run synchronously inside Update, after the write and before
// Update returns. A listener must not write to the store.
type Store struct {
	mu        sync.Mutex
	notifyMu  sync.Mutex
	state     domain.JobState
	listeners map[int]Listener
	nextID    int
}

func NewStore() *Store {
	return &Store{
		state:     domain.JobState{Status: domain.StatusIdle},
		listeners: make(map[int]Listener),
	}
}

func (s *Store) Read() domain.JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Generation
}

func (s *Store) IsCurrent(generation uint64) bool {
	return s.Generation() == generation
}

// Update merges patches into the current snapshot unconditionally.
func (s *Store) Update(patches ...Patch) {
	s.commit(func(st *domain.JobState) bool {
		apply(st, patches)
		return true
	})
}

// UpdateIf applies patches only while generation is still current. It
// reports whether the write happened.
func (s *Store) UpdateIf(generation uint64, patches ...Patch) bool {
	return s.commit(func(st *domain.JobState) bool {
		if st.Generation != generation {
			return false
		}
		apply(st, patches)
		return true
	})
}

// Advance starts a new generation, applies patches to it and returns the
// new token. Every continuation holding an older token becomes stale.
func (s *Store) Advance(patches ...Patch) uint64 {
	var generation uint64
	s.commit(func(st *domain.JobState) bool {
		st.Generation++
		generation = st.Generation
		apply(st, patches)
		return true
	})
	return generation
}

// Reset empties the state and starts a new generation.
func (s *Store) Reset() uint64 {
	return s.Advance(Empty())
}

// Subscribe registers l for every committed snapshot and returns a function
// removing it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) commit(write func(*domain.JobState) bool) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	next := s.state
	if !write(&next) {
		s.mu.Unlock()
		return false
	}
	s.state = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return true
}

func apply(st *domain.JobState, patches []Patch) {
	for _, p := range patches {
		p(st)
	}
}
