package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. Used in tests and
// single-node dev setups.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]State)}
}

func (s *MemoryStore) Get(_ context.Context, sid string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.m[sid]
	if !ok {
		return State{}, ErrNotFound
	}
	if st.Pending != nil {
		p := *st.Pending
		st.Pending = &p
	}
	return st, nil
}

func (s *MemoryStore) Put(_ context.Context, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.Pending != nil {
		p := *st.Pending
		st.Pending = &p
	}
	s.m[st.SID] = st
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, sid)
	return nil
}
