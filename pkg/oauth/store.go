package oauth

import "sync"

// tokenStore is the single mutable slot holding a client's current token:
// many concurrent readers or one exclusive writer, never both.
//
// The refresh coordinator holds the write lock across the whole
// check-and-maybe-refresh sequence, so a second caller arriving during a
// refresh waits on the lock instead of firing a duplicate exchange. No
// code path reads the slot outside these methods or the coordinator.
type tokenStore struct {
	mu  sync.RWMutex
	tok *Token
}

// peek returns a copy of the current token under a read lock, nil when
// no token is stored. It never triggers a refresh.
func (s *tokenStore) peek() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tok.Clone()
}

// replace swaps the slot wholesale.
func (s *tokenStore) replace(t *Token) {
	s.mu.Lock()
	s.tok = t
	s.mu.Unlock()
}
