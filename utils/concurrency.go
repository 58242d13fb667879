package utils

import "sync"

// HashSet is a thread-safe set of identity hashes. One instance is owned by
// a filtering pipeline and lives as long as that pipeline; it is never
// persisted and only shrinks through Reset.
type HashSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewHashSet creates an empty HashSet.
func NewHashSet() *HashSet {
	return &HashSet{seen: make(map[string]struct{})}
}

// Add returns true if the hash was newly added, false if already present.
func (s *HashSet) Add(hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[hash]; exists {
		return false
	}
	s.seen[hash] = struct{}{}
	return true
}

// Contains returns true if the hash has already been recorded.
func (s *HashSet) Contains(hash string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[hash]
	return exists
}

// Size returns the number of unique hashes tracked.
func (s *HashSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Reset forgets every recorded hash.
func (s *HashSet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[string]struct{})
}
