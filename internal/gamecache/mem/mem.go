// Package mem provides an in-memory archive store for testing.
package mem

import (
	"context"
	"sync"

	"github.com/leonfresh/chessleaks/internal/gamecache"
)

// Compile-time check that Store implements gamecache.Store.
var _ gamecache.Store = (*Store)(nil)

// Store is an in-memory archive store for testing.
type Store struct {
	mu       sync.RWMutex
	archives map[string][]byte
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		archives: make(map[string][]byte),
	}
}

// ReadArchive reads an archive from memory.
func (s *Store) ReadArchive(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.archives[key]
	if !ok {
		return nil, gamecache.ErrNotFound
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

// WriteArchive stores an archive in memory.
// The data is copied to prevent caller mutations from affecting the store.
func (s *Store) WriteArchive(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	s.archives[key] = copied
	return nil
}

// Len returns the number of stored archives.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.archives)
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}
