// Package disk implements a disk-based filesystem archive store.
package disk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/leonfresh/chessleaks/internal/codec"
	"github.com/leonfresh/chessleaks/internal/gamecache"
)

// Compile-time check that Store implements gamecache.Store.
var _ gamecache.Store = (*Store)(nil)

// Store is a disk-based archive store.
type Store struct {
	root  string
	codec codec.Codec

	mu    sync.Mutex
	count int
	dirty bool
}

// New creates a new disk store rooted at the given directory, creating it
// if necessary. The codec handles compression/decompression.
func New(root string, codec codec.Codec) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "archives"), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	s := &Store{
		root:  root,
		codec: codec,
	}
	if m, err := gamecache.ReadManifest(root); err == nil {
		s.count = m.ArchiveCount
	}
	return s, nil
}

// ReadArchive reads and decompresses the archive stored under key.
func (s *Store) ReadArchive(ctx context.Context, key string) ([]byte, error) {
	// Check for cancellation before starting I/O.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	path, err := s.archivePath(key)
	if err != nil {
		return nil, err
	}

	compressed, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, gamecache.ErrNotFound
		}
		return nil, fmt.Errorf("reading archive: %w", err)
	}

	data, err := s.codec.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("decompressing archive: %w", err)
	}
	return data, nil
}

// WriteArchive compresses and stores data under key.
func (s *Store) WriteArchive(ctx context.Context, key string, data []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	path, err := s.archivePath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}

	compressed, err := s.codec.Compress(data)
	if err != nil {
		return fmt.Errorf("compressing archive: %w", err)
	}
	if err := os.WriteFile(path, compressed, 0644); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}

	s.mu.Lock()
	s.count++
	s.dirty = true
	s.mu.Unlock()
	return nil
}

// Close writes the manifest if any archives were added.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	s.dirty = false
	return gamecache.WriteManifest(s.root, &gamecache.Manifest{
		Version:      1,
		ArchiveCount: s.count,
		Compression:  s.codec.Extension(),
		UpdatedAt:    time.Now().UTC(),
	})
}

// archivePath returns the filesystem path for an archive key.
// Keys are slash-separated path fragments like "player/2024-03"; anything
// that would escape the cache root is rejected.
func (s *Store) archivePath(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid archive key %q", key)
	}
	name := filepath.FromSlash(key)
	if ext := s.codec.Extension(); ext != "" {
		name += "." + ext
	}
	return filepath.Join(s.root, "archives", name), nil
}
