// Package gamecache defines the storage interface for cached game archives.
//
// Monthly game archives fetched from chess.com never change once the month
// is over, so they are stored under stable keys like "hikaru/2024-03" and
// reused across runs.
package gamecache

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an archive does not exist in the store.
var ErrNotFound = errors.New("gamecache: archive not found")

// Store defines the interface for archive storage backends.
// Implementations handle path formats and storage details internally.
type Store interface {
	// ReadArchive reads the content of the archive stored under key.
	ReadArchive(ctx context.Context, key string) ([]byte, error)

	// WriteArchive stores data under key, replacing any existing archive.
	WriteArchive(ctx context.Context, key string, data []byte) error

	// Close releases any resources held by the store.
	Close() error
}
