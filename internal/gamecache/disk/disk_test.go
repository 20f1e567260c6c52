package disk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leonfresh/chessleaks/internal/codec/noopcodec"
	"github.com/leonfresh/chessleaks/internal/codec/zstdcodec"
	"github.com/leonfresh/chessleaks/internal/gamecache"
)

func TestStore_WriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, zstdcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	data := []byte(`{"games":[{"pgn":"1. e4 e5 1-0"}]}`)

	if err := s.WriteArchive(ctx, "hikaru/2024-03", data); err != nil {
		t.Fatalf("WriteArchive() error = %v", err)
	}

	got, err := s.ReadArchive(ctx, "hikaru/2024-03")
	if err != nil {
		t.Fatalf("ReadArchive() error = %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("ReadArchive() = %q, want %q", got, data)
	}

	// Compressed file should exist under archives/ with the codec extension.
	path := filepath.Join(dir, "archives", "hikaru", "2024-03.zst")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected archive file at %s: %v", path, err)
	}
}

func TestStore_ReadArchiveNotFound(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, noopcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	_, err = s.ReadArchive(context.Background(), "nobody/1999-01")
	if !errors.Is(err, gamecache.ErrNotFound) {
		t.Errorf("ReadArchive() error = %v, want ErrNotFound", err)
	}
}

func TestStore_InvalidKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, noopcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	for _, key := range []string{"", "../escape", "/abs/path", "a/../../b"} {
		if err := s.WriteArchive(ctx, key, []byte("x")); err == nil {
			t.Errorf("WriteArchive(%q) expected error, got nil", key)
		}
		if _, err := s.ReadArchive(ctx, key); err == nil {
			t.Errorf("ReadArchive(%q) expected error, got nil", key)
		}
	}
}

func TestStore_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, noopcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.ReadArchive(ctx, "p/2024-01"); !errors.Is(err, context.Canceled) {
		t.Errorf("ReadArchive() error = %v, want context.Canceled", err)
	}
	if err := s.WriteArchive(ctx, "p/2024-01", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("WriteArchive() error = %v, want context.Canceled", err)
	}
}

func TestStore_CloseWritesManifest(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, zstdcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	if err := s.WriteArchive(ctx, "p/2024-01", []byte("a")); err != nil {
		t.Fatalf("WriteArchive() error = %v", err)
	}
	if err := s.WriteArchive(ctx, "p/2024-02", []byte("b")); err != nil {
		t.Fatalf("WriteArchive() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	m, err := gamecache.ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if m.ArchiveCount != 2 {
		t.Errorf("ArchiveCount = %d, want 2", m.ArchiveCount)
	}
	if m.Compression != "zst" {
		t.Errorf("Compression = %q, want %q", m.Compression, "zst")
	}

	// Reopening resumes the count from the manifest.
	s2, err := New(dir, zstdcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s2.WriteArchive(ctx, "p/2024-03", []byte("c")); err != nil {
		t.Fatalf("WriteArchive() error = %v", err)
	}
	if err := s2.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	m, err = gamecache.ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if m.ArchiveCount != 3 {
		t.Errorf("ArchiveCount after reopen = %d, want 3", m.ArchiveCount)
	}
}

func TestStore_CloseWithoutWritesSkipsManifest(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, noopcodec.New())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "manifest.json")); !os.IsNotExist(err) {
		t.Error("Close() without writes should not create a manifest")
	}
}
