package zstdcodec

import (
	"bytes"
	"sync"
	"testing"
)

func TestCodec_RoundTrip(t *testing.T) {
	c := New()
	original := []byte(`{"games":[{"pgn":"1. d4 d5 2. c4 e6 1/2-1/2"}]}`)

	compressed, err := c.Compress(original)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	got, err := c.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("round trip = %q, want %q", got, original)
	}
}

func TestCodec_DecompressInvalidData(t *testing.T) {
	c := New()
	if _, err := c.Decompress([]byte("not a zstd frame")); err == nil {
		t.Error("Decompress() expected error for invalid data, got nil")
	}
}

func TestCodec_ConcurrentUse(t *testing.T) {
	// The shared encoder and decoder must be usable from many goroutines,
	// one per archive during pipelined month fetches.
	c := New()
	payload := bytes.Repeat([]byte("1. e4 c5 2. Nf3 d6 "), 1000)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				compressed, err := c.Compress(payload)
				if err != nil {
					t.Errorf("Compress() error = %v", err)
					return
				}
				got, err := c.Decompress(compressed)
				if err != nil {
					t.Errorf("Decompress() error = %v", err)
					return
				}
				if !bytes.Equal(got, payload) {
					t.Error("round trip mismatch")
					return
				}
			}
		}()
	}
	wg.Wait()
}
