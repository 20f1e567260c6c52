// Package noopcodec provides a no-op codec (no compression).
package noopcodec

import (
	"github.com/leonfresh/chessleaks/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec passes data through unchanged.
type Codec struct{}

// New returns a new no-op codec.
func New() *Codec {
	return &Codec{}
}

// Compress returns src unchanged.
func (c *Codec) Compress(src []byte) ([]byte, error) {
	return src, nil
}

// Decompress returns src unchanged.
func (c *Codec) Decompress(src []byte) ([]byte, error) {
	return src, nil
}

// Extension returns empty string.
func (c *Codec) Extension() string {
	return ""
}
