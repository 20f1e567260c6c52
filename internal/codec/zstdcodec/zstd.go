// Package zstdcodec provides a zstd compression codec.
package zstdcodec

import (
	"github.com/klauspost/compress/zstd"

	"github.com/leonfresh/chessleaks/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements zstd compression. One encoder and decoder pair is
// shared across calls; both are safe for concurrent EncodeAll/DecodeAll.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New returns a new zstd codec.
func New() *Codec {
	// Neither constructor fails without options or an attached stream.
	enc, _ := zstd.NewWriter(nil)
	dec, _ := zstd.NewReader(nil)
	return &Codec{enc: enc, dec: dec}
}

// Compress returns the zstd-compressed form of src.
func (c *Codec) Compress(src []byte) ([]byte, error) {
	return c.enc.EncodeAll(src, nil), nil
}

// Decompress returns the original form of zstd-compressed data.
func (c *Codec) Decompress(src []byte) ([]byte, error) {
	return c.dec.DecodeAll(src, nil)
}

// Extension returns "zst".
func (c *Codec) Extension() string {
	return "zst"
}
