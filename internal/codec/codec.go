// Package codec provides compression for archived game data.
package codec

// Codec compresses and decompresses whole archive payloads. Monthly
// archives are small enough to round-trip in memory, so the API works
// on byte slices rather than streams.
type Codec interface {
	// Compress returns the compressed form of src.
	Compress(src []byte) ([]byte, error)
	// Decompress returns the original form of compressed data.
	Decompress(src []byte) ([]byte, error)
	// Extension returns the file extension without dot (e.g., "zst", "gz").
	// Returns empty string for no compression.
	Extension() string
}
