package domain

// CompressionOptions configures how content blobs are compressed before they
// are handed to the content storage.
type CompressionOptions struct {
	// Enable toggles zstd compression of content blobs.
	// Blobs too small to benefit are stored as-is either way.
	Enable bool

	// Level defines the compression level for zstd when compression is enabled.
	// Supported levels:
	//   - 1: Fastest compression, equivalent to zstd's fastest mode
	//   - 2: Default balanced compression (≈ zstd level 3)
	//   - 3: Better compression ratio (≈ zstd level 7-8) with 2x-3x CPU usage
	//   - 4: Maximum compression regardless of CPU cost
	// If not specified, the default level will be used.
	Level uint8

	// EncoderConcurrency specifies the number of concurrent compression operations.
	// Default is number of CPU cores if set to 0.
	EncoderConcurrency uint8

	// DecoderConcurrency specifies the number of concurrent decompression operations.
	// Default is number of CPU cores if set to 0.
	DecoderConcurrency uint8
}
