package ports

// ChecksumPort calculates and verifies checksums of storage entries.
type ChecksumPort interface {
	// Calculate returns the checksum of data, truncated to 64 bits for
	// algorithms with wider digests.
	Calculate(data []byte) uint64

	// Verify reports whether data matches the expected checksum.
	Verify(data []byte, expected uint64) bool

	// Size returns the digest size of the algorithm in bytes.
	Size() uint8

	// Name returns the algorithm name.
	Name() string
}
