package domain

import (
	"github.com/iamNilotpal/fsrecords/internal/core/ports"
)

// ChecksumAlgorithm represents supported checksum algorithms.
type ChecksumAlgorithm string

// ChecksumOptions defines how entries of the append-only storages (name table
// and content-hash index) are protected against corruption.
type ChecksumOptions struct {
	// Enable controls whether checksums are written and verified.
	// When false, entries carry a zero checksum and are never verified,
	// so a flipped bit is only detected later by reference validation.
	//
	// Default: true
	Enable bool

	// Algorithm specifies which checksum algorithm to use.
	// Defaults to CRC32IEEE if not specified.
	Algorithm ChecksumAlgorithm

	// Custom allows using a custom ChecksumPort implementation.
	// If provided, it takes precedence over Algorithm.
	Custom ports.ChecksumPort

	// VerifyOnLoad determines if checksums are verified while replaying the
	// storages at startup. A mismatch fails the load attempt.
	//
	// Default: true
	VerifyOnLoad bool
}
