package domain

import "errors"

// Faults raised by the storages. The loader maps them onto load categories;
// anything else it sees is reported as unrecognized.
var (
	// ErrNameNotFound is returned when a name id cannot be resolved.
	ErrNameNotFound = errors.New("name not found")

	// ErrContentNotFound is returned when a content id cannot be resolved.
	ErrContentNotFound = errors.New("content not found")

	// ErrContentCorrupted is returned when a stored content blob cannot be
	// decoded back into its content.
	ErrContentCorrupted = errors.New("content corrupted")

	// ErrContentHashMismatch is returned when a content blob does not hash to
	// the key the content-hash index stores it under.
	ErrContentHashMismatch = errors.New("content hash mismatch")

	// ErrVersionMismatch is returned when the on-disk format version is not the
	// one this code writes.
	ErrVersionMismatch = errors.New("storage format version mismatch")

	// ErrNotClosedProperly is returned when the records storage is still marked
	// as connected by a previous process.
	ErrNotClosedProperly = errors.New("storage was not closed properly")

	// ErrBadMagic is returned when a file does not start with the expected magic.
	ErrBadMagic = errors.New("bad magic number")

	// ErrRecordsTruncated is returned when the records file is shorter than its
	// header claims.
	ErrRecordsTruncated = errors.New("records storage truncated")

	// ErrLogEntryCorrupted is returned when a complete log entry fails its checksum.
	ErrLogEntryCorrupted = errors.New("log entry corrupted")

	// ErrStorageClosed indicates an operation on a closed storage.
	ErrStorageClosed = errors.New("storage is closed")
)
