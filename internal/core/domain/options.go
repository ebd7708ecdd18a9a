// Package domain defines the core types and configurations of the persistent
// records storages.
package domain

// StorageOptions defines the configuration of the persistent records storages
// and of the initialization that loads them at startup.
type StorageOptions struct {
	// Directory is the root where every storage file lives.
	// It is created on first start; its whole content is discarded on rebuild,
	// so it must not be shared with anything else.
	//
	// Default: "./fsrecords"
	Directory string

	// MaxAttempts bounds how many load attempts initialization makes.
	// Every attempt after the first follows a rebuild. Must be between 1 and 10.
	//
	// Default: 3
	MaxAttempts uint8

	// BufferSize controls the size of the write buffer of the append-only
	// storages. Must be a power of two between 4KB and 16MB.
	//
	// Default: 64KB
	BufferSize uint32

	// SyncOnWrite forces an fsync after every append.
	//
	// Default: false
	SyncOnWrite bool

	// BlockCacheSizeMB is the content storage block cache size.
	//
	// Default: 64
	BlockCacheSizeMB int64

	// IndexCacheSizeMB is the content storage index cache size.
	//
	// Default: 32
	IndexCacheSizeMB int64

	// Corruption detection for the name table and the content-hash index.
	ChecksumOptions *ChecksumOptions

	// CompressionOptions configures compression of content blobs.
	CompressionOptions *CompressionOptions
}
