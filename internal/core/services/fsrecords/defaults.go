package fsrecords

import (
	"strings"

	"github.com/iamNilotpal/fsrecords/internal/adapters/checksum"
	"github.com/iamNilotpal/fsrecords/internal/adapters/compression"
	"github.com/iamNilotpal/fsrecords/internal/core/domain"
)

const (
	DefaultDirectory   = "./fsrecords"
	DefaultMaxAttempts = 3
	MaxAttemptsLimit   = 10

	DefaultBufferSize    = 65536    // 64KB
	DefaultMinBufferSize = 4096     // 4KB
	DefaultMaxBufferSize = 16777216 // 16MB

	DefaultBlockCacheSizeMB = 64
	DefaultIndexCacheSizeMB = 32
)

// prepareDefaults returns a copy of opts with every unset option defaulted.
func prepareDefaults(opts *domain.StorageOptions) *domain.StorageOptions {
	prepared := domain.StorageOptions{}
	if opts != nil {
		prepared = *opts
	}

	if strings.TrimSpace(prepared.Directory) == "" {
		prepared.Directory = DefaultDirectory
	}

	if prepared.MaxAttempts == 0 {
		prepared.MaxAttempts = DefaultMaxAttempts
	}

	if prepared.BufferSize == 0 {
		prepared.BufferSize = DefaultBufferSize
	}

	if prepared.BlockCacheSizeMB == 0 {
		prepared.BlockCacheSizeMB = DefaultBlockCacheSizeMB
	}

	if prepared.IndexCacheSizeMB == 0 {
		prepared.IndexCacheSizeMB = DefaultIndexCacheSizeMB
	}

	if prepared.ChecksumOptions == nil {
		prepared.ChecksumOptions = checksum.DefaultOptions()
	}

	if prepared.CompressionOptions == nil {
		prepared.CompressionOptions = compression.DefaultOptions()
	}

	return &prepared
}
