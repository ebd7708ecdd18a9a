package fsrecords

import (
	"errors"
	"fmt"

	"github.com/iamNilotpal/fsrecords/internal/adapters/checksum"
	"github.com/iamNilotpal/fsrecords/internal/adapters/compression"
	"github.com/iamNilotpal/fsrecords/internal/core/domain"
	loaderrors "github.com/iamNilotpal/fsrecords/pkg/errors"
)

// Validate checks defaulted options. Failures are *errors.ValidationError.
func Validate(opts *domain.StorageOptions) error {
	if opts.Directory == "" {
		return loaderrors.NewValidationError("directory", opts.Directory, errors.New("must not be empty"))
	}

	if opts.MaxAttempts < 1 || opts.MaxAttempts > MaxAttemptsLimit {
		return loaderrors.NewValidationError(
			"max_attempts", opts.MaxAttempts, fmt.Errorf("must be between 1 and %d", MaxAttemptsLimit),
		)
	}

	if err := validateBufferSize(opts.BufferSize); err != nil {
		return loaderrors.NewValidationError("buffer_size", opts.BufferSize, err)
	}

	if opts.BlockCacheSizeMB < 0 {
		return loaderrors.NewValidationError("block_cache_size_mb", opts.BlockCacheSizeMB, errors.New("must not be negative"))
	}

	if opts.IndexCacheSizeMB < 0 {
		return loaderrors.NewValidationError("index_cache_size_mb", opts.IndexCacheSizeMB, errors.New("must not be negative"))
	}

	if opts.ChecksumOptions.Enable {
		if err := checksum.Validate(opts.ChecksumOptions); err != nil {
			return loaderrors.NewValidationError("checksum_algorithm", opts.ChecksumOptions.Algorithm, err)
		}
	}

	if opts.CompressionOptions.Enable {
		if err := compression.Validate(opts.CompressionOptions); err != nil {
			return loaderrors.NewValidationError("compression_level", opts.CompressionOptions.Level, err)
		}
	}

	return nil
}

func validateBufferSize(size uint32) error {
	if size < DefaultMinBufferSize {
		return fmt.Errorf("must be at least 4KB (4096 bytes), got %d bytes", size)
	}

	if size > DefaultMaxBufferSize {
		return fmt.Errorf("must not exceed 16MB (16777216 bytes), got %d bytes", size)
	}

	if size&(size-1) != 0 {
		return fmt.Errorf("must be a power of 2, got %d bytes", size)
	}

	return nil
}
