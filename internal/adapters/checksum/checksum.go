// Package checksum provides the checksum algorithms that guard entries of the
// append-only storages.
package checksum

import (
	"fmt"

	"github.com/iamNilotpal/fsrecords/internal/core/domain"
	"github.com/iamNilotpal/fsrecords/internal/core/ports"
)

const (
	// CRC32IEEE uses the IEEE polynomial for CRC32 checksums
	CRC32IEEE domain.ChecksumAlgorithm = "crc32-ieee"

	// CRC64ISO uses the ISO polynomial for CRC64 checksums
	CRC64ISO domain.ChecksumAlgorithm = "crc64-iso"

	// CRC64ECMA uses the ECMA polynomial for CRC64 checksums
	CRC64ECMA domain.ChecksumAlgorithm = "crc64-ecma"

	// SHA1 provides SHA-1 checksums truncated to 64 bits.
	SHA1 domain.ChecksumAlgorithm = "sha1"

	// SHA256 provides SHA-256 checksums truncated to 64 bits.
	SHA256 domain.ChecksumAlgorithm = "sha256"
)

// Returns recommended checksum settings.
func DefaultOptions() *domain.ChecksumOptions {
	return &domain.ChecksumOptions{
		Enable:       true,
		VerifyOnLoad: true,
		Algorithm:    CRC32IEEE,
	}
}

// Validate checks that the configured algorithm is supported.
func Validate(input *domain.ChecksumOptions) error {
	if input.Custom == nil {
		switch input.Algorithm {
		case CRC32IEEE, CRC64ISO, CRC64ECMA, SHA1, SHA256:
		default:
			return fmt.Errorf("unsupported checksum algorithm: %s", input.Algorithm)
		}
	}
	return nil
}

// New returns the checksum implementation selected by opts, or nil when
// checksums are disabled.
func New(opts *domain.ChecksumOptions) (ports.ChecksumPort, error) {
	if opts == nil || !opts.Enable {
		return nil, nil
	}
	if opts.Custom != nil {
		return opts.Custom, nil
	}

	switch opts.Algorithm {
	case CRC32IEEE, "":
		return NewCRC32IEEE(), nil
	case CRC64ISO:
		return NewCRC64ISO(), nil
	case CRC64ECMA:
		return NewCRC64ECMA(), nil
	case SHA1:
		return NewSHA1(), nil
	case SHA256:
		return NewSHA256(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm: %s", opts.Algorithm)
	}
}
