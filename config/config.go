package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iamNilotpal/fsrecords/internal/adapters/checksum"
	"github.com/iamNilotpal/fsrecords/internal/adapters/compression"
	"github.com/iamNilotpal/fsrecords/internal/core/domain"
)

type Config struct {
	Storage     StorageConfig `yaml:"storage"`
	StoragePath string        `yaml:"storage_path"` // Root directory of the storages
	LogLevel    string        `yaml:"log_level"`    // debug, info, warn or error
	MetricsAddr string        `yaml:"metrics_addr"` // Address to serve /metrics on, empty disables it
}

// Holds storage-specific configuration
type StorageConfig struct {
	MaxAttempts       uint8  `yaml:"max_attempts"`        // Load attempts before giving up
	BufferSize        uint32 `yaml:"buffer_size"`         // Size of write buffers
	SyncOnWrite       bool   `yaml:"sync_on_write"`       // Sync after each append
	ChecksumAlgorithm string `yaml:"checksum_algorithm"`  // Empty disables checksums
	VerifyOnLoad      bool   `yaml:"verify_on_load"`      // Verify checksums at startup
	CompressionLevel  uint8  `yaml:"compression_level"`   // 0 disables compression, 1-4 otherwise
	BlockCacheSizeMB  int64  `yaml:"block_cache_size_mb"` // Content storage block cache
	IndexCacheSizeMB  int64  `yaml:"index_cache_size_mb"` // Content storage index cache
}

// Returns a Config struct with reasonable default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:    "info",
		StoragePath: "./fsrecords",
		Storage: StorageConfig{
			MaxAttempts:       3,
			BufferSize:        64 * 1024, // 64KB
			VerifyOnLoad:      true,
			ChecksumAlgorithm: string(checksum.CRC32IEEE),
			CompressionLevel:  compression.DefaultLevel,
			BlockCacheSizeMB:  64,
			IndexCacheSizeMB:  32,
		},
	}
}

// Loads configuration from a YAML file. Keys missing from the file keep their
// default values.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// StorageOptions converts the configuration into storage options.
func (c *Config) StorageOptions() *domain.StorageOptions {
	checksumOpts := checksum.DefaultOptions()
	checksumOpts.Enable = c.Storage.ChecksumAlgorithm != ""
	checksumOpts.Algorithm = domain.ChecksumAlgorithm(c.Storage.ChecksumAlgorithm)
	checksumOpts.VerifyOnLoad = c.Storage.VerifyOnLoad

	compressionOpts := compression.DefaultOptions()
	compressionOpts.Enable = c.Storage.CompressionLevel != 0
	if compressionOpts.Enable {
		compressionOpts.Level = c.Storage.CompressionLevel
	}

	return &domain.StorageOptions{
		Directory:          c.StoragePath,
		MaxAttempts:        c.Storage.MaxAttempts,
		BufferSize:         c.Storage.BufferSize,
		SyncOnWrite:        c.Storage.SyncOnWrite,
		BlockCacheSizeMB:   c.Storage.BlockCacheSizeMB,
		IndexCacheSizeMB:   c.Storage.IndexCacheSizeMB,
		ChecksumOptions:    checksumOpts,
		CompressionOptions: compressionOpts,
	}
}

func validateConfig(config *Config) error {
	if config.StoragePath == "" {
		return fmt.Errorf("storage_path is required")
	}

	switch config.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", config.LogLevel)
	}

	if err := validateStorageConfig(&config.Storage); err != nil {
		return fmt.Errorf("invalid storage configuration: %w", err)
	}

	return nil
}

func validateStorageConfig(config *StorageConfig) error {
	if config.MaxAttempts < 1 || config.MaxAttempts > 10 {
		return fmt.Errorf("max_attempts must be between 1 and 10")
	}

	if config.CompressionLevel > compression.BestLevel {
		return fmt.Errorf("compression_level must be between 0 and %d", compression.BestLevel)
	}

	if config.ChecksumAlgorithm != "" {
		if err := checksum.Validate(&domain.ChecksumOptions{Algorithm: domain.ChecksumAlgorithm(config.ChecksumAlgorithm)}); err != nil {
			return err
		}
	}

	if config.BlockCacheSizeMB < 0 || config.IndexCacheSizeMB < 0 {
		return fmt.Errorf("cache sizes must not be negative")
	}

	return nil
}
