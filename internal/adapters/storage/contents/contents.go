// Package contents implements the content storage on top of BadgerDB.
//
// Key layout:
//
//	c/<id, 4 bytes big endian>  -> encoding byte + blob
//	m/next                      -> next content id, 4 bytes big endian
package contents

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/iamNilotpal/fsrecords/internal/core/domain"
	"github.com/iamNilotpal/fsrecords/internal/core/ports"
)

var (
	contentPrefix = []byte("c/")
	nextIDKey     = []byte("m/next")
)

// Blob encodings, stored as the first value byte.
const (
	encodingRaw  byte = 0
	encodingZstd byte = 1
)

// Config contains configuration for opening the content storage.
type Config struct {
	// Path is the directory BadgerDB keeps its files in.
	Path string

	// Compressor compresses blobs; nil stores them raw.
	Compressor ports.CompressionPort

	// Logger receives BadgerDB's own warnings and errors.
	Logger *zap.SugaredLogger

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64).
	BlockCacheSizeMB int64

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32).
	IndexCacheSizeMB int64
}

// Storage stores content blobs under dense ids starting at 1.
// Safe for concurrent use.
type Storage struct {
	db         *badger.DB
	compressor ports.CompressionPort

	mu     sync.Mutex // Serializes id allocation.
	nextID uint32
}

// Open opens or creates the content storage.
func Open(ctx context.Context, config Config) (*Storage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(config.Path)
	opts = opts.WithLoggingLevel(badger.WARNING)
	// Blobs are compressed before they get here.
	opts = opts.WithCompression(options.None)

	if config.Logger != nil {
		opts = opts.WithLogger(badgerLogger{config.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := config.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	opts = opts.WithIndexCacheSize(indexCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.Path, err)
	}

	s := &Storage{db: db, compressor: config.Compressor, nextID: 1}

	if err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nextIDKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 4 {
				return fmt.Errorf("next id value has %d bytes", len(val))
			}
			s.nextID = binary.BigEndian.Uint32(val)
			return nil
		})
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to read content id counter: %w", err)
	}

	return s, nil
}

// Store saves data and returns its new id.
func (s *Storage) Store(data []byte) (uint32, error) {
	value := []byte{encodingRaw}
	if s.compressor != nil {
		compressed, err := s.compressor.Compress(data)
		if err != nil {
			return 0, fmt.Errorf("failed to compress content: %w", err)
		}
		if len(compressed) < len(data) {
			value[0] = encodingZstd
			data = compressed
		}
	}
	value = append(value, data...)

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	next := make([]byte, 4)
	binary.BigEndian.PutUint32(next, id+1)

	if err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(contentKey(id), value); err != nil {
			return err
		}
		return txn.Set(nextIDKey, next)
	}); err != nil {
		return 0, fmt.Errorf("failed to store content: %w", err)
	}

	s.nextID = id + 1
	return id, nil
}

// Read returns the blob stored under id. Unknown ids return an error
// wrapping both domain.ErrContentNotFound and badger.ErrKeyNotFound. A blob
// that cannot be decoded returns an error wrapping domain.ErrContentCorrupted.
func (s *Storage) Read(id uint32) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(contentKey(id))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("content %d: %w: %w", id, domain.ErrContentNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read content %d: %w", id, err)
	}

	if len(value) == 0 {
		return nil, fmt.Errorf("content %d: %w: no encoding byte", id, domain.ErrContentCorrupted)
	}

	switch value[0] {
	case encodingRaw:
		return value[1:], nil
	case encodingZstd:
		if s.compressor == nil {
			return nil, fmt.Errorf("content %d: %w: compressed but no decompressor is configured", id, domain.ErrContentCorrupted)
		}
		data, err := s.compressor.Decompress(value[1:])
		if err != nil {
			return nil, fmt.Errorf("content %d: %w: %w", id, domain.ErrContentCorrupted, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("content %d: %w: unknown encoding %d", id, domain.ErrContentCorrupted, value[0])
	}
}

// Delete removes the blob stored under id.
func (s *Storage) Delete(id uint32) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(contentKey(id))
	})
}

// IDs returns every stored id in ascending order.
func (s *Storage) IDs() ([]uint32, error) {
	var ids []uint32
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = contentPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			if len(key) != len(contentPrefix)+4 {
				continue
			}
			ids = append(ids, binary.BigEndian.Uint32(key[len(contentPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list contents: %w", err)
	}
	return ids, nil
}

// Count returns the number of stored blobs.
func (s *Storage) Count() (int, error) {
	ids, err := s.IDs()
	return len(ids), err
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

func contentKey(id uint32) []byte {
	key := make([]byte, len(contentPrefix)+4)
	copy(key, contentPrefix)
	binary.BigEndian.PutUint32(key[len(contentPrefix):], id)
	return key
}

// badgerLogger routes BadgerDB logs to zap.
type badgerLogger struct {
	log *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...any)   { l.log.Errorf("badger: "+format, args...) }
func (l badgerLogger) Warningf(format string, args ...any) { l.log.Warnf("badger: "+format, args...) }
func (l badgerLogger) Infof(format string, args ...any)    { l.log.Infof("badger: "+format, args...) }
func (l badgerLogger) Debugf(format string, args ...any)   { l.log.Debugf("badger: "+format, args...) }
