// Package hashes implements the content-hash index: an append-only log mapping
// the SHA-256 of a content blob to the id it is stored under.
package hashes

import (
	"bytes"
	"cmp"
	"context"
	"crypto/sha256"
	"fmt"
	"slices"
	"sync"

	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/logfile"
	"github.com/iamNilotpal/fsrecords/internal/core/domain"
)

// Hash identifies content.
type Hash = [sha256.Size]byte

// Sum returns the Hash of data.
func Sum(data []byte) Hash {
	return sha256.Sum256(data)
}

// Storage is the content-hash index. Safe for concurrent use.
type Storage struct {
	log *logfile.LogFile

	mu     sync.RWMutex
	byHash map[Hash]uint32
}

// Open replays the index at opts.Path. An entry whose key is not a SHA-256
// digest is reported as domain.ErrLogEntryCorrupted.
func Open(opts logfile.Options) (*Storage, error) {
	s := &Storage{byHash: make(map[Hash]uint32)}

	log, err := logfile.Open(opts, func(contentID uint32, data []byte) error {
		if len(data) != sha256.Size {
			return fmt.Errorf("%w: hash of %d bytes for content %d", domain.ErrLogEntryCorrupted, len(data), contentID)
		}
		s.byHash[Hash(data)] = contentID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error opening content-hash index : %w", err)
	}

	s.log = log
	return s, nil
}

// Put records that the content with hash is stored under contentID.
// Re-putting an existing mapping is a no-op.
func (s *Storage) Put(hash Hash, contentID uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byHash[hash]; ok && existing == contentID {
		return nil
	}

	if err := s.log.Append(contentID, hash[:]); err != nil {
		return fmt.Errorf("error appending content hash : %w", err)
	}
	s.byHash[hash] = contentID
	return nil
}

// Lookup returns the content id stored under hash.
func (s *Storage) Lookup(hash Hash) (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[hash]
	return id, ok
}

// Entry is one mapping of the index.
type Entry struct {
	Hash      Hash
	ContentID uint32
}

// SortedEntries returns the index ordered by content id, then by hash.
func (s *Storage) SortedEntries() []Entry {
	s.mu.RLock()
	entries := make([]Entry, 0, len(s.byHash))
	for hash, id := range s.byHash {
		entries = append(entries, Entry{Hash: hash, ContentID: id})
	}
	s.mu.RUnlock()

	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(a.ContentID, b.ContentID); c != 0 {
			return c
		}
		return bytes.Compare(a.Hash[:], b.Hash[:])
	})
	return entries
}

// Count returns the number of distinct hashes.
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byHash)
}

func (s *Storage) Flush(ctx context.Context, sync bool) error {
	return s.log.Flush(ctx, sync)
}

func (s *Storage) Close(ctx context.Context) error {
	return s.log.Close(ctx)
}
