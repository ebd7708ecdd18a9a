// Package names implements the name table: an append-only log interning file
// names to dense ids starting at 1.
package names

import (
	"context"
	"fmt"
	"sync"

	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/logfile"
	"github.com/iamNilotpal/fsrecords/internal/core/domain"
)

// Storage interns names. Safe for concurrent use.
type Storage struct {
	log *logfile.LogFile

	mu     sync.RWMutex
	byID   []string // byID[id-1] is the name with that id.
	byName map[string]uint32
}

// Open replays the name log at opts.Path. Ids must appear densely in order; a
// gap means an interned name was lost and is reported as
// domain.ErrNameNotFound.
func Open(opts logfile.Options) (*Storage, error) {
	s := &Storage{byName: make(map[string]uint32)}

	log, err := logfile.Open(opts, func(id uint32, data []byte) error {
		expected := uint32(len(s.byID)) + 1
		if id != expected {
			return fmt.Errorf("%w: expected name id %d, found %d", domain.ErrNameNotFound, expected, id)
		}

		name := string(data)
		s.byID = append(s.byID, name)
		s.byName[name] = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error opening name storage : %w", err)
	}

	s.log = log
	return s, nil
}

// Enumerate returns the id of name, interning it if it was not seen before.
func (s *Storage) Enumerate(name string) (uint32, error) {
	s.mu.RLock()
	id, ok := s.byName[name]
	s.mu.RUnlock()
	if ok {
		return id, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byName[name]; ok {
		return id, nil
	}

	id = uint32(len(s.byID)) + 1
	if err := s.log.Append(id, []byte(name)); err != nil {
		return 0, fmt.Errorf("error appending name : %w", err)
	}

	s.byID = append(s.byID, name)
	s.byName[name] = id
	return id, nil
}

// ValueOf resolves id. Unknown ids return domain.ErrNameNotFound.
func (s *Storage) ValueOf(id uint32) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id == 0 || int(id) > len(s.byID) {
		return "", fmt.Errorf("%w: id %d", domain.ErrNameNotFound, id)
	}
	return s.byID[id-1], nil
}

// Count returns the number of interned names.
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Storage) Flush(ctx context.Context, sync bool) error {
	return s.log.Flush(ctx, sync)
}

func (s *Storage) Close(ctx context.Context) error {
	return s.log.Close(ctx)
}
