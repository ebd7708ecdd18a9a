// Package records implements the record directory: a fixed header followed by
// fixed-size file records, written in place.
package records

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iamNilotpal/fsrecords/internal/core/domain"
)

var (
	// HeaderSize is the encoded size of domain.RecordsHeader.
	HeaderSize = binary.Size(domain.RecordsHeader{})

	// RecordSize is the encoded size of domain.Record.
	RecordSize = binary.Size(domain.Record{})
)

// Storage is the record directory. Safe for concurrent use.
type Storage struct {
	path   string
	file   *os.File
	header domain.RecordsHeader

	mu     sync.RWMutex
	closed atomic.Bool
}

// ReadHeader reads the header of the records file at path without opening it
// for writing. It only checks the magic; version and connected state are left
// for the caller to interpret.
func ReadHeader(path string) (domain.RecordsHeader, error) {
	var header domain.RecordsHeader

	file, err := os.Open(path)
	if err != nil {
		return header, fmt.Errorf("error opening records storage : %w", err)
	}
	defer file.Close()

	if err := binary.Read(file, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return header, fmt.Errorf("%w: header is incomplete", domain.ErrRecordsTruncated)
		}
		return header, fmt.Errorf("error reading records header : %w", err)
	}

	if header.Magic != domain.RecordsMagic {
		return header, fmt.Errorf("%w: %#x", domain.ErrBadMagic, header.Magic)
	}
	return header, nil
}

// Create writes an empty records file at path, replacing any existing one.
func Create(path string, createdAt time.Time) (*Storage, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("error creating records storage : %w", err)
	}

	s := &Storage{
		path: path,
		file: file,
		header: domain.RecordsHeader{
			Magic:     domain.RecordsMagic,
			Version:   domain.FormatVersion,
			CreatedAt: createdAt.UnixNano(),
		},
	}

	if err := s.writeHeader(true); err != nil {
		_ = file.Close()
		return nil, err
	}
	return s, nil
}

// Open opens an existing records file. It fails with domain.ErrBadMagic,
// domain.ErrVersionMismatch or domain.ErrRecordsTruncated; the connected flag
// is not checked here.
func Open(path string) (*Storage, error) {
	header, err := ReadHeader(path)
	if err != nil {
		return nil, err
	}

	if header.Version != domain.FormatVersion {
		return nil, fmt.Errorf(
			"%w: on disk %d, supported %d", domain.ErrVersionMismatch, header.Version, domain.FormatVersion,
		)
	}

	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening records storage : %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("error getting file stats : %w", err)
	}

	expected := int64(HeaderSize) + int64(header.RecordCount)*int64(RecordSize)
	if stat.Size() < expected {
		_ = file.Close()
		return nil, fmt.Errorf(
			"%w: %d records need %d bytes, file has %d", domain.ErrRecordsTruncated, header.RecordCount, expected, stat.Size(),
		)
	}

	return &Storage{path: path, file: file, header: header}, nil
}

// Header returns a copy of the current header.
func (s *Storage) Header() domain.RecordsHeader {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.header
}

// Count returns the number of records.
func (s *Storage) Count() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.header.RecordCount
}

// MarkConnected sets the connected flag and syncs the header, so that a
// process dying from now on leaves the flag behind.
func (s *Storage) MarkConnected() error {
	if s.closed.Load() {
		return domain.ErrStorageClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.header.Flags |= uint32(domain.FlagConnected)
	return s.writeHeader(true)
}

// Allocate appends record and returns its id.
func (s *Storage) Allocate(record domain.Record) (uint32, error) {
	if s.closed.Load() {
		return 0, domain.ErrStorageClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.header.RecordCount + 1
	if err := s.writeRecord(id, record); err != nil {
		return 0, err
	}

	s.header.RecordCount = id
	if err := s.writeHeader(false); err != nil {
		return 0, err
	}
	return id, nil
}

// Get returns the record with the given id.
func (s *Storage) Get(id uint32) (domain.Record, error) {
	var record domain.Record
	if s.closed.Load() {
		return record, domain.ErrStorageClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if id == 0 || id > s.header.RecordCount {
		return record, fmt.Errorf("record %d out of range [1, %d]", id, s.header.RecordCount)
	}

	section := io.NewSectionReader(s.file, offsetOf(id), int64(RecordSize))
	if err := binary.Read(section, binary.LittleEndian, &record); err != nil {
		return record, fmt.Errorf("error reading record %d : %w", id, err)
	}
	return record, nil
}

// Update overwrites an existing record.
func (s *Storage) Update(id uint32, record domain.Record) error {
	if s.closed.Load() {
		return domain.ErrStorageClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == 0 || id > s.header.RecordCount {
		return fmt.Errorf("record %d out of range [1, %d]", id, s.header.RecordCount)
	}
	return s.writeRecord(id, record)
}

// ForEach calls fn for every record in id order, stopping at the first error.
func (s *Storage) ForEach(fn func(id uint32, record domain.Record) error) error {
	for id := uint32(1); id <= s.Count(); id++ {
		record, err := s.Get(id)
		if err != nil {
			return err
		}
		if err := fn(id, record); err != nil {
			return err
		}
	}
	return nil
}

// Close clears the connected flag, syncs and closes the file.
func (s *Storage) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return domain.ErrStorageClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.header.Flags &^= uint32(domain.FlagConnected)
	headerErr := s.writeHeader(true)
	if err := s.file.Close(); err != nil {
		return errors.Join(headerErr, fmt.Errorf("error closing file : %w", err))
	}
	return headerErr
}

// Abandon closes the file without touching the header, so a connected flag
// stays on disk for the next process to find.
func (s *Storage) Abandon() error {
	if !s.closed.CompareAndSwap(false, true) {
		return domain.ErrStorageClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.file.Close(); err != nil {
		return fmt.Errorf("error closing file : %w", err)
	}
	return nil
}

func (s *Storage) writeHeader(sync bool) error {
	section := io.NewOffsetWriter(s.file, 0)
	if err := binary.Write(section, binary.LittleEndian, &s.header); err != nil {
		return fmt.Errorf("failed to write records header : %w", err)
	}

	if sync {
		if err := s.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync file : %w", err)
		}
	}
	return nil
}

func (s *Storage) writeRecord(id uint32, record domain.Record) error {
	section := io.NewOffsetWriter(s.file, offsetOf(id))
	if err := binary.Write(section, binary.LittleEndian, &record); err != nil {
		return fmt.Errorf("failed to write record %d : %w", id, err)
	}
	return nil
}

func offsetOf(id uint32) int64 {
	return int64(HeaderSize) + int64(id-1)*int64(RecordSize)
}
