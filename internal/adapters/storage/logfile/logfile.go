// Package logfile implements the append-only entry log shared by the name
// table and the content-hash index.
//
// Every entry is a fixed binary header followed by a protowire payload:
//
//	+-------------------+------------------+----------------------------+
//	| PayloadSize (u32) | Checksum (u64)   | payload (PayloadSize bytes)|
//	+-------------------+------------------+----------------------------+
//
// The payload carries field 1 (varint id) and field 2 (bytes data).
package logfile

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/iamNilotpal/fsrecords/internal/core/domain"
	"github.com/iamNilotpal/fsrecords/internal/core/ports"
	"github.com/iamNilotpal/fsrecords/pkg/pool"
	"github.com/iamNilotpal/fsrecords/pkg/system"
)

const (
	// MaxPayloadSize bounds a single entry. A larger size in a header can only
	// come from corruption.
	MaxPayloadSize = 1 << 20

	fieldID   protowire.Number = 1
	fieldData protowire.Number = 2
)

// entryHeader precedes every payload on disk.
type entryHeader struct {
	PayloadSize uint32
	Checksum    uint64
}

var headerSize = binary.Size(entryHeader{})

// Options configures a LogFile.
type Options struct {
	// Path of the log file; created if missing.
	Path string

	// BufferSize of the write buffer.
	BufferSize int

	// Checksum guards entries; nil disables checksums.
	Checksum ports.ChecksumPort

	// VerifyOnLoad verifies checksums while replaying.
	VerifyOnLoad bool

	// SyncOnWrite fsyncs after every append.
	SyncOnWrite bool
}

// ReplayFunc receives every intact entry in file order.
type ReplayFunc func(id uint32, data []byte) error

// LogFile is an append-only file of checksummed entries.
type LogFile struct {
	opts Options

	file   *os.File
	writer *bufio.Writer
	pool   *pool.BufferPool

	size    int64 // Bytes of intact entries, including buffered ones.
	entries int   // Number of intact entries.

	closed atomic.Bool
	mu     sync.Mutex
}

// Open opens or creates the log and replays every intact entry through fn.
//
// A torn tail, left by a process that died mid-append, ends the replay and is
// truncated away. A complete entry failing its checksum, or an entry that
// cannot be decoded, returns an error wrapping domain.ErrLogEntryCorrupted.
// Errors returned by fn are passed through.
func Open(opts Options, fn ReplayFunc) (*LogFile, error) {
	file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening log file : %w", err)
	}

	lf := &LogFile{opts: opts, file: file}

	if err := lf.replay(fn); err != nil {
		_ = file.Close()
		return nil, err
	}

	if err := file.Truncate(lf.size); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("error truncating torn tail : %w", err)
	}

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		_ = file.Close()
		return nil, err
	}

	if opts.BufferSize <= 0 {
		opts.BufferSize = 64 * 1024
	}
	lf.opts = opts
	lf.writer = bufio.NewWriterSize(file, opts.BufferSize)
	lf.pool = pool.NewBufferPool(256)

	return lf, nil
}

func (lf *LogFile) replay(fn ReplayFunc) error {
	reader := bufio.NewReader(lf.file)
	verify := lf.opts.Checksum != nil && lf.opts.VerifyOnLoad

	for {
		var header entryHeader
		if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("error reading entry header at offset %d : %w", lf.size, err)
		}

		if header.PayloadSize > MaxPayloadSize {
			return fmt.Errorf(
				"%w: entry at offset %d claims %d bytes", domain.ErrLogEntryCorrupted, lf.size, header.PayloadSize,
			)
		}

		payload := make([]byte, header.PayloadSize)
		if _, err := io.ReadFull(reader, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("error reading entry payload at offset %d : %w", lf.size, err)
		}

		if verify && !lf.opts.Checksum.Verify(payload, header.Checksum) {
			return fmt.Errorf("%w: checksum mismatch at offset %d", domain.ErrLogEntryCorrupted, lf.size)
		}

		id, data, err := DecodeEntry(payload)
		if err != nil {
			return fmt.Errorf("%w: offset %d: %w", domain.ErrLogEntryCorrupted, lf.size, err)
		}

		if fn != nil {
			if err := fn(id, data); err != nil {
				return err
			}
		}

		lf.entries++
		lf.size += int64(headerSize) + int64(header.PayloadSize)
	}
}

// Append writes one entry. The entry is durable only after a synced flush,
// unless SyncOnWrite is set.
func (lf *LogFile) Append(id uint32, data []byte) error {
	if lf.closed.Load() {
		return domain.ErrStorageClosed
	}

	buffer := lf.pool.Get()
	defer lf.pool.Put(buffer)

	payload := EncodeEntry(buffer.AvailableBuffer(), id, data)
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("entry of %d bytes exceeds limit of %d", len(payload), MaxPayloadSize)
	}

	header := entryHeader{PayloadSize: uint32(len(payload))}
	if lf.opts.Checksum != nil {
		header.Checksum = lf.opts.Checksum.Calculate(payload)
	}

	lf.mu.Lock()
	defer lf.mu.Unlock()

	if err := binary.Write(lf.writer, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write entry header : %w", err)
	}

	if nn, err := lf.writer.Write(payload); err != nil {
		return fmt.Errorf("failed to write entry : %w", err)
	} else if nn != len(payload) {
		return fmt.Errorf("short write: %d != %d", nn, len(payload))
	}

	lf.entries++
	lf.size += int64(headerSize) + int64(len(payload))

	if lf.opts.SyncOnWrite {
		return lf.flushLocked(true)
	}
	return nil
}

// Flush writes buffered entries to the file, and fsyncs if sync is true.
func (lf *LogFile) Flush(ctx context.Context, sync bool) error {
	if lf.closed.Load() {
		return domain.ErrStorageClosed
	}

	return system.RunWithContext(ctx, func(context.Context) error {
		lf.mu.Lock()
		defer lf.mu.Unlock()
		return lf.flushLocked(sync)
	})
}

// Close flushes, syncs and closes the file. A second Close returns
// domain.ErrStorageClosed.
func (lf *LogFile) Close(ctx context.Context) error {
	if !lf.closed.CompareAndSwap(false, true) {
		return domain.ErrStorageClosed
	}

	return system.RunWithContext(ctx, func(context.Context) error {
		lf.mu.Lock()
		defer lf.mu.Unlock()

		flushErr := lf.flushLocked(true)
		if err := lf.file.Close(); err != nil {
			return errors.Join(flushErr, fmt.Errorf("error closing file : %w", err))
		}
		return flushErr
	})
}

// Entries returns the number of entries, buffered ones included.
func (lf *LogFile) Entries() int {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	return lf.entries
}

// Size returns the logical size of the log in bytes.
func (lf *LogFile) Size() int64 {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	return lf.size
}

// Path returns the file path.
func (lf *LogFile) Path() string {
	return lf.opts.Path
}

func (lf *LogFile) flushLocked(sync bool) error {
	if err := lf.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer : %w", err)
	}

	if sync {
		if err := lf.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync file : %w", err)
		}
	}
	return nil
}

// EncodeEntry appends the protowire encoding of (id, data) to b.
func EncodeEntry(b []byte, id uint32, data []byte) []byte {
	b = protowire.AppendTag(b, fieldID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(id))
	b = protowire.AppendTag(b, fieldData, protowire.BytesType)
	return protowire.AppendBytes(b, data)
}

// DecodeEntry parses a payload written by EncodeEntry. Unknown fields are
// skipped so that newer writers stay readable.
func DecodeEntry(b []byte) (uint32, []byte, error) {
	var (
		id      uint64
		data    []byte
		foundID bool
	)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return 0, nil, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, nil, protowire.ParseError(n)
			}
			id, foundID = v, true
			b = b[n:]
		case num == fieldData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, nil, protowire.ParseError(n)
			}
			data = append([]byte(nil), v...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return 0, nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}

	if !foundID || id > uint64(^uint32(0)) {
		return 0, nil, errors.New("entry has no valid id")
	}
	return uint32(id), data, nil
}
