// Package fsrecords initializes the persistent records storages and serves
// records, names and contents out of them.
package fsrecords

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/hashes"
	"github.com/iamNilotpal/fsrecords/internal/core/domain"
	"github.com/iamNilotpal/fsrecords/internal/core/ports"
	"github.com/iamNilotpal/fsrecords/internal/core/services/loader"
	"github.com/iamNilotpal/fsrecords/pkg/fs"
)

var newSessionID = uuid.NewString

// FSRecords owns the loaded storages.
type FSRecords struct {
	opts     *domain.StorageOptions
	log      *zap.SugaredLogger
	fs       ports.FileSystemPort
	now      func() time.Time
	storages *loader.Storages
	report   InitializationReport

	mu     sync.RWMutex
	closed atomic.Bool
}

// New loads the storages under opts.Directory, rebuilding them when a load
// attempt fails in a recoverable way. A nil telemetry is allowed.
//
// Invalid options return a *errors.ValidationError. A failed initialization
// returns the *errors.LoadError of the last attempt.
func New(
	ctx context.Context, opts *domain.StorageOptions, log *zap.SugaredLogger, telemetry ports.LoadTelemetry,
) (*FSRecords, error) {
	return newFSRecords(ctx, opts, log, telemetry, fs.NewLocalFileSystem())
}

func newFSRecords(
	ctx context.Context,
	opts *domain.StorageOptions,
	log *zap.SugaredLogger,
	telemetry ports.LoadTelemetry,
	fileSystem ports.FileSystemPort,
) (*FSRecords, error) {
	opts = prepareDefaults(opts)
	if err := Validate(opts); err != nil {
		return nil, err
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if telemetry == nil {
		telemetry = nopTelemetry{}
	}

	runner := &initializer{opts: opts, log: log, fs: fileSystem, telemetry: telemetry, now: time.Now}
	storages, report, err := runner.run(ctx)
	if err != nil {
		return nil, err
	}

	return &FSRecords{
		opts:     opts,
		log:      log,
		fs:       fileSystem,
		now:      time.Now,
		storages: storages,
		report:   report,
	}, nil
}

// Report returns how initialization went.
func (f *FSRecords) Report() InitializationReport {
	return f.report
}

// Options returns the defaulted options in use.
func (f *FSRecords) Options() domain.StorageOptions {
	return *f.opts
}

// CreateRecord adds a record named name under parentID. Content is
// deduplicated by hash; nil content leaves the record without one.
func (f *FSRecords) CreateRecord(parentID uint32, name string, content []byte, flags domain.RecordFlags) (uint32, error) {
	if f.closed.Load() {
		return 0, domain.ErrStorageClosed
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if parentID != 0 && parentID > f.storages.Records.Count() {
		return 0, fmt.Errorf("parent record %d does not exist", parentID)
	}

	nameID, err := f.storages.Names.Enumerate(name)
	if err != nil {
		return 0, err
	}

	var contentID uint32
	if content != nil {
		if contentID, err = f.storeContent(content); err != nil {
			return 0, err
		}
	}

	return f.storages.Records.Allocate(domain.Record{
		ParentID:  parentID,
		NameID:    nameID,
		ContentID: contentID,
		Flags:     uint32(flags),
		Length:    int64(len(content)),
		ModTime:   f.now().UnixNano(),
	})
}

func (f *FSRecords) storeContent(content []byte) (uint32, error) {
	hash := hashes.Sum(content)
	if id, ok := f.storages.Hashes.Lookup(hash); ok {
		return id, nil
	}

	id, err := f.storages.Contents.Store(content)
	if err != nil {
		return 0, err
	}
	if err := f.storages.Hashes.Put(hash, id); err != nil {
		if deleteErr := f.storages.Contents.Delete(id); deleteErr != nil {
			f.log.Warnw("cannot remove unindexed content", "content", id, "error", deleteErr)
			return 0, multierr.Append(err, deleteErr)
		}
		return 0, err
	}
	return id, nil
}

// Record returns the record with the given id.
func (f *FSRecords) Record(id uint32) (domain.Record, error) {
	if f.closed.Load() {
		return domain.Record{}, domain.ErrStorageClosed
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.storages.Records.Get(id)
}

// DeleteRecord frees a record. Its name and content stay in their storages.
func (f *FSRecords) DeleteRecord(id uint32) error {
	if f.closed.Load() {
		return domain.ErrStorageClosed
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	record, err := f.storages.Records.Get(id)
	if err != nil {
		return err
	}
	record.Flags |= uint32(domain.RecordDeleted)
	return f.storages.Records.Update(id, record)
}

// Name returns the name of the record with the given id.
func (f *FSRecords) Name(id uint32) (string, error) {
	record, err := f.Record(id)
	if err != nil {
		return "", err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.storages.Names.ValueOf(record.NameID)
}

// Content returns the content of the record with the given id, or nil if it
// has none.
func (f *FSRecords) Content(id uint32) ([]byte, error) {
	record, err := f.Record(id)
	if err != nil {
		return nil, err
	}
	if record.ContentID == 0 {
		return nil, nil
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.storages.Contents.Read(record.ContentID)
}

// ScheduleRebuild asks the next initialization to discard the storages.
func (f *FSRecords) ScheduleRebuild(reason string) error {
	f.log.Infow("rebuild scheduled", "reason", reason)
	return ScheduleRebuild(f.fs, f.opts.Directory, reason)
}

// ScheduleRebuild leaves a rebuild marker in directory. The storages are
// discarded by the next initialization using that directory.
func ScheduleRebuild(fileSystem ports.FileSystemPort, directory, reason string) error {
	if err := fileSystem.CreateDir(directory, 0755, true); err != nil {
		return err
	}
	return fileSystem.WriteFile(filepath.Join(directory, domain.RebuildMarkerName), 0644, []byte(reason))
}

// Flush writes buffered entries and syncs them to disk.
func (f *FSRecords) Flush(ctx context.Context) error {
	if f.closed.Load() {
		return domain.ErrStorageClosed
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.storages.Flush(ctx)
}

// Close closes every storage. A clean Close is what lets the next
// initialization trust the storages.
func (f *FSRecords) Close(ctx context.Context) error {
	if !f.closed.CompareAndSwap(false, true) {
		return domain.ErrStorageClosed
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.storages.Close(ctx); err != nil {
		f.log.Errorw("closing storages", "error", err)
		return err
	}
	return nil
}
