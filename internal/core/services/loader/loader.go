// Package loader performs one load attempt of the persistent storages and
// reports any failure as a categorized LoadError.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iamNilotpal/fsrecords/internal/adapters/checksum"
	"github.com/iamNilotpal/fsrecords/internal/adapters/compression"
	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/contents"
	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/hashes"
	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/logfile"
	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/names"
	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/records"
	"github.com/iamNilotpal/fsrecords/internal/core/domain"
	"github.com/iamNilotpal/fsrecords/internal/core/ports"
	loaderrors "github.com/iamNilotpal/fsrecords/pkg/errors"
	"github.com/iamNilotpal/fsrecords/pkg/fs"
)

// Config holds what a Loader needs.
type Config struct {
	// Options must already be validated and defaulted.
	Options *domain.StorageOptions

	Logger *zap.SugaredLogger

	// FS defaults to the local file system.
	FS ports.FileSystemPort

	// Now defaults to time.Now.
	Now func() time.Time
}

// Outcome describes a successful attempt.
type Outcome struct {
	// Category is CategoryInitial when the storages were created from scratch,
	// CategoryNone otherwise.
	Category loaderrors.Category

	// CreatedANew is true when no prior state existed.
	CreatedANew bool

	// Header is the records header after the attempt.
	Header domain.RecordsHeader

	// Duration of the attempt.
	Duration time.Duration
}

// Loader opens the storages under one directory.
type Loader struct {
	opts *domain.StorageOptions
	log  *zap.SugaredLogger
	fs   ports.FileSystemPort
	now  func() time.Time
}

// New creates a Loader.
func New(config Config) *Loader {
	l := &Loader{opts: config.Options, log: config.Logger, fs: config.FS, now: config.Now}
	if l.log == nil {
		l.log = zap.NewNop().Sugar()
	}
	if l.fs == nil {
		l.fs = fs.NewLocalFileSystem()
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// Load performs exactly one load attempt.
//
// On success the storages are open, the records storage is marked connected,
// and the outcome tells whether they were created from scratch. On failure
// nothing is left open and the error is always a *errors.LoadError.
//
// When several conditions are detected together the one reported is chosen by
// errors.Prevailing; the others are logged.
func (l *Loader) Load(ctx context.Context) (*Storages, *Outcome, error) {
	start := l.now()

	if err := ctx.Err(); err != nil {
		return nil, nil, loaderrors.WrapLoadError(
			loaderrors.CategoryUnrecognized, "load attempt cancelled before it started", err,
		)
	}

	if err := l.fs.CreateDir(l.opts.Directory, 0755, true); err != nil {
		return nil, nil, Classify(err, "cannot create storage directory "+l.opts.Directory)
	}

	recordsPath := l.path(domain.RecordsFileName)
	exists, err := l.fs.Exists(recordsPath)
	if err != nil {
		return nil, nil, Classify(err, "cannot check records storage")
	}

	if !exists {
		storages, err := l.create(ctx)
		if err != nil {
			return nil, nil, err
		}
		return storages, &Outcome{
			Category:    loaderrors.CategoryInitial,
			CreatedANew: true,
			Header:      storages.Records.Header(),
			Duration:    l.now().Sub(start),
		}, nil
	}

	if detections := l.detectSignals(recordsPath); len(detections) > 0 {
		return nil, nil, l.fail(detections)
	}

	storages, err := l.open(ctx)
	if err != nil {
		return nil, nil, err
	}

	if detections, err := l.verify(storages); err != nil || len(detections) > 0 {
		if closeErr := storages.Close(ctx); closeErr != nil {
			l.log.Warnw("closing storages after failed verification", "error", closeErr)
		}
		if err != nil {
			return nil, nil, err
		}
		return nil, nil, l.fail(detections)
	}

	if err := storages.Records.MarkConnected(); err != nil {
		_ = storages.Close(ctx)
		return nil, nil, Classify(err, "cannot mark records storage connected")
	}

	return storages, &Outcome{
		Category: loaderrors.CategoryNone,
		Header:   storages.Records.Header(),
		Duration: l.now().Sub(start),
	}, nil
}

func (l *Loader) fail(detections []detection) error {
	winner, rest := prevailing(detections)
	for _, other := range rest {
		l.log.Infow(
			"load condition superseded",
			"category", other.category.String(),
			"message", other.message,
			"reported", winner.category.String(),
		)
	}
	return winner.loadError()
}

// detectSignals looks for explicit and inferred reasons to distrust the
// storages before opening any of them.
func (l *Loader) detectSignals(recordsPath string) []detection {
	var detections []detection

	markerPath := l.path(domain.RebuildMarkerName)
	if ok, err := l.fs.Exists(markerPath); err != nil {
		detections = append(detections, detection{
			category: categorize(err, loaderrors.CategoryUnrecognized),
			message:  "cannot check rebuild marker",
			cause:    err,
		})
	} else if ok {
		message := "rebuild marker found"
		if reason, err := l.fs.ReadFile(markerPath); err == nil && len(strings.TrimSpace(string(reason))) > 0 {
			message += ": " + strings.TrimSpace(string(reason))
		}
		detections = append(detections, detection{category: loaderrors.CategoryScheduledRebuild, message: message})
	}

	header, err := records.ReadHeader(recordsPath)
	if err != nil {
		return append(detections, detection{
			category: categorize(err, loaderrors.CategoryUnrecognized),
			message:  "cannot read records header",
			cause:    err,
		})
	}

	if header.Connected() {
		detections = append(detections, detection{
			category: loaderrors.CategoryNotClosedProperly,
			message:  "storages are still marked connected by a previous process",
		})
	}

	if header.Version != domain.FormatVersion {
		detections = append(detections, detection{
			category: loaderrors.CategoryImplVersionMismatch,
			message:  fmt.Sprintf("on-disk format version %d, supported %d", header.Version, domain.FormatVersion),
		})
	}

	return detections
}

// create builds empty storages. The records file is written last so that a
// crash half way leaves no prior state behind and the next attempt starts over.
func (l *Loader) create(ctx context.Context) (*Storages, error) {
	for _, name := range []string{domain.NamesFileName, domain.HashesFileName, domain.RebuildMarkerName} {
		if err := l.fs.DeleteFile(l.path(name)); err != nil {
			return nil, Classify(err, "cannot remove leftover "+name)
		}
	}
	if err := l.fs.DeleteDir(l.path(domain.ContentsDirName)); err != nil {
		return nil, Classify(err, "cannot remove leftover content storage")
	}

	storages, err := l.openStores(ctx)
	if err != nil {
		return nil, err
	}

	storages.Records, err = records.Create(l.path(domain.RecordsFileName), l.now())
	if err != nil {
		_ = storages.Close(ctx)
		return nil, Classify(err, "cannot create records storage")
	}

	if err := storages.Records.MarkConnected(); err != nil {
		_ = storages.Close(ctx)
		return nil, Classify(err, "cannot mark records storage connected")
	}

	l.log.Infow("created empty storages", "directory", l.opts.Directory)
	return storages, nil
}

func (l *Loader) open(ctx context.Context) (*Storages, error) {
	storages, err := l.openStores(ctx)
	if err != nil {
		return nil, err
	}

	storages.Records, err = records.Open(l.path(domain.RecordsFileName))
	if err != nil {
		_ = storages.Close(ctx)
		return nil, Classify(err, "cannot open records storage")
	}
	return storages, nil
}

// openStores opens everything but the records storage.
func (l *Loader) openStores(ctx context.Context) (*Storages, error) {
	storages := &Storages{}

	sum, err := checksum.New(l.opts.ChecksumOptions)
	if err != nil {
		return nil, Classify(err, "cannot create checksum")
	}

	if l.opts.CompressionOptions != nil && l.opts.CompressionOptions.Enable {
		z, err := compression.NewZstdCompression(l.opts.CompressionOptions)
		if err != nil {
			return nil, Classify(err, "cannot create compressor")
		}
		storages.compressor = z
	}

	logOptions := func(name string) logfile.Options {
		opts := logfile.Options{
			Path:        l.path(name),
			BufferSize:  int(l.opts.BufferSize),
			Checksum:    sum,
			SyncOnWrite: l.opts.SyncOnWrite,
		}
		if l.opts.ChecksumOptions != nil {
			opts.VerifyOnLoad = l.opts.ChecksumOptions.VerifyOnLoad
		}
		return opts
	}

	if storages.Names, err = names.Open(logOptions(domain.NamesFileName)); err != nil {
		_ = storages.Close(ctx)
		return nil, classify(err, "cannot open name storage", loaderrors.CategoryNameStorageIncomplete)
	}

	if storages.Contents, err = contents.Open(ctx, contents.Config{
		Path:             l.path(domain.ContentsDirName),
		Compressor:       storages.compressor,
		Logger:           l.log,
		BlockCacheSizeMB: l.opts.BlockCacheSizeMB,
		IndexCacheSizeMB: l.opts.IndexCacheSizeMB,
	}); err != nil {
		_ = storages.Close(ctx)
		return nil, Classify(err, "cannot open content storage")
	}

	if storages.Hashes, err = hashes.Open(logOptions(domain.HashesFileName)); err != nil {
		_ = storages.Close(ctx)
		return nil, classify(err, "cannot open content-hash index", loaderrors.CategoryContentStoragesIncomplete)
	}

	return storages, nil
}

// verify checks the cross-storage references. It returns the first detection
// of every category found, or an error if the check itself failed.
func (l *Loader) verify(s *Storages) ([]detection, error) {
	var detections []detection
	seen := make(map[loaderrors.Category]bool)
	add := func(category loaderrors.Category, message string, cause error) {
		if seen[category] {
			return
		}
		seen[category] = true
		detections = append(detections, detection{category: category, message: message, cause: cause})
	}

	if err := s.Records.ForEach(func(id uint32, record domain.Record) error {
		if record.IsDeleted() {
			return nil
		}

		if _, err := s.Names.ValueOf(record.NameID); err != nil {
			add(
				loaderrors.CategoryNameStorageIncomplete,
				fmt.Sprintf("record %d references name %d which cannot be resolved", id, record.NameID),
				err,
			)
		}

		if record.ContentID != 0 {
			if _, err := s.Contents.Read(record.ContentID); err != nil {
				add(
					categorize(err, loaderrors.CategoryUnrecognized),
					fmt.Sprintf("record %d references content %d which cannot be read", id, record.ContentID),
					err,
				)
			}
		}
		return nil
	}); err != nil {
		return nil, Classify(err, "cannot read records")
	}

	for _, entry := range s.Hashes.SortedEntries() {
		hash, id := entry.Hash, entry.ContentID
		data, err := s.Contents.Read(id)
		if err != nil {
			add(
				categorize(err, loaderrors.CategoryUnrecognized),
				fmt.Sprintf("content-hash index references content %d which cannot be read", id),
				err,
			)
			continue
		}

		if hashes.Sum(data) != hash {
			add(
				loaderrors.CategoryContentStoragesNotMatch,
				fmt.Sprintf("content %d does not hash to its index key %x", id, hash[:8]),
				nil,
			)
		}
	}

	stored, err := s.Contents.Count()
	if err != nil {
		return nil, Classify(err, "cannot count contents")
	}
	if indexed := s.Hashes.Count(); stored > indexed {
		add(
			loaderrors.CategoryContentStoragesNotMatch,
			fmt.Sprintf("content storage holds %d blobs but content-hash index has %d entries", stored, indexed),
			nil,
		)
	}

	return detections, nil
}

func (l *Loader) path(name string) string {
	return filepath.Join(l.opts.Directory, name)
}
