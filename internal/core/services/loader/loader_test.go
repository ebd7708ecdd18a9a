package loader

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/fsrecords/internal/adapters/checksum"
	"github.com/iamNilotpal/fsrecords/internal/adapters/compression"
	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/contents"
	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/hashes"
	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/records"
	"github.com/iamNilotpal/fsrecords/internal/core/domain"
	loaderrors "github.com/iamNilotpal/fsrecords/pkg/errors"
	"github.com/iamNilotpal/fsrecords/pkg/logger"
)

func testOptions(t *testing.T) *domain.StorageOptions {
	t.Helper()
	return &domain.StorageOptions{
		Directory:          filepath.Join(t.TempDir(), "fsrecords"),
		MaxAttempts:        3,
		ChecksumOptions:    checksum.DefaultOptions(),
		CompressionOptions: compression.DefaultOptions(),
	}
}

func newLoader(opts *domain.StorageOptions) *Loader {
	return New(Config{
		Options: opts,
		Logger:  logger.NewNop(),
		Now:     func() time.Time { return time.Unix(1700000000, 0) },
	})
}

// populate creates storages holding one directory and one file.
func populate(t *testing.T, opts *domain.StorageOptions) {
	t.Helper()
	ctx := context.Background()

	s, outcome, err := newLoader(opts).Load(ctx)
	require.NoError(t, err)
	require.Equal(t, loaderrors.CategoryInitial, outcome.Category)

	dirName, err := s.Names.Enumerate("src")
	require.NoError(t, err)
	fileName, err := s.Names.Enumerate("main.go")
	require.NoError(t, err)

	data := []byte("package main\n")
	contentID, err := s.Contents.Store(data)
	require.NoError(t, err)
	require.NoError(t, s.Hashes.Put(hashes.Sum(data), contentID))

	dir, err := s.Records.Allocate(domain.Record{NameID: dirName, Flags: uint32(domain.RecordDirectory)})
	require.NoError(t, err)
	_, err = s.Records.Allocate(domain.Record{
		ParentID:  dir,
		NameID:    fileName,
		ContentID: contentID,
		Length:    int64(len(data)),
	})
	require.NoError(t, err)

	require.NoError(t, s.Close(ctx))
}

func requireCategory(t *testing.T, err error, want loaderrors.Category) *loaderrors.LoadError {
	t.Helper()
	require.Error(t, err)
	le, ok := loaderrors.AsLoadError(err)
	require.True(t, ok, "expected a LoadError, got %T: %v", err, err)
	require.Equal(t, want, le.Category(), le.Error())
	return le
}

func patchVersion(t *testing.T, opts *domain.StorageOptions, version uint32) {
	t.Helper()
	path := filepath.Join(opts.Directory, domain.RecordsFileName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(data[4:8], version)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestLoadWithoutPriorStateCreatesANew(t *testing.T) {
	opts := testOptions(t)
	ctx := context.Background()

	s, outcome, err := newLoader(opts).Load(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })

	assert.Equal(t, loaderrors.CategoryInitial, outcome.Category)
	assert.True(t, outcome.CreatedANew)
	assert.Equal(t, uint32(domain.FormatVersion), outcome.Header.Version)
	assert.True(t, outcome.Header.Connected())
	assert.Equal(t, time.Unix(1700000000, 0), outcome.Header.CreationTime())

	for _, name := range []string{domain.RecordsFileName, domain.NamesFileName, domain.HashesFileName} {
		assert.FileExists(t, filepath.Join(opts.Directory, name), name)
	}
	assert.DirExists(t, filepath.Join(opts.Directory, domain.ContentsDirName))
}

func TestLoadReopensCleanStorages(t *testing.T) {
	opts := testOptions(t)
	populate(t, opts)
	ctx := context.Background()

	s, outcome, err := newLoader(opts).Load(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })

	assert.Equal(t, loaderrors.CategoryNone, outcome.Category)
	assert.False(t, outcome.CreatedANew)
	assert.Equal(t, uint32(2), s.Records.Count())

	record, err := s.Records.Get(2)
	require.NoError(t, err)
	name, err := s.Names.ValueOf(record.NameID)
	require.NoError(t, err)
	assert.Equal(t, "main.go", name)

	data, err := s.Contents.Read(record.ContentID)
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(data))
}

func TestLoadScheduledRebuildPrevailsOverVersionMismatch(t *testing.T) {
	opts := testOptions(t)
	populate(t, opts)

	patchVersion(t, opts, domain.FormatVersion+1)
	marker := filepath.Join(opts.Directory, domain.RebuildMarkerName)
	require.NoError(t, os.WriteFile(marker, []byte("index schema changed\n"), 0644))

	_, _, err := newLoader(opts).Load(context.Background())
	le := requireCategory(t, err, loaderrors.CategoryScheduledRebuild)
	assert.Equal(t, "[SCHEDULED_REBUILD]: rebuild marker found: index schema changed", le.Error())
	assert.Nil(t, le.Cause())
}

func TestLoadVersionMismatch(t *testing.T) {
	opts := testOptions(t)
	populate(t, opts)
	patchVersion(t, opts, 1)

	_, _, err := newLoader(opts).Load(context.Background())
	le := requireCategory(t, err, loaderrors.CategoryImplVersionMismatch)
	assert.Contains(t, le.Message(), "version 1")
}

func TestLoadAfterCrash(t *testing.T) {
	opts := testOptions(t)
	populate(t, opts)
	ctx := context.Background()

	// Snapshot the records file while it is marked connected, as a process
	// killed before Close would leave it.
	s, _, err := newLoader(opts).Load(ctx)
	require.NoError(t, err)
	path := filepath.Join(opts.Directory, domain.RecordsFileName)
	snapshot, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))
	require.NoError(t, os.WriteFile(path, snapshot, 0644))

	_, _, err = newLoader(opts).Load(ctx)
	requireCategory(t, err, loaderrors.CategoryNotClosedProperly)
}

func TestLoadCrashPrevailsOverVersionMismatch(t *testing.T) {
	opts := testOptions(t)
	ctx := context.Background()

	s, _, err := newLoader(opts).Load(ctx)
	require.NoError(t, err)
	path := filepath.Join(opts.Directory, domain.RecordsFileName)
	snapshot, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))
	require.NoError(t, os.WriteFile(path, snapshot, 0644))
	patchVersion(t, opts, 2)

	_, _, err = newLoader(opts).Load(ctx)
	requireCategory(t, err, loaderrors.CategoryNotClosedProperly)
}

func TestLoadTruncatedRecords(t *testing.T) {
	opts := testOptions(t)
	populate(t, opts)

	path := filepath.Join(opts.Directory, domain.RecordsFileName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:10], 0644))

	_, _, err = newLoader(opts).Load(context.Background())
	le := requireCategory(t, err, loaderrors.CategoryNotClosedProperly)
	assert.True(t, errors.Is(le, domain.ErrRecordsTruncated))
}

func TestLoadUnanticipatedFault(t *testing.T) {
	t.Run("records is a directory", func(t *testing.T) {
		opts := testOptions(t)
		require.NoError(t, os.MkdirAll(filepath.Join(opts.Directory, domain.RecordsFileName), 0755))

		_, _, err := newLoader(opts).Load(context.Background())
		le := requireCategory(t, err, loaderrors.CategoryUnrecognized)
		assert.NotNil(t, le.Cause())
	})

	t.Run("bad magic", func(t *testing.T) {
		opts := testOptions(t)
		populate(t, opts)

		path := filepath.Join(opts.Directory, domain.RecordsFileName)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		binary.LittleEndian.PutUint32(data[0:4], 0xDEADBEEF)
		require.NoError(t, os.WriteFile(path, data, 0644))

		_, _, err = newLoader(opts).Load(context.Background())
		le := requireCategory(t, err, loaderrors.CategoryUnrecognized)
		assert.True(t, errors.Is(le, domain.ErrBadMagic))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := newLoader(testOptions(t)).Load(ctx)
		le := requireCategory(t, err, loaderrors.CategoryUnrecognized)
		assert.True(t, errors.Is(le, context.Canceled))
	})
}

func TestLoadNameStorageIncomplete(t *testing.T) {
	t.Run("dangling name reference", func(t *testing.T) {
		opts := testOptions(t)
		populate(t, opts)
		ctx := context.Background()

		s, _, err := newLoader(opts).Load(ctx)
		require.NoError(t, err)
		_, err = s.Records.Allocate(domain.Record{ParentID: 1, NameID: 99})
		require.NoError(t, err)
		require.NoError(t, s.Close(ctx))

		_, _, err = newLoader(opts).Load(ctx)
		le := requireCategory(t, err, loaderrors.CategoryNameStorageIncomplete)
		assert.True(t, errors.Is(le, domain.ErrNameNotFound))
	})

	t.Run("corrupted entry", func(t *testing.T) {
		opts := testOptions(t)
		populate(t, opts)

		path := filepath.Join(opts.Directory, domain.NamesFileName)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		data[len(data)-1] ^= 0xFF
		require.NoError(t, os.WriteFile(path, data, 0644))

		_, _, err = newLoader(opts).Load(context.Background())
		le := requireCategory(t, err, loaderrors.CategoryNameStorageIncomplete)
		assert.True(t, errors.Is(le, domain.ErrLogEntryCorrupted))
	})
}

func TestLoadContentStoragesIncomplete(t *testing.T) {
	opts := testOptions(t)
	populate(t, opts)
	ctx := context.Background()

	store, err := contents.Open(ctx, contents.Config{
		Path:   filepath.Join(opts.Directory, domain.ContentsDirName),
		Logger: logger.NewNop(),
	})
	require.NoError(t, err)
	require.NoError(t, store.Delete(1))
	require.NoError(t, store.Close())

	_, _, err = newLoader(opts).Load(ctx)
	le := requireCategory(t, err, loaderrors.CategoryContentStoragesIncomplete)
	assert.True(t, errors.Is(le, domain.ErrContentNotFound))
}

func TestLoadContentStoragesNotMatch(t *testing.T) {
	t.Run("orphan blob", func(t *testing.T) {
		opts := testOptions(t)
		populate(t, opts)
		ctx := context.Background()

		s, _, err := newLoader(opts).Load(ctx)
		require.NoError(t, err)
		_, err = s.Contents.Store([]byte("never indexed"))
		require.NoError(t, err)
		require.NoError(t, s.Close(ctx))

		_, _, err = newLoader(opts).Load(ctx)
		requireCategory(t, err, loaderrors.CategoryContentStoragesNotMatch)
	})

	t.Run("wrong hash", func(t *testing.T) {
		opts := testOptions(t)
		populate(t, opts)
		ctx := context.Background()

		s, _, err := newLoader(opts).Load(ctx)
		require.NoError(t, err)
		id, err := s.Contents.Store([]byte("real content"))
		require.NoError(t, err)
		require.NoError(t, s.Hashes.Put(hashes.Sum([]byte("other content")), id))
		require.NoError(t, s.Close(ctx))

		_, _, err = newLoader(opts).Load(ctx)
		le := requireCategory(t, err, loaderrors.CategoryContentStoragesNotMatch)
		assert.Nil(t, le.Cause())
	})
}

func TestLoadFailureLeavesNothingOpen(t *testing.T) {
	opts := testOptions(t)
	populate(t, opts)
	ctx := context.Background()

	s, _, err := newLoader(opts).Load(ctx)
	require.NoError(t, err)
	_, err = s.Records.Allocate(domain.Record{NameID: 42})
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	_, _, err = newLoader(opts).Load(ctx)
	requireCategory(t, err, loaderrors.CategoryNameStorageIncomplete)

	// The badger directory lock is released only by a close.
	store, err := contents.Open(ctx, contents.Config{
		Path:   filepath.Join(opts.Directory, domain.ContentsDirName),
		Logger: logger.NewNop(),
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestLoadUndecodableContent(t *testing.T) {
	opts := testOptions(t)
	populate(t, opts)

	db, err := badger.Open(badger.DefaultOptions(filepath.Join(opts.Directory, domain.ContentsDirName)).WithLogger(nil))
	require.NoError(t, err)
	require.NoError(t, db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("c/\x00\x00\x00\x01"), []byte{1, 0xde, 0xad})
	}))
	require.NoError(t, db.Close())

	_, _, err = newLoader(opts).Load(context.Background())
	le := requireCategory(t, err, loaderrors.CategoryContentStoragesIncomplete)
	assert.True(t, errors.Is(le, domain.ErrContentCorrupted))
	assert.Equal(t, loaderrors.RecoveryRebuild, le.Category().Recovery())
}

func TestLoadReportsFirstBrokenIndexEntry(t *testing.T) {
	opts := testOptions(t)
	ctx := context.Background()

	s, _, err := newLoader(opts).Load(ctx)
	require.NoError(t, err)
	for _, content := range []string{"one", "two", "three"} {
		id, err := s.Contents.Store([]byte(content))
		require.NoError(t, err)
		require.NoError(t, s.Hashes.Put(hashes.Sum([]byte(content)), id))
	}
	require.NoError(t, s.Contents.Delete(2))
	require.NoError(t, s.Contents.Delete(3))
	require.NoError(t, s.Close(ctx))

	for i := 0; i < 3; i++ {
		_, _, err = newLoader(opts).Load(ctx)
		le := requireCategory(t, err, loaderrors.CategoryContentStoragesIncomplete)
		assert.Equal(t, "content-hash index references content 2 which cannot be read", le.Message())
	}
}

func TestStoragesCloseAbandonsRecordsAfterFailure(t *testing.T) {
	opts := testOptions(t)
	ctx := context.Background()

	s, _, err := newLoader(opts).Load(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Names.Close(ctx))

	assert.Error(t, s.Close(ctx))
	assert.ErrorIs(t, s.Records.Close(), domain.ErrStorageClosed, "records file must be closed")

	header, err := records.ReadHeader(filepath.Join(opts.Directory, domain.RecordsFileName))
	require.NoError(t, err)
	assert.True(t, header.Connected())

	_, _, err = newLoader(opts).Load(ctx)
	requireCategory(t, err, loaderrors.CategoryNotClosedProperly)
}
