package loader

import (
	"context"

	"go.uber.org/multierr"

	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/contents"
	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/hashes"
	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/names"
	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/records"
	"github.com/iamNilotpal/fsrecords/internal/core/ports"
)

// Storages is the set of storages a successful attempt hands over.
// Any field may be nil while an attempt is still opening them.
type Storages struct {
	Records  *records.Storage
	Names    *names.Storage
	Contents *contents.Storage
	Hashes   *hashes.Storage

	compressor ports.CompressionPort
}

// Flush writes and syncs the buffered name table and content-hash index.
func (s *Storages) Flush(ctx context.Context) error {
	var err error
	if s.Names != nil {
		err = multierr.Append(err, s.Names.Flush(ctx, true))
	}
	if s.Hashes != nil {
		err = multierr.Append(err, s.Hashes.Flush(ctx, true))
	}
	return err
}

// Close closes every open storage. The records storage goes last: clearing its
// connected flag is only correct once everything else is on disk, so after any
// other failure it is abandoned with the flag still set.
func (s *Storages) Close(ctx context.Context) error {
	var err error
	if s.Names != nil {
		err = multierr.Append(err, s.Names.Close(ctx))
	}
	if s.Hashes != nil {
		err = multierr.Append(err, s.Hashes.Close(ctx))
	}
	if s.Contents != nil {
		err = multierr.Append(err, s.Contents.Close())
	}
	if s.compressor != nil {
		err = multierr.Append(err, s.compressor.Close())
	}
	if s.Records != nil {
		if err == nil {
			err = s.Records.Close()
		} else {
			err = multierr.Append(err, s.Records.Abandon())
		}
	}
	return err
}
