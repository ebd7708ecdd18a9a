package domain

import "time"

const (
	// RecordsMagic starts every records file ("FSRC").
	RecordsMagic uint32 = 0x46535243

	// FormatVersion is the on-disk format this code reads and writes. Bump it
	// whenever any storage layout changes; older files are then rebuilt.
	FormatVersion uint32 = 3
)

// Storage file names inside StorageOptions.Directory.
const (
	RecordsFileName   = "records.dat"
	NamesFileName     = "names.dat"
	HashesFileName    = "hashes.dat"
	ContentsDirName   = "contents"
	RebuildMarkerName = "rebuild.marker"
)

// HeaderFlags are persistent state bits of the records storage.
type HeaderFlags uint32

const (
	// FlagConnected is set while a process has the storages open for writing
	// and cleared by a clean close. Finding it set at startup means the
	// previous process died with the storages open.
	FlagConnected HeaderFlags = 1 << iota
)

// RecordsHeader is the fixed-size header at the start of the records file.
type RecordsHeader struct {
	// Magic identifies the file; must equal RecordsMagic.
	Magic uint32

	// Version is the on-disk format version.
	Version uint32

	// Flags holds HeaderFlags.
	Flags uint32

	// RecordCount is the number of records following the header.
	RecordCount uint32

	// CreatedAt is when the storages were built from scratch, in Unix nanoseconds.
	CreatedAt int64
}

// Connected reports whether FlagConnected is set.
func (h RecordsHeader) Connected() bool {
	return HeaderFlags(h.Flags)&FlagConnected != 0
}

// CreationTime returns CreatedAt as a time.Time.
func (h RecordsHeader) CreationTime() time.Time {
	return time.Unix(0, h.CreatedAt)
}

// RecordFlags describe a file record.
type RecordFlags uint32

const (
	// RecordDirectory marks a directory record.
	RecordDirectory RecordFlags = 1 << iota

	// RecordSymlink marks a symbolic link record.
	RecordSymlink

	// RecordDeleted marks a record freed by a delete; its references are not validated.
	RecordDeleted
)

// Record is one fixed-size file record. Record ids are 1-based positions in the
// records file; id 0 means "no record".
type Record struct {
	// ParentID is the id of the parent directory record, 0 for roots.
	ParentID uint32

	// NameID references the name table.
	NameID uint32

	// ContentID references the content storage, 0 if no content is cached.
	ContentID uint32

	// Flags holds RecordFlags.
	Flags uint32

	// Length is the file length as last observed.
	Length int64

	// ModTime is the modification time as last observed, in Unix nanoseconds.
	ModTime int64
}

// IsDeleted reports whether the record was freed.
func (r Record) IsDeleted() bool {
	return RecordFlags(r.Flags)&RecordDeleted != 0
}

// IsDirectory reports whether the record describes a directory.
func (r Record) IsDirectory() bool {
	return RecordFlags(r.Flags)&RecordDirectory != 0
}
