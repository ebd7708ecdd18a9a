package fsrecords

import (
	"time"

	loaderrors "github.com/iamNilotpal/fsrecords/pkg/errors"
)

// InitializationReport describes how the storages came to be usable.
type InitializationReport struct {
	// SessionID identifies this initialization in logs.
	SessionID string `json:"session_id"`

	// Attempts made, including the successful one.
	Attempts int `json:"attempts"`

	// Failures of every unsuccessful attempt, oldest first.
	Failures []error `json:"-"`

	// RebuildCause is the category reported to telemetry.
	RebuildCause loaderrors.Category `json:"-"`

	// CreatedANew is true if the storages in use were built from scratch.
	CreatedANew bool `json:"created_a_new"`

	Version   uint32        `json:"version"`
	CreatedAt time.Time     `json:"created_at"`
	Duration  time.Duration `json:"duration"`
}

// RebuildCause picks the category that explains an initialization.
//
// Storages created from scratch without a failure report INITIAL, a clean load
// reports NONE. Otherwise the category of the first failure that is a
// LoadError is reported, or UNRECOGNIZED if no failure carries one.
func RebuildCause(createdANew bool, failures []error) loaderrors.Category {
	if len(failures) == 0 {
		if createdANew {
			return loaderrors.CategoryInitial
		}
		return loaderrors.CategoryNone
	}

	for _, failure := range failures {
		if le, ok := loaderrors.AsLoadError(failure); ok {
			return le.Category()
		}
	}
	return loaderrors.CategoryUnrecognized
}
