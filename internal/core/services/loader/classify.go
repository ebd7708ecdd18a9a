package loader

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/iamNilotpal/fsrecords/internal/core/domain"
	loaderrors "github.com/iamNilotpal/fsrecords/pkg/errors"
)

// Classify turns err into a LoadError.
//
// A LoadError anywhere in the chain is returned unchanged: the deepest
// classifier wins. Known storage faults map onto their category. Anything else
// is CategoryUnrecognized. err is always kept as the cause.
func Classify(err error, message string) *loaderrors.LoadError {
	return classify(err, message, loaderrors.CategoryUnrecognized)
}

// classify is Classify with the category to use for a corrupted log entry,
// which depends on the storage the entry belongs to.
func classify(err error, message string, corrupted loaderrors.Category) *loaderrors.LoadError {
	if le, ok := loaderrors.AsLoadError(err); ok {
		return le
	}
	return loaderrors.WrapLoadError(categorize(err, corrupted), message, err)
}

func categorize(err error, corrupted loaderrors.Category) loaderrors.Category {
	switch {
	case errors.Is(err, domain.ErrNotClosedProperly), errors.Is(err, domain.ErrRecordsTruncated):
		// A records file shorter than its header claims is what a process
		// dying mid-write leaves behind.
		return loaderrors.CategoryNotClosedProperly
	case errors.Is(err, domain.ErrVersionMismatch):
		return loaderrors.CategoryImplVersionMismatch
	case errors.Is(err, domain.ErrNameNotFound):
		return loaderrors.CategoryNameStorageIncomplete
	case errors.Is(err, domain.ErrContentHashMismatch):
		return loaderrors.CategoryContentStoragesNotMatch
	case errors.Is(err, domain.ErrContentNotFound),
		errors.Is(err, domain.ErrContentCorrupted),
		errors.Is(err, badger.ErrKeyNotFound):
		return loaderrors.CategoryContentStoragesIncomplete
	case errors.Is(err, domain.ErrLogEntryCorrupted):
		return corrupted
	default:
		return loaderrors.CategoryUnrecognized
	}
}

// detection is one condition found during an attempt.
type detection struct {
	category loaderrors.Category
	message  string
	cause    error
}

func (d detection) loadError() *loaderrors.LoadError {
	if d.cause != nil {
		return classifyAs(d.category, d.message, d.cause)
	}
	return loaderrors.NewLoadError(d.category, d.message)
}

// classifyAs wraps cause with an already decided category, unless cause is
// itself a LoadError.
func classifyAs(category loaderrors.Category, message string, cause error) *loaderrors.LoadError {
	if le, ok := loaderrors.AsLoadError(cause); ok {
		return le
	}
	return loaderrors.WrapLoadError(category, message, cause)
}

// prevailing returns the detection whose category wins by precedence. The
// first detection found wins among equal categories.
func prevailing(detections []detection) (detection, []detection) {
	categories := make([]loaderrors.Category, len(detections))
	for i, d := range detections {
		categories[i] = d.category
	}

	winner := loaderrors.Prevailing(categories...)
	for i, d := range detections {
		if d.category == winner {
			rest := make([]detection, 0, len(detections)-1)
			rest = append(rest, detections[:i]...)
			rest = append(rest, detections[i+1:]...)
			return d, rest
		}
	}
	return detection{}, detections
}
