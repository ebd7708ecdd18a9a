package errors

import (
	"errors"
	"strings"
)

// Category classifies why a load attempt of the persistent storages did not
// finish cleanly. The stable names returned by String are used as telemetry
// keys: never rename an existing value, add a new one instead.
type Category int

const (
	// CategoryNone means the storages initialized and loaded just fine.
	// It is a sentinel for successful attempts and is never attached to a LoadError.
	CategoryNone Category = iota + 1

	// CategoryInitial means there was no prior state and empty storages were
	// built from scratch.
	CategoryInitial

	// CategoryScheduledRebuild means a previous run left a rebuild marker.
	CategoryScheduledRebuild

	// CategoryNotClosedProperly means the previous process did not shut down
	// cleanly and the storages are suspected fractured.
	CategoryNotClosedProperly

	// CategoryImplVersionMismatch means the on-disk format version differs from
	// the version the running code understands.
	CategoryImplVersionMismatch

	// CategoryNameStorageIncomplete means the name storage is not able to
	// resolve a reference other structures expect to exist.
	CategoryNameStorageIncomplete

	// CategoryContentStoragesNotMatch means the content storage and the
	// content-hash index disagree with each other.
	CategoryContentStoragesNotMatch

	// CategoryContentStoragesIncomplete means the content storage or the
	// content-hash index is not able to resolve an expected reference.
	CategoryContentStoragesIncomplete

	// CategoryUnrecognized covers everything not matched by the specific
	// categories above.
	CategoryUnrecognized
)

// String returns the stable name of the category.
func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "NONE"
	case CategoryInitial:
		return "INITIAL"
	case CategoryScheduledRebuild:
		return "SCHEDULED_REBUILD"
	case CategoryNotClosedProperly:
		return "NOT_CLOSED_PROPERLY"
	case CategoryImplVersionMismatch:
		return "IMPL_VERSION_MISMATCH"
	case CategoryNameStorageIncomplete:
		return "NAME_STORAGE_INCOMPLETE"
	case CategoryContentStoragesNotMatch:
		return "CONTENT_STORAGES_NOT_MATCH"
	case CategoryContentStoragesIncomplete:
		return "CONTENT_STORAGES_INCOMPLETE"
	case CategoryUnrecognized:
		return "UNRECOGNIZED"
	default:
		return "INVALID"
	}
}

// IsValid reports whether c is one of the declared categories.
func (c Category) IsValid() bool {
	return c >= CategoryNone && c <= CategoryUnrecognized
}

// IsFailure reports whether c describes a failed load attempt.
func (c Category) IsFailure() bool {
	return c.IsValid() && c != CategoryNone && c != CategoryInitial
}

// Categories returns every category in declaration order.
func Categories() []Category {
	all := make([]Category, 0, CategoryUnrecognized)
	for c := CategoryNone; c <= CategoryUnrecognized; c++ {
		all = append(all, c)
	}
	return all
}

// ParseCategory looks a category up by its stable name.
func ParseCategory(name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range Categories() {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}

// Recovery is the handling a caller is expected to apply to a category.
type Recovery int

const (
	// RecoveryProceed means the storages are usable as loaded.
	RecoveryProceed Recovery = iota + 1

	// RecoveryRebuild means the on-disk state should be discarded and rebuilt.
	RecoveryRebuild

	// RecoveryAbort means the failure is not understood and must be surfaced.
	RecoveryAbort
)

// String returns the string representation of the recovery action.
func (r Recovery) String() string {
	switch r {
	case RecoveryProceed:
		return "proceed"
	case RecoveryRebuild:
		return "rebuild"
	case RecoveryAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Recovery returns the recommended handling for errors of this category.
// A new category must be handled here.
func (c Category) Recovery() Recovery {
	switch c {
	case CategoryNone, CategoryInitial:
		return RecoveryProceed
	case CategoryScheduledRebuild, CategoryNotClosedProperly, CategoryImplVersionMismatch:
		// Signals left by a previous run: the state is stale, not broken beyond repair.
		return RecoveryRebuild
	case CategoryNameStorageIncomplete, CategoryContentStoragesNotMatch, CategoryContentStoragesIncomplete:
		// Store-specific damage is repaired by rebuilding from the source of truth.
		return RecoveryRebuild
	case CategoryUnrecognized:
		return RecoveryAbort
	default:
		return RecoveryAbort
	}
}

// precedence orders failure categories for Prevailing. Higher wins.
func (c Category) precedence() int {
	switch c {
	case CategoryScheduledRebuild:
		return 7
	case CategoryNotClosedProperly:
		return 6
	case CategoryImplVersionMismatch:
		return 5
	case CategoryNameStorageIncomplete:
		return 4
	case CategoryContentStoragesNotMatch:
		return 3
	case CategoryContentStoragesIncomplete:
		return 2
	case CategoryUnrecognized:
		return 1
	default:
		return 0
	}
}

// Prevailing picks the category to report when several conditions were
// detected during the same attempt. Explicit requests left by a previous run
// win over inferred signals, which win over store-specific damage.
// Returns CategoryNone if no failure category was given.
func Prevailing(categories ...Category) Category {
	winner := CategoryNone
	for _, c := range categories {
		if c.precedence() > winner.precedence() {
			winner = c
		}
	}
	return winner
}

// LoadError is returned by the storage loader when an attempt fails.
// It carries exactly one category and, when the failure was triggered by a
// lower-level fault, that fault as its cause. All fields are immutable.
type LoadError struct {
	category Category
	message  string
	cause    error
}

// NewLoadError creates a LoadError with no known underlying fault.
// It panics if category is not a failure category or message is empty.
func NewLoadError(category Category, message string) *LoadError {
	mustBeValid(category, message)
	return &LoadError{category: category, message: message}
}

// WrapLoadError creates a LoadError attaching the loader's interpretation to a
// previously caught fault. It panics if cause is nil or the arguments are
// invalid as for NewLoadError.
func WrapLoadError(category Category, message string, cause error) *LoadError {
	mustBeValid(category, message)
	if cause == nil {
		panic("errors: WrapLoadError called with nil cause")
	}
	return &LoadError{category: category, message: message, cause: cause}
}

func mustBeValid(category Category, message string) {
	if !category.IsValid() || category == CategoryNone {
		panic("errors: LoadError requires a failure category, got " + category.String())
	}
	if message == "" {
		panic("errors: LoadError requires a message")
	}
}

// Error renders the error as "[<category>]: <message>". Log scraping relies on
// this exact format.
func (e *LoadError) Error() string {
	return "[" + e.category.String() + "]: " + e.message
}

// Category returns the category given at construction.
func (e *LoadError) Category() Category {
	return e.category
}

// Message returns the human readable detail.
func (e *LoadError) Message() string {
	return e.message
}

// Cause returns the underlying fault, or nil.
func (e *LoadError) Cause() error {
	return e.cause
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *LoadError) Unwrap() error {
	return e.cause
}

// IsLoadError checks if a given error is, or wraps, a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// AsLoadError extracts the outermost LoadError from err.
func AsLoadError(err error) (*LoadError, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// CategoryOf returns CategoryNone for a nil error, the category of the
// outermost LoadError in the chain, or CategoryUnrecognized otherwise.
func CategoryOf(err error) Category {
	if err == nil {
		return CategoryNone
	}
	if le, ok := AsLoadError(err); ok {
		return le.category
	}
	return CategoryUnrecognized
}
