package errors

import (
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryNamesAreFrozen(t *testing.T) {
	// Telemetry dashboards group by these names. Append new ones, never edit.
	frozen := []string{
		"NONE",
		"INITIAL",
		"SCHEDULED_REBUILD",
		"NOT_CLOSED_PROPERLY",
		"IMPL_VERSION_MISMATCH",
		"NAME_STORAGE_INCOMPLETE",
		"CONTENT_STORAGES_NOT_MATCH",
		"CONTENT_STORAGES_INCOMPLETE",
		"UNRECOGNIZED",
	}

	names := make([]string, 0, len(frozen))
	for _, c := range Categories() {
		names = append(names, c.String())
	}
	assert.Equal(t, frozen, names)
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		parsed, ok := ParseCategory(c.String())
		require.True(t, ok, c.String())
		assert.Equal(t, c, parsed)
	}

	_, ok := ParseCategory("INVALID")
	assert.False(t, ok)
	_, ok = ParseCategory("none")
	assert.False(t, ok)
}

func TestZeroCategoryIsInvalid(t *testing.T) {
	var c Category
	assert.False(t, c.IsValid())
	assert.Equal(t, "INVALID", c.String())
	assert.Equal(t, RecoveryAbort, c.Recovery())
}

func TestLoadErrorScenarios(t *testing.T) {
	t.Run("fresh failure", func(t *testing.T) {
		err := NewLoadError(CategoryNameStorageIncomplete, "reference 42 not found")

		assert.Equal(t, CategoryNameStorageIncomplete, err.Category())
		assert.Equal(t, "[NAME_STORAGE_INCOMPLETE]: reference 42 not found", err.Error())
		assert.Nil(t, err.Cause())
	})

	t.Run("wrapped fault keeps its own category", func(t *testing.T) {
		cause := &os.PathError{Op: "read", Path: "hashes.dat", Err: io.ErrUnexpectedEOF}
		err := WrapLoadError(CategoryContentStoragesNotMatch, "hash mismatch", cause)

		assert.Equal(t, CategoryContentStoragesNotMatch, err.Category())
		assert.Same(t, cause, err.Cause())
		assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

		var pathErr *os.PathError
		require.True(t, errors.As(err, &pathErr))
		assert.Same(t, cause, pathErr)
	})
}

func TestLoadErrorRendering(t *testing.T) {
	messages := []string{
		"plain",
		"first line\nsecond line\n\tindented third",
		"  surrounding spaces  ",
		"contains ]: brackets [NONE]",
	}

	for _, c := range Categories() {
		if c == CategoryNone {
			continue
		}
		for _, msg := range messages {
			err := NewLoadError(c, msg)
			assert.Equal(t, "["+c.String()+"]: "+msg, err.Error())
			assert.Equal(t, c, err.Category())
			assert.Equal(t, msg, err.Message())
		}
	}
}

func TestLoadErrorConstructorsFailFast(t *testing.T) {
	cause := errors.New("boom")

	assert.Panics(t, func() { NewLoadError(0, "message") })
	assert.Panics(t, func() { NewLoadError(CategoryNone, "message") })
	assert.Panics(t, func() { NewLoadError(CategoryUnrecognized, "") })
	assert.Panics(t, func() { WrapLoadError(CategoryUnrecognized, "message", nil) })
	assert.Panics(t, func() { WrapLoadError(Category(100), "message", cause) })
	assert.NotPanics(t, func() { NewLoadError(CategoryInitial, "created from scratch") })
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryNone, CategoryOf(nil))
	assert.Equal(t, CategoryUnrecognized, CategoryOf(errors.New("raw")))

	inner := NewLoadError(CategoryNotClosedProperly, "connected flag set")
	wrapped := fmt.Errorf("opening storages: %w", inner)
	assert.Equal(t, CategoryNotClosedProperly, CategoryOf(wrapped))

	le, ok := AsLoadError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, le)
	assert.True(t, IsLoadError(wrapped))
	assert.False(t, IsLoadError(errors.New("raw")))
}

func TestPrevailing(t *testing.T) {
	cases := []struct {
		name string
		in   []Category
		want Category
	}{
		{"empty", nil, CategoryNone},
		{"only successes", []Category{CategoryNone, CategoryInitial}, CategoryNone},
		{"marker beats version", []Category{CategoryImplVersionMismatch, CategoryScheduledRebuild}, CategoryScheduledRebuild},
		{"unclean beats version", []Category{CategoryImplVersionMismatch, CategoryNotClosedProperly}, CategoryNotClosedProperly},
		{"version beats stores", []Category{CategoryContentStoragesIncomplete, CategoryImplVersionMismatch}, CategoryImplVersionMismatch},
		{"stores beat unrecognized", []Category{CategoryUnrecognized, CategoryContentStoragesNotMatch}, CategoryContentStoragesNotMatch},
		{"unrecognized alone", []Category{CategoryUnrecognized}, CategoryUnrecognized},
		{
			"everything",
			[]Category{
				CategoryUnrecognized, CategoryContentStoragesIncomplete, CategoryContentStoragesNotMatch,
				CategoryNameStorageIncomplete, CategoryImplVersionMismatch, CategoryNotClosedProperly,
				CategoryScheduledRebuild,
			},
			CategoryScheduledRebuild,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Prevailing(tc.in...))
		})
	}
}

func TestRecovery(t *testing.T) {
	for _, c := range Categories() {
		r := c.Recovery()
		switch c {
		case CategoryNone, CategoryInitial:
			assert.Equal(t, RecoveryProceed, r, c.String())
			assert.False(t, c.IsFailure())
		case CategoryUnrecognized:
			assert.Equal(t, RecoveryAbort, r, c.String())
			assert.True(t, c.IsFailure())
		default:
			assert.Equal(t, RecoveryRebuild, r, c.String())
			assert.True(t, c.IsFailure())
		}
	}
}

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("options: %w", NewValidationError("max_attempts", 0, errors.New("must be between 1 and 10")))

	require.True(t, IsValidationError(err))
	ve := AsValidationError(err)
	require.NotNil(t, ve)
	assert.Equal(t, "max_attempts", ve.Field)
	assert.Equal(t, "invalid max_attempts (0): must be between 1 and 10", ve.Error())
	assert.Nil(t, AsValidationError(errors.New("other")))
}
