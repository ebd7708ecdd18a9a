package loader

import (
	"errors"
	"fmt"
	"io"
	"testing"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/fsrecords/internal/core/domain"
	loaderrors "github.com/iamNilotpal/fsrecords/pkg/errors"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want loaderrors.Category
	}{
		{fmt.Errorf("open: %w", domain.ErrRecordsTruncated), loaderrors.CategoryNotClosedProperly},
		{domain.ErrNotClosedProperly, loaderrors.CategoryNotClosedProperly},
		{fmt.Errorf("header: %w", domain.ErrVersionMismatch), loaderrors.CategoryImplVersionMismatch},
		{domain.ErrNameNotFound, loaderrors.CategoryNameStorageIncomplete},
		{domain.ErrContentHashMismatch, loaderrors.CategoryContentStoragesNotMatch},
		{domain.ErrContentNotFound, loaderrors.CategoryContentStoragesIncomplete},
		{fmt.Errorf("content 1: %w: unknown encoding 7", domain.ErrContentCorrupted), loaderrors.CategoryContentStoragesIncomplete},
		{fmt.Errorf("get: %w", badger.ErrKeyNotFound), loaderrors.CategoryContentStoragesIncomplete},
		{domain.ErrLogEntryCorrupted, loaderrors.CategoryUnrecognized},
		{domain.ErrBadMagic, loaderrors.CategoryUnrecognized},
		{io.ErrUnexpectedEOF, loaderrors.CategoryUnrecognized},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			le := Classify(tc.err, "step failed")
			assert.Equal(t, tc.want, le.Category())
			assert.Same(t, tc.err, le.Cause())
			assert.Equal(t, "["+tc.want.String()+"]: step failed", le.Error())
		})
	}
}

func TestClassifyCorruptedEntryUsesStoreCategory(t *testing.T) {
	err := fmt.Errorf("entry 3: %w", domain.ErrLogEntryCorrupted)
	le := classify(err, "names", loaderrors.CategoryNameStorageIncomplete)
	assert.Equal(t, loaderrors.CategoryNameStorageIncomplete, le.Category())
}

func TestClassifyPassesLoadErrorThrough(t *testing.T) {
	inner := loaderrors.NewLoadError(loaderrors.CategoryContentStoragesNotMatch, "deep")
	wrapped := fmt.Errorf("outer: %w", inner)

	assert.Same(t, inner, Classify(wrapped, "outer step"))
	assert.Same(t, inner, classifyAs(loaderrors.CategoryUnrecognized, "outer step", wrapped))
}

func TestPrevailingDetection(t *testing.T) {
	cause := errors.New("io")
	detections := []detection{
		{category: loaderrors.CategoryImplVersionMismatch, message: "version"},
		{category: loaderrors.CategoryUnrecognized, message: "odd", cause: cause},
		{category: loaderrors.CategoryScheduledRebuild, message: "marker"},
	}

	winner, rest := prevailing(detections)
	assert.Equal(t, loaderrors.CategoryScheduledRebuild, winner.category)
	require.Len(t, rest, 2)
	assert.Equal(t, "version", rest[0].message)
	assert.Equal(t, "odd", rest[1].message)

	le := winner.loadError()
	assert.Equal(t, "[SCHEDULED_REBUILD]: marker", le.Error())
	assert.Nil(t, le.Cause())
	assert.Same(t, cause, rest[1].loadError().Cause())
}
