package names

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/fsrecords/internal/adapters/storage/logfile"
	"github.com/iamNilotpal/fsrecords/internal/core/domain"
)

func TestEnumerate(t *testing.T) {
	opts := logfile.Options{Path: filepath.Join(t.TempDir(), domain.NamesFileName)}

	s, err := Open(opts)
	require.NoError(t, err)

	a, err := s.Enumerate("src")
	require.NoError(t, err)
	b, err := s.Enumerate("main.go")
	require.NoError(t, err)
	again, err := s.Enumerate("src")
	require.NoError(t, err)

	assert.Equal(t, uint32(1), a)
	assert.Equal(t, uint32(2), b)
	assert.Equal(t, a, again)
	assert.Equal(t, 2, s.Count())
	require.NoError(t, s.Close(context.Background()))

	s, err = Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	name, err := s.ValueOf(2)
	require.NoError(t, err)
	assert.Equal(t, "main.go", name)

	_, err = s.ValueOf(3)
	assert.ErrorIs(t, err, domain.ErrNameNotFound)
	_, err = s.ValueOf(0)
	assert.ErrorIs(t, err, domain.ErrNameNotFound)
}

func TestGapIsReportedAsMissingName(t *testing.T) {
	opts := logfile.Options{Path: filepath.Join(t.TempDir(), domain.NamesFileName)}

	log, err := logfile.Open(opts, nil)
	require.NoError(t, err)
	require.NoError(t, log.Append(1, []byte("a")))
	require.NoError(t, log.Append(3, []byte("c")))
	require.NoError(t, log.Close(context.Background()))

	_, err = Open(opts)
	assert.ErrorIs(t, err, domain.ErrNameNotFound)
}
