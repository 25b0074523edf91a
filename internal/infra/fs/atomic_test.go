package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomicCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "price_tracker.csv")

	require.NoError(t, WriteFileAtomic(path, []byte("date,egg_price,gas_price\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "date,egg_price,gas_price\n", string(data))
	assert.True(t, NonEmpty(path))
}

func TestWriteAtomicKeepsOldContentOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "price_tracker.csv")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	err := WriteAtomic(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("encode failed")
	})
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be cleaned up")
}

func TestNonEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.png")
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	assert.False(t, NonEmpty(empty))
	assert.False(t, NonEmpty(filepath.Join(dir, "missing.png")))
	assert.False(t, NonEmpty(dir))
}
