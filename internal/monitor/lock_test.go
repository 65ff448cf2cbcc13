package monitor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "upload.lock")

	l, err := AcquireLock(path)
	require.NoError(t, err)
	assert.Equal(t, path, l.Path())

	_, err = AcquireLock(path)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, l.Release())

	l, err = AcquireLock(path)
	require.NoError(t, err)
	require.NoError(t, l.Release())
}
