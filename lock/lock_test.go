package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lockPath(t *testing.T) string {
	t.Helper()

	return filepath.Join(t.TempDir(), "guardian.lock")
}

func TestTryAcquireAndRelease(t *testing.T) {
	t.Parallel()

	l := New(lockPath(t))

	acquired, err := l.TryAcquire()
	require.NoError(t, err)
	assert.True(t, acquired)

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	require.NoError(t, l.Release())
	assert.NoFileExists(t, l.Path())
}

func TestTryAcquireContendsWithLiveHolder(t *testing.T) {
	t.Parallel()

	path := lockPath(t)

	first := New(path)
	acquired, err := first.TryAcquire()
	require.NoError(t, err)
	require.True(t, acquired)

	// The recorded holder is this same process, which is alive, so a
	// second contender must back off.
	second := New(path)
	acquired, err = second.TryAcquire()
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, first.Release())
}

func TestTryAcquireReclaimsStaleLock(t *testing.T) {
	t.Parallel()

	path := lockPath(t)

	// PIDs near the kernel maximum are never in use on a test host.
	require.NoError(t, os.WriteFile(path, []byte("4194000"), 0o644))

	l := New(path)
	acquired, err := l.TryAcquire()
	require.NoError(t, err)
	assert.True(t, acquired)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))
}

func TestTryAcquireReclaimsMalformedLock(t *testing.T) {
	t.Parallel()

	path := lockPath(t)
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0o644))

	acquired, err := New(path).TryAcquire()
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestTryAcquireCreatesParentDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "guardian.lock")

	acquired, err := New(path).TryAcquire()
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestReleaseWithoutLock(t *testing.T) {
	t.Parallel()

	err := New(lockPath(t)).Release()
	assert.ErrorIs(t, err, ErrNotHeld)
}

func TestReleaseForeignLock(t *testing.T) {
	t.Parallel()

	path := lockPath(t)
	require.NoError(t, os.WriteFile(path, []byte("4194000"), 0o644))

	err := New(path).Release()
	assert.ErrorIs(t, err, ErrNotHeld)
	assert.FileExists(t, path)
}
