package docsync

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureLog_LogAndLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failures.log")
	l := NewFailureLog(path, 1<<20, nil)

	require.NoError(t, l.LogFailure("a.txt", "rejected", "track-1", "hash-1", "2024-01-01T00:00:00Z"))

	found, err := l.IsAlreadyLogged("track-1", "2024-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = l.IsAlreadyLogged("track-2", "")
	require.NoError(t, err)
	assert.False(t, found)

	found, err = l.IsFileHashFailed("a.txt", "hash-1")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = l.IsFileHashFailed("a.txt", "hash-2")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFailureLog_IsFileHashFailed_EmptyHashNeverMatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failures.log")
	l := NewFailureLog(path, 1<<20, nil)

	found, err := l.IsFileHashFailed("a.txt", "")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFailureLog_RotatesWhenOverSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failures.log")
	l := NewFailureLog(path, 10, nil) // tiny threshold forces rotation on every append

	for i := 0; i < 3; i++ {
		require.NoError(t, l.LogFailure(fmt.Sprintf("f%d.txt", i), "reason", "", "", ""))
	}

	_, err := os.Stat(path + ".1")
	assert.NoError(t, err, "expected a rotated archive to exist")
}

func TestFailureLog_MissingLogReturnsNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.log")
	l := NewFailureLog(path, 1<<20, nil)

	found, err := l.IsAlreadyLogged("track-1", "")
	require.NoError(t, err)
	assert.False(t, found)
}
