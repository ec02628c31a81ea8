package docsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStartup_UploadsNewFile(t *testing.T) {
	src := newFakeSource(t)
	src.put("a.txt", []byte("hello"), 100)

	backend := newFakeBackend()
	e := newTestEngine(t, src, backend)

	report, err := e.RunStartup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Uploaded)

	state, ok := e.store.GetFile("a.txt")
	require.True(t, ok)
	assert.NotEmpty(t, state.DocID)
	assert.NotEmpty(t, state.Hash)
}

func TestRunStartup_ReusesPersistedStateWhenUnmodified(t *testing.T) {
	src := newFakeSource(t)
	src.put("a.txt", []byte("hello"), 100)

	backend := newFakeBackend()
	e := newTestEngine(t, src, backend)

	_, err := e.RunStartup(context.Background())
	require.NoError(t, err)

	// A second startup pass over the identical listing should not reupload.
	report, err := e.RunStartup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Uploaded)
	assert.Equal(t, 0, report.Stale)
}

func TestRunStartup_StaleHashTriggersDeleteAndReupload(t *testing.T) {
	src := newFakeSource(t)
	src.put("a.txt", []byte("v1"), 100)

	backend := newFakeBackend()
	e := newTestEngine(t, src, backend)

	_, err := e.RunStartup(context.Background())
	require.NoError(t, err)

	// Same LastModified, but content changed underneath — prePopulateFileState
	// will reuse the persisted hash, so force a hash mismatch by editing the
	// state directly is not representative; instead advance LastModified to
	// force a fresh hash read against new content.
	src.put("a.txt", []byte("v2-longer-content"), 200)

	report, err := e.RunStartup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Uploaded)
	assert.Equal(t, 1, report.Stale)
	assert.Equal(t, 1, report.Deleted)
}

func TestRunStartup_FullModeDeletesOrphans(t *testing.T) {
	src := newFakeSource(t)
	backend := newFakeBackend()

	// A document with no corresponding source file.
	backend.docs["orphan-1"] = &DocumentInfo{ID: "orphan-1", FilePath: "ghost.txt", Status: StatusProcessed}

	e := newTestEngine(t, src, backend)
	e.startupMode = StartupSyncFull

	report, err := e.RunStartup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Orphaned)
	assert.Equal(t, 1, report.Deleted)

	_, stillPresent := backend.docs["orphan-1"]
	assert.False(t, stillPresent)
}

func TestRunStartup_NoneModeSkipsBackendReconciliation(t *testing.T) {
	src := newFakeSource(t)
	src.put("a.txt", []byte("hello"), 100)

	backend := newFakeBackend()
	e := newTestEngine(t, src, backend)
	e.startupMode = StartupSyncNone

	report, err := e.RunStartup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Uploaded)

	_, ok := e.store.GetFile("a.txt")
	assert.True(t, ok, "file should be pre-populated even in none mode")
}

func TestRunStartup_BusyDeleteDefersAsPendingDelete(t *testing.T) {
	src := newFakeSource(t)
	backend := newFakeBackend()
	backend.docs["busy-doc"] = &DocumentInfo{ID: "busy-doc", FilePath: "ghost.txt", Status: StatusProcessed}
	backend.deleteFn = func(string) error { return ErrBusy }

	e := newTestEngine(t, src, backend)
	e.startupMode = StartupSyncFull

	report, err := e.RunStartup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Deleted)

	_, pending := e.store.GetPendingDelete("busy-doc")
	assert.True(t, pending)
}

func TestRunStartup_ConcurrentReconciliationUploadsEveryFile(t *testing.T) {
	src := newFakeSource(t)
	for i := 0; i < 20; i++ {
		src.put(string(rune('a'+i))+".txt", []byte("content"), int64(i))
	}

	backend := newFakeBackend()
	e := newTestEngine(t, src, backend)
	e.startupWorkers = 3

	report, err := e.RunStartup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, report.Uploaded)
}
