package docsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadAndUpload_HappyPath(t *testing.T) {
	src := newFakeSource(t)
	src.put("a.txt", []byte("hello"), 100)
	backend := newFakeBackend()
	e := newTestEngine(t, src, backend)

	result, err := e.downloadAndUpload(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Hash)
	assert.NotEmpty(t, result.DocID)
}

func TestDownloadAndUpload_SuppressesKnownFailedHash(t *testing.T) {
	src := newFakeSource(t)
	src.put("a.txt", []byte("bad content"), 100)
	backend := newFakeBackend()
	e := newTestEngine(t, src, backend)

	hash, err := hashFile(mustDownload(t, src, "a.txt"))
	require.NoError(t, err)

	require.NoError(t, e.failures.LogFailure("a.txt", "rejected previously", "", hash, ""))

	result, err := e.downloadAndUpload(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, hash, result.Hash)
	assert.Empty(t, result.DocID, "suppressed upload should not produce a docID")
}

func TestDownloadAndUpload_DownloadErrorPropagates(t *testing.T) {
	src := newFakeSource(t)
	backend := newFakeBackend()
	e := newTestEngine(t, src, backend)

	_, err := e.downloadAndUpload(context.Background(), "missing.txt")
	assert.Error(t, err)
}

func TestResolveDocID_MatchesByFilePathSuffixWhenNoTrackID(t *testing.T) {
	src := newFakeSource(t)
	backend := newFakeBackend()
	backend.docs["doc-suffix"] = &DocumentInfo{ID: "doc-suffix", FilePath: "/remote/path/a.txt", Status: StatusProcessed}
	e := newTestEngine(t, src, backend)

	docID, failedNow, err := e.resolveDocID(context.Background(), "", "a.txt", "somehash")
	require.NoError(t, err)
	assert.False(t, failedNow)
	assert.Equal(t, "doc-suffix", docID)
}

func mustDownload(t *testing.T, src *fakeSource, name string) string {
	t.Helper()

	path, err := src.Download(context.Background(), name)
	require.NoError(t, err)

	return path
}
