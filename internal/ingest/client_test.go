package ingest

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingestsync/docsync/internal/docsync"
)

// newTestClient builds a Client pointing at srv with no OAuth wrapping —
// authentication is exercised separately in tokencache_test.go.
func newTestClient(srv *httptest.Server) *Client {
	return &Client{baseURL: srv.URL, http: srv.Client()}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestUpload_SuccessReturnsTrackID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/documents", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "report.txt", hdr.Filename)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"trackId":"track-123"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	path := writeTempFile(t, "hello world")

	trackID, err := client.Upload(t.Context(), path, "report.txt")
	require.NoError(t, err)
	assert.Equal(t, "track-123", trackID)
}

func TestUpload_ClientErrorIsNotRetried(t *testing.T) {
	// Busy is a Delete-only, 200-body condition (see errors.go); a 4xx on
	// Upload is always a plain, non-retried error.
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("duplicate name"))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	path := writeTempFile(t, "hello")

	_, err := client.Upload(t.Context(), path, "doc.txt")
	require.Error(t, err)
	assert.False(t, docsync.IsBusy(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestUpload_ServerErrorIsRetriedThenSucceeds(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		require.NoError(t, r.ParseMultipartForm(1<<20))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"trackId":"track-after-retry"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	path := writeTempFile(t, "hello")

	trackID, err := client.Upload(t.Context(), path, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "track-after-retry", trackID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestUpload_MissingLocalFileErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(srv)

	_, err := client.Upload(t.Context(), filepath.Join(t.TempDir(), "missing.txt"), "missing.txt")
	require.Error(t, err)
}

func TestList_ParsesDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/documents", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"documents":[
			{"id":"d1","filePath":"a.txt","createdAt":"2024-01-01T00:00:00Z","trackId":"t1","status":"processed"},
			{"id":"d2","filePath":"b.txt","createdAt":"2024-01-02T00:00:00Z","trackId":"t2","status":"failed","errorMsg":"bad format"}
		]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv)

	docs, err := client.List(t.Context())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d1", docs[0].ID)
	assert.Equal(t, "t1", docs[0].TrackID)
	assert.Equal(t, "processed", docs[0].Status)
	assert.Equal(t, "bad format", docs[1].ErrorMsg)
}

func TestList_EmptyEnvelopeReturnsEmptySlice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"documents":[]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv)

	docs, err := client.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDelete_SuccessReturnsNilOnNonBusyStatus(t *testing.T) {
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"deleted"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv)

	err := client.Delete(t.Context(), "doc/with slash")
	require.NoError(t, err)
	assert.Equal(t, "/documents/doc%2Fwith%20slash", gotPath)
}

func TestDelete_BusyBodyOn200PropagatesAsBusyError(t *testing.T) {
	// The backend signals busy with an HTTP 200 and a JSON body — never via
	// the HTTP status code itself.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"busy","message":"still processing"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv)

	err := client.Delete(t.Context(), "doc-1")
	require.Error(t, err)
	assert.True(t, docsync.IsBusy(err))
}

func TestDelete_NonBusyHTTPStatusCodeIsNotBusy(t *testing.T) {
	// 409/423/429 used to be treated as busy by status code alone; the
	// backend's actual busy signal is the 200 body, so these must now
	// surface as plain errors instead.
	for _, code := range []int{http.StatusConflict, http.StatusLocked, http.StatusTooManyRequests} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(code)
		}))

		client := newTestClient(srv)

		err := client.Delete(t.Context(), "doc-1")
		require.Error(t, err)
		assert.Falsef(t, docsync.IsBusy(err), "status %d must not classify as busy", code)

		srv.Close()
	}
}

func TestDelete_RetriesExhaustedReturnsError(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(srv)

	err := client.Delete(t.Context(), "doc-1")
	require.Error(t, err)
	assert.Equal(t, int32(5), calls.Load()) // 1 initial + maxUploadRetries retries
}
