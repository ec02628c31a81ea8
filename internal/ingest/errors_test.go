package ingest

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ingestsync/docsync/internal/docsync"
)

func TestClassifyStatus_NeverClassifiesBusyByStatusCode(t *testing.T) {
	// Busy is a Delete-only, 200-response-body condition handled directly
	// in Client.Delete; classifyStatus only ever builds a plain httpError.
	for _, code := range []int{http.StatusConflict, http.StatusLocked, http.StatusTooManyRequests} {
		err := classifyStatus(http.MethodPost, "http://x/documents", code, "processing")
		assert.Falsef(t, docsync.IsBusy(err), "status %d must not classify as busy", code)
	}
}

func TestClassifyStatus_BuildsPlainHTTPError(t *testing.T) {
	err := classifyStatus(http.MethodGet, "http://x/documents", http.StatusBadRequest, "bad field")
	assert.False(t, docsync.IsBusy(err))
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "bad field")
}

func TestIsRetryable_BusyErrorIsNotRetried(t *testing.T) {
	assert.False(t, isRetryable(&docsync.BusyError{DocID: "doc-1"}))
}

func TestIsRetryable_ServerErrorIsRetried(t *testing.T) {
	err := classifyStatus(http.MethodGet, "http://x/documents", http.StatusServiceUnavailable, "down")
	assert.True(t, isRetryable(err))
}

func TestIsRetryable_ClientErrorIsNotRetried(t *testing.T) {
	err := classifyStatus(http.MethodGet, "http://x/documents", http.StatusNotFound, "missing")
	assert.False(t, isRetryable(err))
}

func TestIsRetryable_NetworkLevelErrorIsRetried(t *testing.T) {
	assert.True(t, isRetryable(errors.New("connection reset by peer")))
}

func TestIsRetryable_WrappedHTTPErrorIsUnwrapped(t *testing.T) {
	base := classifyStatus(http.MethodGet, "http://x", http.StatusInternalServerError, "boom")
	wrapped := fmt.Errorf("ingest: decoding response: %w", base)
	assert.True(t, isRetryable(wrapped))
}
