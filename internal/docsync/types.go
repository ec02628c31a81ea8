// Package docsync implements the one-way synchronization engine that mirrors
// a FileSource's documents into a Backend's ingest pipeline. The engine is
// transport-agnostic: FileSource, Backend and Preprocessor are capabilities
// satisfied by concrete implementations in internal/transport, internal/ingest
// and internal/preprocess.
package docsync

import (
	"context"
	"time"
)

// RemoteFileInfo is a snapshot of one source entry at listing time.
// Name is unique within a single List call.
type RemoteFileInfo struct {
	Name               string
	LastModifiedMillis int64
}

// FileSource enumerates and downloads documents from the remote source.
// Implementations are external collaborators — see internal/transport.
type FileSource interface {
	// List returns every entry whose name matches AllowedExtensions
	// (case-insensitive suffix) and which is not a directory. A listing
	// failure is non-fatal: implementations log and return an empty slice
	// rather than erroring, so the engine never mistakes "source
	// unreachable" for "source is empty" — it simply treats the unreachable
	// tick as fully idle and defers deletions.
	List(ctx context.Context) ([]RemoteFileInfo, error)

	// Download fetches name to a local temporary path owned by the caller.
	Download(ctx context.Context, name string) (string, error)

	// AllowedExtensions returns the configured suffix allow-list, lowercased.
	AllowedExtensions() []string
}

// DocumentInfo is the backend's view of one ingested document.
// Status is always lowercased by the Backend implementation.
type DocumentInfo struct {
	ID        string
	FilePath  string
	CreatedAt string
	TrackID   string
	Status    string
	ErrorMsg  string
}

const (
	// StatusProcessed is the terminal success status.
	StatusProcessed = "processed"
	// StatusFailed is the terminal failure status.
	StatusFailed = "failed"
)

// IsTerminal reports whether status is a terminal (processed/failed) state.
func IsTerminal(status string) bool {
	return status == StatusProcessed || status == StatusFailed
}

// Backend is the downstream ingest service. Implementations are external
// collaborators — see internal/ingest.
type Backend interface {
	// Upload submits localPath under presentedName and returns the backend's
	// tracking ID for the (async) submission, or "" if the backend accepted
	// the request but assigned no tracking ID.
	Upload(ctx context.Context, localPath, presentedName string) (trackID string, err error)

	// List returns the aggregated set of documents across all statuses.
	List(ctx context.Context) ([]DocumentInfo, error)

	// Delete removes a document by ID. Returns an error satisfying
	// errors.Is(err, ErrBusy) when the backend is processing and the delete
	// must be retried later.
	Delete(ctx context.Context, docID string) error
}

// Preprocessor transforms a downloaded file before upload. The identity
// implementation (see internal/preprocess) returns the input path unchanged.
type Preprocessor interface {
	Process(ctx context.Context, inputPath, originalName string) (outputPath string, err error)
}

// FileState is the per-file record held in the StateStore.
//
// Invariant: if Hash == "" and DocID == "", the file has been observed but
// not yet uploaded. If Hash != "", it is the MD5 of the source content for
// which DocID (if non-empty) is believed to hold in the backend.
type FileState struct {
	Hash         string `json:"hash,omitempty"`
	LastModified int64  `json:"lastModified"`
	DocID        string `json:"docId,omitempty"`
}

// PendingDelete is a docID whose delete was deferred because the backend
// reported Busy.
//
// FileName == "" means an orphan or duplicate discovered at startup — no
// follow-up action is owed when the retry finally succeeds. ReuploadOnSuccess
// means the deferred delete was part of a stale-update: a fresh upload must
// follow a successful retry.
type PendingDelete struct {
	FileName          string `json:"fileName,omitempty"`
	ReuploadOnSuccess bool   `json:"reuploadOnSuccess"`
}

// PendingUpload is an in-flight upload awaiting a terminal backend status.
// Deliberately NOT persisted — it is rebuilt from Backend.List at restart.
type PendingUpload struct {
	FileName   string
	Hash       string
	UploadedAt time.Time
}

// UploadResult is the outcome of one downloadAndUpload attempt. DocID == ""
// means "not yet known" (still pending a terminal status) or "suppressed"
// because the content previously failed terminally.
type UploadResult struct {
	Hash  string
	DocID string
}

// StartupSyncMode controls how aggressively the engine reconciles on startup.
type StartupSyncMode string

const (
	StartupSyncNone   StartupSyncMode = "none"
	StartupSyncUpload StartupSyncMode = "upload"
	StartupSyncFull   StartupSyncMode = "full"
)

// ParseStartupSyncMode validates and normalizes a configured mode string.
func ParseStartupSyncMode(s string) (StartupSyncMode, error) {
	switch StartupSyncMode(s) {
	case StartupSyncNone, StartupSyncUpload, StartupSyncFull:
		return StartupSyncMode(s), nil
	default:
		return "", &invalidModeError{s}
	}
}

type invalidModeError struct{ got string }

func (e *invalidModeError) Error() string {
	return "docsync: invalid startup-sync mode " + e.got + " (want none, upload, or full)"
}
