package docsync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// downloadAndUpload is the upload subroutine (original spec §4.9): download,
// hash, suppress on known-failed content, preprocess, present under the
// original filename, upload, and resolve the backend document id.
//
// Every temp path has a named owner and is released on every exit path —
// following the ownership-transfer discipline of internal/tokenfile.Save and
// pidfile.go's cleanup-function pattern, generalized here to three paths
// instead of one.
func (e *Engine) downloadAndUpload(ctx context.Context, name string) (UploadResult, error) {
	downloaded, err := e.source.Download(ctx, name)
	if err != nil {
		return UploadResult{}, fmt.Errorf("docsync: downloading %s: %w", name, err)
	}

	var (
		preOutput string // preprocessor output; == downloaded for the identity preprocessor
		presented string // downloaded/preOutput renamed to the original filename
		moved     bool   // true once preOutput has been renamed to presented
	)

	defer func() {
		if presented != "" {
			_ = os.Remove(presented)
		}

		if preOutput != "" && preOutput != downloaded && !moved {
			_ = os.Remove(preOutput)
		}

		_ = os.Remove(downloaded)
	}()

	hash, err := hashFile(downloaded)
	if err != nil {
		return UploadResult{}, fmt.Errorf("docsync: hashing %s: %w", name, err)
	}

	alreadyFailed, err := e.failures.IsFileHashFailed(name, hash)
	if err != nil {
		return UploadResult{}, fmt.Errorf("docsync: checking failure log for %s: %w", name, err)
	}

	if alreadyFailed {
		return UploadResult{Hash: hash}, nil
	}

	preOutput, err = e.pre.Process(ctx, downloaded, name)
	if err != nil {
		return UploadResult{}, fmt.Errorf("docsync: preprocessing %s: %w", name, err)
	}

	presented = filepath.Join(filepath.Dir(preOutput), name)
	if presented != preOutput {
		if err := os.Rename(preOutput, presented); err != nil {
			return UploadResult{}, fmt.Errorf("docsync: renaming %s for upload: %w", name, err)
		}
	}

	moved = true

	trackID, err := e.backend.Upload(ctx, presented, name)
	if err != nil {
		return UploadResult{}, fmt.Errorf("docsync: uploading %s: %w", name, err)
	}

	if trackID != "" {
		e.setPendingUpload(trackID, PendingUpload{FileName: name, Hash: hash, UploadedAt: e.nowFunc()})
	} else {
		e.logger.Warn("backend accepted upload with no tracking id", slog.String("file", name))
	}

	docID, failedNow, err := e.resolveDocID(ctx, trackID, name, hash)
	if err != nil {
		return UploadResult{}, fmt.Errorf("docsync: resolving document id for %s: %w", name, err)
	}

	if failedNow {
		return UploadResult{Hash: hash}, nil
	}

	if docID != "" && trackID != "" {
		e.deletePendingUpload(trackID)
	}

	return UploadResult{Hash: hash, DocID: docID}, nil
}

// resolveDocID implements original spec §4.10. It queries Backend.List once
// and: (1) checks the failed bucket for an immediate terminal failure,
// recording it and returning failedNow=true; (2) otherwise looks for a
// document whose TrackID matches; (3) falls back to matching by file path
// suffix; (4) returns "" if nothing matches yet (the PendingUpload entry,
// already recorded by the caller, is resolved on a later tick).
func (e *Engine) resolveDocID(ctx context.Context, trackID, name, hash string) (docID string, failedNow bool, err error) {
	docs, err := e.backend.List(ctx)
	if err != nil {
		return "", false, fmt.Errorf("docsync: listing backend documents: %w", err)
	}

	if trackID != "" {
		for i := range docs {
			d := &docs[i]
			if d.Status != StatusFailed || d.TrackID != trackID {
				continue
			}

			reason := d.ErrorMsg
			if reason == "" {
				reason = "backend status: failed"
			}

			if logErr := e.failures.LogFailure(name, reason, d.TrackID, hash, d.CreatedAt); logErr != nil {
				e.logger.Error("recording failure", slog.String("error", logErr.Error()))
			}

			e.deletePendingUpload(trackID)
			e.cleanupFailedDoc(ctx, d.ID)

			return "", true, nil
		}
	}

	if trackID != "" {
		for i := range docs {
			if docs[i].TrackID == trackID {
				return docs[i].ID, false, nil
			}
		}
	}

	for i := range docs {
		if strings.HasSuffix(docs[i].FilePath, name) {
			return docs[i].ID, false, nil
		}
	}

	return "", false, nil
}

// cleanupFailedDoc deletes a terminally-failed document from the backend when
// CleanupFailedDocs is enabled. Best effort: a Busy or generic error is
// logged and otherwise ignored — the document is merely left behind, it does
// not corrupt engine state.
func (e *Engine) cleanupFailedDoc(ctx context.Context, docID string) {
	if !e.cleanup {
		return
	}

	if err := e.backend.Delete(ctx, docID); err != nil && !IsBusy(err) {
		e.logger.Warn("cleanup of failed document failed",
			slog.String("doc_id", docID),
			slog.String("error", err.Error()),
		)
	}
}

func (e *Engine) setPendingUpload(trackID string, pu PendingUpload) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()

	e.pendingUploads[trackID] = pu
}

func (e *Engine) deletePendingUpload(trackID string) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()

	delete(e.pendingUploads, trackID)
}

func (e *Engine) pendingUploadSnapshot() map[string]PendingUpload {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()

	out := make(map[string]PendingUpload, len(e.pendingUploads))
	for k, v := range e.pendingUploads {
		out[k] = v
	}

	return out
}
