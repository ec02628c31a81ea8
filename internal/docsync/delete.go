package docsync

import (
	"context"
	"fmt"
	"log/slog"
)

// syncDelete is the shared delete subroutine (original spec §4.8), used by
// startup reconciliation for stale/duplicate/orphan deletes. On success it
// returns 1 (one document deleted). On Busy, it records a PendingDelete with
// no associated file name — these are startup-invoked deletes; §4.7 upgrades
// the specific entries tied to a stale-update reconciliation by calling
// upgradePendingDelete afterward. On any other error, it logs and returns 0.
func (e *Engine) syncDelete(ctx context.Context, docID, reason string) (int, error) {
	err := e.backend.Delete(ctx, docID)
	if err == nil {
		return 1, nil
	}

	if IsBusy(err) {
		e.store.SetPendingDelete(docID, PendingDelete{})

		return 0, nil
	}

	e.logger.Error("delete failed",
		slog.String("doc_id", docID),
		slog.String("reason", reason),
		slog.String("error", err.Error()),
	)

	return 0, nil
}

// upgradePendingDelete sets FileName and ReuploadOnSuccess on an existing
// busy pending-delete entry. Used by the stale-reconcile path (§4.7) to mark
// that a later successful retry must trigger a reupload.
func (e *Engine) upgradePendingDelete(docID, fileName string) {
	pd, ok := e.store.GetPendingDelete(docID)
	if !ok {
		return
	}

	pd.FileName = fileName
	pd.ReuploadOnSuccess = true
	e.store.SetPendingDelete(docID, pd)
}

// retryPendingDeletes retries every carried-over PendingDelete against the
// backend. Used by both startup reconciliation (§4.6 step 4) and each poll
// tick (§4.11 step 1) — the retry logic is identical in both places.
// currentByName is the latest FileSource.List snapshot, keyed by name, needed
// to decide whether a ReuploadOnSuccess entry's file still exists.
func (e *Engine) retryPendingDeletes(ctx context.Context, currentByName map[string]RemoteFileInfo) {
	for docID, pd := range e.store.PendingDeletes() {
		e.retryPendingDelete(ctx, docID, pd, currentByName)
	}
}

func (e *Engine) retryPendingDelete(ctx context.Context, docID string, pd PendingDelete, currentByName map[string]RemoteFileInfo) {
	err := e.backend.Delete(ctx, docID)
	if err != nil {
		if IsBusy(err) {
			return
		}

		e.logger.Error("retrying pending delete failed",
			slog.String("doc_id", docID),
			slog.String("error", err.Error()),
		)
	}

	e.store.DeletePendingDelete(docID)

	if pd.FileName == "" {
		return
	}

	e.store.DeleteFile(pd.FileName)

	// A non-busy delete failure has exhausted the retry; the entries are
	// dropped above but the backend never actually freed the document, so a
	// reupload here would create a duplicate under a name it hasn't released.
	if err != nil || !pd.ReuploadOnSuccess {
		return
	}

	info, present := currentByName[pd.FileName]
	if !present {
		return
	}

	e.reupload(ctx, info)
}

// reupload re-runs the upload subroutine for info and installs the resulting
// FileState. Used after a deferred delete's successful retry clears the way
// for the fresh upload that the original stale-update was waiting on
// (original spec §4.7, §4.11).
func (e *Engine) reupload(ctx context.Context, info RemoteFileInfo) {
	result, err := e.downloadAndUpload(ctx, info.Name)
	if err != nil {
		e.logError("reupload after deferred delete failed", info.Name, err)

		return
	}

	e.store.SetFile(info.Name, FileState{
		Hash:         result.Hash,
		LastModified: info.LastModifiedMillis,
		DocID:        result.DocID,
	})
}

// deleteByDocID looks up the FileState for name and deletes its backend
// document (original spec §4.11). On Busy, it records a PendingDelete tied
// to name and returns ErrBusy so the caller does not advance lastModified —
// the whole update is retried on the next tick.
func (e *Engine) deleteByDocID(ctx context.Context, name string) error {
	state, ok := e.store.GetFile(name)
	if !ok || state.DocID == "" {
		e.logger.Warn("no tracked document to delete", slog.String("file", name))

		return nil
	}

	err := e.backend.Delete(ctx, state.DocID)
	if err == nil {
		return nil
	}

	if IsBusy(err) {
		e.store.SetPendingDelete(state.DocID, PendingDelete{FileName: name})

		return fmt.Errorf("docsync: delete of %s pending (backend busy): %w", name, err)
	}

	return fmt.Errorf("docsync: deleting document for %s: %w", name, err)
}
