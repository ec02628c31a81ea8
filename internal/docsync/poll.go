package docsync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// RunPollTick executes one poll-tick reconciliation (original spec §4.11), in
// order: retry deferred deletes, resolve pending uploads, then process
// new/updated/deleted source files. State is saved once at the end, only if
// anything changed.
func (e *Engine) RunPollTick(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: e.nowFunc()}
	defer func() { report.Duration = e.nowFunc().Sub(report.StartedAt) }()

	if e.Paused() {
		e.logger.Debug("skipping poll tick, paused")

		return report, nil
	}

	baseLogger := e.logger
	e.logger = baseLogger.With(slog.String("run_id", uuid.NewString()))
	defer func() { e.logger = baseLogger }()

	current, err := e.source.List(ctx)
	if err != nil {
		return report, fmt.Errorf("docsync: listing source: %w", err)
	}

	currentByName := make(map[string]RemoteFileInfo, len(current))
	for _, info := range current {
		currentByName[info.Name] = info
	}

	dirty := len(e.store.PendingDeletes()) > 0
	e.retryPendingDeletes(ctx, currentByName)

	if e.resolvePendingUploads(ctx, report) {
		dirty = true
	}

	for name, info := range currentByName {
		if e.processSourceFileTick(ctx, name, info, report) {
			dirty = true
		}
	}

	for name, state := range e.store.Files() {
		if _, present := currentByName[name]; present {
			continue
		}

		e.processDeletedFile(ctx, name, state, report)
		dirty = true
	}

	if dirty {
		if err := e.store.Save(); err != nil {
			return report, fmt.Errorf("docsync: saving state: %w", err)
		}
	}

	return report, nil
}

// resolvePendingUploads checks every in-flight upload against one fresh
// Backend.List call and advances its terminal status, if any (original spec
// §4.11 step 2). Returns true if any FileState or pending upload changed.
func (e *Engine) resolvePendingUploads(ctx context.Context, report *Report) bool {
	pending := e.pendingUploadSnapshot()
	if len(pending) == 0 {
		return false
	}

	docs, err := e.backend.List(ctx)
	if err != nil {
		e.logger.Error("listing backend documents for pending uploads", slog.String("error", err.Error()))

		return false
	}

	byTrackID := make(map[string]*DocumentInfo, len(docs))
	for i := range docs {
		if docs[i].TrackID != "" {
			byTrackID[docs[i].TrackID] = &docs[i]
		}
	}

	changed := false

	for trackID, pu := range pending {
		doc, found := byTrackID[trackID]

		if !found {
			if err := e.failures.LogFailure(pu.FileName, "document not found in backend after upload", trackID, pu.Hash, ""); err != nil {
				e.logger.Error("recording failure", slog.String("error", err.Error()))
			}

			e.deletePendingUpload(trackID)
			report.Failed++
			changed = true

			continue
		}

		if !IsTerminal(doc.Status) {
			continue // still processing, resume next tick
		}

		existing, _ := e.store.GetFile(pu.FileName)

		switch doc.Status {
		case StatusProcessed:
			existing.Hash = pu.Hash
			existing.DocID = doc.ID
			e.store.SetFile(pu.FileName, existing)
			report.Uploaded++

		case StatusFailed:
			reason := doc.ErrorMsg
			if reason == "" {
				reason = "backend status: failed"
			}

			if err := e.failures.LogFailure(pu.FileName, reason, trackID, pu.Hash, doc.CreatedAt); err != nil {
				e.logger.Error("recording failure", slog.String("error", err.Error()))
			}

			e.cleanupFailedDoc(ctx, doc.ID)

			existing.Hash = pu.Hash
			existing.DocID = ""
			e.store.SetFile(pu.FileName, existing)
			report.Failed++
		}

		e.deletePendingUpload(trackID)

		changed = true
	}

	return changed
}

// processSourceFileTick handles one currently-listed source file for a poll
// tick: CREATE (no FileState), UPDATE (LastModified advanced), or unchanged.
// UPDATE first deletes the old backend document via deleteByDocID — a Busy
// there leaves LastModified untouched so the whole update retries next tick
// (original spec §4.11 step 4). Any other failure is logged and recorded as
// a failure line; it never blocks the rest of the tick.
func (e *Engine) processSourceFileTick(ctx context.Context, name string, info RemoteFileInfo, report *Report) bool {
	existing, known := e.store.GetFile(name)
	if known && existing.LastModified == info.LastModifiedMillis {
		return false
	}

	if known {
		if err := e.deleteByDocID(ctx, name); err != nil {
			e.reportTickFailure(name, existing.Hash, err)

			return false
		}
	}

	result, err := e.downloadAndUpload(ctx, name)
	if err != nil {
		e.reportTickFailure(name, existing.Hash, err)

		return false
	}

	e.store.SetFile(name, FileState{
		Hash:         result.Hash,
		LastModified: info.LastModifiedMillis,
		DocID:        result.DocID,
	})

	if known {
		report.Updated++
	} else {
		report.Uploaded++
	}

	return true
}

// reportTickFailure implements the per-file exception handling of original
// spec §4.11 step 4: a Busy error is logged and left to retry next tick
// (state untouched); any other error is logged AND appended to the failure
// log, carrying the previously known hash if any.
func (e *Engine) reportTickFailure(name, knownHash string, err error) {
	if IsBusy(err) {
		e.logger.Warn("update deferred, backend busy", slog.String("file", name))

		return
	}

	e.logError("processing file failed", name, err)

	if logErr := e.failures.LogFailure(name, err.Error(), "", knownHash, ""); logErr != nil {
		e.logger.Error("recording failure", slog.String("error", logErr.Error()))
	}
}

// processDeletedFile handles a tracked file no longer present in the source
// listing. A file with a resolved DocID is deleted from the backend (subject
// to Busy deferral); one that was never uploaded (suppressed or still
// pending) simply drops its local FileState. On Busy, the FileState is kept
// so the pending-delete queue can follow up; any other error still drops the
// entry, to avoid permanent stuckness (original spec §4.11 step 5).
func (e *Engine) processDeletedFile(ctx context.Context, name string, state FileState, report *Report) {
	if state.DocID == "" {
		e.store.DeleteFile(name)

		return
	}

	err := e.deleteByDocID(ctx, name)
	if err != nil {
		if IsBusy(err) {
			return
		}

		e.logError("deleting removed file failed", name, err)
		e.store.DeleteFile(name)

		return
	}

	e.store.DeleteFile(name)
	report.Deleted++
}
