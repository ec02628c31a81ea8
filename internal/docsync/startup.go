package docsync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RunStartup executes the one-time startup reconciliation (original spec
// §4.6), run to completion before the first poll tick.
func (e *Engine) RunStartup(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: e.nowFunc()}
	defer func() { report.Duration = e.nowFunc().Sub(report.StartedAt) }()

	// Tag every log line emitted during this pass with a correlation ID, so
	// lines from concurrently-reconciled files can be grouped back together.
	// Restored once the pass (including its worker pool) has fully drained.
	baseLogger := e.logger
	e.logger = baseLogger.With(slog.String("run_id", uuid.NewString()))
	defer func() { e.logger = baseLogger }()

	e.reportUnreportedFailures(ctx, report)

	current, err := e.source.List(ctx)
	if err != nil {
		return report, fmt.Errorf("docsync: listing source: %w", err)
	}

	currentByName := make(map[string]RemoteFileInfo, len(current))
	for _, info := range current {
		currentByName[info.Name] = info
	}

	persisted, err := e.store.LoadSnapshot()
	if err != nil {
		return report, fmt.Errorf("docsync: loading persisted state: %w", err)
	}

	e.retryPendingDeletes(ctx, currentByName)
	e.prePopulateFileState(currentByName, persisted)

	if e.startupMode == StartupSyncNone {
		if err := e.store.Save(); err != nil {
			return report, fmt.Errorf("docsync: saving state: %w", err)
		}

		return report, nil
	}

	docs, err := e.backend.List(ctx)
	if err != nil {
		return report, fmt.Errorf("docsync: listing backend documents: %w", err)
	}

	matchesByName, orphans := groupDocsByName(docs, currentByName)

	names := make([]string, 0, len(currentByName))
	for name := range currentByName {
		names = append(names, name)
	}

	sort.Strings(names)

	// Each name's reconciliation is independent (distinct FileState entries,
	// distinct backend documents), so the pass is bounded-concurrency rather
	// than sequential, mirroring the teacher's TransferWorkers-limited
	// dispatchPool in internal/sync/transfer.go.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.startupWorkers)

	for _, name := range names {
		name := name

		g.Go(func() error {
			e.reconcileFile(gctx, name, currentByName[name], matchesByName[name], report)

			return nil
		})
	}

	_ = g.Wait()

	if e.startupMode == StartupSyncFull {
		for _, doc := range orphans {
			n, err := e.syncDelete(ctx, doc.ID, "orphan")
			if err != nil {
				e.logger.Error("deleting orphan document",
					slog.String("doc_id", doc.ID),
					slog.String("error", err.Error()),
				)
			}

			report.addOrphaned(n)
			report.addDeleted(n)
		}
	}

	if err := e.store.Save(); err != nil {
		return report, fmt.Errorf("docsync: saving state: %w", err)
	}

	return report, nil
}

// reportUnreportedFailures implements original spec §4.6 step 1: every
// currently-failed backend document gets exactly one failure-log line,
// deduplicated against lines already written by a previous run.
func (e *Engine) reportUnreportedFailures(ctx context.Context, report *Report) {
	docs, err := e.backend.List(ctx)
	if err != nil {
		e.logger.Error("listing backend documents for failure report", slog.String("error", err.Error()))

		return
	}

	for _, doc := range docs {
		if doc.Status != StatusFailed {
			continue
		}

		already, err := e.failures.IsAlreadyLogged(doc.TrackID, doc.CreatedAt)
		if err != nil {
			e.logger.Error("checking failure log", slog.String("error", err.Error()))

			continue
		}

		if already {
			continue
		}

		reason := doc.ErrorMsg
		if reason == "" {
			reason = "backend status: failed"
		}

		if err := e.failures.LogFailure(doc.FilePath, reason, doc.TrackID, "", doc.CreatedAt); err != nil {
			e.logger.Error("recording failure", slog.String("error", err.Error()))

			continue
		}

		report.Failed++

		e.cleanupFailedDoc(ctx, doc.ID)
	}
}

// prePopulateFileState installs a FileState for every current source file
// (original spec §4.6 step 5): the persisted entry is reused verbatim when
// its LastModified matches and it carries a non-null hash; otherwise a fresh
// entry is installed with hash="" so §4.7 treats it as needing reconciliation.
func (e *Engine) prePopulateFileState(currentByName map[string]RemoteFileInfo, persisted map[string]FileState) {
	for name, info := range currentByName {
		prior, ok := persisted[name]
		if ok && prior.LastModified == info.LastModifiedMillis && prior.Hash != "" {
			e.store.SetFile(name, prior)

			continue
		}

		docID := ""
		if ok {
			docID = prior.DocID
		}

		e.store.SetFile(name, FileState{LastModified: info.LastModifiedMillis, DocID: docID})
	}
}

// groupDocsByName assigns each backend document to at most one source name
// via suffix match on FilePath, in sorted-name order so the assignment is
// deterministic when multiple names could match (original spec §4.6 step 7).
// Unmatched documents are returned separately as orphans.
func groupDocsByName(docs []DocumentInfo, currentByName map[string]RemoteFileInfo) (map[string][]DocumentInfo, []DocumentInfo) {
	names := make([]string, 0, len(currentByName))
	for name := range currentByName {
		names = append(names, name)
	}

	sort.Strings(names)

	matches := make(map[string][]DocumentInfo, len(names))
	var orphans []DocumentInfo

	for _, doc := range docs {
		bound := false

		for _, name := range names {
			if strings.HasSuffix(doc.FilePath, name) {
				matches[name] = append(matches[name], doc)
				bound = true

				break
			}
		}

		if !bound {
			orphans = append(orphans, doc)
		}
	}

	return matches, orphans
}

// reconcileFile implements original spec §4.7 for one source file against
// its pre-populated FileState and the backend documents bound to it.
func (e *Engine) reconcileFile(ctx context.Context, name string, info RemoteFileInfo, matches []DocumentInfo, report *Report) {
	state, _ := e.store.GetFile(name)

	if len(matches) == 0 {
		result, err := e.downloadAndUpload(ctx, name)
		if err != nil {
			e.logError("startup upload failed", name, err)

			return
		}

		e.store.SetFile(name, FileState{
			Hash:         result.Hash,
			LastModified: info.LastModifiedMillis,
			DocID:        result.DocID,
		})
		report.addUploaded(1)

		return
	}

	localHash := state.Hash
	if localHash == "" {
		downloaded, err := e.source.Download(ctx, name)
		if err != nil {
			e.logError("startup hash download failed", name, err)

			return
		}

		h, err := hashFile(downloaded)
		os.Remove(downloaded)

		if err != nil {
			e.logError("startup hashing failed", name, err)

			return
		}

		localHash = h
	}

	hashMatch := state.DocID != "" && state.Hash == localHash

	if hashMatch {
		if e.startupMode == StartupSyncFull {
			newest := newestDoc(matches)

			for _, doc := range matches {
				if doc.ID == newest.ID {
					continue
				}

				n, err := e.syncDelete(ctx, doc.ID, "duplicate")
				if err != nil {
					e.logger.Error("deleting duplicate document",
						slog.String("doc_id", doc.ID),
						slog.String("error", err.Error()),
					)
				}

				report.addDeleted(n)
			}
		}

		e.store.SetFile(name, FileState{Hash: localHash, LastModified: state.LastModified, DocID: state.DocID})

		return
	}

	// Hash mismatch: every bound document is stale and must be deleted.
	anyBusy := false

	for _, doc := range matches {
		n, err := e.syncDelete(ctx, doc.ID, "stale")
		if err != nil {
			e.logger.Error("deleting stale document",
				slog.String("doc_id", doc.ID),
				slog.String("error", err.Error()),
			)
		}

		report.addDeleted(n)

		if _, stillPending := e.store.GetPendingDelete(doc.ID); stillPending {
			e.upgradePendingDelete(doc.ID, name)
			anyBusy = true
		}
	}

	if anyBusy {
		// A later successful retry (poll tick or next startup) reuploads via
		// the ReuploadOnSuccess path; skip the upload this cycle.
		return
	}

	result, err := e.downloadAndUpload(ctx, name)
	if err != nil {
		e.logError("startup reupload failed", name, err)

		return
	}

	e.store.SetFile(name, FileState{
		Hash:         localHash,
		LastModified: info.LastModifiedMillis,
		DocID:        result.DocID,
	})
	report.addUploaded(1)
	report.addStale(1)
}

// newestDoc returns the document with the lexicographically greatest
// CreatedAt (ISO-8601 timestamps sort correctly as strings); ties keep the
// first occurrence. Empty CreatedAt sorts as the floor.
func newestDoc(docs []DocumentInfo) DocumentInfo {
	newest := docs[0]

	for _, doc := range docs[1:] {
		if doc.CreatedAt > newest.CreatedAt {
			newest = doc
		}
	}

	return newest
}
