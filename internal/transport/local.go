// Package transport implements docsync.FileSource over concrete backends: a
// local filesystem directory and an SFTP server.
package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/ingestsync/docsync/internal/docsync"
)

// Local is a docsync.FileSource backed by a directory on the local
// filesystem.
type Local struct {
	dir        string
	extensions []string
	logger     *slog.Logger

	watcher *fsnotify.Watcher
	wakeCh  chan struct{}
}

// NewLocal creates a Local source rooted at dir, accepting files whose name
// ends (case-insensitively) with one of extensions.
func NewLocal(dir string, extensions []string, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}

	lowered := make([]string, len(extensions))
	for i, ext := range extensions {
		lowered[i] = strings.ToLower(ext)
	}

	return &Local{dir: dir, extensions: lowered, logger: logger}
}

// AllowedExtensions implements docsync.FileSource.
func (l *Local) AllowedExtensions() []string {
	return l.extensions
}

// List implements docsync.FileSource. A directory read failure is logged and
// reported as an empty listing — a listing failure must never be confused
// with "the source is empty" (original spec §4.1).
func (l *Local) List(_ context.Context) ([]docsync.RemoteFileInfo, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		l.logger.Error("listing local source directory", slog.String("dir", l.dir), slog.String("error", err.Error()))

		return nil, nil
	}

	out := make([]docsync.RemoteFileInfo, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !l.hasAllowedExtension(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			l.logger.Warn("stat failed, skipping entry", slog.String("name", entry.Name()), slog.String("error", err.Error()))

			continue
		}

		out = append(out, docsync.RemoteFileInfo{
			Name:               entry.Name(),
			LastModifiedMillis: info.ModTime().UnixMilli(),
		})
	}

	return out, nil
}

func (l *Local) hasAllowedExtension(name string) bool {
	lowerName := strings.ToLower(name)
	for _, ext := range l.extensions {
		if strings.HasSuffix(lowerName, ext) {
			return true
		}
	}

	return false
}

// Download implements docsync.FileSource by copying the source file into a
// fresh temp file owned by the caller.
func (l *Local) Download(_ context.Context, name string) (string, error) {
	src, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		return "", fmt.Errorf("transport: opening %s: %w", name, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "docsync-download-*")
	if err != nil {
		return "", fmt.Errorf("transport: creating temp file for %s: %w", name, err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		os.Remove(tmp.Name())

		return "", fmt.Errorf("transport: downloading %s: %w", name, err)
	}

	return tmp.Name(), nil
}

// Watch starts an fsnotify watch on the source directory and returns a
// channel that receives a value shortly after any change, letting the
// engine collapse its poll wait instead of waiting out the full interval
// (see docsync.EngineConfig.WakeCh). Watch is optional: callers that only
// need the polling behavior of List/Download need not call it.
func (l *Local) Watch() (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("transport: creating watcher: %w", err)
	}

	if err := watcher.Add(l.dir); err != nil {
		watcher.Close()

		return nil, fmt.Errorf("transport: watching %s: %w", l.dir, err)
	}

	l.watcher = watcher
	l.wakeCh = make(chan struct{}, 1)

	go l.pump()

	return l.wakeCh, nil
}

func (l *Local) pump() {
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}

			l.logger.Debug("source directory changed", slog.String("event", event.String()))

			select {
			case l.wakeCh <- struct{}{}:
			default: // a wake is already pending; the next tick will see the change
			}

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}

			l.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// Close stops the fsnotify watcher started by Watch, if any.
func (l *Local) Close() error {
	if l.watcher == nil {
		return nil
	}

	return l.watcher.Close()
}
