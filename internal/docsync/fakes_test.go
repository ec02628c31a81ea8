package docsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fakeSource is an in-memory FileSource: Name -> content bytes.
type fakeSource struct {
	mu      sync.Mutex
	files   map[string][]byte
	modTime map[string]int64
	listErr error
	dir     string
}

func newFakeSource(t interface{ TempDir() string }) *fakeSource {
	return &fakeSource{
		files:   make(map[string][]byte),
		modTime: make(map[string]int64),
		dir:     t.TempDir(),
	}
}

func (f *fakeSource) put(name string, content []byte, modified int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.files[name] = content
	f.modTime[name] = modified
}

func (f *fakeSource) remove(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.files, name)
	delete(f.modTime, name)
}

func (f *fakeSource) List(_ context.Context) ([]RemoteFileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	out := make([]RemoteFileInfo, 0, len(f.files))
	for name := range f.files {
		out = append(out, RemoteFileInfo{Name: name, LastModifiedMillis: f.modTime[name]})
	}

	return out, nil
}

func (f *fakeSource) Download(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	content, ok := f.files[name]
	f.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("fakeSource: %s not found", name)
	}

	path := filepath.Join(f.dir, fmt.Sprintf("dl-%d-%s", len(content), name))
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", err
	}

	return path, nil
}

func (f *fakeSource) AllowedExtensions() []string { return nil }

// fakeBackend is an in-memory Backend keyed by docID.
type fakeBackend struct {
	mu       sync.Mutex
	docs     map[string]*DocumentInfo
	nextID   int
	uploadFn func(localPath, presentedName string) (trackID string, err error)
	deleteFn func(docID string) error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{docs: make(map[string]*DocumentInfo)}
}

func (b *fakeBackend) Upload(_ context.Context, localPath, presentedName string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.uploadFn != nil {
		return b.uploadFn(localPath, presentedName)
	}

	b.nextID++
	trackID := fmt.Sprintf("track-%d", b.nextID)
	docID := fmt.Sprintf("doc-%d", b.nextID)

	b.docs[docID] = &DocumentInfo{
		ID: docID, FilePath: presentedName, TrackID: trackID,
		Status: StatusProcessed, CreatedAt: fmt.Sprintf("2024-01-01T00:00:%02dZ", b.nextID%60),
	}

	return trackID, nil
}

func (b *fakeBackend) List(_ context.Context) ([]DocumentInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]DocumentInfo, 0, len(b.docs))
	for _, d := range b.docs {
		out = append(out, *d)
	}

	return out, nil
}

func (b *fakeBackend) Delete(_ context.Context, docID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.deleteFn != nil {
		if err := b.deleteFn(docID); err != nil {
			return err
		}
	}

	delete(b.docs, docID)

	return nil
}

func (b *fakeBackend) docByTrackID(trackID string) (DocumentInfo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, d := range b.docs {
		if d.TrackID == trackID {
			return *d, true
		}
	}

	return DocumentInfo{}, false
}

// identityPreprocessor is Preprocessor's identity implementation, redefined
// here rather than importing internal/preprocess to avoid a test-only
// import cycle risk.
type identityPreprocessor struct{}

func (identityPreprocessor) Process(_ context.Context, inputPath, _ string) (string, error) {
	return inputPath, nil
}
