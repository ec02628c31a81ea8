package ingest

import (
	"sync"

	"golang.org/x/oauth2"

	"github.com/ingestsync/docsync/internal/tokenfile"
)

// cachingTokenSource wraps an oauth2.TokenSource (the client-credentials
// exchange) with a file-backed cache, so a process restart reuses a
// still-valid token instead of forcing a fresh exchange. Grounded on
// internal/tokenfile's atomic-write token cache.
type cachingTokenSource struct {
	mu     sync.Mutex
	source oauth2.TokenSource
	path   string
	cached *oauth2.Token
}

func newCachingTokenSource(source oauth2.TokenSource, path string) oauth2.TokenSource {
	cts := &cachingTokenSource{source: source, path: path}

	if path != "" {
		if tok, _, err := tokenfile.Load(path); err == nil {
			cts.cached = tok
		}
	}

	return cts
}

// Token implements oauth2.TokenSource. It returns the cached token while
// valid; otherwise it exchanges a fresh one and persists it.
func (c *cachingTokenSource) Token() (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.cached.Valid() {
		return c.cached, nil
	}

	tok, err := c.source.Token()
	if err != nil {
		return nil, err
	}

	c.cached = tok

	if c.path != "" {
		_ = tokenfile.Save(c.path, tok, nil)
	}

	return tok, nil
}
