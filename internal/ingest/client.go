package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ingestsync/docsync/internal/docsync"
)

// maxUploadRetries bounds the retry loop for transient (5xx / network)
// failures. Busy and other 4xx responses are never retried here — the
// docsync engine owns the busy/retry schedule across ticks.
const maxUploadRetries = 4

const retryBaseDelay = 250 * time.Millisecond

// Client implements docsync.Backend against an HTTP ingest service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client whose requests are authenticated via OAuth2
// client-credentials, with the resulting token cached to opts.TokenCachePath
// so a restart does not force a fresh token exchange.
func NewClient(ctx context.Context, opts ClientOptions) *Client {
	ccCfg := clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
		Scopes:       opts.Scopes,
	}

	ts := newCachingTokenSource(ccCfg.TokenSource(ctx), opts.TokenCachePath)

	httpClient := oauth2.NewClient(ctx, ts)
	if opts.RequestTimeout > 0 {
		httpClient.Timeout = opts.RequestTimeout
	}

	return &Client{baseURL: opts.BaseURL, http: httpClient}
}

// Upload implements docsync.Backend.
func (c *Client) Upload(ctx context.Context, localPath, presentedName string) (string, error) {
	var trackID string

	err := c.withRetry(ctx, func(ctx context.Context) error {
		body, contentType, err := buildMultipartBody(localPath, presentedName)
		if err != nil {
			return fmt.Errorf("ingest: building upload body: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/documents"), body)
		if err != nil {
			return fmt.Errorf("ingest: building upload request: %w", err)
		}

		req.Header.Set("Content-Type", contentType)

		var resp uploadResponse

		if err := c.do(req, &resp); err != nil {
			return err
		}

		trackID = resp.TrackID

		return nil
	})

	return trackID, err
}

func buildMultipartBody(localPath, presentedName string) (io.Reader, string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(presentedName))
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}

	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copying file content: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// List implements docsync.Backend.
func (c *Client) List(ctx context.Context) ([]docsync.DocumentInfo, error) {
	var out []docsync.DocumentInfo

	err := c.withRetry(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/documents"), nil)
		if err != nil {
			return fmt.Errorf("ingest: building list request: %w", err)
		}

		var resp listResponse

		if err := c.do(req, &resp); err != nil {
			return err
		}

		out = make([]docsync.DocumentInfo, len(resp.Documents))
		for i, d := range resp.Documents {
			out[i] = docsync.DocumentInfo{
				ID:        d.ID,
				FilePath:  d.FilePath,
				CreatedAt: d.CreatedAt,
				TrackID:   d.TrackID,
				Status:    strings.ToLower(d.Status),
				ErrorMsg:  d.ErrorMsg,
			}
		}

		return nil
	})

	return out, err
}

// Delete implements docsync.Backend. The backend signals "busy" with a 200
// response carrying status:"busy" in the JSON body, not via the HTTP status
// code, so the body is always decoded and inspected here.
func (c *Client) Delete(ctx context.Context, docID string) error {
	return c.withRetry(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint("/documents/"+url.PathEscape(docID)), nil)
		if err != nil {
			return fmt.Errorf("ingest: building delete request: %w", err)
		}

		var resp deleteResponse

		if err := c.do(req, &resp); err != nil {
			return err
		}

		if resp.Status == "busy" {
			return &docsync.BusyError{DocID: docID}
		}

		return nil
	})
}

func (c *Client) endpoint(p string) string {
	return c.baseURL + p
}

// do executes req and decodes a JSON response body into out (skipped if
// out is nil). Non-2xx responses become a plain httpError (see
// classifyStatus); busy is detected by Delete from a 200 response body.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ingest: %s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return classifyStatus(req.Method, req.URL.String(), resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ingest: decoding response from %s: %w", req.URL, err)
	}

	return nil
}

// withRetry retries fn with exponential backoff on transient failures only.
// A Busy or other non-retryable error returns immediately, to the docsync
// engine's own busy/retry schedule.
func (c *Client) withRetry(ctx context.Context, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(maxUploadRetries, retry.NewExponential(retryBaseDelay))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if isRetryable(err) {
			return retry.RetryableError(err)
		}

		return err
	})
}
