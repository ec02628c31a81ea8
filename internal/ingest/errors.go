package ingest

import (
	"fmt"
	"net/http"

	"github.com/ingestsync/docsync/internal/docsync"
)

// httpError is a non-2xx HTTP response from the backend.
type httpError struct {
	method     string
	url        string
	statusCode int
	body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("ingest: %s %s: status %d: %s", e.method, e.url, e.statusCode, e.body)
}

// classifyStatus wraps a non-2xx response into a plain httpError. The
// backend signals "busy" on Delete with a 200 response and a JSON body of
// status:"busy" — never via the HTTP status code — so Delete inspects that
// body itself rather than relying on this classification.
func classifyStatus(method, url string, statusCode int, body string) error {
	return &httpError{method: method, url: url, statusCode: statusCode, body: body}
}

// isRetryable reports whether err represents a transient failure worth
// retrying (network errors and 5xx responses) as opposed to a permanent
// rejection (4xx) or a Busy status, which the docsync engine itself retries
// on its own schedule rather than inside one call.
func isRetryable(err error) bool {
	if docsync.IsBusy(err) {
		return false
	}

	var httpErr *httpError
	if ok := asHTTPError(err, &httpErr); ok {
		return httpErr.statusCode >= http.StatusInternalServerError
	}

	return true // network-level errors (timeouts, connection resets, DNS)
}

func asHTTPError(err error, target **httpError) bool {
	for err != nil {
		if he, ok := err.(*httpError); ok { //nolint:errorlint // single-level unwrap is sufficient here
			*target = he

			return true
		}

		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}

		err = u.Unwrap()
	}

	return false
}
