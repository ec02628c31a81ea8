// Package ingest implements docsync.Backend against an HTTP RAG ingestion
// service, authenticated via OAuth2 client-credentials.
package ingest

import "time"

// documentWire is the backend's JSON representation of one ingested
// document, as returned by GET /documents.
type documentWire struct {
	ID        string `json:"id"`
	FilePath  string `json:"filePath"`
	CreatedAt string `json:"createdAt"`
	TrackID   string `json:"trackId"`
	Status    string `json:"status"`
	ErrorMsg  string `json:"errorMsg"`
}

// listResponse is the envelope for GET /documents.
type listResponse struct {
	Documents []documentWire `json:"documents"`
}

// uploadResponse is the envelope for POST /documents.
type uploadResponse struct {
	TrackID string `json:"trackId"`
}

// deleteResponse is the envelope for DELETE /documents/{id}. A 200 response
// with Status "busy" means the backend is still processing the document and
// the delete must be retried later — this is the only condition the
// pending-delete queue reacts to; the HTTP status code itself is never
// overloaded to mean busy.
type deleteResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ClientOptions configures Client.
type ClientOptions struct {
	BaseURL string

	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string

	// TokenCachePath persists the client-credentials token across restarts,
	// mirroring internal/tokenfile's atomic-write token cache.
	TokenCachePath string

	RequestTimeout time.Duration
}
