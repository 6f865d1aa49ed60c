package api

import (
	"time"

	"github.com/docseal/docseal/envelope"
)

// UploadRequest is the body of POST /documents/{documentID}.
// The server stores the ciphertext and envelope opaquely; it never
// holds a key that could open either.
type UploadRequest struct {
	// CipherText is the encrypted content, base64 (std encoding).
	CipherText string `json:"cipherText"`

	// Envelope is the key-wrapping metadata for the document.
	Envelope *envelope.Envelope `json:"envelope"`

	// Version, when non-zero, stores that explicit version instead of
	// appending. Conflicts with an existing version are rejected.
	Version uint64 `json:"version,omitempty"`
}

// UploadResponse confirms a stored document version.
type UploadResponse struct {
	DocumentID string `json:"documentId"`
	Version    uint64 `json:"version"`
}

// DocumentResponse is the body of GET /documents/{documentID}.
type DocumentResponse struct {
	DocumentID string             `json:"documentId"`
	Version    uint64             `json:"version"`
	CipherText string             `json:"cipherText"`
	Envelope   *envelope.Envelope `json:"envelope"`
	StoredAt   time.Time          `json:"storedAt"`
}

// VersionsResponse is the body of GET /documents/{documentID}/versions.
type VersionsResponse struct {
	DocumentID string   `json:"documentId"`
	Versions   []uint64 `json:"versions"`
}

// ListResponse is the body of GET /documents.
type ListResponse struct {
	DocumentIDs []string `json:"documentIds"`
}

// ErrorResponse is returned for all error cases.
type ErrorResponse struct {
	Error string `json:"error"`
}
