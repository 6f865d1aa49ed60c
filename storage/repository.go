// Package storage provides the storage abstraction layer for encrypted
// document records. Records are immutable: a document accumulates
// versions and existing versions are never rewritten.
package storage

import (
	"errors"
	"time"

	"github.com/docseal/docseal/envelope"
)

var (
	// ErrNotFound is returned when a document or version does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrVersionExists is returned when a write targets a version that
	// is already stored. Stored versions are immutable.
	ErrVersionExists = errors.New("version already exists")
)

// Record is one stored version of an encrypted document. The
// ciphertext and envelope are opaque to the storage layer.
type Record struct {
	DocumentID string             `json:"documentId"`
	Version    uint64             `json:"version"`
	CipherText []byte             `json:"cipherText"`
	Envelope   *envelope.Envelope `json:"envelope"`
	StoredAt   time.Time          `json:"storedAt"`
}

// Repository defines the interface for encrypted document storage.
type Repository interface {
	// Put appends a new version of the document and returns the
	// version number it was assigned.
	Put(documentID string, cipherText []byte, env *envelope.Envelope) (uint64, error)

	// PutVersion stores an explicit version, failing with
	// ErrVersionExists if that version is already present.
	PutVersion(documentID string, version uint64, cipherText []byte, env *envelope.Envelope) error

	// Get returns one version of a document. Version 0 selects the
	// latest stored version.
	Get(documentID string, version uint64) (*Record, error)

	// Versions returns the stored version numbers in ascending order.
	Versions(documentID string) ([]uint64, error)

	// List returns the IDs of all stored documents.
	List() ([]string, error)

	// Delete removes a document and all of its versions.
	Delete(documentID string) error
}
