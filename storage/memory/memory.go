// Package memory provides a thread-safe in-memory implementation of
// storage.Repository. Suitable for testing, demos, and single-process
// use cases.
package memory

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/docseal/docseal/envelope"
	"github.com/docseal/docseal/storage"
)

// Repository is a thread-safe in-memory implementation of storage.Repository.
type Repository struct {
	mu   sync.RWMutex
	data map[string]map[uint64]*storage.Record
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository creates a new empty in-memory Repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string]map[uint64]*storage.Record)}
}

func cloneRecord(rec *storage.Record) *storage.Record {
	if rec == nil {
		return nil
	}
	cp := &storage.Record{
		DocumentID: rec.DocumentID,
		Version:    rec.Version,
		CipherText: append([]byte(nil), rec.CipherText...),
		StoredAt:   rec.StoredAt,
	}
	if rec.Envelope != nil {
		env := *rec.Envelope
		cp.Envelope = &env
	}
	return cp
}

func (r *Repository) Put(documentID string, cipherText []byte, env *envelope.Envelope) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	version := r.latestLocked(documentID) + 1
	r.putLocked(documentID, version, cipherText, env)
	return version, nil
}

func (r *Repository) PutVersion(documentID string, version uint64, cipherText []byte, env *envelope.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[documentID][version]; ok {
		return fmt.Errorf("%s/%d: %w", documentID, version, storage.ErrVersionExists)
	}
	r.putLocked(documentID, version, cipherText, env)
	return nil
}

func (r *Repository) putLocked(documentID string, version uint64, cipherText []byte, env *envelope.Envelope) {
	if _, ok := r.data[documentID]; !ok {
		r.data[documentID] = make(map[uint64]*storage.Record)
	}
	r.data[documentID][version] = cloneRecord(&storage.Record{
		DocumentID: documentID,
		Version:    version,
		CipherText: cipherText,
		Envelope:   env,
		StoredAt:   time.Now().UTC(),
	})
}

func (r *Repository) latestLocked(documentID string) uint64 {
	var latest uint64
	for v := range r.data[documentID] {
		if v > latest {
			latest = v
		}
	}
	return latest
}

func (r *Repository) Get(documentID string, version uint64) (*storage.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.data[documentID]
	if !ok || len(versions) == 0 {
		return nil, fmt.Errorf("%s: %w", documentID, storage.ErrNotFound)
	}
	if version == 0 {
		version = r.latestLocked(documentID)
	}
	rec, ok := versions[version]
	if !ok {
		return nil, fmt.Errorf("%s/%d: %w", documentID, version, storage.ErrNotFound)
	}
	return cloneRecord(rec), nil
}

func (r *Repository) Versions(documentID string) ([]uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.data[documentID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", documentID, storage.ErrNotFound)
	}
	out := make([]uint64, 0, len(versions))
	for v := range versions {
		out = append(out, v)
	}
	slices.Sort(out)
	return out, nil
}

func (r *Repository) List() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.data))
	for id := range r.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *Repository) Delete(documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[documentID]; !ok {
		return fmt.Errorf("%s: %w", documentID, storage.ErrNotFound)
	}
	delete(r.data, documentID)
	return nil
}
