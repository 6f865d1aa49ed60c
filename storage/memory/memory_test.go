package memory

import (
	"errors"
	"testing"

	"github.com/docseal/docseal/envelope"
	"github.com/docseal/docseal/storage"
)

func testEnvelope() *envelope.Envelope {
	return &envelope.Envelope{
		KeyID:      "dek-1",
		IV:         make([]byte, 12),
		AuthTag:    make([]byte, 16),
		WrappedDek: []byte("wrapped"),
		Algorithm:  envelope.AES256GCM,
		MimeType:   "text/plain",
	}
}

func TestMemoryStorage(t *testing.T) {
	r := NewRepository()
	docID := "doc-1"

	t.Run("PutGet", func(t *testing.T) {
		v, err := r.Put(docID, []byte("cipher-v1"), testEnvelope())
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if v != 1 {
			t.Errorf("expected version 1, got %d", v)
		}

		got, err := r.Get(docID, 1)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got.CipherText) != "cipher-v1" {
			t.Errorf("unexpected ciphertext: %q", got.CipherText)
		}
		if got.Envelope == nil || got.Envelope.KeyID != "dek-1" {
			t.Errorf("envelope not preserved: %+v", got.Envelope)
		}
		if got.StoredAt.IsZero() {
			t.Error("expected StoredAt to be set")
		}
	})

	t.Run("VersionsAccumulate", func(t *testing.T) {
		v, err := r.Put(docID, []byte("cipher-v2"), testEnvelope())
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if v != 2 {
			t.Errorf("expected version 2, got %d", v)
		}

		versions, err := r.Versions(docID)
		if err != nil {
			t.Fatalf("Versions failed: %v", err)
		}
		if len(versions) != 2 || versions[0] != 1 || versions[1] != 2 {
			t.Errorf("expected [1 2], got %v", versions)
		}
	})

	t.Run("GetLatest", func(t *testing.T) {
		got, err := r.Get(docID, 0)
		if err != nil {
			t.Fatalf("Get latest failed: %v", err)
		}
		if got.Version != 2 {
			t.Errorf("expected latest version 2, got %d", got.Version)
		}
	})

	t.Run("PutVersionImmutable", func(t *testing.T) {
		err := r.PutVersion(docID, 1, []byte("overwrite"), testEnvelope())
		if !errors.Is(err, storage.ErrVersionExists) {
			t.Errorf("expected ErrVersionExists, got %v", err)
		}

		got, _ := r.Get(docID, 1)
		if string(got.CipherText) != "cipher-v1" {
			t.Errorf("stored version was mutated: %q", got.CipherText)
		}
	})

	t.Run("PutVersionGap", func(t *testing.T) {
		if err := r.PutVersion(docID, 7, []byte("cipher-v7"), testEnvelope()); err != nil {
			t.Fatalf("PutVersion failed: %v", err)
		}
		got, err := r.Get(docID, 0)
		if err != nil {
			t.Fatalf("Get latest failed: %v", err)
		}
		if got.Version != 7 {
			t.Errorf("expected latest version 7, got %d", got.Version)
		}
	})

	t.Run("List", func(t *testing.T) {
		r.Put("doc-2", []byte("cipher"), testEnvelope())
		ids, err := r.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(ids) != 2 {
			t.Errorf("expected 2 IDs, got %d", len(ids))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := r.Delete("doc-2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := r.Get("doc-2", 0); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := r.Delete("doc-2"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound on double delete, got %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		if _, err := r.Get("missing", 0); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := r.Get(docID, 99); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound for missing version, got %v", err)
		}
		if _, err := r.Versions("missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RecordIsolation", func(t *testing.T) {
		buf := []byte("mutable")
		r.Put("doc-iso", buf, testEnvelope())
		buf[0] = 'X'

		got, err := r.Get("doc-iso", 0)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got.CipherText) != "mutable" {
			t.Errorf("caller mutation leaked into store: %q", got.CipherText)
		}

		got.CipherText[0] = 'Y'
		again, _ := r.Get("doc-iso", 0)
		if string(again.CipherText) != "mutable" {
			t.Errorf("returned record shares storage memory: %q", again.CipherText)
		}
	})
}
