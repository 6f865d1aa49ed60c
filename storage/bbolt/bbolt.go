// Package bbolt provides a BBolt-backed storage repository.
package bbolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/docseal/docseal/envelope"
	"github.com/docseal/docseal/storage"
)

// Store implements storage.Repository backed by a BBolt database.
// Each document gets its own nested bucket keyed by big-endian version
// number, so cursor order is version order.
type Store struct {
	db *bbolt.DB
}

var _ storage.Repository = (*Store)(nil)

var rootBucket = []byte("documents")

// NewRepository returns a Repository backed by the given BBolt database.
func NewRepository(db *bbolt.DB) *Store {
	return &Store{db: db}
}

// NewRepositoryFromFile opens a BBolt database at the given path and
// returns a new Repository.
func NewRepositoryFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewRepository(db), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func versionKey(version uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, version)
	return k
}

func docBucket(tx *bbolt.Tx, documentID string, create bool) (*bbolt.Bucket, error) {
	if create {
		root, err := tx.CreateBucketIfNotExists(rootBucket)
		if err != nil {
			return nil, err
		}
		return root.CreateBucketIfNotExists([]byte(documentID))
	}
	root := tx.Bucket(rootBucket)
	if root == nil {
		return nil, nil
	}
	return root.Bucket([]byte(documentID)), nil
}

func putRecord(b *bbolt.Bucket, rec *storage.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return b.Put(versionKey(rec.Version), data)
}

func (s *Store) Put(documentID string, cipherText []byte, env *envelope.Envelope) (uint64, error) {
	var version uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := docBucket(tx, documentID, true)
		if err != nil {
			return err
		}
		version = 1
		if k, _ := b.Cursor().Last(); k != nil {
			version = binary.BigEndian.Uint64(k) + 1
		}
		return putRecord(b, &storage.Record{
			DocumentID: documentID,
			Version:    version,
			CipherText: cipherText,
			Envelope:   env,
			StoredAt:   time.Now().UTC(),
		})
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (s *Store) PutVersion(documentID string, version uint64, cipherText []byte, env *envelope.Envelope) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := docBucket(tx, documentID, true)
		if err != nil {
			return err
		}
		if b.Get(versionKey(version)) != nil {
			return fmt.Errorf("%s/%d: %w", documentID, version, storage.ErrVersionExists)
		}
		return putRecord(b, &storage.Record{
			DocumentID: documentID,
			Version:    version,
			CipherText: cipherText,
			Envelope:   env,
			StoredAt:   time.Now().UTC(),
		})
	})
}

func (s *Store) Get(documentID string, version uint64) (*storage.Record, error) {
	var rec storage.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := docBucket(tx, documentID, false)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("%s: %w", documentID, storage.ErrNotFound)
		}
		var data []byte
		if version == 0 {
			_, data = b.Cursor().Last()
		} else {
			data = b.Get(versionKey(version))
		}
		if data == nil {
			return fmt.Errorf("%s/%d: %w", documentID, version, storage.ErrNotFound)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) Versions(documentID string) ([]uint64, error) {
	var versions []uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := docBucket(tx, documentID, false)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("%s: %w", documentID, storage.ErrNotFound)
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			versions = append(versions, binary.BigEndian.Uint64(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func (s *Store) List() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(rootBucket)
		if root == nil {
			return nil
		}
		return root.ForEachBucket(func(k []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

func (s *Store) Delete(documentID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(rootBucket)
		if root == nil || root.Bucket([]byte(documentID)) == nil {
			return fmt.Errorf("%s: %w", documentID, storage.ErrNotFound)
		}
		return root.DeleteBucket([]byte(documentID))
	})
}
