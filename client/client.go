// Package client wires the key store, encryption pipeline, decryption
// resolver, and ciphertext repository into one document workflow:
// store, fetch, preview. All key material stays on this side of the
// repository boundary.
package client

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/docseal/docseal/dek"
	"github.com/docseal/docseal/envelope"
	"github.com/docseal/docseal/keystore"
	"github.com/docseal/docseal/pipeline"
	"github.com/docseal/docseal/preview"
	"github.com/docseal/docseal/resolver"
	"github.com/docseal/docseal/storage"
)

// Client orchestrates encrypted document operations against a
// storage.Repository. Operations on the same document are serialized;
// operations on different documents run independently.
type Client struct {
	keys *keystore.Store
	enc  *pipeline.Encryptor
	res  *resolver.Resolver
	repo storage.Repository

	mu   sync.Mutex
	docs map[string]*sync.Mutex
}

// Document is the decrypted result of a Fetch.
type Document struct {
	Version    uint64
	Bytes      []byte
	MimeType   string
	Generation resolver.Generation
	Envelope   *envelope.Envelope
}

// New creates a Client over the given key store and repository.
func New(keys *keystore.Store, repo storage.Repository) *Client {
	deks := dek.NewManager(keys)
	return &Client{
		keys: keys,
		enc:  pipeline.NewEncryptor(deks),
		res:  resolver.New(deks, keys),
		repo: repo,
		docs: make(map[string]*sync.Mutex),
	}
}

func (c *Client) docLock(documentID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.docs[documentID]
	if !ok {
		m = &sync.Mutex{}
		c.docs[documentID] = m
	}
	return m
}

// Store encrypts the reader's content and appends it as a new version
// of the document. Returns the assigned version number.
func (c *Client) Store(ctx context.Context, documentID string, r io.Reader, meta pipeline.Meta, opts ...pipeline.Option) (uint64, error) {
	lock := c.docLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	result, err := c.enc.Encrypt(ctx, r, meta, opts...)
	if err != nil {
		return 0, fmt.Errorf("encrypting document %s: %w", documentID, err)
	}

	version, err := c.repo.Put(documentID, result.Ciphertext, result.Envelope)
	if err != nil {
		return 0, fmt.Errorf("storing document %s: %w", documentID, err)
	}
	return version, nil
}

// Fetch retrieves and decrypts one version of a document. Version 0
// selects the latest.
func (c *Client) Fetch(ctx context.Context, documentID string, version uint64) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := c.repo.Get(documentID, version)
	if err != nil {
		return nil, fmt.Errorf("fetching document %s: %w", documentID, err)
	}

	pt, err := c.res.Resolve(ctx, rec.CipherText, rec.Envelope)
	if err != nil {
		return nil, fmt.Errorf("decrypting document %s: %w", documentID, err)
	}

	return &Document{
		Version:    rec.Version,
		Bytes:      pt.Bytes,
		MimeType:   pt.MimeType,
		Generation: pt.Generation,
		Envelope:   rec.Envelope,
	}, nil
}

// Preview opens a time-boxed preview session over the latest version
// of a document. The permission gate runs before any ciphertext is
// touched; plaintext never leaves the render surface.
func (c *Client) Preview(ctx context.Context, documentID string, perms preview.PermissionSet, surface preview.Surface, opts ...preview.Option) (*preview.Session, error) {
	rec, err := c.repo.Get(documentID, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching document %s: %w", documentID, err)
	}
	return preview.Open(ctx, c.res, documentID, rec.CipherText, rec.Envelope, perms, surface, opts...)
}

// Versions lists the stored versions of a document.
func (c *Client) Versions(documentID string) ([]uint64, error) {
	return c.repo.Versions(documentID)
}
