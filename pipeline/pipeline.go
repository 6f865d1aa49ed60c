// Package pipeline implements the upload-side encryption path: a
// fresh DEK per document, a streaming read pass with progress and
// cancellation, an AEAD seal, and envelope assembly. No ciphertext is
// handed to the caller until the AEAD finalize step has succeeded.
package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/docseal/docseal/dek"
	"github.com/docseal/docseal/envelope"
	icrypto "github.com/docseal/docseal/internal/crypto"
	"github.com/docseal/docseal/internal/util"
	"github.com/docseal/docseal/keystore"
)

const contentVersion = 1

// Meta describes the plaintext being encrypted. Size may be zero when
// unknown; progress reporting then only fires at completion.
type Meta struct {
	Name     string
	MimeType string
	Size     int64
	Tags     []string
}

// Result is the output of a completed encryption: ciphertext plus the
// envelope to upload alongside it.
type Result struct {
	Ciphertext []byte
	Envelope   *envelope.Envelope
	KeySource  keystore.Source
}

// Encryptor runs the upload-side encryption pipeline.
type Encryptor struct {
	deks *dek.Manager
}

// NewEncryptor creates an Encryptor bound to the given DEK manager.
func NewEncryptor(deks *dek.Manager) *Encryptor {
	return &Encryptor{deks: deks}
}

// Encrypt consumes plaintext from r and produces ciphertext plus a
// document envelope. The plaintext hash is computed over the original
// bytes for later integrity verification. Cancellation is honored
// between chunks; a cancelled operation surfaces no partial output.
func (e *Encryptor) Encrypt(ctx context.Context, r io.Reader, meta Meta, opts ...Option) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o := encryptOptions{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(&o)
	}

	d, err := e.deks.Generate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	defer d.Destroy()

	plain, fileHash, err := readAll(ctx, r, meta.Size, &o)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(plain)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	aadContent := icrypto.AADContent(d.ID(), meta.MimeType, contentVersion)
	cipherText, err := d.Seal(plain, aadContent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	wrapped, source, err := e.deks.WrapWithActiveKey(d)
	if err != nil {
		if errors.Is(err, keystore.ErrNoActiveKey) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	env := &envelope.Envelope{
		KeyID:        d.ID(),
		IV:           wrapped.IV,
		AuthTag:      wrapped.Tag,
		WrappedDek:   wrapped.Ciphertext,
		Algorithm:    envelope.AES256GCM,
		OriginalName: meta.Name,
		MimeType:     meta.MimeType,
		FileHash:     fileHash,
		Tags:         append(meta.Tags, o.tags...),
		CreatedAt:    time.Now().UTC(),
	}

	if o.progress != nil {
		o.progress(100)
	}

	return &Result{
		Ciphertext: cipherText,
		Envelope:   env,
		KeySource:  source,
	}, nil
}

// readAll streams r into memory chunk by chunk, hashing the plaintext
// and reporting progress along the way. Cancellation is checked
// between chunks.
func readAll(ctx context.Context, r io.Reader, size int64, o *encryptOptions) ([]byte, string, error) {
	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}

	hash := sha256.New()
	chunk := make([]byte, o.chunkSize)
	lastPct := 0

	for {
		if err := ctx.Err(); err != nil {
			util.WipeBytes(buf.Bytes())
			return nil, "", err
		}

		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			hash.Write(chunk[:n])

			if o.progress != nil && size > 0 {
				pct := int(int64(buf.Len()) * 100 / size)
				if pct > 99 {
					pct = 99
				}
				if pct > lastPct {
					lastPct = pct
					o.progress(pct)
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			util.WipeBytes(buf.Bytes())
			return nil, "", fmt.Errorf("reading plaintext: %w", err)
		}
	}

	return buf.Bytes(), util.HexEncode(hash.Sum(nil)), nil
}
