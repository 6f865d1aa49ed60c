// Package dek manages per-document data-encryption keys.
//
// A DEK is generated fresh for every encryption operation and never
// reused across documents, so a compromised DEK never endangers any
// other document. Only the wrapped (encrypted) form of a DEK is ever
// persisted or transmitted.
package dek

import (
	"fmt"

	icrypto "github.com/docseal/docseal/internal/crypto"
	"github.com/docseal/docseal/internal/util"
	"github.com/docseal/docseal/internal/uuid"
)

const wrapVersion = 1

// Dek is an ephemeral per-document symmetric key. It exists in memory
// only for the duration of an encryption or decryption operation;
// callers must Destroy it when done.
type Dek struct {
	id    string
	bytes []byte
}

// ID returns the DEK's key ID, recorded in the document envelope.
func (d *Dek) ID() string {
	return d.id
}

// Bytes returns a copy of the raw key material.
func (d *Dek) Bytes() []byte {
	return util.CopyBytes(d.bytes)
}

// Seal encrypts plaintext under the DEK into the self-framed
// nonce || ciphertext || tag layout.
func (d *Dek) Seal(plainText, aad []byte) ([]byte, error) {
	return util.EncryptAESWithAAD(plainText, d.bytes, aad)
}

// Open decrypts a self-framed ciphertext sealed with Seal.
func (d *Dek) Open(cipherText, aad []byte) ([]byte, error) {
	return util.DecryptAESWithAAD(cipherText, d.bytes, aad)
}

// Destroy zeroes the key material.
func (d *Dek) Destroy() {
	util.WipeBytes(d.bytes)
}

// Wrapped is a DEK encrypted under a key-encryption key. The IV and
// tag are kept as separate fields because the document envelope
// persists them separately.
type Wrapped struct {
	KeyID      string `json:"keyId"`
	IV         []byte `json:"iv"`
	Ciphertext []byte `json:"ciphertext"`
	Tag        []byte `json:"tag"`
}

// Generate creates a fresh cryptographically random 256-bit DEK.
func Generate() (*Dek, error) {
	raw, err := util.NewAESKey()
	if err != nil {
		return nil, fmt.Errorf("generating DEK: %w", err)
	}
	return &Dek{id: uuid.New(), bytes: raw}, nil
}

// Wrap AEAD-encrypts the DEK under kek. The wrap is bound to the DEK's
// key ID via associated data so it cannot be replayed under a
// different envelope.
func Wrap(d *Dek, kek []byte) (*Wrapped, error) {
	aad := icrypto.AADDekWrap(d.id, wrapVersion)
	iv, cipherText, tag, err := util.SealAESGCM(d.bytes, kek, aad)
	if err != nil {
		return nil, fmt.Errorf("wrapping DEK: %w", err)
	}
	return &Wrapped{
		KeyID:      d.id,
		IV:         iv,
		Ciphertext: cipherText,
		Tag:        tag,
	}, nil
}

// Unwrap decrypts a wrapped DEK under kek. Returns
// ErrAuthenticationFailed when the tag does not verify, whether
// because kek was derived from the wrong secret or because the wrap
// was tampered with.
func Unwrap(w *Wrapped, kek []byte) (*Dek, error) {
	aad := icrypto.AADDekWrap(w.KeyID, wrapVersion)
	raw, err := util.OpenAESGCM(w.IV, w.Ciphertext, w.Tag, kek, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: unwrapping DEK %s", ErrAuthenticationFailed, w.KeyID)
	}
	return &Dek{id: w.KeyID, bytes: raw}, nil
}
