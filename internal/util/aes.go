package util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

const (
	AESKeySize   = 32
	GCMNonceSize = 12
	GCMTagSize   = 16
)

// EncryptAES seals plaintext with AES-256-GCM into the self-framed
// layout nonce || ciphertext || tag.
func EncryptAES(plainText, rawKey []byte) ([]byte, error) {
	return EncryptAESWithAAD(plainText, rawKey, nil)
}

func EncryptAESWithAAD(plainText, rawKey, aad []byte) ([]byte, error) {
	gcm, err := newGCM(rawKey)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	cipherText := gcm.Seal(nonce, nonce, plainText, aad)

	return cipherText, nil
}

func DecryptAES(cipherText, rawKey []byte) ([]byte, error) {
	return DecryptAESWithAAD(cipherText, rawKey, nil)
}

func DecryptAESWithAAD(cipherText, rawKey, aad []byte) ([]byte, error) {
	gcm, err := newGCM(rawKey)
	if err != nil {
		return nil, err
	}

	if len(cipherText) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext shorter than nonce size")
	}

	nonce, cipherText := cipherText[:gcm.NonceSize()], cipherText[gcm.NonceSize():]

	plainText, err := gcm.Open(nil, nonce, cipherText, aad)
	if err != nil {
		return nil, fmt.Errorf("decrypting ciphertext: %w", err)
	}

	return plainText, nil
}

// SealAESGCM seals plaintext and returns the nonce, ciphertext and
// authentication tag as separate values, for callers that persist the
// three parts in distinct envelope fields.
func SealAESGCM(plainText, rawKey, aad []byte) (nonce, cipherText, tag []byte, err error) {
	gcm, err := newGCM(rawKey)
	if err != nil {
		return nil, nil, nil, err
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, nil, fmt.Errorf("generating nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plainText, aad)
	cut := len(sealed) - gcm.Overhead()
	cipherText, tag = sealed[:cut], sealed[cut:]

	return nonce, cipherText, tag, nil
}

// OpenAESGCM is the inverse of SealAESGCM, accepting the nonce,
// ciphertext and tag as separate values.
func OpenAESGCM(nonce, cipherText, tag, rawKey, aad []byte) ([]byte, error) {
	gcm, err := newGCM(rawKey)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce size: got %d, want %d", len(nonce), gcm.NonceSize())
	}
	if len(tag) != gcm.Overhead() {
		return nil, fmt.Errorf("invalid tag size: got %d, want %d", len(tag), gcm.Overhead())
	}

	sealed := make([]byte, 0, len(cipherText)+len(tag))
	sealed = append(sealed, cipherText...)
	sealed = append(sealed, tag...)

	plainText, err := gcm.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("decrypting ciphertext: %w", err)
	}

	return plainText, nil
}

func newGCM(rawKey []byte) (cipher.AEAD, error) {
	if len(rawKey) != AESKeySize {
		return nil, fmt.Errorf("invalid AES key size: got %d, want %d", len(rawKey), AESKeySize)
	}

	block, err := aes.NewCipher(rawKey)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return gcm, nil
}

func NewAESKey() ([]byte, error) {
	rawKey := make([]byte, AESKeySize)
	if _, err := rand.Read(rawKey); err != nil {
		return nil, fmt.Errorf("generating AES key: %w", err)
	}
	return rawKey, nil
}
