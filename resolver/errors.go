package resolver

import "errors"

var (
	// ErrAuthenticationFailed indicates every attempted framing failed
	// its authentication tag: the secret is wrong or the ciphertext was
	// tampered with, indistinguishable by design.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrFormatValidationFailed indicates at least one framing
	// decrypted cryptographically but the plaintext failed the content
	// signature check on all of them: the document is corrupted or of
	// an unsupported type.
	ErrFormatValidationFailed = errors.New("content format validation failed")
)
