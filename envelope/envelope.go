// Package envelope defines the per-version document encryption
// envelope. The field set is stable across ciphertext framing
// generations so envelopes written years apart stay decryptable.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Envelope accompanies every encrypted document version. It is
// assembled at encryption time, immutable once uploaded, and consumed
// at decryption time.
//
// Field meaning depends on generation. In the zero-knowledge
// generation WrappedDek is present and IV/AuthTag authenticate the DEK
// wrap (the content ciphertext is self-framed). In legacy generations
// WrappedDek is empty and IV/AuthTag describe the content byte stream.
type Envelope struct {
	KeyID        string    `json:"keyId"`
	IV           []byte    `json:"iv"`
	AuthTag      []byte    `json:"authTag"`
	WrappedDek   []byte    `json:"wrappedDek,omitempty"`
	Algorithm    Algorithm `json:"algorithm"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	FileHash     string    `json:"fileHash"`
	Tags         []string  `json:"tags,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasWrappedDek reports whether the envelope belongs to the
// zero-knowledge generation.
func (e *Envelope) HasWrappedDek() bool {
	return len(e.WrappedDek) > 0
}

// Validate checks that the envelope carries the fields its generation
// requires.
func (e *Envelope) Validate() error {
	if e.KeyID == "" {
		return errors.New("envelope missing key ID")
	}
	if e.Algorithm != AES256GCM {
		return fmt.Errorf("%w: %d", ErrUnknownAlgorithm, e.Algorithm)
	}
	if len(e.IV) == 0 {
		return errors.New("envelope missing IV")
	}
	if len(e.AuthTag) == 0 {
		return errors.New("envelope missing auth tag")
	}
	return nil
}

// Marshal serializes the envelope to JSON.
func (e *Envelope) Marshal() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling envelope: %w", err)
	}
	return b, nil
}

// Unmarshal deserializes an envelope from JSON.
func Unmarshal(message json.RawMessage) (*Envelope, error) {
	e := &Envelope{}
	if err := json.Unmarshal(message, e); err != nil {
		return nil, fmt.Errorf("unmarshaling envelope: %w", err)
	}
	return e, nil
}
