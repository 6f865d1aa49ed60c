// Package resolver implements the download-side decryption path.
//
// Two incompatible historical ciphertext framings coexist with the
// zero-knowledge generation, and an envelope does not always declare
// which one was used. The resolver tries candidate framings in order
// and validates each successful decrypt against the declared content
// type before trusting it; the format sniff is the tie-breaker that
// makes multi-framing fallback safe.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/docseal/docseal/dek"
	"github.com/docseal/docseal/envelope"
	icrypto "github.com/docseal/docseal/internal/crypto"
	"github.com/docseal/docseal/internal/util"
	"github.com/docseal/docseal/keystore"
)

const contentVersion = 1

// Generation identifies which encryption scheme produced a ciphertext.
type Generation int

const (
	// GenerationZeroKnowledge is the DEK-per-document scheme.
	GenerationZeroKnowledge Generation = iota
	// GenerationLegacy is the older single session key scheme.
	GenerationLegacy
)

func (g Generation) String() string {
	switch g {
	case GenerationZeroKnowledge:
		return "zero-knowledge"
	case GenerationLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// Framing identifies the byte layout of a resolved ciphertext.
type Framing int

const (
	// FramingSealed is the self-framed nonce||ct||tag layout of the
	// zero-knowledge generation.
	FramingSealed Framing = iota
	// FramingHeaderIV is legacy layout A: IV from the envelope, byte
	// stream is ct||tag.
	FramingHeaderIV
	// FramingEmbeddedIV is legacy layout B: byte stream is
	// iv||ct||tag; the embedded IV takes precedence over the envelope
	// field.
	FramingEmbeddedIV
)

func (f Framing) String() string {
	switch f {
	case FramingSealed:
		return "sealed"
	case FramingHeaderIV:
		return "header-iv"
	case FramingEmbeddedIV:
		return "embedded-iv"
	default:
		return "unknown"
	}
}

// Plaintext is validated decrypted content. It lives in memory only;
// the resolver never writes it anywhere durable.
type Plaintext struct {
	Bytes      []byte
	MimeType   string
	Generation Generation
	Framing    Framing
}

// Resolver decrypts document ciphertext across encryption generations.
type Resolver struct {
	deks *dek.Manager
	keys *keystore.Store
}

// New creates a Resolver.
func New(deks *dek.Manager, keys *keystore.Store) *Resolver {
	return &Resolver{deks: deks, keys: keys}
}

// Resolve determines the encryption generation and framing of the
// ciphertext, decrypts it, validates the plaintext against the
// declared mime type, and returns it. Framing candidates are attempted
// in order: zero-knowledge first when a wrapped DEK is present, then
// legacy framing A, then legacy framing B. Authentication failures and
// format vetoes are recovered locally until every candidate is
// exhausted.
func (r *Resolver) Resolve(ctx context.Context, cipherText []byte, env *envelope.Envelope) (*Plaintext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	attempted := 0
	decrypted := 0

	if env.HasWrappedDek() {
		attempted++
		pt, err := r.resolveZeroKnowledge(cipherText, env)
		if err == nil {
			return pt, nil
		}
		if errors.Is(err, keystore.ErrNoActiveKey) {
			return nil, err
		}
		if errors.Is(err, errFormatVeto) {
			decrypted++
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, _, err := r.keys.ActiveKey()
	if err != nil {
		if attempted == 0 {
			// Legacy envelope and nothing to try it with.
			return nil, err
		}
		return nil, fmt.Errorf("%w: %d framings attempted", ErrAuthenticationFailed, attempted)
	}
	defer key.Destroy()

	for _, framing := range []Framing{FramingHeaderIV, FramingEmbeddedIV} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		plain, ok := openLegacy(cipherText, env.IV, key.Bytes(), framing)
		if !ok {
			attempted++
			continue
		}
		attempted++
		decrypted++

		mime, err := sniffContent(plain, env.MimeType)
		if err != nil {
			util.WipeBytes(plain)
			continue
		}

		return &Plaintext{
			Bytes:      plain,
			MimeType:   mime,
			Generation: GenerationLegacy,
			Framing:    framing,
		}, nil
	}

	if decrypted > 0 {
		return nil, fmt.Errorf("%w: %d of %d framings decrypted but none validated",
			ErrFormatValidationFailed, decrypted, attempted)
	}
	return nil, fmt.Errorf("%w: %d framings attempted", ErrAuthenticationFailed, attempted)
}

// errFormatVeto marks a zero-knowledge decrypt that succeeded
// cryptographically but failed the content sniff.
var errFormatVeto = errors.New("format veto")

func (r *Resolver) resolveZeroKnowledge(cipherText []byte, env *envelope.Envelope) (*Plaintext, error) {
	w := &dek.Wrapped{
		KeyID:      env.KeyID,
		IV:         env.IV,
		Ciphertext: env.WrappedDek,
		Tag:        env.AuthTag,
	}

	d, err := r.deks.UnwrapWithActiveKey(w)
	if err != nil {
		return nil, err
	}
	defer d.Destroy()

	aad := icrypto.AADContent(env.KeyID, env.MimeType, contentVersion)
	plain, err := d.Open(cipherText, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: opening content", dek.ErrAuthenticationFailed)
	}

	mime, err := sniffContent(plain, env.MimeType)
	if err != nil {
		util.WipeBytes(plain)
		return nil, fmt.Errorf("%w: %v", errFormatVeto, err)
	}

	return &Plaintext{
		Bytes:      plain,
		MimeType:   mime,
		Generation: GenerationZeroKnowledge,
		Framing:    FramingSealed,
	}, nil
}

// openLegacy attempts one legacy byte framing. Legacy ciphertexts were
// produced without associated data.
func openLegacy(cipherText, headerIV, key []byte, framing Framing) ([]byte, bool) {
	var iv, body, tag []byte

	switch framing {
	case FramingHeaderIV:
		if len(cipherText) < util.GCMTagSize {
			return nil, false
		}
		iv = headerIV
		body = cipherText[:len(cipherText)-util.GCMTagSize]
		tag = cipherText[len(cipherText)-util.GCMTagSize:]
	case FramingEmbeddedIV:
		if len(cipherText) < util.GCMNonceSize+util.GCMTagSize {
			return nil, false
		}
		iv = cipherText[:util.GCMNonceSize]
		body = cipherText[util.GCMNonceSize : len(cipherText)-util.GCMTagSize]
		tag = cipherText[len(cipherText)-util.GCMTagSize:]
	default:
		return nil, false
	}

	plain, err := util.OpenAESGCM(iv, body, tag, key, nil)
	if err != nil {
		return nil, false
	}
	return plain, true
}
