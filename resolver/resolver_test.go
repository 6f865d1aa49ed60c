package resolver

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/awnumar/memguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docseal/docseal/dek"
	"github.com/docseal/docseal/envelope"
	"github.com/docseal/docseal/internal/util"
	"github.com/docseal/docseal/keystore"
	"github.com/docseal/docseal/pipeline"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< >>\n%%EOF\n")

func newFixture(t *testing.T) (*Resolver, *pipeline.Encryptor, *keystore.Store, []byte) {
	t.Helper()
	raw, err := util.NewAESKey()
	require.NoError(t, err)
	key := util.CopyBytes(raw)

	store := keystore.New()
	store.Set(memguard.NewEnclave(raw))

	deks := dek.NewManager(store)
	return New(deks, store), pipeline.NewEncryptor(deks), store, key
}

// legacySeal produces a ciphertext in one of the historical framings
// plus the envelope describing it, the way the pre-DEK scheme did.
func legacySeal(t *testing.T, key, plain []byte, framing Framing, mime string) ([]byte, *envelope.Envelope) {
	t.Helper()
	iv, ct, tag, err := util.SealAESGCM(plain, key, nil)
	require.NoError(t, err)

	env := &envelope.Envelope{
		KeyID:        "legacy-key",
		IV:           iv,
		AuthTag:      tag,
		Algorithm:    envelope.AES256GCM,
		OriginalName: "legacy.bin",
		MimeType:     mime,
		CreatedAt:    time.Now().UTC(),
	}

	switch framing {
	case FramingHeaderIV:
		stream := append(util.CopyBytes(ct), tag...)
		return stream, env
	case FramingEmbeddedIV:
		stream := append(append(util.CopyBytes(iv), ct...), tag...)
		// Old writers of this framing recorded a stale IV in the
		// envelope; the embedded one is authoritative.
		env.IV = bytes.Repeat([]byte{0xFF}, util.GCMNonceSize)
		return stream, env
	default:
		t.Fatalf("unsupported framing %v", framing)
		return nil, nil
	}
}

func TestResolve_ZeroKnowledgeRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, enc, _, _ := newFixture(t)

	res, err := enc.Encrypt(ctx, bytes.NewReader(pdfBytes),
		pipeline.Meta{Name: "report.pdf", MimeType: "application/pdf", Size: int64(len(pdfBytes))})
	require.NoError(t, err)

	pt, err := r.Resolve(ctx, res.Ciphertext, res.Envelope)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, pt.Bytes)
	assert.Equal(t, "application/pdf", pt.MimeType)
	assert.Equal(t, GenerationZeroKnowledge, pt.Generation)
	assert.Equal(t, FramingSealed, pt.Framing)
}

func TestResolve_WrongSecret(t *testing.T) {
	ctx := context.Background()
	r, enc, store, _ := newFixture(t)

	res, err := enc.Encrypt(ctx, bytes.NewReader(pdfBytes),
		pipeline.Meta{MimeType: "application/pdf", Size: int64(len(pdfBytes))})
	require.NoError(t, err)

	// Replace the master key with one derived from a different secret.
	otherRaw, err := util.NewAESKey()
	require.NoError(t, err)
	store.Set(memguard.NewEnclave(otherRaw))

	_, err = r.Resolve(ctx, res.Ciphertext, res.Envelope)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestResolve_LegacyFramingA(t *testing.T) {
	ctx := context.Background()
	r, _, _, key := newFixture(t)

	stream, env := legacySeal(t, key, pdfBytes, FramingHeaderIV, "application/pdf")

	// No out-of-band flag says "framing A": the resolver must find it.
	pt, err := r.Resolve(ctx, stream, env)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, pt.Bytes)
	assert.Equal(t, GenerationLegacy, pt.Generation)
	assert.Equal(t, FramingHeaderIV, pt.Framing)
}

func TestResolve_LegacyFramingB(t *testing.T) {
	ctx := context.Background()
	r, _, _, key := newFixture(t)

	stream, env := legacySeal(t, key, pdfBytes, FramingEmbeddedIV, "application/pdf")

	pt, err := r.Resolve(ctx, stream, env)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, pt.Bytes)
	assert.Equal(t, GenerationLegacy, pt.Generation)
	assert.Equal(t, FramingEmbeddedIV, pt.Framing, "embedded IV must win over the envelope field")
}

func TestResolve_LegacyTextContent(t *testing.T) {
	ctx := context.Background()
	r, _, _, key := newFixture(t)

	plain := []byte("hello test")
	stream, env := legacySeal(t, key, plain, FramingHeaderIV, "text/plain")

	pt, err := r.Resolve(ctx, stream, env)
	require.NoError(t, err)
	assert.Equal(t, plain, pt.Bytes)
	assert.Equal(t, "text/plain", pt.MimeType)
}

func TestResolve_FormatSniffVeto(t *testing.T) {
	ctx := context.Background()
	r, _, _, key := newFixture(t)

	// Authenticates fine under framing A, but the plaintext is not the
	// PDF the envelope claims. The resolver must not return it.
	stream, env := legacySeal(t, key, []byte("definitely not a pdf"), FramingHeaderIV, "application/pdf")

	_, err := r.Resolve(ctx, stream, env)
	require.ErrorIs(t, err, ErrFormatValidationFailed)
}

func TestResolve_ZeroKnowledgeSniffVetoFallsThrough(t *testing.T) {
	ctx := context.Background()
	r, enc, _, _ := newFixture(t)

	// Declared PDF, actual text. The zero-knowledge decrypt succeeds
	// cryptographically but the sniff vetoes it; legacy framings then
	// fail authentication, so the overall failure is a format one.
	res, err := enc.Encrypt(ctx, bytes.NewReader([]byte("plain text body")),
		pipeline.Meta{MimeType: "application/pdf"})
	require.NoError(t, err)

	_, err = r.Resolve(ctx, res.Ciphertext, res.Envelope)
	require.ErrorIs(t, err, ErrFormatValidationFailed)
}

func TestResolve_BadWrappedDekFallsBackToLegacy(t *testing.T) {
	ctx := context.Background()
	r, _, _, key := newFixture(t)

	stream, env := legacySeal(t, key, pdfBytes, FramingHeaderIV, "application/pdf")

	// A corrupted wrapped DEK routes the envelope down the
	// zero-knowledge path first; the resolver must recover and still
	// find the legacy framing.
	env.WrappedDek = bytes.Repeat([]byte{0xAB}, 32)

	pt, err := r.Resolve(ctx, stream, env)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, pt.Bytes)
	assert.Equal(t, GenerationLegacy, pt.Generation)
}

func TestResolve_NoActiveKey(t *testing.T) {
	ctx := context.Background()
	store := keystore.New()
	r := New(dek.NewManager(store), store)

	rawKey, _ := util.NewAESKey()
	stream, env := legacySeal(t, rawKey, pdfBytes, FramingHeaderIV, "application/pdf")

	_, err := r.Resolve(ctx, stream, env)
	require.ErrorIs(t, err, keystore.ErrNoActiveKey)
}

func TestResolve_InvalidEnvelope(t *testing.T) {
	ctx := context.Background()
	r, _, _, _ := newFixture(t)

	_, err := r.Resolve(ctx, []byte("x"), &envelope.Envelope{})
	require.Error(t, err)
}

func TestSniffContent(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		declared string
		wantErr  bool
	}{
		{"PDFMagic", pdfBytes, "application/pdf", false},
		{"ZIPMagic", []byte("PK\x03\x04rest-of-zip"), "application/zip", false},
		{"TextAsText", []byte("plain words"), "text/plain", false},
		{"TextSubtype", []byte("# heading"), "text/markdown", false},
		{"OctetStreamAcceptsAnything", []byte{0x00, 0x01, 0x02}, "application/octet-stream", false},
		{"EmptyDeclaredAcceptsAnything", []byte{0x00, 0x01}, "", false},
		{"TextClaimedAsPDF", []byte("not a pdf"), "application/pdf", true},
		{"PDFClaimedAsZip", pdfBytes, "application/zip", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sniffContent(tt.content, tt.declared)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
