package envelope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnvelope() *Envelope {
	return &Envelope{
		KeyID:        "key-1",
		IV:           []byte("123456789012"),
		AuthTag:      []byte("1234567890123456"),
		WrappedDek:   []byte("wrapped"),
		Algorithm:    AES256GCM,
		OriginalName: "report.pdf",
		MimeType:     "application/pdf",
		FileHash:     "abc123",
		Tags:         []string{"finance"},
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestEnvelope_MarshalRoundTrip(t *testing.T) {
	e := validEnvelope()

	b, err := e.Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, e, decoded)
}

func TestEnvelope_AlgorithmJSON(t *testing.T) {
	e := validEnvelope()
	b, err := e.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"algorithm":"AES-256-GCM"`)

	_, err = Unmarshal([]byte(`{"keyId":"k","algorithm":"ROT13"}`))
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestEnvelope_HasWrappedDek(t *testing.T) {
	e := validEnvelope()
	assert.True(t, e.HasWrappedDek())

	e.WrappedDek = nil
	assert.False(t, e.HasWrappedDek())
}

func TestEnvelope_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Envelope)
		wantErr bool
	}{
		{"Valid", func(e *Envelope) {}, false},
		{"LegacyNoWrappedDek", func(e *Envelope) { e.WrappedDek = nil }, false},
		{"MissingKeyID", func(e *Envelope) { e.KeyID = "" }, true},
		{"MissingIV", func(e *Envelope) { e.IV = nil }, true},
		{"MissingAuthTag", func(e *Envelope) { e.AuthTag = nil }, true},
		{"BadAlgorithm", func(e *Envelope) { e.Algorithm = Algorithm(42) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEnvelope()
			tt.mutate(e)
			err := e.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
