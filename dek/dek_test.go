package dek

import (
	"testing"
	"time"

	"github.com/awnumar/memguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docseal/docseal/internal/util"
	"github.com/docseal/docseal/keystore"
)

func TestGenerate_Unique(t *testing.T) {
	d1, err := Generate()
	require.NoError(t, err)
	defer d1.Destroy()

	d2, err := Generate()
	require.NoError(t, err)
	defer d2.Destroy()

	assert.NotEqual(t, d1.Bytes(), d2.Bytes(), "two DEKs should never collide")
	assert.NotEqual(t, d1.ID(), d2.ID())
	assert.Len(t, d1.Bytes(), 32)
}

func TestWrapUnwrap_RoundTrip(t *testing.T) {
	kek, err := util.NewAESKey()
	require.NoError(t, err)

	d, err := Generate()
	require.NoError(t, err)
	defer d.Destroy()

	w, err := Wrap(d, kek)
	require.NoError(t, err)
	assert.Equal(t, d.ID(), w.KeyID)
	assert.Len(t, w.IV, util.GCMNonceSize)
	assert.Len(t, w.Tag, util.GCMTagSize)

	unwrapped, err := Unwrap(w, kek)
	require.NoError(t, err)
	defer unwrapped.Destroy()

	assert.Equal(t, d.Bytes(), unwrapped.Bytes())
	assert.Equal(t, d.ID(), unwrapped.ID())
}

func TestUnwrap_WrongKey(t *testing.T) {
	kek, _ := util.NewAESKey()
	wrongKek, _ := util.NewAESKey()

	d, err := Generate()
	require.NoError(t, err)
	defer d.Destroy()

	w, err := Wrap(d, kek)
	require.NoError(t, err)

	_, err = Unwrap(w, wrongKek)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestUnwrap_TamperedKeyID(t *testing.T) {
	kek, _ := util.NewAESKey()

	d, err := Generate()
	require.NoError(t, err)
	defer d.Destroy()

	w, err := Wrap(d, kek)
	require.NoError(t, err)

	// Rebinding the wrap to another key ID must break the AAD.
	w.KeyID = "some-other-key"
	_, err = Unwrap(w, kek)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestDek_SealOpen(t *testing.T) {
	d, err := Generate()
	require.NoError(t, err)
	defer d.Destroy()

	aad := []byte("content context")
	cipherText, err := d.Seal([]byte("hello test"), aad)
	require.NoError(t, err)

	plainText, err := d.Open(cipherText, aad)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello test"), plainText)

	_, err = d.Open(cipherText, []byte("wrong context"))
	require.Error(t, err)
}

func TestDek_Destroy(t *testing.T) {
	d, err := Generate()
	require.NoError(t, err)

	d.Destroy()
	assert.Equal(t, make([]byte, 32), d.bytes)
}

func newStoreWithMaster(t *testing.T) (*keystore.Store, []byte) {
	t.Helper()
	raw, err := util.NewAESKey()
	require.NoError(t, err)
	kek := util.CopyBytes(raw)
	s := keystore.New()
	s.Set(memguard.NewEnclave(raw))
	return s, kek
}

func TestManager_WrapWithActiveKey(t *testing.T) {
	store, kek := newStoreWithMaster(t)
	m := NewManager(store)

	d, err := m.Generate()
	require.NoError(t, err)
	defer d.Destroy()

	w, source, err := m.WrapWithActiveKey(d)
	require.NoError(t, err)
	assert.Equal(t, keystore.SourceMaster, source)

	unwrapped, err := Unwrap(w, kek)
	require.NoError(t, err)
	defer unwrapped.Destroy()
	assert.Equal(t, d.Bytes(), unwrapped.Bytes())
}

func TestManager_WrapWithMaster(t *testing.T) {
	store, _ := newStoreWithMaster(t)
	m := NewManager(store)

	d, err := m.Generate()
	require.NoError(t, err)
	defer d.Destroy()

	w, err := m.WrapWithMaster(d)
	require.NoError(t, err)

	unwrapped, err := m.UnwrapWithMaster(w)
	require.NoError(t, err)
	defer unwrapped.Destroy()
	assert.Equal(t, d.Bytes(), unwrapped.Bytes())

	// Only a session key present: the strict path refuses to wrap.
	raw, err := util.NewAESKey()
	require.NoError(t, err)
	sessionOnly := keystore.New()
	sessionOnly.SetSessionKey(memguard.NewEnclave(raw), time.Now().Add(time.Hour))

	_, err = NewManager(sessionOnly).WrapWithMaster(d)
	require.ErrorIs(t, err, keystore.ErrNoActiveKey)
}

func TestManager_NoActiveKey(t *testing.T) {
	m := NewManager(keystore.New())

	d, err := m.Generate()
	require.NoError(t, err)
	defer d.Destroy()

	_, _, err = m.WrapWithActiveKey(d)
	require.ErrorIs(t, err, keystore.ErrNoActiveKey)
}

func TestManager_SessionKeyFallback(t *testing.T) {
	raw, err := util.NewAESKey()
	require.NoError(t, err)
	store := keystore.New()
	store.SetSessionKey(memguard.NewEnclave(raw), time.Now().Add(time.Hour))
	m := NewManager(store)

	d, err := m.Generate()
	require.NoError(t, err)
	defer d.Destroy()

	w, source, err := m.WrapWithActiveKey(d)
	require.NoError(t, err)
	assert.Equal(t, keystore.SourceSession, source)

	unwrapped, err := m.UnwrapWithActiveKey(w)
	require.NoError(t, err)
	defer unwrapped.Destroy()
	assert.Equal(t, d.Bytes(), unwrapped.Bytes())

	// The strict master path must refuse the session key.
	_, err = m.UnwrapWithMaster(w)
	require.ErrorIs(t, err, keystore.ErrNoActiveKey)
}

func TestManager_UnwrapWithWrongMaster(t *testing.T) {
	store, _ := newStoreWithMaster(t)
	m := NewManager(store)

	d, err := m.Generate()
	require.NoError(t, err)
	defer d.Destroy()

	w, _, err := m.WrapWithActiveKey(d)
	require.NoError(t, err)

	// Swap in a master key derived from a different secret.
	otherRaw, _ := util.NewAESKey()
	store.Set(memguard.NewEnclave(otherRaw))

	_, err = m.UnwrapWithMaster(w)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}
