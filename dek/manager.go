package dek

import (
	"github.com/docseal/docseal/keystore"
)

// Manager wraps and unwraps DEKs under whichever key the store
// currently holds.
type Manager struct {
	keys *keystore.Store
}

// NewManager creates a Manager bound to the given key store.
func NewManager(keys *keystore.Store) *Manager {
	return &Manager{keys: keys}
}

// Generate creates a fresh DEK. Exists on the manager so callers only
// depend on one type.
func (m *Manager) Generate() (*Dek, error) {
	return Generate()
}

// WrapWithActiveKey wraps the DEK under the active key, capturing it
// atomically at operation start: a concurrent Clear on the store does
// not affect this wrap. Returns keystore.ErrNoActiveKey when no master
// key and no usable legacy session key is held.
func (m *Manager) WrapWithActiveKey(d *Dek) (*Wrapped, keystore.Source, error) {
	kek, source, err := m.keys.ActiveKey()
	if err != nil {
		return nil, source, err
	}
	defer kek.Destroy()

	w, err := Wrap(d, kek.Bytes())
	return w, source, err
}

// UnwrapWithActiveKey unwraps under the active key.
func (m *Manager) UnwrapWithActiveKey(w *Wrapped) (*Dek, error) {
	kek, _, err := m.keys.ActiveKey()
	if err != nil {
		return nil, err
	}
	defer kek.Destroy()

	return Unwrap(w, kek.Bytes())
}

// WrapWithMaster wraps strictly under the master key, never the legacy
// session key. The key is captured at operation start; a concurrent
// Clear does not affect an in-flight wrap.
func (m *Manager) WrapWithMaster(d *Dek) (*Wrapped, error) {
	kek, err := m.keys.Open()
	if err != nil {
		return nil, err
	}
	defer kek.Destroy()

	return Wrap(d, kek.Bytes())
}

// UnwrapWithMaster unwraps strictly under the master key, never the
// legacy session key. The zero-knowledge decryption path uses this.
func (m *Manager) UnwrapWithMaster(w *Wrapped) (*Dek, error) {
	kek, err := m.keys.Open()
	if err != nil {
		return nil, err
	}
	defer kek.Destroy()

	return Unwrap(w, kek.Bytes())
}
