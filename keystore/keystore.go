// Package keystore holds the derived master key in volatile memory.
//
// The Store is the single authoritative slot for the master key: no
// component keeps its own copy and nothing polls for key presence.
// Consumers subscribe to change notification instead, and notification
// fires synchronously inside Set and Clear so a caller never observes
// a stale "no key" state after a successful Set.
package keystore

import (
	"sync"
	"time"

	"github.com/awnumar/memguard"
)

// Source identifies which key satisfied an ActiveKey request.
type Source int

const (
	// SourceMaster is the derived master key.
	SourceMaster Source = iota
	// SourceSession is the legacy password-derived session key, kept
	// for envelopes issued under the pre-DEK single-key scheme.
	SourceSession
)

func (s Source) String() string {
	switch s {
	case SourceMaster:
		return "master"
	case SourceSession:
		return "session"
	default:
		return "unknown"
	}
}

type sessionKey struct {
	enclave   *memguard.Enclave
	expiresAt time.Time
}

// Store is the in-memory master key slot. The zero value is not
// usable; construct with New.
type Store struct {
	mu        sync.Mutex
	master    *memguard.Enclave
	session   *sessionKey
	listeners map[int]func(present bool)
	nextID    int

	now func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		listeners: make(map[int]func(present bool)),
		now:       time.Now,
	}
}

// Set installs the master key, replacing any previous one, and fires
// change notification before returning.
func (s *Store) Set(key *memguard.Enclave) {
	s.mu.Lock()
	s.master = key
	fire := s.snapshotListeners()
	s.mu.Unlock()

	notify(fire, key != nil)
}

// Present reports whether a master key is currently held.
func (s *Store) Present() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.master != nil
}

// Open returns the master key in a locked buffer. The caller must
// Destroy the buffer when done. The buffer is a capture taken at call
// time: a concurrent Clear does not invalidate it, so an in-flight
// operation always completes against the key it started with.
func (s *Store) Open() (*memguard.LockedBuffer, error) {
	s.mu.Lock()
	enclave := s.master
	s.mu.Unlock()

	if enclave == nil {
		return nil, ErrNoActiveKey
	}
	return enclave.Open()
}

// Clear drops the master key. Irreversible until a fresh derive+Set.
// Fires change notification before returning. Clearing an empty store
// is a no-op.
func (s *Store) Clear() {
	s.mu.Lock()
	if s.master == nil {
		s.mu.Unlock()
		return
	}
	s.master = nil
	fire := s.snapshotListeners()
	s.mu.Unlock()

	notify(fire, false)
}

// OnChange registers a listener invoked synchronously whenever the
// master key is set or cleared. The returned function unsubscribes.
func (s *Store) OnChange(fn func(present bool)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// SetSessionKey installs the legacy session key with its expiry.
func (s *Store) SetSessionKey(key *memguard.Enclave, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &sessionKey{enclave: key, expiresAt: expiresAt}
}

// ClearSessionKey drops the legacy session key.
func (s *Store) ClearSessionKey() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
}

// OpenSessionKey returns the legacy session key in a locked buffer,
// or ErrSessionKeyExpired if it has passed its expiry (the expired key
// is discarded), or ErrNoActiveKey if none was ever set.
func (s *Store) OpenSessionKey() (*memguard.LockedBuffer, error) {
	s.mu.Lock()
	sk := s.session
	if sk != nil && s.now().After(sk.expiresAt) {
		s.session = nil
		sk = nil
		s.mu.Unlock()
		return nil, ErrSessionKeyExpired
	}
	s.mu.Unlock()

	if sk == nil {
		return nil, ErrNoActiveKey
	}
	return sk.enclave.Open()
}

// ActiveKey returns the master key if present, otherwise the legacy
// session key if one is held and unexpired. An expired session key is
// discarded and reported as no active key, since the caller's remedy
// is the same: prompt for a secret.
func (s *Store) ActiveKey() (*memguard.LockedBuffer, Source, error) {
	buf, err := s.Open()
	if err == nil {
		return buf, SourceMaster, nil
	}

	buf, err = s.OpenSessionKey()
	if err != nil {
		return nil, SourceSession, ErrNoActiveKey
	}
	return buf, SourceSession, nil
}

func (s *Store) snapshotListeners() []func(present bool) {
	fire := make([]func(present bool), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fire = append(fire, fn)
	}
	return fire
}

func notify(listeners []func(present bool), present bool) {
	for _, fn := range listeners {
		fn(present)
	}
}
