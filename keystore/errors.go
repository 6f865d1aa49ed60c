package keystore

import "errors"

var (
	// ErrNoActiveKey indicates neither a master key nor a usable legacy
	// session key is held; the caller must prompt for a secret.
	ErrNoActiveKey = errors.New("no active key")
	// ErrSessionKeyExpired indicates the legacy session key has passed
	// its expiry and has been discarded.
	ErrSessionKeyExpired = errors.New("session key expired")
)
