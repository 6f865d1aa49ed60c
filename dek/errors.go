package dek

import "errors"

// ErrAuthenticationFailed indicates a DEK unwrap failed its
// authentication tag. A wrong secret and tampered ciphertext are
// indistinguishable by design and surface identically.
var ErrAuthenticationFailed = errors.New("authentication failed")
