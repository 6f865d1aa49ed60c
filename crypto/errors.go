package crypto

import "errors"

var (
	// ErrWeakParameters indicates the derivation parameters fall below the
	// configured security floor.
	ErrWeakParameters = errors.New("weak key derivation parameters")
	// ErrUnknownAlgorithm indicates an unrecognized derivation algorithm ID.
	ErrUnknownAlgorithm = errors.New("unknown key derivation algorithm")
)
