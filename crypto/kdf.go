// Package crypto implements master key derivation from a user secret.
//
// Derivation is deterministic: the same secret and parameters always
// produce the same key bytes, so a user can re-derive their master key
// on a new device without any server-side key storage. The derivation
// itself cannot tell a wrong secret from a right one; wrongness only
// surfaces later as an authentication-tag failure when unwrapping a DEK.
package crypto

import (
	"fmt"

	"github.com/awnumar/memguard"

	"github.com/docseal/docseal/internal/util"
)

// Derivation algorithm identifiers persisted in encryption profiles.
const (
	AlgorithmArgon2id     = "argon2id"
	AlgorithmPBKDF2SHA256 = "pbkdf2-sha256"
)

// Minimum acceptable iteration counts per algorithm. Argon2id counts
// are time-cost passes; PBKDF2 counts are hash iterations.
const (
	MinArgon2idIterations = 1
	MinPBKDF2Iterations   = 100_000
)

const saltLen = 16

// Params carries the persisted inputs to master key derivation. They
// live alongside the user's encryption profile; this package only
// consumes them.
type Params struct {
	Salt       []byte `json:"salt"`
	Iterations int    `json:"iterations"`
	Algorithm  string `json:"algorithm"`
}

// Named KDF profiles for different deployment scenarios.
const (
	KDFProfileInteractive = "interactive" // sub-second, dev/testing
	KDFProfileModerate    = "moderate"    // production default
	KDFProfileSensitive   = "sensitive"   // high-value documents
)

// NewParams generates fresh Params with a random salt for the given
// profile, using the argon2id algorithm.
func NewParams(profile string) (Params, error) {
	iterations, err := profileIterations(profile)
	if err != nil {
		return Params{}, err
	}
	salt, err := util.RandomBytes(saltLen)
	if err != nil {
		return Params{}, fmt.Errorf("generating salt: %w", err)
	}
	return Params{
		Salt:       salt,
		Iterations: iterations,
		Algorithm:  AlgorithmArgon2id,
	}, nil
}

// DefaultParams returns fresh Params for the moderate profile.
func DefaultParams() (Params, error) {
	return NewParams(KDFProfileModerate)
}

func profileIterations(profile string) (int, error) {
	switch profile {
	case KDFProfileInteractive:
		return 1, nil
	case KDFProfileModerate:
		return 3, nil
	case KDFProfileSensitive:
		return 8, nil
	default:
		return 0, fmt.Errorf("unknown KDF profile %q", profile)
	}
}

// ValidateParams checks that the given parameters meet the minimum
// acceptable thresholds.
func ValidateParams(p Params) error {
	if len(p.Salt) == 0 {
		return fmt.Errorf("%w: empty salt", ErrWeakParameters)
	}
	switch p.Algorithm {
	case AlgorithmArgon2id:
		if p.Iterations < MinArgon2idIterations {
			return fmt.Errorf("%w: argon2id requires at least %d passes, got %d",
				ErrWeakParameters, MinArgon2idIterations, p.Iterations)
		}
	case AlgorithmPBKDF2SHA256:
		if p.Iterations < MinPBKDF2Iterations {
			return fmt.Errorf("%w: pbkdf2-sha256 requires at least %d iterations, got %d",
				ErrWeakParameters, MinPBKDF2Iterations, p.Iterations)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAlgorithm, p.Algorithm)
	}
	return nil
}

// DeriveMasterKey derives the 256-bit master key from the user secret
// and returns it sealed in a memguard enclave. The secret is
// NFKD-normalized first so the same passphrase typed on different
// platforms derives the same key.
func DeriveMasterKey(secret string, p Params) (*memguard.Enclave, error) {
	if err := ValidateParams(p); err != nil {
		return nil, err
	}

	normalized := util.Normalize(secret)

	var (
		raw []byte
		err error
	)
	switch p.Algorithm {
	case AlgorithmArgon2id:
		params := util.DefaultArgon2idParams()
		params.Time = uint32(p.Iterations)
		raw, err = util.DeriveArgon2idKey(normalized, p.Salt, params)
	case AlgorithmPBKDF2SHA256:
		raw, err = util.DerivePBKDF2Key(normalized, p.Salt, p.Iterations)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, p.Algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("deriving master key: %w", err)
	}

	// NewEnclave wipes raw after sealing it.
	return memguard.NewEnclave(raw), nil
}
