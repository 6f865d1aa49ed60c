package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/docseal/docseal/crypto"
	"github.com/docseal/docseal/envelope"
	"github.com/docseal/docseal/keystore"
)

// manifest is the sidecar written next to a sealed file. It carries
// everything needed to re-derive the master key and unwrap the
// document key: KDF parameters plus the envelope. Neither is secret.
type manifest struct {
	KDF      crypto.Params      `json:"kdf"`
	Envelope *envelope.Envelope `json:"envelope"`
}

func writeManifest(path string, m *manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

func readManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// manifestPath derives the default sidecar path for a sealed file.
func manifestPath(sealedPath string) string {
	return strings.TrimSuffix(sealedPath, ".sealed") + ".envelope.json"
}

// resolvePassphrase returns the passphrase from the flag or the
// DOCSEAL_PASSPHRASE environment variable.
func resolvePassphrase(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("DOCSEAL_PASSPHRASE"); env != "" {
		return env, nil
	}
	return "", errors.New("no passphrase: use --passphrase or DOCSEAL_PASSPHRASE")
}

// unlockedKeystore derives the master key and returns a key store
// holding it. The caller must Clear() the store when done.
func unlockedKeystore(passphrase string, params crypto.Params) (*keystore.Store, error) {
	master, err := crypto.DeriveMasterKey(passphrase, params)
	if err != nil {
		return nil, fmt.Errorf("deriving master key: %w", err)
	}
	keys := keystore.New()
	keys.Set(master)
	return keys, nil
}
