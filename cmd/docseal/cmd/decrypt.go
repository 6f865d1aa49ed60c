package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docseal/docseal/dek"
	"github.com/docseal/docseal/internal/util"
	"github.com/docseal/docseal/resolver"
)

var (
	decryptPassphrase string
	decryptManifest   string
	decryptOut        string
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt <file.sealed>",
	Short: "Decrypt a sealed file",
	Long: `Decrypts a sealed file using its envelope sidecar. Handles current
zero-knowledge output as well as legacy archive framings; the framing
is detected from the envelope and the ciphertext itself.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sealedPath := args[0]

		passphrase, err := resolvePassphrase(decryptPassphrase)
		if err != nil {
			return err
		}

		mPath := decryptManifest
		if mPath == "" {
			mPath = manifestPath(sealedPath)
		}
		m, err := readManifest(mPath)
		if err != nil {
			return err
		}

		cipherText, err := os.ReadFile(sealedPath)
		if err != nil {
			return fmt.Errorf("reading sealed file: %w", err)
		}

		keys, err := unlockedKeystore(passphrase, m.KDF)
		if err != nil {
			return err
		}
		defer keys.Clear()

		res := resolver.New(dek.NewManager(keys), keys)
		pt, err := res.Resolve(cmd.Context(), cipherText, m.Envelope)
		if err != nil {
			return err
		}
		defer util.WipeBytes(pt.Bytes)

		outPath := decryptOut
		if outPath == "" {
			outPath = strings.TrimSuffix(sealedPath, ".sealed")
			if outPath == sealedPath {
				outPath = sealedPath + ".plain"
			}
		}
		if err := os.WriteFile(outPath, pt.Bytes, 0o600); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}

		fmt.Printf("Decrypted %s -> %s (%d bytes, %s, %s/%s)\n",
			sealedPath, outPath, len(pt.Bytes), pt.MimeType, pt.Generation, pt.Framing)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decryptCmd)
	decryptCmd.Flags().StringVar(&decryptPassphrase, "passphrase", "", "Passphrase (or set DOCSEAL_PASSPHRASE)")
	decryptCmd.Flags().StringVar(&decryptManifest, "manifest", "", "Envelope sidecar path (default <file>.envelope.json)")
	decryptCmd.Flags().StringVarP(&decryptOut, "out", "o", "", "Output path (default strips .sealed)")
}
