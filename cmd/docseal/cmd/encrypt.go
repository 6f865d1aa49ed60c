package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/docseal/docseal/crypto"
	"github.com/docseal/docseal/dek"
	"github.com/docseal/docseal/pipeline"
)

var (
	encryptPassphrase string
	encryptProfile    string
	encryptOut        string
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt <file>",
	Short: "Encrypt a file with a passphrase-derived master key",
	Long: `Encrypts a file into <file>.sealed plus an <file>.envelope.json
sidecar holding the KDF parameters and the key-wrapping envelope.
The passphrase never leaves this machine and is not stored anywhere;
losing it means losing the document.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		passphrase, err := resolvePassphrase(encryptPassphrase)
		if err != nil {
			return err
		}

		params, err := crypto.NewParams(encryptProfile)
		if err != nil {
			return err
		}
		keys, err := unlockedKeystore(passphrase, params)
		if err != nil {
			return err
		}
		defer keys.Clear()

		mtype, err := mimetype.DetectFile(path)
		if err != nil {
			return fmt.Errorf("detecting content type: %w", err)
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening input file: %w", err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("reading input file info: %w", err)
		}

		enc := pipeline.NewEncryptor(dek.NewManager(keys))
		result, err := enc.Encrypt(cmd.Context(), f, pipeline.Meta{
			Name:     filepath.Base(path),
			MimeType: mtype.String(),
			Size:     info.Size(),
		}, pipeline.WithProgress(func(percent int) {
			fmt.Printf("\r  encrypting... %3d%%", percent)
		}))
		fmt.Println()
		if err != nil {
			return err
		}

		outPath := encryptOut
		if outPath == "" {
			outPath = path + ".sealed"
		}
		if err := os.WriteFile(outPath, result.Ciphertext, 0o600); err != nil {
			return fmt.Errorf("writing sealed file: %w", err)
		}
		if err := writeManifest(manifestPath(outPath), &manifest{
			KDF:      params,
			Envelope: result.Envelope,
		}); err != nil {
			return err
		}

		fmt.Printf("Sealed %s (%d bytes, %s) -> %s\n", path, info.Size(), mtype.String(), outPath)
		fmt.Printf("Envelope written to %s\n", manifestPath(outPath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(encryptCmd)
	encryptCmd.Flags().StringVar(&encryptPassphrase, "passphrase", "", "Passphrase (or set DOCSEAL_PASSPHRASE)")
	encryptCmd.Flags().StringVar(&encryptProfile, "profile", crypto.KDFProfileModerate, "KDF profile: interactive, moderate, or sensitive")
	encryptCmd.Flags().StringVarP(&encryptOut, "out", "o", "", "Output path (default <file>.sealed)")
}
