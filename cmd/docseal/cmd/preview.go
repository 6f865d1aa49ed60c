package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docseal/docseal/dek"
	"github.com/docseal/docseal/preview"
	"github.com/docseal/docseal/resolver"
)

var (
	previewPassphrase string
	previewManifest   string
	previewTTL        time.Duration
)

// terminalSurface renders a preview to stdout. Binary content is shown
// as a summary line only; nothing is ever written to disk.
type terminalSurface struct{}

func (terminalSurface) Render(content []byte, mimeType string, truncated bool) error {
	fmt.Printf("--- preview (%s) ---\n", mimeType)
	if strings.HasPrefix(mimeType, "text/") {
		fmt.Println(string(content))
	} else {
		fmt.Printf("[%d bytes of %s content]\n", len(content), mimeType)
	}
	if truncated {
		fmt.Println("[preview truncated]")
	}
	fmt.Println("--- end preview ---")
	return nil
}

func (terminalSurface) Clear() {
	// Scroll the rendered content off screen and wipe the scrollback.
	fmt.Print("\x1b[2J\x1b[3J\x1b[H")
	fmt.Println("[preview cleared]")
}

var previewCmd = &cobra.Command{
	Use:   "preview <file.sealed>",
	Short: "Open a time-boxed preview of a sealed file",
	Long: `Decrypts a sealed file into a terminal-only preview session. The
plaintext is never written to disk and the screen is cleared when the
session expires or is interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sealedPath := args[0]

		passphrase, err := resolvePassphrase(previewPassphrase)
		if err != nil {
			return err
		}

		mPath := previewManifest
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
		session, err := preview.Open(cmd.Context(), res, sealedPath, cipherText, m.Envelope,
			preview.PermissionSet{preview.CapabilityRead}, terminalSurface{},
			preview.WithTTL(previewTTL),
			preview.WithWarningFunc(func(remaining time.Duration) {
				fmt.Printf("[preview expires in %s]\n", remaining)
			}))
		if err != nil {
			return err
		}
		defer session.Close()

		fmt.Printf("[session %s, expires %s]\n", session.ID(), session.ExpiresAt().Format(time.Kitchen))

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case <-quit:
			session.Close()
			fmt.Println("[session closed]")
		case <-session.Done():
			fmt.Println("[session expired]")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().StringVar(&previewPassphrase, "passphrase", "", "Passphrase (or set DOCSEAL_PASSPHRASE)")
	previewCmd.Flags().StringVar(&previewManifest, "manifest", "", "Envelope sidecar path (default <file>.envelope.json)")
	previewCmd.Flags().DurationVar(&previewTTL, "ttl", preview.DefaultTTL, "Session lifetime")
}
