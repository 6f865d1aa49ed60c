package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "docseal",
	Short: "DocSeal is a zero-knowledge document encryption engine",
	Long: `Envelope encryption for documents: per-document data keys wrapped by a
passphrase-derived master key, with framing-aware decryption for legacy
archives and time-boxed secure previews.
Complete documentation is available at https://github.com/docseal/docseal`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
