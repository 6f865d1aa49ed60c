package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/docseal/docseal/api"
	"github.com/docseal/docseal/storage"
	bboltstorage "github.com/docseal/docseal/storage/bbolt"
	"github.com/docseal/docseal/storage/memory"
)

var (
	port    int
	dataDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ciphertext store server",
	Long: `Serves the blind document store over HTTP. The server only ever sees
ciphertext and key-wrapping envelopes; decryption happens client-side.
With --data-dir, records persist in a bbolt database; otherwise they
live in memory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var repo storage.Repository
		if dataDir != "" {
			if err := os.MkdirAll(dataDir, 0o700); err != nil {
				return fmt.Errorf("creating data directory: %w", err)
			}
			store, err := bboltstorage.NewRepositoryFromFile(dataDir+"/docseal.db", nil)
			if err != nil {
				return fmt.Errorf("opening document storage: %w", err)
			}
			defer store.Close()
			repo = store
		} else {
			repo = memory.NewRepository()
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		a := api.New(repo, api.WithLogger(logger))

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)
		r.Mount("/", a.Router())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		if dataDir != "" {
			fmt.Printf("Starting server on port %d (data: %s)...\n", port, dataDir)
		} else {
			fmt.Printf("Starting server on port %d (in-memory store)...\n", port)
		}

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory for persistent data (empty = in-memory)")
}
