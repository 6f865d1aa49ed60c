// Package api exposes the ciphertext repository over HTTP. The server
// is a blind store: it accepts and returns ciphertext plus envelopes
// and never holds a key that could open either.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/docseal/docseal/storage"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	repo  storage.Repository
	audit *auditLogger
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.audit = newAuditLogger(logger)
	}
}

// New creates a new API instance over the given repository.
func New(repo storage.Repository, opts ...Option) *API {
	a := &API{repo: repo}
	for _, opt := range opts {
		opt(a)
	}
	if a.audit == nil {
		a.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/openapi.yaml",
		Path:    "docs",
	}, nil))

	r.Route("/v1/documents", func(r chi.Router) {
		r.Get("/", a.ListDocuments)
		r.Route("/{documentID}", func(r chi.Router) {
			r.Post("/", a.StoreDocument)
			r.Get("/", a.GetDocument)
			r.Delete("/", a.DeleteDocument)
			r.Get("/versions", a.ListVersions)
		})
	})

	return r
}
