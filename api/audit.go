package api

import (
	"log/slog"
	"net/http"
	"time"
)

// AuditEvent identifies the type of storage action being logged.
type AuditEvent string

const (
	AuditDocumentStored  AuditEvent = "document_stored"
	AuditDocumentFetched AuditEvent = "document_fetched"
	AuditDocumentDeleted AuditEvent = "document_deleted"
	AuditVersionsListed  AuditEvent = "versions_listed"
	AuditStoreConflict   AuditEvent = "store_conflict"
)

// auditLogger wraps slog.Logger for structured audit logging. Only
// identifiers and sizes are logged; ciphertext and envelopes never are.
type auditLogger struct {
	logger *slog.Logger
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
}
