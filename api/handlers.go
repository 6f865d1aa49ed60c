package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/docseal/docseal/storage"
)

// maxUploadBytes caps the request body of a document upload.
const maxUploadBytes = 64 << 20

// StoreDocument handles POST /v1/documents/{documentID}.
func (a *API) StoreDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	var req UploadRequest
	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Envelope == nil {
		writeError(w, http.StatusBadRequest, "envelope is required")
		return
	}
	if err := req.Envelope.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid envelope: "+err.Error())
		return
	}
	cipherText, err := base64.StdEncoding.DecodeString(req.CipherText)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base64 ciphertext: "+err.Error())
		return
	}
	if len(cipherText) == 0 {
		writeError(w, http.StatusBadRequest, "ciphertext is required")
		return
	}

	version := req.Version
	if version != 0 {
		err = a.repo.PutVersion(documentID, version, cipherText, req.Envelope)
	} else {
		version, err = a.repo.Put(documentID, cipherText, req.Envelope)
	}
	if err != nil {
		if errors.Is(err, storage.ErrVersionExists) {
			a.audit.log(AuditStoreConflict, r,
				slog.String("document_id", documentID),
				slog.Uint64("version", req.Version))
		}
		mapError(w, err)
		return
	}

	a.audit.log(AuditDocumentStored, r,
		slog.String("document_id", documentID),
		slog.Uint64("version", version),
		slog.Int("ciphertext_bytes", len(cipherText)))

	writeJSON(w, http.StatusCreated, UploadResponse{
		DocumentID: documentID,
		Version:    version,
	})
}

// GetDocument handles GET /v1/documents/{documentID}. The optional
// "version" query parameter selects a stored version; absent or zero
// means latest.
func (a *API) GetDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	var version uint64
	if raw := r.URL.Query().Get("version"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid version: "+raw)
			return
		}
		version = v
	}

	rec, err := a.repo.Get(documentID, version)
	if err != nil {
		mapError(w, err)
		return
	}

	a.audit.log(AuditDocumentFetched, r,
		slog.String("document_id", documentID),
		slog.Uint64("version", rec.Version))

	writeJSON(w, http.StatusOK, DocumentResponse{
		DocumentID: rec.DocumentID,
		Version:    rec.Version,
		CipherText: base64.StdEncoding.EncodeToString(rec.CipherText),
		Envelope:   rec.Envelope,
		StoredAt:   rec.StoredAt,
	})
}

// ListVersions handles GET /v1/documents/{documentID}/versions.
func (a *API) ListVersions(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	versions, err := a.repo.Versions(documentID)
	if err != nil {
		mapError(w, err)
		return
	}

	a.audit.log(AuditVersionsListed, r, slog.String("document_id", documentID))

	writeJSON(w, http.StatusOK, VersionsResponse{
		DocumentID: documentID,
		Versions:   versions,
	})
}

// ListDocuments handles GET /v1/documents.
func (a *API) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids, err := a.repo.List()
	if err != nil {
		mapError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ListResponse{DocumentIDs: ids})
}

// DeleteDocument handles DELETE /v1/documents/{documentID}.
func (a *API) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	if err := a.repo.Delete(documentID); err != nil {
		mapError(w, err)
		return
	}

	a.audit.log(AuditDocumentDeleted, r, slog.String("document_id", documentID))

	w.WriteHeader(http.StatusNoContent)
}
