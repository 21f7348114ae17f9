package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"fiscal/internal/fiscal"
	"fiscal/internal/ledger"
	"fiscal/internal/logger"
	"fiscal/internal/summary"
	"fiscal/pkg/models"
)

// handleImport accepts a raw XML body or a multipart form with a "file" field.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	body := io.Reader(r.Body)
	source := r.URL.Query().Get("source")

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		body = file
		if source == "" {
			source = filepath.Base(header.Filename)
		}
	}

	// One byte past the limit lets the decoder report the size error.
	raw, err := io.ReadAll(io.LimitReader(body, s.opts.MaxDocumentSize+1))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}

	imported, err := s.ledger.Import(r.Context(), source, raw)
	if err != nil {
		log.Warn().Err(err).Str("source", source).Msg("Import rejected")
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Location", "/documents/"+imported.Entry.ID)
	writeJSON(w, http.StatusCreated, imported)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	criteria := summary.CriteriaFromValues(r.URL.Query())
	docs := summary.Filter(s.ledger.Summaries(), criteria)
	if docs == nil {
		docs = []models.Summary{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	entry, err := s.ledger.Get(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entry":   entry,
		"summary": entry.Summary(),
	})
}

func (s *Server) handleUpdateLedger(w http.ResponseWriter, r *http.Request) {
	var patch models.LedgerPatch
	dec := json.NewDecoder(io.LimitReader(r.Body, 64*1024))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		jsonError(w, "invalid ledger patch: "+err.Error(), http.StatusBadRequest)
		return
	}

	by := r.Header.Get("X-User")
	if by == "" {
		by = s.opts.EntryUser
	}

	entry, err := s.ledger.UpdateStatus(chi.URLParam(r, "id"), patch, by)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entry":   entry,
		"summary": entry.Summary(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	docs := summary.Filter(s.ledger.Summaries(), summary.CriteriaFromValues(r.URL.Query()))
	writeJSON(w, http.StatusOK, summary.Aggregate(docs, s.now()))
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateDocument):
		return http.StatusConflict
	case errors.Is(err, fiscal.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, fiscal.ErrMalformedDocument):
		return http.StatusBadRequest
	case errors.Is(err, fiscal.ErrUnrecognizedDocumentType),
		errors.Is(err, fiscal.ErrMissingRequiredSection):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logger.WithComponent("api")
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
