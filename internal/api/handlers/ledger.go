package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-recon/internal/api/middleware"
	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/dvloznov/statement-recon/internal/ledger"
)

// LedgerHandler serves the ledger entries. Writes need a ledger.Store; a
// read-only Source answers them with 405.
type LedgerHandler struct {
	source ledger.Source
	log    zerolog.Logger
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(source ledger.Source, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{
		source: source,
		log:    log,
	}
}

// ListEntries handles GET /api/ledger
func (h *LedgerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.source.ListEntries(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list ledger entries")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list ledger entries")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// AddEntry handles POST /api/ledger
func (h *LedgerHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w)
	if !ok {
		return
	}
	entry, ok := decodeEntry(w, r)
	if !ok {
		return
	}

	created, err := store.AddEntry(r.Context(), entry)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// UpdateEntry handles PUT /api/ledger/{id}
func (h *LedgerHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w)
	if !ok {
		return
	}
	entry, ok := decodeEntry(w, r)
	if !ok {
		return
	}

	updated, err := store.UpdateEntry(r.Context(), mux.Vars(r)["id"], entry)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated)
}

// DeleteEntry handles DELETE /api/ledger/{id}
func (h *LedgerHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w)
	if !ok {
		return
	}

	if err := store.DeleteEntry(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) store(w http.ResponseWriter) (ledger.Store, bool) {
	store, ok := h.source.(ledger.Store)
	if !ok {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Ledger is read-only")
	}
	return store, ok
}

func decodeEntry(w http.ResponseWriter, r *http.Request) (domain.LedgerEntry, bool) {
	var entry domain.LedgerEntry
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&entry); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return entry, false
	}
	return entry, true
}

func (h *LedgerHandler) writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrEntryNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Entry not found")
	case errors.Is(err, ledger.ErrMissingFields),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidDate),
		errors.Is(err, ledger.ErrFutureDate),
		errors.Is(err, ledger.ErrInvalidID):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Ledger write failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Ledger write failed")
	}
}
