package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-recon/internal/api/middleware"
	"github.com/dvloznov/statement-recon/internal/logger"
	"github.com/dvloznov/statement-recon/internal/pdfextract"
)

// PDFHandler extracts statement entries from uploaded PDFs.
type PDFHandler struct {
	extractor *pdfextract.Extractor
	log       zerolog.Logger
}

// NewPDFHandler creates a new PDF handler.
func NewPDFHandler(extractor *pdfextract.Extractor, log zerolog.Logger) *PDFHandler {
	if extractor == nil {
		extractor = pdfextract.New()
	}
	return &PDFHandler{
		extractor: extractor,
		log:       log,
	}
}

// ParsePDF handles POST /api/parse-pdf
func (h *PDFHandler) ParsePDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	filename, data, err := readUpload(w, r, h.extractor.MaxBytes, false)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	if err := pdfextract.ValidateFilename(filename); err != nil {
		log.Warn().Str("filename", filename).Str("remote_addr", r.RemoteAddr).Msg("Rejected PDF upload filename")
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Info().Str("filename", filename).Str("remote_addr", r.RemoteAddr).Msg("Processing PDF file")

	entries, err := h.extractor.Extract(ctx, data)
	switch {
	case err == nil:
	case errors.Is(err, pdfextract.ErrFileTooLarge),
		errors.Is(err, pdfextract.ErrInvalidPDF),
		errors.Is(err, pdfextract.ErrTooManyPages),
		errors.Is(err, pdfextract.ErrNoEntries):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	default:
		h.log.Error().Err(err).Str("filename", filename).Msg("PDF extraction failed")
		middleware.WriteError(w, http.StatusInternalServerError, "PDF parsing error: "+err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
