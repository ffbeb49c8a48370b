package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"stockroom/internal/csvio"
	"stockroom/internal/middleware"
	"stockroom/internal/model"
	"stockroom/internal/service"

	"github.com/rs/zerolog"
)

// uploadField is the multipart field holding an uploaded file.
const uploadField = "file"

// TransferHandler handles CSV preview, import and export, and image uploads.
type TransferHandler struct {
	transfer       service.TransferService
	media          service.MediaService
	maxUploadBytes int64
	now            func() time.Time
	logger         zerolog.Logger
}

// NewTransferHandler creates a new transfer handler. Uploads larger than
// maxUploadBytes are rejected.
func NewTransferHandler(transfer service.TransferService, media service.MediaService, maxUploadBytes int64, logger zerolog.Logger) *TransferHandler {
	return &TransferHandler{
		transfer:       transfer,
		media:          media,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
		logger:         logger.With().Str("handler", "transfer").Logger(),
	}
}

// Preview handles POST /api/import/preview requests.
func (h *TransferHandler) Preview(w http.ResponseWriter, r *http.Request) {
	file, _, ok := h.upload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	preview, err := h.transfer.Preview(r.Context(), file)
	if err != nil {
		writeServiceError(w, err, "failed to read csv", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

// Import handles POST /api/import requests. The optional "mapping" form
// field is a JSON object from logical field to CSV header. A chunk failure
// answers 422 with the partial result.
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	file, _, ok := h.upload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	var mapping map[string]string
	if raw := r.FormValue("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			writeError(w, http.StatusBadRequest, "mapping must be a JSON object", h.logger)
			return
		}
	}

	result, err := h.transfer.Import(r.Context(), middleware.ActorFromContext(r.Context()), file, mapping)
	if err != nil {
		var domainErr *model.DomainError
		if result == nil || errors.As(err, &domainErr) {
			writeServiceError(w, err, "failed to import csv", h.logger)
			return
		}

		h.logger.Warn().Err(err).Int("committed", result.Committed).Int("total", result.Total).Msg("import stopped early")
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Export handles GET /api/export requests.
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	count, err := h.transfer.Export(r.Context(), &buf)
	if err != nil {
		writeServiceError(w, err, "failed to export products", h.logger)
		return
	}

	w.Header().Set("Content-Type", csvio.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", csvio.ExportFilename(h.now())))
	w.Header().Set("X-Row-Count", strconv.Itoa(count))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, &buf); err != nil {
		h.logger.Warn().Err(err).Msg("failed to write export")
	}
}

// UploadImage handles POST /api/images requests.
func (h *TransferHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	file, header, ok := h.upload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	resp, err := h.media.UploadImage(r.Context(), middleware.ActorFromContext(r.Context()), header.Filename, file)
	if err != nil {
		writeServiceError(w, err, "failed to upload image", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// upload opens the uploaded file, writing the error response itself when
// the request carries none.
// ServeFile handles GET /files/{key...} requests.
func (h *TransferHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	body, contentType, err := h.media.Open(r.Context(), r.PathValue("key"))
	if err != nil {
		writeServiceError(w, err, "failed to read file", h.logger)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn().Err(err).Str("key", r.PathValue("key")).Msg("failed to stream file")
	}
}

func (h *TransferHandler) upload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload is too large", h.logger)
			return nil, nil, false
		}
		writeError(w, http.StatusBadRequest, "a file upload in the \"file\" field is required", h.logger)
		return nil, nil, false
	}

	return file, header, true
}
