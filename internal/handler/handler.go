package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"stockroom/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: message})
}

// writeServiceError maps a service error to a response. Domain errors keep
// their message; anything else is logged and reported as fallback.
func writeServiceError(w http.ResponseWriter, err error, fallback string, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeError(w, statusFor(domainErr.Code), domainErr.Message, logger)
		return
	}

	logger.Error().Err(err).Msg(fallback)
	writeError(w, http.StatusInternalServerError, fallback, logger)
}

// statusFor returns the HTTP status for a domain error code.
func statusFor(code string) int {
	switch code {
	case model.ErrCodeUnauthorised, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeProductNotFound, model.ErrCodeProfileNotFound, model.ErrCodeUserNotFound, model.ErrCodeFileNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateSKU, model.ErrCodeEmailTaken:
		return http.StatusConflict
	case model.ErrCodeUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case model.ErrCodeInsufficientStock:
		return http.StatusUnprocessableEntity
	case model.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body")
	}
	return nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (uuid.UUID, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return uuid.Nil, model.NewDomainError(model.ErrCodeMissingField, "id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.NewDomainError(model.ErrCodeValidation, "invalid id format")
	}
	return id, nil
}
