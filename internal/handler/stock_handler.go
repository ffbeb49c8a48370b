package handler

import (
	"net/http"

	"stockroom/internal/middleware"
	"stockroom/internal/model"
	"stockroom/internal/service"

	"github.com/rs/zerolog"
)

// StockHandler handles stock changes and ledger history.
type StockHandler struct {
	stock     service.StockService
	movements service.MovementService
	logger    zerolog.Logger
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(stock service.StockService, movements service.MovementService, logger zerolog.Logger) *StockHandler {
	return &StockHandler{
		stock:     stock,
		movements: movements,
		logger:    logger.With().Str("handler", "stock").Logger(),
	}
}

// Adjust handles POST /api/products/{id}/movements requests.
func (h *StockHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, err, "invalid product ID", h.logger)
		return
	}

	var req model.AdjustRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "invalid request body", h.logger)
		return
	}

	resp, err := h.stock.Adjust(r.Context(), middleware.ActorFromContext(r.Context()), id, &req)
	if err != nil {
		writeServiceError(w, err, "failed to adjust stock", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// History handles GET /api/movements?range=&from=&to= requests.
func (h *StockHandler) History(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	history, err := h.movements.History(r.Context(), query.Get("range"), query.Get("from"), query.Get("to"))
	if err != nil {
		writeServiceError(w, err, "failed to retrieve movements", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, history)
}
