package handler

import (
	"net/http"
	"strconv"
	"strings"

	"stockroom/internal/middleware"
	"stockroom/internal/model"
	"stockroom/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/products?q=&category=&page= requests.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 1
	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		var err error
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			writeError(w, http.StatusBadRequest, "invalid page parameter", h.logger)
			return
		}
	}

	result, err := h.service.List(r.Context(), query.Get("q"), query.Get("category"), page)
	if err != nil {
		writeServiceError(w, err, "failed to retrieve products", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetByID handles GET /api/products/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, err, "invalid product ID", h.logger)
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to retrieve product", h.logger)
		return
	}

	if product == nil {
		writeError(w, http.StatusNotFound, "product not found", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Create handles POST /api/products requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "invalid request body", h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), middleware.ActorFromContext(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err, "failed to create product", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/products/{id} requests.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, err, "invalid product ID", h.logger)
		return
	}

	var req model.UpdateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, "invalid request body", h.logger)
		return
	}

	resp, err := h.service.Update(r.Context(), middleware.ActorFromContext(r.Context()), id, &req)
	if err != nil {
		writeServiceError(w, err, "failed to update product", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api/products/{id} requests.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, err, "invalid product ID", h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
		writeServiceError(w, err, "failed to delete product", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Categories handles GET /api/categories requests.
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to retrieve categories", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}
