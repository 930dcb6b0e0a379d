package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sajidhasan/bike-store-checkout/internal/catalog/application"
	"github.com/sajidhasan/bike-store-checkout/internal/catalog/domain"
	"github.com/sajidhasan/bike-store-checkout/pkg/apperrors"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

type createProductReq struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	ImageURL    string  `json:"imageUrl"`
	Rating      float64 `json:"rating"`
	PriceCents  int64   `json:"priceCents"`
	Quantity    int     `json:"quantity"`
}

type updateProductReq struct {
	Name        *string  `json:"name"`
	Brand       *string  `json:"brand"`
	Description *string  `json:"description"`
	Type        *string  `json:"type"`
	ImageURL    *string  `json:"imageUrl"`
	Rating      *float64 `json:"rating"`
	PriceCents  *int64   `json:"priceCents"`
	Quantity    *int     `json:"quantity"`
	InStock     *bool    `json:"inStock"`
}

type adjustInventoryReq struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/products", h.createProduct)
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Patch("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
	r.Patch("/products/{id}/inventory", h.adjustInventory)
	return r
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.BadRequest("invalid request body"))
		return
	}

	p, err := h.service.CreateProduct(r.Context(), domain.Product{
		ID:          req.ID,
		Name:        req.Name,
		Brand:       req.Brand,
		Description: req.Description,
		Type:        req.Type,
		ImageURL:    req.ImageURL,
		Rating:      req.Rating,
		PriceCents:  req.PriceCents,
		Quantity:    req.Quantity,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.BadRequest("invalid request body"))
		return
	}

	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), domain.Update{
		Name:        req.Name,
		Brand:       req.Brand,
		Description: req.Description,
		Type:        req.Type,
		ImageURL:    req.ImageURL,
		Rating:      req.Rating,
		PriceCents:  req.PriceCents,
		Quantity:    req.Quantity,
		InStock:     req.InStock,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) adjustInventory(w http.ResponseWriter, r *http.Request) {
	var req adjustInventoryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.BadRequest("invalid request body"))
		return
	}

	p, err := h.service.AdjustInventory(r.Context(), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("catalog request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(apperrors.KindOf(err)),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
