package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/sajidhasan/bike-store-checkout/internal/order/application"
	"github.com/sajidhasan/bike-store-checkout/internal/order/domain"
	"github.com/sajidhasan/bike-store-checkout/pkg/apperrors"
	"github.com/sajidhasan/bike-store-checkout/pkg/metrics"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service, m *metrics.Metrics) *Handler {
	return &Handler{
		log:     log,
		service: service,
		metrics: m,
		tracer:  otel.Tracer("order-http"),
	}
}

type lineItemReq struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type placeOrderReq struct {
	UserID     string        `json:"userId"`
	Products   []lineItemReq `json:"products"`
	TotalPrice int64         `json:"totalPrice"`
}

type placeOrderResp struct {
	RedirectURL string       `json:"redirectUrl"`
	Order       domain.Order `json:"order"`
}

type updateOrderReq struct {
	Status        *domain.OrderStatus   `json:"status"`
	PaymentStatus *domain.PaymentStatus `json:"paymentStatus"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/orders", h.placeOrder)
	r.Post("/orders/success/{transactionId}", h.paymentSuccess)
	r.Post("/orders/fail/{transactionId}", h.paymentFail)
	r.Post("/orders/cancel/{transactionId}", h.paymentCancel)
	r.Get("/orders", h.listOrders)
	r.Patch("/orders/{id}", h.updateOrder)
	r.Delete("/orders/{id}", h.deleteOrder)
	return r
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlaceOrder")
	defer span.End()

	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "place", apperrors.BadRequest("invalid request body"))
		return
	}

	items := make([]domain.LineItem, 0, len(req.Products))
	for _, p := range req.Products {
		items = append(items, domain.LineItem{ProductID: p.Product, Quantity: p.Quantity})
	}

	placement, err := h.service.PlaceOrder(ctx, application.PlaceOrderInput{
		UserID:     req.UserID,
		Items:      items,
		TotalCents: req.TotalPrice,
	})
	if err != nil {
		h.metrics.Placements.WithLabelValues(string(apperrors.KindOf(err))).Inc()
		h.writeError(w, "place", err)
		return
	}

	h.metrics.Placements.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusCreated, placeOrderResp{
		RedirectURL: placement.RedirectURL,
		Order:       placement.Order,
	})
}

func (h *Handler) paymentSuccess(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PaymentSuccess")
	defer span.End()

	txid := chi.URLParam(r, "transactionId")
	o, err := h.service.ConfirmPayment(ctx, txid)
	if err != nil {
		h.metrics.Callbacks.WithLabelValues("success", string(apperrors.KindOf(err))).Inc()
		h.writeError(w, "callback", err)
		return
	}
	h.metrics.Callbacks.WithLabelValues("success", "ok").Inc()
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) paymentFail(w http.ResponseWriter, r *http.Request) {
	h.removeOrder(w, r, "fail", h.service.FailPayment)
}

func (h *Handler) paymentCancel(w http.ResponseWriter, r *http.Request) {
	h.removeOrder(w, r, "cancel", h.service.CancelPayment)
}

func (h *Handler) removeOrder(w http.ResponseWriter, r *http.Request, kind string, remove func(context.Context, string) error) {
	ctx, span := h.tracer.Start(r.Context(), "PaymentCallback")
	defer span.End()

	txid := chi.URLParam(r, "transactionId")
	if err := remove(ctx, txid); err != nil {
		h.metrics.Callbacks.WithLabelValues(kind, string(apperrors.KindOf(err))).Inc()
		h.writeError(w, "callback", err)
		return
	}
	h.metrics.Callbacks.WithLabelValues(kind, "ok").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"transactionId": txid, "result": "order removed"})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	resp, err := h.service.ListOrders(r.Context(), application.ListFilter{
		UserID: q.Get("id"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		h.writeError(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "update", apperrors.BadRequest("invalid request body"))
		return
	}

	o, err := h.service.UpdateOrder(r.Context(), chi.URLParam(r, "id"), req.Status, req.PaymentStatus)
	if err != nil {
		h.writeError(w, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.DeleteOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "delete", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("order "+op+" failed", "err", err)
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
