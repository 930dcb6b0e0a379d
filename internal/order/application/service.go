package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	catalogdomain "github.com/sajidhasan/bike-store-checkout/internal/catalog/domain"
	"github.com/sajidhasan/bike-store-checkout/internal/order/domain"
	"github.com/sajidhasan/bike-store-checkout/internal/payment/gateway"
	userdomain "github.com/sajidhasan/bike-store-checkout/internal/user/domain"
	"github.com/sajidhasan/bike-store-checkout/pkg/apperrors"
	"github.com/sajidhasan/bike-store-checkout/pkg/idempotency"
	"github.com/sajidhasan/bike-store-checkout/pkg/tracing"
)

// Config carries the placement-time constants: the currency charged and
// the public base URL the gateway redirects callbacks to.
type Config struct {
	Currency        string
	CallbackBaseURL string
}

func (c Config) successURL(txid string) string {
	return fmt.Sprintf("%s/api/orders/success/%s", c.CallbackBaseURL, txid)
}

func (c Config) failURL(txid string) string {
	return fmt.Sprintf("%s/api/orders/fail/%s", c.CallbackBaseURL, txid)
}

func (c Config) cancelURL(txid string) string {
	return fmt.Sprintf("%s/api/orders/cancel/%s", c.CallbackBaseURL, txid)
}

// Service is the order placement orchestrator and callback reconciler.
type Service struct {
	log     *slog.Logger
	cfg     Config
	orders  OrderStore
	catalog ProductCatalog
	users   UserDirectory
	gateway PaymentGateway
	guard   ReplayGuard
}

func NewService(log *slog.Logger, cfg Config, orders OrderStore, catalog ProductCatalog, users UserDirectory, gw PaymentGateway, guard ReplayGuard) *Service {
	return &Service{
		log:     log,
		cfg:     cfg,
		orders:  orders,
		catalog: catalog,
		users:   users,
		gateway: gw,
		guard:   guard,
	}
}

type PlaceOrderInput struct {
	UserID     string
	Items      []domain.LineItem
	TotalCents int64
}

type Placement struct {
	RedirectURL string
	Order       domain.Order
}

// PlaceOrder runs the placement workflow: resolve the user, mint a
// transaction id, check stock against the committed quantity, open the
// gateway session, then persist the order and decrement inventory as
// one unit of work. Any failure after persistence begins rolls back
// every local write; an already-created gateway session is not
// retracted.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (Placement, error) {
	if in.UserID == "" {
		return Placement{}, apperrors.BadRequest("user id is required")
	}
	if len(in.Items) != 1 {
		return Placement{}, apperrors.BadRequest("orders are limited to exactly one line item")
	}
	item := in.Items[0]
	if item.ProductID == "" {
		return Placement{}, apperrors.BadRequest("product id is required")
	}
	if item.Quantity <= 0 {
		return Placement{}, apperrors.BadRequest("quantity must be positive")
	}
	if in.TotalCents <= 0 {
		return Placement{}, apperrors.BadRequest("total price must be positive")
	}

	user, err := s.users.Get(ctx, in.UserID)
	if err != nil {
		return Placement{}, err
	}

	product, err := s.catalog.Get(ctx, item.ProductID)
	if err != nil {
		return Placement{}, err
	}
	if err := catalogdomain.ValidateReservation(product, item.Quantity); err != nil {
		return Placement{}, err
	}

	o := domain.NewOrder(in.UserID, in.Items, in.TotalCents)

	session, err := s.gateway.CreateSession(ctx, s.sessionRequest(o, product, user))
	if err != nil {
		return Placement{}, err
	}

	payload, err := json.Marshal(domain.OrderPlaced{
		OrderID:       o.ID,
		TransactionID: o.TransactionID,
		UserID:        o.UserID,
		Items:         o.Items,
		TotalCents:    o.TotalCents,
	})
	if err != nil {
		return Placement{}, err
	}

	if err := s.orders.CreatePendingWithStock(ctx, o, domain.EventOrderPlaced, payload, tracing.Traceparent(ctx)); err != nil {
		// The remote session already exists and is not compensated; it
		// expires unused on the provider side.
		s.log.Warn("placement aborted after gateway session was created",
			"transaction_id", o.TransactionID, "err", err)
		return Placement{}, err
	}

	s.log.Info("order placed",
		"order_id", o.ID, "transaction_id", o.TransactionID,
		"user_id", o.UserID, "total_cents", o.TotalCents)
	return Placement{RedirectURL: session.RedirectURL, Order: o}, nil
}

func (s *Service) sessionRequest(o domain.Order, p catalogdomain.Product, u userdomain.User) gateway.SessionRequest {
	// Shipping metadata falls back to static defaults; the order payload
	// carries no shipping address.
	return gateway.SessionRequest{
		AmountCents:     o.TotalCents,
		Currency:        s.cfg.Currency,
		TransactionID:   o.TransactionID,
		SuccessURL:      s.cfg.successURL(o.TransactionID),
		FailURL:         s.cfg.failURL(o.TransactionID),
		CancelURL:       s.cfg.cancelURL(o.TransactionID),
		ProductName:     p.Name,
		ProductCategory: "Physical Goods",
		ProductProfile:  "general",
		CustomerName:    u.Name,
		CustomerEmail:   u.Email,
		CustomerPhone:   coalesce(u.Phone, "01711111111"),
		CustomerAddress: coalesce(u.Address, "Dhaka"),
		CustomerCity:    coalesce(u.City, "Dhaka"),
		CustomerCountry: coalesce(u.Country, "Bangladesh"),
	}
}

// ConfirmPayment handles the gateway's success callback: the order is
// transitioned to PROCESSING/PAID. A second success callback for the
// same transaction fails BadRequest, never crashes.
func (s *Service) ConfirmPayment(ctx context.Context, transactionID string) (domain.Order, error) {
	if err := s.checkReplay(ctx, "success", transactionID); err != nil {
		return domain.Order{}, err
	}

	o, err := s.orders.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return domain.Order{}, err
	}

	payload, err := json.Marshal(domain.PaymentConfirmed{
		OrderID:       o.ID,
		TransactionID: o.TransactionID,
		TotalCents:    o.TotalCents,
	})
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.orders.MarkPaid(ctx, transactionID, domain.EventPaymentConfirmed, payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Order{}, err
	}
	s.markReplay(ctx, "success", transactionID)

	o.Status = domain.StatusProcessing
	o.PaymentStatus = domain.PaymentPaid
	s.log.Info("payment confirmed", "order_id", o.ID, "transaction_id", transactionID)
	return o, nil
}

// FailPayment handles the gateway's fail callback: the unconfirmed
// order is removed and its stock returned to the product.
func (s *Service) FailPayment(ctx context.Context, transactionID string) error {
	return s.removeOrder(ctx, transactionID, "fail", domain.EventPaymentFailed)
}

// CancelPayment handles the gateway's cancel callback, same terminal
// path as a failure.
func (s *Service) CancelPayment(ctx context.Context, transactionID string) error {
	return s.removeOrder(ctx, transactionID, "cancel", domain.EventPaymentCancelled)
}

func (s *Service) removeOrder(ctx context.Context, transactionID, kind, eventType string) error {
	if err := s.checkReplay(ctx, kind, transactionID); err != nil {
		return err
	}

	payload, err := json.Marshal(domain.PaymentRejected{
		TransactionID: transactionID,
		Reason:        kind,
	})
	if err != nil {
		return err
	}

	if err := s.orders.DeleteAndRestock(ctx, transactionID, eventType, payload, tracing.Traceparent(ctx)); err != nil {
		return err
	}
	s.markReplay(ctx, kind, transactionID)
	s.log.Info("order removed after payment "+kind, "transaction_id", transactionID)
	return nil
}

// checkReplay is a read-only redis fast path in front of the store's
// zero-rows checks; with no guard configured every callback goes to the
// store. A key is only ever marked after the store transaction commits,
// so a callback that failed transiently stays retryable.
func (s *Service) checkReplay(ctx context.Context, kind, transactionID string) error {
	if s.guard == nil {
		return nil
	}
	seen, err := s.guard.Seen(ctx, idempotency.CallbackKey(kind, transactionID))
	if err != nil {
		// Degrade to the store check rather than rejecting callbacks
		// while redis is down.
		s.log.Error("replay guard unavailable", "err", err)
		return nil
	}
	if seen {
		return apperrors.BadRequest("duplicate %s callback for transaction %s", kind, transactionID)
	}
	return nil
}

func (s *Service) markReplay(ctx context.Context, kind, transactionID string) {
	if s.guard == nil {
		return
	}
	if err := s.guard.Mark(ctx, idempotency.CallbackKey(kind, transactionID)); err != nil {
		// The store already committed; a lost mark only costs one
		// round trip to the zero-rows check on the next redelivery.
		s.log.Error("replay guard mark failed", "err", err)
	}
}

type OrderPage struct {
	Data        []domain.Order `json:"data"`
	TotalOrders int            `json:"totalOrders"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
}

// ListOrders returns a page of non-deleted orders, optionally filtered
// by the owning user.
func (s *Service) ListOrders(ctx context.Context, f ListFilter) (OrderPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}

	orders, total, err := s.orders.List(ctx, f)
	if err != nil {
		return OrderPage{}, err
	}
	return OrderPage{
		Data:        orders,
		TotalOrders: total,
		TotalPages:  (total + f.Limit - 1) / f.Limit,
		CurrentPage: f.Page,
	}, nil
}

// UpdateOrder overwrites status and/or payment status directly; legal
// transitions are not enforced on this administrative path.
func (s *Service) UpdateOrder(ctx context.Context, id string, status *domain.OrderStatus, paymentStatus *domain.PaymentStatus) (domain.Order, error) {
	if status == nil && paymentStatus == nil {
		return domain.Order{}, apperrors.BadRequest("nothing to update")
	}
	return s.orders.UpdateStatus(ctx, id, status, paymentStatus)
}

// DeleteOrder soft-deletes; the record stays for the callback
// reconciler but disappears from listings.
func (s *Service) DeleteOrder(ctx context.Context, id string) (domain.Order, error) {
	return s.orders.SoftDelete(ctx, id)
}

func coalesce(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
