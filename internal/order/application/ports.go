package application

import (
	"context"

	catalogdomain "github.com/sajidhasan/bike-store-checkout/internal/catalog/domain"
	"github.com/sajidhasan/bike-store-checkout/internal/order/domain"
	"github.com/sajidhasan/bike-store-checkout/internal/payment/gateway"
	userdomain "github.com/sajidhasan/bike-store-checkout/internal/user/domain"
)

type ListFilter struct {
	UserID string
	Page   int
	Limit  int
}

// OrderStore persists orders. The mutating methods that pair order
// writes with stock writes (create, delete-and-restock) and with outbox
// appends are single atomic units of work: either everything commits or
// nothing does.
type OrderStore interface {
	// CreatePendingWithStock inserts the order, decrements stock for
	// its line items after re-validating under a row lock, and appends
	// the outbox event, all in one transaction.
	CreatePendingWithStock(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error

	GetByTransactionID(ctx context.Context, transactionID string) (domain.Order, error)

	// MarkPaid transitions PENDING/UNPAID to PROCESSING/PAID. It fails
	// BadRequest when zero rows change (already transitioned).
	MarkPaid(ctx context.Context, transactionID, eventType string, payload []byte, traceparent string) error

	// DeleteAndRestock removes the order outright and returns its
	// decremented stock to the product, atomically. It fails BadRequest
	// when no order was deleted.
	DeleteAndRestock(ctx context.Context, transactionID, eventType string, payload []byte, traceparent string) error

	List(ctx context.Context, f ListFilter) ([]domain.Order, int, error)
	UpdateStatus(ctx context.Context, id string, status *domain.OrderStatus, paymentStatus *domain.PaymentStatus) (domain.Order, error)
	SoftDelete(ctx context.Context, id string) (domain.Order, error)
}

// ProductCatalog is the read side of the inventory ledger used for the
// pre-gateway stock check. The authoritative check happens again inside
// the order store's transaction.
type ProductCatalog interface {
	Get(ctx context.Context, id string) (catalogdomain.Product, error)
}

// UserDirectory resolves the placing customer; users are owned by the
// account system.
type UserDirectory interface {
	Get(ctx context.Context, id string) (userdomain.User, error)
}

type PaymentGateway interface {
	CreateSession(ctx context.Context, req gateway.SessionRequest) (gateway.Session, error)
}

// ReplayGuard short-circuits redelivered gateway callbacks. Seen is a
// read-only check; Mark records the key only after the guarded store
// transaction has committed, so a transient store failure leaves the
// provider's retry path open. A nil guard disables the fast path; the
// store's zero-rows checks remain the source of truth.
type ReplayGuard interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}
