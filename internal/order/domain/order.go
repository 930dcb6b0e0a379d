package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

// LineItem references one product and the quantity ordered. Placement
// currently accepts exactly one line item per order.
type LineItem struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

type Order struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	Items         []LineItem    `json:"products"`
	TotalCents    int64         `json:"totalPrice"`
	TransactionID string        `json:"transactionId"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	IsDeleted     bool          `json:"isDeleted"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// NewOrder builds a PENDING/UNPAID order with a freshly minted
// transaction identifier.
func NewOrder(userID string, items []LineItem, totalCents int64) Order {
	now := time.Now().UTC()
	return Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		Items:         items,
		TotalCents:    totalCents,
		TransactionID: NewTransactionID(),
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewTransactionID mints the identifier that correlates the local order
// with the gateway's asynchronous callbacks. The uuid part makes
// collisions negligible; the millisecond suffix keeps ids roughly
// time-ordered. Identifiers are never reused.
func NewTransactionID() string {
	return uuid.NewString() + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
}
