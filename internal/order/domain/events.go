package domain

// Event types written to the outbox and published on the order events
// topic.
const (
	EventOrderPlaced      = "OrderPlaced"
	EventPaymentConfirmed = "PaymentConfirmed"
	EventPaymentFailed    = "PaymentFailed"
	EventPaymentCancelled = "PaymentCancelled"
)

type OrderPlaced struct {
	OrderID       string     `json:"order_id"`
	TransactionID string     `json:"transaction_id"`
	UserID        string     `json:"user_id"`
	Items         []LineItem `json:"items"`
	TotalCents    int64      `json:"total_cents"`
}

type PaymentConfirmed struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	TotalCents    int64  `json:"total_cents"`
}

type PaymentRejected struct {
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}
