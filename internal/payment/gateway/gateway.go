// Package gateway defines the boundary types for the external payment
// provider. The provider is opaque: the service hands it a session
// request and gets back a redirect URL; everything after that arrives
// asynchronously on the callback endpoints.
package gateway

// SessionRequest carries everything one outbound session-create call
// needs. The three callback URLs are parameterized by the order's
// transaction identifier before the request is built.
type SessionRequest struct {
	AmountCents   int64
	Currency      string
	TransactionID string

	SuccessURL string
	FailURL    string
	CancelURL  string

	ProductName     string
	ProductCategory string
	ProductProfile  string

	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	CustomerCity    string
	CustomerCountry string
}

// Session is the provider's answer: the hosted payment page the
// customer is redirected to.
type Session struct {
	RedirectURL string
}
