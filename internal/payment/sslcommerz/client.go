// Package sslcommerz implements the payment gateway boundary against
// the SSLCommerz hosted-checkout API.
package sslcommerz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sajidhasan/bike-store-checkout/internal/payment/gateway"
	"github.com/sajidhasan/bike-store-checkout/pkg/apperrors"
)

const sessionPath = "/gwprocess/v4/api.php"

// Config is handed to the client at construction; the client never
// reads the environment.
type Config struct {
	BaseURL   string
	StoreID   string
	StorePass string
	Timeout   time.Duration
}

// Client is stateless and safe for concurrent use. One outbound call
// per session, no retries: any non-success answer aborts the enclosing
// placement before anything is persisted.
type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type sessionResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

func (c *Client) CreateSession(ctx context.Context, req gateway.SessionRequest) (gateway.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	form := url.Values{}
	form.Set("store_id", c.cfg.StoreID)
	form.Set("store_passwd", c.cfg.StorePass)
	form.Set("total_amount", formatAmount(req.AmountCents))
	form.Set("currency", req.Currency)
	form.Set("tran_id", req.TransactionID)
	form.Set("success_url", req.SuccessURL)
	form.Set("fail_url", req.FailURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("shipping_method", "NO")
	form.Set("product_name", req.ProductName)
	form.Set("product_category", req.ProductCategory)
	form.Set("product_profile", req.ProductProfile)
	form.Set("cus_name", req.CustomerName)
	form.Set("cus_email", req.CustomerEmail)
	form.Set("cus_phone", req.CustomerPhone)
	form.Set("cus_add1", req.CustomerAddress)
	form.Set("cus_city", req.CustomerCity)
	form.Set("cus_country", req.CustomerCountry)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+sessionPath, strings.NewReader(form.Encode()))
	if err != nil {
		return gateway.Session{}, fmt.Errorf("build session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return gateway.Session{}, apperrors.Gateway(err, "payment session call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return gateway.Session{}, apperrors.Gateway(nil, "payment gateway returned status %d", resp.StatusCode)
	}

	var body sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return gateway.Session{}, apperrors.Gateway(err, "decode payment session response")
	}
	if !strings.EqualFold(body.Status, "SUCCESS") || body.GatewayPageURL == "" {
		reason := body.FailedReason
		if reason == "" {
			reason = "no redirect URL returned"
		}
		return gateway.Session{}, apperrors.Gateway(nil, "payment session rejected: %s", reason)
	}

	return gateway.Session{RedirectURL: body.GatewayPageURL}, nil
}

// formatAmount renders cents as the decimal string the provider
// expects.
func formatAmount(cents int64) string {
	return strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
}
