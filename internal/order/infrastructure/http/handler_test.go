package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	catalogdomain "github.com/sajidhasan/bike-store-checkout/internal/catalog/domain"
	"github.com/sajidhasan/bike-store-checkout/internal/order/application"
	"github.com/sajidhasan/bike-store-checkout/internal/order/domain"
	orderhttp "github.com/sajidhasan/bike-store-checkout/internal/order/infrastructure/http"
	"github.com/sajidhasan/bike-store-checkout/internal/payment/gateway"
	userdomain "github.com/sajidhasan/bike-store-checkout/internal/user/domain"
	"github.com/sajidhasan/bike-store-checkout/pkg/apperrors"
	"github.com/sajidhasan/bike-store-checkout/pkg/logging"
	"github.com/sajidhasan/bike-store-checkout/pkg/metrics"
)

// One registration per process: metrics.New registers on the default
// prometheus registry.
var testMetrics = metrics.New("apitest")

type memStore struct {
	mu       sync.Mutex
	products map[string]catalogdomain.Product
	orders   map[string]domain.Order
}

func newMemStore() *memStore {
	return &memStore{
		products: map[string]catalogdomain.Product{},
		orders:   map[string]domain.Order{},
	}
}

func (m *memStore) Get(_ context.Context, id string) (catalogdomain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return catalogdomain.Product{}, apperrors.NotFound("product not found")
	}
	return p, nil
}

func (m *memStore) CreatePendingWithStock(_ context.Context, o domain.Order, _ string, _ []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range o.Items {
		p := m.products[it.ProductID]
		if err := catalogdomain.ValidateReservation(p, it.Quantity); err != nil {
			return err
		}
		p.Quantity -= it.Quantity
		p.InStock = p.Quantity > 0
		m.products[it.ProductID] = p
	}
	m.orders[o.TransactionID] = o
	return nil
}

func (m *memStore) GetByTransactionID(_ context.Context, txid string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[txid]
	if !ok {
		return domain.Order{}, apperrors.NotFound("no order found with this transaction ID")
	}
	return o, nil
}

func (m *memStore) MarkPaid(_ context.Context, txid, _ string, _ []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[txid]
	if !ok || o.Status != domain.StatusPending {
		return apperrors.BadRequest("order was not updated")
	}
	o.Status = domain.StatusProcessing
	o.PaymentStatus = domain.PaymentPaid
	m.orders[txid] = o
	return nil
}

func (m *memStore) DeleteAndRestock(_ context.Context, txid, _ string, _ []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[txid]
	if !ok {
		return apperrors.BadRequest("failed to delete order")
	}
	for _, it := range o.Items {
		p := m.products[it.ProductID]
		p.Quantity += it.Quantity
		p.InStock = true
		m.products[it.ProductID] = p
	}
	delete(m.orders, txid)
	return nil
}

func (m *memStore) List(_ context.Context, f application.ListFilter) ([]domain.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.Order
	for _, o := range m.orders {
		if o.IsDeleted {
			continue
		}
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		all = append(all, o)
	}
	return all, len(all), nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, status *domain.OrderStatus, payment *domain.PaymentStatus) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for txid, o := range m.orders {
		if o.ID != id {
			continue
		}
		if status != nil {
			o.Status = *status
		}
		if payment != nil {
			o.PaymentStatus = *payment
		}
		m.orders[txid] = o
		return o, nil
	}
	return domain.Order{}, apperrors.NotFound("order not found")
}

func (m *memStore) SoftDelete(_ context.Context, id string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for txid, o := range m.orders {
		if o.ID != id {
			continue
		}
		o.IsDeleted = true
		m.orders[txid] = o
		return o, nil
	}
	return domain.Order{}, apperrors.NotFound("order not found")
}

type stubUsers struct{}

func (stubUsers) Get(_ context.Context, id string) (userdomain.User, error) {
	if id == "missing" {
		return userdomain.User{}, apperrors.NotFound("user not found")
	}
	return userdomain.User{ID: id, Name: "Karim", Email: "karim@example.com"}, nil
}

type stubGateway struct{}

func (stubGateway) CreateSession(_ context.Context, req gateway.SessionRequest) (gateway.Session, error) {
	return gateway.Session{RedirectURL: "https://pay.example/session/" + req.TransactionID}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()
	store := newMemStore()
	store.products["bike-1"] = catalogdomain.Product{
		ID: "bike-1", Name: "Trail Blazer 500", PriceCents: 1299_50, Quantity: 5, InStock: true,
	}

	svc := application.NewService(
		logging.New("test", slog.LevelError),
		application.Config{Currency: "BDT", CallbackBaseURL: "https://shop.example.com"},
		store, store, stubUsers{}, stubGateway{}, nil,
	)
	srv := httptest.NewServer(orderhttp.NewHandler(logging.New("test", slog.LevelError), svc, testMetrics).Routes())
	t.Cleanup(srv.Close)
	return srv, store
}

func placeOne(t *testing.T, srv *httptest.Server, userID string, qty int) (int, map[string]json.RawMessage) {
	t.Helper()
	body := fmt.Sprintf(`{"userId":%q,"products":[{"product":"bike-1","quantity":%d}],"totalPrice":%d}`,
		userID, qty, int64(qty)*1299_50)
	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /orders: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, out
}

func TestPlaceOrderEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	code, out := placeOne(t, srv, "user-1", 2)
	if code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", code)
	}
	var redirect string
	if err := json.Unmarshal(out["redirectUrl"], &redirect); err != nil || redirect == "" {
		t.Fatalf("redirectUrl = %q, err %v", redirect, err)
	}
	var o domain.Order
	if err := json.Unmarshal(out["order"], &o); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if o.Status != domain.StatusPending || o.PaymentStatus != domain.PaymentUnpaid {
		t.Fatalf("order %s/%s, want PENDING/UNPAID", o.Status, o.PaymentStatus)
	}
	if got := store.products["bike-1"].Quantity; got != 3 {
		t.Fatalf("remaining stock = %d, want 3", got)
	}
}

func TestPlaceOrderEndpointErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"userId":`, http.StatusBadRequest},
		{"unknown user", `{"userId":"missing","products":[{"product":"bike-1","quantity":1}],"totalPrice":129950}`, http.StatusNotFound},
		{"unknown product", `{"userId":"u","products":[{"product":"ghost","quantity":1}],"totalPrice":100}`, http.StatusNotFound},
		{"over stock", `{"userId":"u","products":[{"product":"bike-1","quantity":99}],"totalPrice":100}`, http.StatusBadRequest},
		{"two line items", `{"userId":"u","products":[{"product":"bike-1","quantity":1},{"product":"bike-1","quantity":1}],"totalPrice":100}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("POST /orders: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestSuccessCallbackEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	placeOne(t, srv, "user-1", 1)

	var txid string
	for id := range store.orders {
		txid = id
	}

	resp, err := http.Post(srv.URL+"/orders/success/"+txid, "application/json", nil)
	if err != nil {
		t.Fatalf("POST success callback: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var o domain.Order
	if err := json.NewDecoder(resp.Body).Decode(&o); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if o.Status != domain.StatusProcessing || o.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("order %s/%s, want PROCESSING/PAID", o.Status, o.PaymentStatus)
	}

	// Redelivery of the same callback is rejected, not re-applied.
	again, err := http.Post(srv.URL+"/orders/success/"+txid, "application/json", nil)
	if err != nil {
		t.Fatalf("repeat callback: %v", err)
	}
	again.Body.Close()
	if again.StatusCode != http.StatusBadRequest {
		t.Fatalf("repeat status = %d, want 400", again.StatusCode)
	}
}

func TestFailCallbackEndpointRestocks(t *testing.T) {
	srv, store := newTestServer(t)
	placeOne(t, srv, "user-1", 2)

	var txid string
	for id := range store.orders {
		txid = id
	}

	resp, err := http.Post(srv.URL+"/orders/fail/"+txid, "application/json", nil)
	if err != nil {
		t.Fatalf("POST fail callback: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(store.orders) != 0 {
		t.Fatal("order must be removed after a fail callback")
	}
	if got := store.products["bike-1"].Quantity; got != 5 {
		t.Fatalf("stock after restock = %d, want 5", got)
	}

	// Unknown transaction on the same path.
	missing, err := http.Post(srv.URL+"/orders/cancel/"+txid, "application/json", nil)
	if err != nil {
		t.Fatalf("cancel callback: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusBadRequest {
		t.Fatalf("cancel of removed order = %d, want 400", missing.StatusCode)
	}
}

func TestListOrdersEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	placeOne(t, srv, "user-1", 1)
	placeOne(t, srv, "user-2", 1)

	resp, err := http.Get(srv.URL + "/orders?id=user-1")
	if err != nil {
		t.Fatalf("GET /orders: %v", err)
	}
	defer resp.Body.Close()
	var page application.OrderPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.TotalOrders != 1 || len(page.Data) != 1 {
		t.Fatalf("total = %d, rows = %d, want 1/1", page.TotalOrders, len(page.Data))
	}
	if page.CurrentPage != 1 {
		t.Fatalf("currentPage = %d, want 1", page.CurrentPage)
	}
	if page.Data[0].UserID != "user-1" {
		t.Fatalf("row user = %s, want user-1", page.Data[0].UserID)
	}
}

func TestUpdateAndDeleteOrderEndpoints(t *testing.T) {
	srv, store := newTestServer(t)
	placeOne(t, srv, "user-1", 1)

	var placed domain.Order
	for _, o := range store.orders {
		placed = o
	}

	patch, err := http.NewRequest(http.MethodPatch, srv.URL+"/orders/"+placed.ID,
		bytes.NewReader([]byte(`{"status":"SHIPPED"}`)))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(patch)
	if err != nil {
		t.Fatalf("PATCH order: %v", err)
	}
	defer resp.Body.Close()
	var updated domain.Order
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Status != domain.StatusShipped {
		t.Fatalf("status = %s, want SHIPPED", updated.Status)
	}
	if updated.PaymentStatus != placed.PaymentStatus {
		t.Fatalf("payment status changed to %s", updated.PaymentStatus)
	}

	// Empty patch is rejected.
	empty, _ := http.NewRequest(http.MethodPatch, srv.URL+"/orders/"+placed.ID,
		bytes.NewReader([]byte(`{}`)))
	eresp, err := http.DefaultClient.Do(empty)
	if err != nil {
		t.Fatal(err)
	}
	eresp.Body.Close()
	if eresp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty patch = %d, want 400", eresp.StatusCode)
	}

	del, _ := http.NewRequest(http.MethodDelete, srv.URL+"/orders/"+placed.ID, nil)
	dresp, err := http.DefaultClient.Do(del)
	if err != nil {
		t.Fatalf("DELETE order: %v", err)
	}
	dresp.Body.Close()
	if dresp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", dresp.StatusCode)
	}

	list, err := http.Get(srv.URL + "/orders")
	if err != nil {
		t.Fatal(err)
	}
	defer list.Body.Close()
	var page application.OrderPage
	if err := json.NewDecoder(list.Body).Decode(&page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.TotalOrders != 0 {
		t.Fatalf("soft-deleted order still listed, total = %d", page.TotalOrders)
	}
}
