package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := NotFound("product %s not found", "p1")
	if got := KindOf(err); got != KindNotFound {
		t.Fatalf("KindOf = %s, want %s", got, KindNotFound)
	}

	wrapped := fmt.Errorf("place order: %w", InsufficientStock("not enough stock"))
	if got := KindOf(wrapped); got != KindInsufficientStock {
		t.Fatalf("KindOf wrapped = %s, want %s", got, KindInsufficientStock)
	}

	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("KindOf plain = %s, want %s", got, KindInternal)
	}
}

func TestGatewayWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Gateway(cause, "session init failed")
	if !errors.Is(err, cause) {
		t.Fatal("Gateway error should unwrap to its cause")
	}
	if err.Error() != "session init failed: connection refused" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("missing"), http.StatusNotFound},
		{OutOfStock("zero stock"), http.StatusBadRequest},
		{InsufficientStock("short"), http.StatusBadRequest},
		{BadRequest("stale callback"), http.StatusBadRequest},
		{InvalidAdjustment("negative quantity"), http.StatusBadRequest},
		{Gateway(nil, "provider down"), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
