// Package apperrors defines the error taxonomy shared by the checkout
// service: every failure a handler can surface carries a Kind that maps
// to an HTTP status.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindOutOfStock        Kind = "out_of_stock"
	KindInsufficientStock Kind = "insufficient_stock"
	KindGateway           Kind = "gateway"
	KindBadRequest        Kind = "bad_request"
	KindInvalidAdjustment Kind = "invalid_adjustment"
	KindInternal          Kind = "internal"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func OutOfStock(format string, args ...any) *Error {
	return &Error{Kind: KindOutOfStock, Msg: fmt.Sprintf(format, args...)}
}

func InsufficientStock(format string, args ...any) *Error {
	return &Error{Kind: KindInsufficientStock, Msg: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Msg: fmt.Sprintf(format, args...)}
}

func InvalidAdjustment(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidAdjustment, Msg: fmt.Sprintf(format, args...)}
}

// Gateway wraps a payment-provider failure so the caller can classify
// it without inspecting provider-specific details.
func Gateway(err error, format string, args ...any) *Error {
	return &Error{Kind: KindGateway, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf reports the Kind of err, or KindInternal if err is not an
// *Error anywhere in its chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindOutOfStock, KindInsufficientStock, KindBadRequest, KindInvalidAdjustment:
		return http.StatusBadRequest
	case KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
