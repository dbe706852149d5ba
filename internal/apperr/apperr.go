// Package apperr maps domain errors to the kinds and HTTP statuses exposed
// by the checkout API.
package apperr

import (
	"context"
	"errors"
	"net/http"

	"novalnet-checkout/internal/basket"
	"novalnet-checkout/internal/checkout"
	"novalnet-checkout/internal/method"
	"novalnet-checkout/internal/payment"
	"novalnet-checkout/internal/session"
	"novalnet-checkout/internal/transaction"
)

var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
)

func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrBadRequest):
		return "bad_request"

	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"

	case errors.Is(err, payment.ErrInvalidChecksum):
		return "invalid_checksum"

	case errors.Is(err, method.ErrUnknownMethod):
		return "unknown_method"

	case errors.Is(err, basket.ErrBasketNotFound):
		return "basket_not_found"

	case errors.Is(err, transaction.ErrTransactionNotFound):
		return "transaction_not_found"

	case errors.Is(err, payment.ErrInvalidBasket):
		return "invalid_basket"

	case errors.Is(err, checkout.ErrMissingSessionState),
		errors.Is(err, session.ErrEmptySessionID):
		return "missing_session_state"

	case errors.Is(err, checkout.ErrMissingOrderID):
		return "missing_order_id"

	case errors.Is(err, checkout.ErrEmptyGatewayPayload):
		return "empty_gateway_payload"

	case errors.Is(err, checkout.ErrBasketMismatch):
		return "basket_mismatch"

	case errors.Is(err, checkout.ErrNotDirectMethod):
		return "not_direct_method"

	case errors.Is(err, payment.ErrUnknownStatus):
		return "unknown_status"

	case errors.Is(err, payment.ErrGatewayFailure):
		return "gateway_failure"

	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"

	case errors.Is(err, context.Canceled):
		return "canceled"

	default:
		return "internal"
	}
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrBadRequest),
		errors.Is(err, checkout.ErrMissingOrderID),
		errors.Is(err, checkout.ErrEmptyGatewayPayload),
		errors.Is(err, checkout.ErrNotDirectMethod),
		errors.Is(err, payment.ErrInvalidBasket):
		return http.StatusBadRequest

	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, payment.ErrInvalidChecksum):
		return http.StatusForbidden

	case errors.Is(err, method.ErrUnknownMethod),
		errors.Is(err, basket.ErrBasketNotFound),
		errors.Is(err, transaction.ErrTransactionNotFound):
		return http.StatusNotFound

	case errors.Is(err, checkout.ErrMissingSessionState),
		errors.Is(err, session.ErrEmptySessionID),
		errors.Is(err, checkout.ErrBasketMismatch):
		return http.StatusConflict

	case errors.Is(err, payment.ErrUnknownStatus),
		errors.Is(err, payment.ErrGatewayFailure):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
