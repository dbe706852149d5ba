package checkout

import "errors"

var (
	ErrMissingSessionState = errors.New("no payment state for checkout session")
	ErrMissingOrderID      = errors.New("order id is required")
	ErrEmptyGatewayPayload = errors.New("gateway response is empty")
	ErrBasketMismatch      = errors.New("gateway response belongs to another basket")
	ErrNotDirectMethod     = errors.New("payment method is not submitted server-side")
)
