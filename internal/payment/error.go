package payment

import "errors"

var (
	ErrInvalidBasket   = errors.New("invalid basket")
	ErrUnknownStatus   = errors.New("unknown gateway status")
	ErrGatewayFailure  = errors.New("gateway request failed")
	ErrEmptyRequest    = errors.New("payment request is empty")
	ErrInvalidChecksum = errors.New("gateway checksum mismatch")
)
