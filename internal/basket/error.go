package basket

import "errors"

var (
	ErrBasketNotFound      = errors.New("basket not found")
	ErrFailedGetBasket     = errors.New("failed to get basket")
	ErrFailedGetBasketRows = errors.New("failed to get basket rows")
)
