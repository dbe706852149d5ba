package method

import "errors"

var (
	ErrUnknownMethod   = errors.New("unknown payment method")
	ErrDuplicateMethod = errors.New("payment method already registered")
	ErrInvalidMethod   = errors.New("invalid payment method")
)
