package transaction

import "errors"

var (
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrFailedSaveTransaction = errors.New("failed to save transaction")
)
