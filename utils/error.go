package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")
var ErrorDuplicateRecord = errors.New("duplicate record")

// Checkout error surface. Handlers map these onto HTTP responses; nothing
// else should be leaked to the storefront.
var (
	ErrorInvalidOrder      = errors.New("invalid order")
	ErrorTransactionFailed = errors.New("order transaction failed")
	ErrorIllegalTransition = errors.New("illegal status transition")
	ErrorStockExceeded     = errors.New("requested quantity exceeds available stock")
)
