package usecase

import (
	"errors"
	"fmt"
)

// ErrPriceNotFound is returned when no stored price exists on the
// requested date or anywhere inside the lookback window.
var ErrPriceNotFound = errors.New("price not found")

// StorageError marks a persistence failure. Unlike provider failures it
// is never retried here: the transaction has already rolled back and
// the error travels up to the caller as-is.
type StorageError struct {
	Op  string // the storage operation that failed
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
