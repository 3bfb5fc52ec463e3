package domain

import "errors"

var ErrNotFound = errors.New("product not found")

// ValidationError reports malformed or incomplete client input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StoreError wraps any failure coming back from the product store. The
// message is the store's own, unchanged.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
