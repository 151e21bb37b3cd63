package order

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("order not found")
	ErrForbidden         = errors.New("forbidden")
	ErrNotOwner          = errors.New("caller does not own this order")
	ErrWrongStatus       = errors.New("order is not in a cancellable status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrHasDependentParts = errors.New("order still has parts assigned")
)
