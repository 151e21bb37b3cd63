package client

import "errors"

var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("client not found")
	ErrForbidden          = errors.New("forbidden")
	ErrEmailAlreadyLinked = errors.New("email already linked to another user")
	ErrHasActiveOrders    = errors.New("client has non-canceled orders")
	ErrPhoneTaken         = errors.New("phone already registered")
)
