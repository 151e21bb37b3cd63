package supply

import "errors"

var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("record not found")
	ErrHasParts    = errors.New("supply still has parts")
	ErrHasSupplies = errors.New("supplier still has supplies")
	ErrNameTaken   = errors.New("supplier name already exists")
)
