package errors

import "errors"

var (
	ErrInvalidAccount      = errors.New("invalid account")
	ErrZeroAmount          = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotAuthorized       = errors.New("caller is not authorized")
	ErrSystemPaused        = errors.New("system is paused")
)
