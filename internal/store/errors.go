package store

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrEmailTaken          = errors.New("email already in use")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountBanned       = errors.New("account banned")
	ErrInvalidStatus       = errors.New("invalid status transition")
	ErrInvalidDelta        = errors.New("delta must be nonzero")
	ErrInvalidKind         = errors.New("invalid transaction kind")
)
