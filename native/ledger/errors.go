package ledger

import "errors"

var (
	ErrInvalidAmount       = errors.New("ledger: amount must be positive")
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
)
