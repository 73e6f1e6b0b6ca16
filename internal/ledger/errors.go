package ledger

import "errors"

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrInvalidPrice       = errors.New("price must be positive")
	ErrInvalidAmount      = errors.New("amount must be positive")
)
