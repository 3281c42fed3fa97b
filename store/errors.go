package store

import "errors"

var (
	ErrAccountExists     = errors.New("store: account already exists")
	ErrAccountNotFound   = errors.New("store: account not found")
	ErrInsufficientFunds = errors.New("store: insufficient funds")
	ErrSessionNotFound   = errors.New("store: session not found")
	ErrSessionsFull      = errors.New("store: no client-id available")
)
