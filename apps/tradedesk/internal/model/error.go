package model

import (
	"errors"
)

var (
	// Connectivity errors.
	ErrNoSession    = errors.New("no ledger session available")
	ErrWrongNetwork = errors.New("ledger session is on the wrong network")

	// Validation errors.
	ErrBadInput          = errors.New("invalid input")
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrBadAddress        = errors.New("invalid address")

	// Authorization errors.
	ErrSellerLocked = errors.New("order locked for a different seller")
	ErrGateClosed   = errors.New("eBL not accepted for this order yet")

	// State errors.
	ErrOrderNotFound = errors.New("order not found in the recent window")
	ErrOrderClosed   = errors.New("order is already filled or canceled")
	ErrBusy          = errors.New("a previous action of this kind is still in flight")
)
