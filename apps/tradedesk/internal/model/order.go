package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Order is an escrow-style trade intent on the order book contract.
type Order struct {
	ID          uint64         `json:"id"`
	Buyer       common.Address `json:"buyer"`
	Seller      common.Address `json:"seller"` // zero address means any seller may fill
	PayToken    common.Address `json:"pay_token"`
	PayAmount   *big.Int       `json:"pay_amount"`
	AssetToken  common.Address `json:"asset_token"`
	AssetAmount *big.Int       `json:"asset_amount"`
	Filled      bool           `json:"filled"`
	Canceled    bool           `json:"canceled"`
}

// Absent reports whether the record is an unwritten slot. The order book
// returns an all-zero tuple for ids that were never assigned; a real order
// always has a non-zero buyer.
func (o Order) Absent() bool {
	return o.Buyer == (common.Address{})
}

// Open reports whether the order can still be filled or canceled.
func (o Order) Open() bool {
	return !o.Filled && !o.Canceled
}

// SellerLocked reports whether the order may only be filled by a designated seller.
func (o Order) SellerLocked() bool {
	return o.Seller != (common.Address{})
}

// Status returns the display status of the order. Filled and canceled are
// mutually exclusive terminal flags.
func (o Order) Status() string {
	switch {
	case o.Filled:
		return "FILLED"
	case o.Canceled:
		return "CANCELED"
	default:
		return "OPEN"
	}
}
