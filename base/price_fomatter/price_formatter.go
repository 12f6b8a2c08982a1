package pricefomatter

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// NativeDecimals is the number of decimals of ether
const NativeDecimals = 18

// PriceFormatter converts raw token amounts to and from their display value
type PriceFormatter interface {
	// ToDisplay turns an amount in the smallest unit into a display price, e.g. wei to ether
	ToDisplay(value *big.Int) decimal.Decimal
	// FromDisplay parses a display price back into the smallest unit
	FromDisplay(displayPrice string) (*big.Int, error)
}
