package pricefomatter

import (
	"math/big"

	"github.com/shopspring/decimal"
	"golang.org/x/xerrors"

	"github.com/x-xyz/auctionhouse/domain"
)

type impl struct {
	decimals int32
}

func NewPriceFormatter(decimals int32) PriceFormatter {
	return &impl{decimals: decimals}
}

// NewNative formats wei amounts as ether
func NewNative() PriceFormatter {
	return NewPriceFormatter(NativeDecimals)
}

func (f *impl) ToDisplay(value *big.Int) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -f.decimals)
}

func (f *impl) FromDisplay(displayPrice string) (*big.Int, error) {
	d, err := decimal.NewFromString(displayPrice)
	if err != nil {
		return nil, xerrors.Errorf("price %q: %w", displayPrice, domain.ErrInvalidNumberFormat)
	}
	raw := d.Shift(f.decimals)
	if !raw.Equal(raw.Truncate(0)) || raw.IsNegative() {
		return nil, xerrors.Errorf("price %q has more than %d decimals or is negative: %w", displayPrice, f.decimals, domain.ErrInvalidNumberFormat)
	}
	return raw.BigInt(), nil
}
