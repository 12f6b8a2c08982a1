package pricefomatter

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-xyz/auctionhouse/domain"
)

func TestToDisplay(t *testing.T) {
	f := NewNative()
	assert.Equal(t, "0.05", f.ToDisplay(big.NewInt(50000000000000000)).String())
	assert.Equal(t, "0", f.ToDisplay(nil).String())
	assert.Equal(t, "1.5", NewPriceFormatter(6).ToDisplay(big.NewInt(1500000)).String())
}

func TestFromDisplay(t *testing.T) {
	f := NewNative()
	wei, err := f.FromDisplay("0.22")
	require.NoError(t, err)
	assert.Equal(t, "220000000000000000", wei.String())

	wei, err = f.FromDisplay("19")
	require.NoError(t, err)
	assert.Equal(t, "19000000000000000000", wei.String())

	for _, s := range []string{"abc", "-1", "0.0000000000000000001"} {
		_, err := f.FromDisplay(s)
		assert.ErrorIs(t, err, domain.ErrInvalidNumberFormat, s)
	}
}
