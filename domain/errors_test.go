package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/xerrors"
)

func TestErrAuctionNotFound(t *testing.T) {
	assert.Equal(t, "Auction does not exist.", ErrAuctionNotFound.Error())
	assert.True(t, errors.Is(ErrAuctionNotFound, ErrNotFound))
	assert.True(t, errors.Is(xerrors.Errorf("auction 9: %w", ErrAuctionNotFound), ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrAuctionNotFound))
}
