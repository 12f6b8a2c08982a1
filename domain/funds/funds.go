package funds

import (
	"math/big"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/domain"
)

// Account is the native currency balance of an address, in wei
type Account struct {
	Address domain.Address `json:"address"`
	Balance *big.Int       `json:"balance"`
	Frozen  bool           `json:"frozen"`
}

type Ledger interface {
	// Credit adds value sent to the engine by addr, e.g. before bidding
	Credit(c ctx.Ctx, addr domain.Address, amount *big.Int) error
	// Transfer fails with domain.ErrInsufficientFunds or domain.ErrRecipientRejected
	Transfer(c ctx.Ctx, from, to domain.Address, amount *big.Int) error
	// Revert moves amount from to back to from, ignoring whether from accepts funds.
	// It only undoes a Transfer of the same unfinished call.
	Revert(c ctx.Ctx, from, to domain.Address, amount *big.Int) error
	BalanceOf(c ctx.Ctx, addr domain.Address) (*big.Int, error)
	// Freeze makes addr reject incoming transfers
	Freeze(c ctx.Ctx, addr domain.Address) error
	Unfreeze(c ctx.Ctx, addr domain.Address) error
}
