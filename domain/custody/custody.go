package custody

import (
	"time"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/auction"
)

// Holding is a unit-group held in escrow for one open auction
type Holding struct {
	AuctionId auction.Id       `json:"auctionId" bson:"auctionId"`
	Registry  domain.Address   `json:"registry" bson:"registry"`
	TokenId   domain.TokenId   `json:"tokenId" bson:"tokenId"`
	Standard  domain.TokenType `json:"standard" bson:"standard"`
	Quantity  uint64           `json:"quantity" bson:"quantity"`
	Depositor domain.Address   `json:"depositor" bson:"depositor"`
	CreatedAt time.Time        `json:"createdAt" bson:"createdAt"`
}

// Summary aggregates the holdings of one token id
type Summary struct {
	Registry   domain.Address `json:"registry"`
	TokenId    domain.TokenId `json:"tokenId"`
	Quantity   uint64         `json:"quantity"`
	AuctionIds []auction.Id   `json:"auctionIds"`
}

func Summarize(registry domain.Address, tokenId domain.TokenId, holdings []*Holding) *Summary {
	s := &Summary{
		Registry:   registry.ToLower(),
		TokenId:    tokenId,
		AuctionIds: []auction.Id{},
	}
	for _, h := range holdings {
		s.Quantity += h.Quantity
		s.AuctionIds = append(s.AuctionIds, h.AuctionId)
	}
	return s
}

type Ledger interface {
	// Record fails with domain.ErrAlreadyInCustody when the auction already has a holding,
	// or when a single unit token is already held for another auction.
	Record(c ctx.Ctx, h Holding) error
	// Release removes the holding of the auction and returns it
	Release(c ctx.Ctx, auctionId auction.Id) (*Holding, error)
	FindOne(c ctx.Ctx, auctionId auction.Id) (*Holding, error)
	HoldingOf(c ctx.Ctx, registry domain.Address, tokenId domain.TokenId) (*Summary, error)
}

type Usecase interface {
	HoldingOf(c ctx.Ctx, registry domain.Address, tokenId domain.TokenId) (*Summary, error)
}
