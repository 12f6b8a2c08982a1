package auction

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/asset"
	"golang.org/x/xerrors"
)

const (
	// Duration is how long an auction accepts bids after its creation
	Duration = 24 * time.Hour
	// BiddingGracePeriod is the minimum time left after a bid, see Auction.ExtendFor
	BiddingGracePeriod = 900 * time.Second
	// BidPercentageIncrease is how much a bid must exceed the latest one, in percent
	BidPercentageIncrease = 10
)

var (
	// DefaultStartingPrice is 0.05 ether
	DefaultStartingPrice = big.NewInt(50000000000000000)
	// CharityAddress receives the proceeds of every settled auction
	CharityAddress = domain.Address("0x10e1439455bd2624878b243819e31cfee9eb721c")
)

type Id uint64

func (id Id) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func ParseId(s string) (Id, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("invalid auction id %q: %w", s, domain.ErrBadParamInput)
	}
	return Id(id), nil
}

type Auction struct {
	Id            Id               `json:"id"`
	Registry      domain.Address   `json:"registry"`
	TokenId       domain.TokenId   `json:"tokenId"`
	Standard      domain.TokenType `json:"standard"`
	Quantity      uint64           `json:"quantity"`
	StartingPrice *big.Int         `json:"startingPrice"`
	Depositor     domain.Address   `json:"depositor"`
	LatestBidder  domain.Address   `json:"latestBidder"`
	LatestBid     *big.Int         `json:"latestBid"`
	CreatedAt     time.Time        `json:"createdAt"`
	EndTime       time.Time        `json:"endTime"`
	Settled       bool             `json:"settled"`
}

// Clone returns a deep copy, records handed out by repositories never alias each other
func (a *Auction) Clone() *Auction {
	c := *a
	c.StartingPrice = domain.CopyBig(a.StartingPrice)
	c.LatestBid = domain.CopyBig(a.LatestBid)
	return &c
}

func (a *Auction) HasBid() bool {
	return a.LatestBid != nil && a.LatestBid.Sign() > 0
}

// MinimumBid is the lowest amount a new bid must meet: the starting price
// for the first bid, then the latest bid increased by BidPercentageIncrease.
func (a *Auction) MinimumBid() *big.Int {
	if !a.HasBid() {
		return domain.CopyBig(a.StartingPrice)
	}
	min := new(big.Int).Mul(a.LatestBid, big.NewInt(100+BidPercentageIncrease))
	return min.Div(min, big.NewInt(100))
}

// IsActive reports whether bids are accepted at now
func (a *Auction) IsActive(now time.Time) bool {
	return !a.Settled && now.Before(a.EndTime)
}

// IsComplete reports whether the auction can be settled at now
func (a *Auction) IsComplete(now time.Time) bool {
	return !now.Before(a.EndTime)
}

// ExtendFor pushes EndTime to now+BiddingGracePeriod when strictly less than the
// grace period is left. It reports whether EndTime changed.
func (a *Auction) ExtendFor(now time.Time) bool {
	if a.EndTime.Sub(now) < BiddingGracePeriod {
		a.EndTime = now.Add(BiddingGracePeriod)
		return true
	}
	return false
}

// Winner is the latest bidder, which is the depositor when nobody bid
func (a *Auction) Winner() domain.Address {
	return a.LatestBidder
}

// BidMessage is the text a bidder signs to authorize a bid over http
func BidMessage(id Id, amount *big.Int) []byte {
	return []byte(fmt.Sprintf("Bid %s wei on auction #%d", amount.String(), id))
}

type Repo interface {
	// Create stores a and assigns the next sequential id to it
	Create(c ctx.Ctx, a *Auction) (Id, error)
	FindOne(c ctx.Ctx, id Id) (*Auction, error)
	Update(c ctx.Ctx, a *Auction) error
	Count(c ctx.Ctx) (uint64, error)
	// DiscardFrom removes the records with id >= from. It only rolls back creations of an
	// unfinished transaction, committed auctions are never deleted.
	DiscardFrom(c ctx.Ctx, from Id) error
}

type Usecase interface {
	asset.Receiver

	Bid(c ctx.Ctx, id Id, bidder domain.Address, amount *big.Int) (*Auction, error)
	Settle(c ctx.Ctx, id Id) (*Auction, error)
	GetAuction(c ctx.Ctx, id Id) (*Auction, error)
	CurrentBidPrice(c ctx.Ctx, id Id) (*big.Int, error)
}
