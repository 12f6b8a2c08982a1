package http

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	pricefomatter "github.com/x-xyz/auctionhouse/base/price_fomatter"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/auction"
)

type auctionView struct {
	Id                   auction.Id       `json:"id"`
	Registry             domain.Address   `json:"registry"`
	TokenId              domain.TokenId   `json:"tokenId"`
	Standard             domain.TokenType `json:"standard"`
	Quantity             uint64           `json:"quantity"`
	StartingPrice        string           `json:"startingPrice"`
	DisplayStartingPrice decimal.Decimal  `json:"displayStartingPrice"`
	Depositor            domain.Address   `json:"depositor"`
	LatestBidder         domain.Address   `json:"latestBidder"`
	LatestBid            string           `json:"latestBid"`
	DisplayLatestBid     decimal.Decimal  `json:"displayLatestBid"`
	CreatedAt            time.Time        `json:"createdAt"`
	EndTime              time.Time        `json:"endTime"`
	Settled              bool             `json:"settled"`
}

type priceView struct {
	Price        string          `json:"price"`
	DisplayPrice decimal.Decimal `json:"displayPrice"`
}

type constantsView struct {
	PayoutAddress         domain.Address  `json:"payoutAddress"`
	DefaultStartingPrice  string          `json:"defaultStartingPrice"`
	DisplayStartingPrice  decimal.Decimal `json:"displayStartingPrice"`
	BidPercentageIncrease int             `json:"bidPercentageIncrease"`
	BiddingGracePeriod    int64           `json:"biddingGracePeriod"`
	Duration              int64           `json:"duration"`
}

func toAuctionView(f pricefomatter.PriceFormatter, a *auction.Auction) *auctionView {
	return &auctionView{
		Id:                   a.Id,
		Registry:             a.Registry,
		TokenId:              a.TokenId,
		Standard:             a.Standard,
		Quantity:             a.Quantity,
		StartingPrice:        a.StartingPrice.String(),
		DisplayStartingPrice: f.ToDisplay(a.StartingPrice),
		Depositor:            a.Depositor,
		LatestBidder:         a.LatestBidder,
		LatestBid:            a.LatestBid.String(),
		DisplayLatestBid:     f.ToDisplay(a.LatestBid),
		CreatedAt:            a.CreatedAt,
		EndTime:              a.EndTime,
		Settled:              a.Settled,
	}
}

func toPriceView(f pricefomatter.PriceFormatter, price *big.Int) *priceView {
	return &priceView{Price: price.String(), DisplayPrice: f.ToDisplay(price)}
}
