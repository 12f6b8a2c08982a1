package usecase

import (
	"math/big"

	"golang.org/x/xerrors"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/log"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/auction"
)

func (e *engine) Bid(c ctx.Ctx, id auction.Id, bidder domain.Address, amount *big.Int) (*auction.Auction, error) {
	c = ctx.WithValues(c, map[string]interface{}{
		"id":     id,
		"bidder": bidder,
		"amount": amount.String(),
	})
	bidder = bidder.ToLower()

	var res *auction.Auction
	err := e.run(c, func(c ctx.Ctx, tx *txn) error {
		a, err := e.findAuction(c, id)
		if err != nil {
			return err
		}
		if !a.IsActive(tx.now) {
			return xerrors.Errorf("auction %d: %w", id, domain.ErrAuctionInactive)
		}
		if amount == nil || amount.Cmp(a.MinimumBid()) < 0 {
			return xerrors.Errorf("auction %d needs %s: %w", id, a.MinimumBid(), domain.ErrBidTooLow)
		}

		// the bid value is held by the engine from here on
		if err := e.transferFunds(c, tx, bidder, e.address, amount); err != nil {
			return xerrors.Errorf("escrow bid: %w", err)
		}

		prev := a.Clone()
		a.LatestBidder = bidder
		a.LatestBid = new(big.Int).Set(amount)
		extended := a.ExtendFor(tx.now)
		if err := e.update(c, tx, prev, a); err != nil {
			return err
		}
		if extended {
			endTime := a.EndTime
			tx.emit(auction.Event{Type: auction.EventAuctionExtended, AuctionId: id, EndTime: &endTime})
		}

		if prev.HasBid() {
			if err := e.transferFunds(c, tx, e.address, prev.LatestBidder, prev.LatestBid); err != nil {
				return xerrors.Errorf("refund %s to %s (%v): %w", prev.LatestBid, prev.LatestBidder, err, domain.ErrRefundFailed)
			}
		}

		tx.emit(auction.Event{Type: auction.EventBidAccepted, AuctionId: id, Amount: amount.String(), Bidder: bidder})
		res = a
		return nil
	})
	if err != nil {
		c.WithField("err", err).Warn("bid rejected")
		e.met.BumpSum("bid.rejected", 1)
		return nil, err
	}

	c.WithFields(log.Fields{"endTime": res.EndTime}).Info("bid accepted")
	e.met.BumpSum("bid.accepted", 1)
	return res, nil
}
