package usecase

import (
	"golang.org/x/xerrors"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/log"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/asset"
	"github.com/x-xyz/auctionhouse/domain/auction"
)

// Settle closes an expired auction. State changes come first and the asset transfer
// last, so a re-entrant call made during the transfer already sees the auction settled.
func (e *engine) Settle(c ctx.Ctx, id auction.Id) (*auction.Auction, error) {
	defer e.met.BumpTime("settle.time").End()
	c = ctx.WithValue(c, "id", id)

	var res *auction.Auction
	err := e.run(c, func(c ctx.Ctx, tx *txn) error {
		a, err := e.findAuction(c, id)
		if err != nil {
			return err
		}
		if a.Settled {
			return xerrors.Errorf("auction %d: %w", id, domain.ErrAlreadySettled)
		}
		if !a.IsComplete(tx.now) {
			return xerrors.Errorf("auction %d ends at %s: %w", id, a.EndTime, domain.ErrNotComplete)
		}

		prev := a.Clone()
		a.Settled = true
		if err := e.update(c, tx, prev, a); err != nil {
			return err
		}

		h, err := e.custody.Release(c, id)
		if err != nil {
			c.WithField("err", err).Error("custody.Release failed")
			return err
		}
		tx.onUndo(func(c ctx.Ctx) error {
			return e.custody.Record(c, *h)
		})

		if a.HasBid() {
			if err := e.transferFunds(c, tx, e.address, e.payout, a.LatestBid); err != nil {
				return xerrors.Errorf("payout %s to %s: %w", a.LatestBid, e.payout, err)
			}
		}

		reg, err := e.registries.Get(a.Registry)
		if err != nil {
			return err
		}
		if err := reg.Transfer(c, e.address, a.Winner(), a.TokenId, a.Quantity); err != nil {
			return xerrors.Errorf("transfer token %s of %s to %s: %w", a.TokenId, a.Registry, a.Winner(), err)
		}
		if r, ok := reg.(asset.Reverter); ok {
			tx.onUndo(func(c ctx.Ctx) error {
				return r.Revert(c, e.address, a.Winner(), a.TokenId, a.Quantity)
			})
		} else {
			tx.onUndo(func(c ctx.Ctx) error {
				c.WithField("tokenId", a.TokenId).Error("settled asset cannot be taken back")
				return nil
			})
		}

		tx.emit(auction.Event{Type: auction.EventAuctionSettled, AuctionId: id, Amount: a.LatestBid.String(), Bidder: a.Winner()})
		res = a
		return nil
	})
	if err != nil {
		c.WithField("err", err).Warn("settle rejected")
		e.met.BumpSum("settle.rejected", 1)
		return nil, err
	}

	c.WithFields(log.Fields{"winner": res.Winner(), "amount": res.LatestBid.String()}).Info("auction settled")
	e.met.BumpSum("settle.proceeds", 1)
	return res, nil
}
