package usecase

import (
	"errors"
	"math/big"

	"golang.org/x/xerrors"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/log"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/asset"
	"github.com/x-xyz/auctionhouse/domain/auction"
	"github.com/x-xyz/auctionhouse/domain/custody"
)

// lot is one unit-group put up for auction by a deposit
type lot struct {
	tokenId  domain.TokenId
	quantity uint64
}

// ParseStartingPrice decodes the deposit payload, a big endian unsigned integer.
// An empty or zero payload selects auction.DefaultStartingPrice.
func ParseStartingPrice(data []byte) (*big.Int, error) {
	price := new(big.Int).SetBytes(data)
	if price.Sign() == 0 {
		return new(big.Int).Set(auction.DefaultStartingPrice), nil
	}
	if !price.IsUint64() {
		return nil, xerrors.Errorf("starting price 0x%x: %w", data, domain.ErrOutOfRange)
	}
	return price, nil
}

func (e *engine) OnErc721Received(c ctx.Ctx, registry, operator, from domain.Address, tokenId domain.TokenId, data []byte) (asset.Ack, error) {
	if err := e.deposit(c, registry, domain.TokenType721, operator, from, []lot{{tokenId, 1}}, data); err != nil {
		return asset.Ack{}, err
	}
	return asset.Erc721ReceivedAck, nil
}

func (e *engine) OnErc1155Received(c ctx.Ctx, registry, operator, from domain.Address, id domain.TokenId, value uint64, data []byte) (asset.Ack, error) {
	if err := e.deposit(c, registry, domain.TokenType1155, operator, from, []lot{{id, value}}, data); err != nil {
		return asset.Ack{}, err
	}
	return asset.Erc1155ReceivedAck, nil
}

func (e *engine) OnErc1155BatchReceived(c ctx.Ctx, registry, operator, from domain.Address, ids []domain.TokenId, values []uint64, data []byte) (asset.Ack, error) {
	if len(ids) != len(values) {
		return asset.Ack{}, xerrors.Errorf("%d ids and %d values: %w", len(ids), len(values), domain.ErrBadParamInput)
	}
	lots := make([]lot, len(ids))
	for i := range ids {
		lots[i] = lot{ids[i], values[i]}
	}
	if err := e.deposit(c, registry, domain.TokenType1155, operator, from, lots, data); err != nil {
		return asset.Ack{}, err
	}
	return asset.Erc1155BatchReceivedAck, nil
}

// deposit opens one auction per lot, all of them or none
func (e *engine) deposit(c ctx.Ctx, registry domain.Address, standard domain.TokenType, operator, from domain.Address, lots []lot, data []byte) error {
	c = ctx.WithValues(c, map[string]interface{}{
		"registry": registry,
		"standard": standard,
		"operator": operator,
		"from":     from,
	})

	err := e.run(c, func(c ctx.Ctx, tx *txn) error {
		reg, err := e.registries.Get(registry)
		if err != nil {
			return err
		}
		if reg.Standard() != standard {
			return xerrors.Errorf("%s is erc%d, not erc%d: %w", registry, reg.Standard(), standard, domain.ErrUnknownRegistry)
		}
		price, err := ParseStartingPrice(data)
		if err != nil {
			return err
		}
		if lots, err = canonicalLots(lots); err != nil {
			return err
		}
		for _, l := range lots {
			if _, err := e.open(c, tx, reg, from, l, price); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.WithField("err", err).Warn("deposit rejected")
		e.met.BumpSum("deposit.rejected", 1, "standard", standard.String())
		return err
	}
	e.met.BumpSum("deposit.lots", float64(len(lots)), "standard", standard.String())
	return nil
}

// canonicalLots checks every lot before any auction is opened
func canonicalLots(lots []lot) ([]lot, error) {
	res := make([]lot, len(lots))
	for i, l := range lots {
		id, err := l.tokenId.Canonical()
		if err != nil {
			return nil, xerrors.Errorf("token id %q: %w", l.tokenId, domain.ErrBadParamInput)
		}
		if l.quantity == 0 {
			return nil, xerrors.Errorf("token %s quantity 0: %w", id, domain.ErrBadParamInput)
		}
		res[i] = lot{id, l.quantity}
	}
	return res, nil
}

// open expects a canonical lot, see canonicalLots
func (e *engine) open(c ctx.Ctx, tx *txn, reg asset.Registry, depositor domain.Address, l lot, price *big.Int) (auction.Id, error) {
	quantity := l.quantity
	if reg.Standard().IsSingleUnit() {
		quantity = 1
	}

	a := &auction.Auction{
		Registry:      reg.Address().ToLower(),
		TokenId:       l.tokenId,
		Standard:      reg.Standard(),
		Quantity:      quantity,
		StartingPrice: new(big.Int).Set(price),
		Depositor:     depositor.ToLower(),
		LatestBidder:  depositor.ToLower(),
		LatestBid:     new(big.Int),
		CreatedAt:     tx.now,
		EndTime:       tx.now.Add(auction.Duration),
	}
	id, err := e.repo.Create(c, a)
	if err != nil {
		c.WithField("err", err).Error("repo.Create failed")
		return 0, err
	}
	tx.onUndo(func(c ctx.Ctx) error {
		return e.repo.DiscardFrom(c, id)
	})

	if err := e.custody.Record(c, custody.Holding{
		AuctionId: id,
		Registry:  a.Registry,
		TokenId:   a.TokenId,
		Standard:  a.Standard,
		Quantity:  a.Quantity,
		Depositor: a.Depositor,
		CreatedAt: tx.now,
	}); err != nil {
		if !errors.Is(err, domain.ErrAlreadyInCustody) {
			c.WithField("err", err).Error("custody.Record failed")
		}
		return 0, err
	}
	tx.onUndo(func(c ctx.Ctx) error {
		_, err := e.custody.Release(c, id)
		return err
	})

	if err := e.checkHeld(c, reg, a.TokenId); err != nil {
		return 0, err
	}

	tx.emit(auction.Event{Type: auction.EventAuctionCreated, AuctionId: id})
	c.WithFields(log.Fields{"id": id, "tokenId": a.TokenId, "quantity": a.Quantity, "startingPrice": a.StartingPrice.String()}).Info("auction opened")
	return id, nil
}

// checkHeld fails with domain.ErrAssetNotHeld unless the engine holds every unit of
// tokenId recorded in custody, the holding just recorded included
func (e *engine) checkHeld(c ctx.Ctx, reg asset.Registry, tokenId domain.TokenId) error {
	s, err := e.custody.HoldingOf(c, reg.Address(), tokenId)
	if err != nil {
		c.WithField("err", err).Error("custody.HoldingOf failed")
		return err
	}
	held, err := reg.BalanceOf(c, e.address, tokenId)
	if err != nil {
		c.WithField("err", err).Error("registry.BalanceOf failed")
		return err
	}
	if held < s.Quantity {
		return xerrors.Errorf("holds %d of %s, custody needs %d: %w", held, tokenId, s.Quantity, domain.ErrAssetNotHeld)
	}
	return nil
}
