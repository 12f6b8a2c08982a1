package usecase

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/xerrors"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/metrics"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/asset"
	"github.com/x-xyz/auctionhouse/domain/auction"
	"github.com/x-xyz/auctionhouse/domain/custody"
	"github.com/x-xyz/auctionhouse/domain/funds"
)

// Engine is the custodial auction house: it receives deposits, takes bids and settles
type Engine interface {
	auction.Usecase
	custody.Usecase
}

type Config struct {
	Repo       auction.Repo
	Custody    custody.Ledger
	Funds      funds.Ledger
	Registries asset.Directory
	Publisher  auction.Publisher
	// Clock defaults to the wall clock
	Clock clock.Clock
	// Address owns the deposited assets and the escrowed bids
	Address domain.Address
	// Payout receives the proceeds, defaults to auction.CharityAddress
	Payout domain.Address
}

type engine struct {
	mu         sync.Mutex
	repo       auction.Repo
	custody    custody.Ledger
	funds      funds.Ledger
	registries asset.Directory
	publisher  auction.Publisher
	clock      clock.Clock
	address    domain.Address
	payout     domain.Address
	met        metrics.Service
}

func New(cfg *Config) Engine {
	e := &engine{
		repo:       cfg.Repo,
		custody:    cfg.Custody,
		funds:      cfg.Funds,
		registries: cfg.Registries,
		publisher:  cfg.Publisher,
		clock:      cfg.Clock,
		address:    cfg.Address.ToLower(),
		payout:     cfg.Payout.ToLower(),
		met:        metrics.New("auction"),
	}
	if e.clock == nil {
		e.clock = clock.New()
	}
	if e.payout.IsEmpty() {
		e.payout = auction.CharityAddress
	}
	return e
}

// run executes fn as one atomic call. Nested calls roll back to their savepoint on
// failure, outer calls undo everything and publish the events only once committed.
func (e *engine) run(c ctx.Ctx, fn func(c ctx.Ctx, tx *txn) error) error {
	if tx := activeTxn(c, e); tx != nil {
		sp := tx.savepoint()
		if err := fn(c, tx); err != nil {
			tx.rollbackTo(c, sp)
			return err
		}
		return nil
	}
	return e.transact(c, fn)
}

// transact holds mu from the first step until the events are published, so
// subscribers see calls in commit order
func (e *engine) transact(c ctx.Ctx, fn func(c ctx.Ctx, tx *txn) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx := &txn{owner: e, now: e.clock.Now().UTC().Truncate(time.Second)}
	defer tx.close()
	tc := withTxn(c, tx)

	committed := false
	defer func() {
		if r := recover(); r != nil {
			if !committed {
				tx.rollbackTo(tc, savepoint{})
			}
			panic(r)
		}
	}()

	if err := fn(tc, tx); err != nil {
		tx.rollbackTo(tc, savepoint{})
		return err
	}
	committed = true
	e.publish(c, tx.events)
	return nil
}

func (e *engine) publish(c ctx.Ctx, events []auction.Event) {
	if len(events) == 0 || e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(c, events); err != nil {
		c.WithField("err", err).Error("publisher.Publish failed")
	}
}

func (e *engine) GetAuction(c ctx.Ctx, id auction.Id) (*auction.Auction, error) {
	var res *auction.Auction
	err := e.run(c, func(c ctx.Ctx, tx *txn) error {
		a, err := e.repo.FindOne(c, id)
		if err != nil {
			return err
		}
		res = a
		return nil
	})
	return res, err
}

func (e *engine) CurrentBidPrice(c ctx.Ctx, id auction.Id) (*big.Int, error) {
	a, err := e.GetAuction(c, id)
	if err != nil {
		return nil, err
	}
	return a.MinimumBid(), nil
}

func (e *engine) HoldingOf(c ctx.Ctx, registry domain.Address, tokenId domain.TokenId) (*custody.Summary, error) {
	tokenId, err := tokenId.Canonical()
	if err != nil {
		return nil, xerrors.Errorf("token id: %w", domain.ErrBadParamInput)
	}
	var res *custody.Summary
	err = e.run(c, func(c ctx.Ctx, tx *txn) error {
		s, err := e.custody.HoldingOf(c, registry, tokenId)
		if err != nil {
			c.WithField("err", err).Error("custody.HoldingOf failed")
			return err
		}
		res = s
		return nil
	})
	return res, err
}

// findAuction loads the record, wrapping a missing one as domain.ErrNotFound
func (e *engine) findAuction(c ctx.Ctx, id auction.Id) (*auction.Auction, error) {
	a, err := e.repo.FindOne(c, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.WithField("err", err).WithField("id", id).Error("repo.FindOne failed")
		}
		return nil, err
	}
	return a, nil
}

// update stores a and journals the restore of prev
func (e *engine) update(c ctx.Ctx, tx *txn, prev, a *auction.Auction) error {
	if err := e.repo.Update(c, a); err != nil {
		c.WithField("err", err).WithField("id", a.Id).Error("repo.Update failed")
		return err
	}
	tx.onUndo(func(c ctx.Ctx) error {
		return e.repo.Update(c, prev)
	})
	return nil
}

// transferFunds moves amount and journals its revert
func (e *engine) transferFunds(c ctx.Ctx, tx *txn, from, to domain.Address, amount *big.Int) error {
	if err := e.funds.Transfer(c, from, to, amount); err != nil {
		return err
	}
	amount = domain.CopyBig(amount)
	tx.onUndo(func(c ctx.Ctx) error {
		return e.funds.Revert(c, from, to, amount)
	})
	return nil
}
