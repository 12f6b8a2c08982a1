package repository

import (
	"errors"
	"math/big"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/xerrors"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/funds"
	"github.com/x-xyz/auctionhouse/service/query"
)

type accountDoc struct {
	Address domain.Address `bson:"address"`
	Balance string         `bson:"balance"`
	Frozen  bool           `bson:"frozen"`
}

type mongoLedger struct {
	q query.Mongo
}

// NewMongo needs a replica set, every balance change runs in a mongo transaction
func NewMongo(q query.Mongo) funds.Ledger {
	return &mongoLedger{q}
}

func EnsureIndexes(c ctx.Ctx, q query.Mongo) error {
	return q.EnsureIndexes(c, domain.TableFundsAccounts, query.Index{Keys: []string{"address"}, Unique: true})
}

func (l *mongoLedger) load(c ctx.Ctx, addr domain.Address) (*funds.Account, error) {
	doc := &accountDoc{}
	err := l.q.FindOne(c, domain.TableFundsAccounts, bson.M{"address": addr.ToLower()}, doc)
	if errors.Is(err, query.ErrNotFound) {
		return &funds.Account{Address: addr.ToLower(), Balance: new(big.Int)}, nil
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}
	balance, ok := new(big.Int).SetString(doc.Balance, 10)
	if !ok {
		return nil, xerrors.Errorf("balance of %s %q: %w", addr, doc.Balance, domain.ErrInvalidNumberFormat)
	}
	return &funds.Account{Address: doc.Address, Balance: balance, Frozen: doc.Frozen}, nil
}

func (l *mongoLedger) save(c ctx.Ctx, acc *funds.Account) error {
	doc := &accountDoc{Address: acc.Address.ToLower(), Balance: acc.Balance.String(), Frozen: acc.Frozen}
	if err := l.q.Upsert(c, domain.TableFundsAccounts, bson.M{"address": doc.Address}, doc); err != nil {
		c.WithField("err", err).Error("q.Upsert failed")
		return err
	}
	return nil
}

func (l *mongoLedger) Credit(c ctx.Ctx, addr domain.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return l.q.RunWithTransaction(c, func(c ctx.Ctx) error {
		acc, err := l.load(c, addr)
		if err != nil {
			return err
		}
		acc.Balance.Add(acc.Balance, amount)
		return l.save(c, acc)
	})
}

func (l *mongoLedger) Transfer(c ctx.Ctx, from, to domain.Address, amount *big.Int) error {
	return l.move(c, from, to, amount, true)
}

func (l *mongoLedger) Revert(c ctx.Ctx, from, to domain.Address, amount *big.Int) error {
	return l.move(c, to, from, amount, false)
}

func (l *mongoLedger) move(c ctx.Ctx, from, to domain.Address, amount *big.Int, checkFrozen bool) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return l.q.RunWithTransaction(c, func(c ctx.Ctx) error {
		src, err := l.load(c, from)
		if err != nil {
			return err
		}
		dst, err := l.load(c, to)
		if err != nil {
			return err
		}
		if checkFrozen && dst.Frozen {
			return xerrors.Errorf("%s: %w", to, domain.ErrRecipientRejected)
		}
		if src.Balance.Cmp(amount) < 0 {
			return xerrors.Errorf("%s has %s, needs %s: %w", from, src.Balance, amount, domain.ErrInsufficientFunds)
		}
		if src.Address.Equals(dst.Address) {
			return nil
		}
		src.Balance.Sub(src.Balance, amount)
		dst.Balance.Add(dst.Balance, amount)
		if err := l.save(c, src); err != nil {
			return err
		}
		return l.save(c, dst)
	})
}

func (l *mongoLedger) BalanceOf(c ctx.Ctx, addr domain.Address) (*big.Int, error) {
	acc, err := l.load(c, addr)
	if err != nil {
		return nil, err
	}
	return acc.Balance, nil
}

func (l *mongoLedger) setFrozen(c ctx.Ctx, addr domain.Address, frozen bool) error {
	return l.q.RunWithTransaction(c, func(c ctx.Ctx) error {
		acc, err := l.load(c, addr)
		if err != nil {
			return err
		}
		acc.Frozen = frozen
		return l.save(c, acc)
	})
}

func (l *mongoLedger) Freeze(c ctx.Ctx, addr domain.Address) error {
	return l.setFrozen(c, addr, true)
}

func (l *mongoLedger) Unfreeze(c ctx.Ctx, addr domain.Address) error {
	return l.setFrozen(c, addr, false)
}
