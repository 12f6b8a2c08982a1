package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/xerrors"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/auction"
	"github.com/x-xyz/auctionhouse/domain/custody"
	"github.com/x-xyz/auctionhouse/service/query"
)

type mongoLedger struct {
	q query.Mongo
}

func NewMongo(q query.Mongo) custody.Ledger {
	return &mongoLedger{q}
}

func EnsureIndexes(c ctx.Ctx, q query.Mongo) error {
	return q.EnsureIndexes(c, domain.TableCustodyHoldings,
		query.Index{Keys: []string{"auctionId"}, Unique: true},
		query.Index{Keys: []string{"registry", "tokenId"}},
	)
}

func (l *mongoLedger) Record(c ctx.Ctx, h custody.Holding) error {
	h.Registry = h.Registry.ToLower()
	if h.Standard.IsSingleUnit() {
		n, err := l.q.Count(c, domain.TableCustodyHoldings, bson.M{"registry": h.Registry, "tokenId": h.TokenId})
		if err != nil {
			c.WithField("err", err).Error("q.Count failed")
			return err
		}
		if n > 0 {
			return xerrors.Errorf("token %s of %s: %w", h.TokenId, h.Registry, domain.ErrAlreadyInCustody)
		}
	}
	if err := l.q.Insert(c, domain.TableCustodyHoldings, h); err != nil {
		if errors.Is(err, query.ErrDuplicateKey) {
			return xerrors.Errorf("auction %d: %w", h.AuctionId, domain.ErrAlreadyInCustody)
		}
		c.WithField("err", err).Error("q.Insert failed")
		return err
	}
	return nil
}

func (l *mongoLedger) Release(c ctx.Ctx, auctionId auction.Id) (*custody.Holding, error) {
	h, err := l.FindOne(c, auctionId)
	if err != nil {
		return nil, err
	}
	if err := l.q.Remove(c, domain.TableCustodyHoldings, bson.M{"auctionId": auctionId}); err != nil {
		if errors.Is(err, query.ErrNotFound) {
			return nil, xerrors.Errorf("holding of auction %d: %w", auctionId, domain.ErrNotFound)
		}
		c.WithField("err", err).Error("q.Remove failed")
		return nil, err
	}
	return h, nil
}

func (l *mongoLedger) FindOne(c ctx.Ctx, auctionId auction.Id) (*custody.Holding, error) {
	h := &custody.Holding{}
	if err := l.q.FindOne(c, domain.TableCustodyHoldings, bson.M{"auctionId": auctionId}, h); err != nil {
		if errors.Is(err, query.ErrNotFound) {
			return nil, xerrors.Errorf("holding of auction %d: %w", auctionId, domain.ErrNotFound)
		}
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}
	h.CreatedAt = h.CreatedAt.UTC()
	return h, nil
}

func (l *mongoLedger) HoldingOf(c ctx.Ctx, registry domain.Address, tokenId domain.TokenId) (*custody.Summary, error) {
	res := []*custody.Holding{}
	selector := bson.M{"registry": registry.ToLower(), "tokenId": tokenId}
	if err := l.q.Search(c, domain.TableCustodyHoldings, 0, 0, "auctionId", selector, &res); err != nil {
		c.WithField("err", err).Error("q.Search failed")
		return nil, err
	}
	return custody.Summarize(registry, tokenId, res), nil
}
