package repository

import (
	"errors"
	"math/big"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/xerrors"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/auction"
	"github.com/x-xyz/auctionhouse/service/query"
)

// auctionDoc stores amounts as decimal strings, bson has no arbitrary precision integers
type auctionDoc struct {
	Id            uint64           `bson:"id"`
	Registry      domain.Address   `bson:"registry"`
	TokenId       domain.TokenId   `bson:"tokenId"`
	Standard      domain.TokenType `bson:"standard"`
	Quantity      uint64           `bson:"quantity"`
	StartingPrice string           `bson:"startingPrice"`
	Depositor     domain.Address   `bson:"depositor"`
	LatestBidder  domain.Address   `bson:"latestBidder"`
	LatestBid     string           `bson:"latestBid"`
	CreatedAt     time.Time        `bson:"createdAt"`
	EndTime       time.Time        `bson:"endTime"`
	Settled       bool             `bson:"settled"`
}

func toDoc(a *auction.Auction) *auctionDoc {
	return &auctionDoc{
		Id:            uint64(a.Id),
		Registry:      a.Registry.ToLower(),
		TokenId:       a.TokenId,
		Standard:      a.Standard,
		Quantity:      a.Quantity,
		StartingPrice: domain.CopyBig(a.StartingPrice).String(),
		Depositor:     a.Depositor.ToLower(),
		LatestBidder:  a.LatestBidder.ToLower(),
		LatestBid:     domain.CopyBig(a.LatestBid).String(),
		CreatedAt:     a.CreatedAt,
		EndTime:       a.EndTime,
		Settled:       a.Settled,
	}
}

func (d *auctionDoc) toAuction() (*auction.Auction, error) {
	startingPrice, ok := new(big.Int).SetString(d.StartingPrice, 10)
	if !ok {
		return nil, xerrors.Errorf("auction %d startingPrice %q: %w", d.Id, d.StartingPrice, domain.ErrInvalidNumberFormat)
	}
	latestBid, ok := new(big.Int).SetString(d.LatestBid, 10)
	if !ok {
		return nil, xerrors.Errorf("auction %d latestBid %q: %w", d.Id, d.LatestBid, domain.ErrInvalidNumberFormat)
	}
	return &auction.Auction{
		Id:            auction.Id(d.Id),
		Registry:      d.Registry,
		TokenId:       d.TokenId,
		Standard:      d.Standard,
		Quantity:      d.Quantity,
		StartingPrice: startingPrice,
		Depositor:     d.Depositor,
		LatestBidder:  d.LatestBidder,
		LatestBid:     latestBid,
		CreatedAt:     d.CreatedAt.UTC(),
		EndTime:       d.EndTime.UTC(),
		Settled:       d.Settled,
	}, nil
}

type mongoRepo struct {
	q query.Mongo
}

// NewMongo stores auctions in mongo, EnsureIndexes must have been called once
func NewMongo(q query.Mongo) auction.Repo {
	return &mongoRepo{q}
}

// EnsureIndexes creates the unique id index that keeps ids from being assigned twice
func EnsureIndexes(c ctx.Ctx, q query.Mongo) error {
	return q.EnsureIndexes(c, domain.TableAuctions,
		query.Index{Keys: []string{"id"}, Unique: true},
		query.Index{Keys: []string{"registry", "tokenId"}},
	)
}

func (r *mongoRepo) Create(c ctx.Ctx, a *auction.Auction) (auction.Id, error) {
	n, err := r.q.Count(c, domain.TableAuctions, bson.M{})
	if err != nil {
		c.WithField("err", err).Error("q.Count failed")
		return 0, err
	}
	doc := toDoc(a)
	doc.Id = uint64(n)
	if err := r.q.Insert(c, domain.TableAuctions, doc); err != nil {
		if errors.Is(err, query.ErrDuplicateKey) {
			return 0, xerrors.Errorf("auction %d: %w", n, domain.ErrConflict)
		}
		c.WithField("err", err).Error("q.Insert failed")
		return 0, err
	}
	return auction.Id(n), nil
}

func (r *mongoRepo) FindOne(c ctx.Ctx, id auction.Id) (*auction.Auction, error) {
	doc := &auctionDoc{}
	if err := r.q.FindOne(c, domain.TableAuctions, bson.M{"id": uint64(id)}, doc); err != nil {
		if errors.Is(err, query.ErrNotFound) {
			return nil, xerrors.Errorf("auction %d: %w", id, domain.ErrAuctionNotFound)
		}
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}
	return doc.toAuction()
}

func (r *mongoRepo) Update(c ctx.Ctx, a *auction.Auction) error {
	doc := toDoc(a)
	patch := bson.M{
		"latestBidder": doc.LatestBidder,
		"latestBid":    doc.LatestBid,
		"endTime":      doc.EndTime,
		"settled":      doc.Settled,
	}
	if err := r.q.Patch(c, domain.TableAuctions, bson.M{"id": doc.Id}, patch); err != nil {
		if errors.Is(err, query.ErrNotFound) {
			return xerrors.Errorf("auction %d: %w", a.Id, domain.ErrAuctionNotFound)
		}
		c.WithField("err", err).Error("q.Patch failed")
		return err
	}
	return nil
}

func (r *mongoRepo) Count(c ctx.Ctx) (uint64, error) {
	n, err := r.q.Count(c, domain.TableAuctions, bson.M{})
	if err != nil {
		c.WithField("err", err).Error("q.Count failed")
		return 0, err
	}
	return uint64(n), nil
}

func (r *mongoRepo) DiscardFrom(c ctx.Ctx, from auction.Id) error {
	if _, err := r.q.RemoveAll(c, domain.TableAuctions, bson.M{"id": bson.M{"$gte": uint64(from)}}); err != nil {
		c.WithField("err", err).Error("q.RemoveAll failed")
		return err
	}
	return nil
}
