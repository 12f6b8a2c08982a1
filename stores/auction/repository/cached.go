package repository

import (
	"encoding/json"
	"time"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/domain/auction"
	"github.com/x-xyz/auctionhouse/domain/keys"
	"github.com/x-xyz/auctionhouse/service/cache/provider"
)

const settledTTL = 24 * time.Hour

type cachedRepo struct {
	auction.Repo
	cache provider.Provider
}

// NewCached serves settled auctions from cache, they never change again
func NewCached(repo auction.Repo, cache provider.Provider) auction.Repo {
	return &cachedRepo{Repo: repo, cache: cache}
}

func settledKey(id auction.Id) string {
	return keys.RedisKey("settledAuction", id.String())
}

func (r *cachedRepo) FindOne(c ctx.Ctx, id auction.Id) (*auction.Auction, error) {
	if raw, err := r.cache.Get(c, settledKey(id)); err == nil {
		a := &auction.Auction{}
		if err := json.Unmarshal(raw, a); err == nil {
			return a, nil
		}
		c.WithField("id", id).Warn("drop undecodable cached auction")
		r.evict(c, id)
	}

	a, err := r.Repo.FindOne(c, id)
	if err != nil {
		return nil, err
	}
	if a.Settled {
		r.store(c, a)
	}
	return a, nil
}

func (r *cachedRepo) Update(c ctx.Ctx, a *auction.Auction) error {
	// settlement can still be rolled back, only reads populate the cache
	r.evict(c, a.Id)
	return r.Repo.Update(c, a)
}

func (r *cachedRepo) DiscardFrom(c ctx.Ctx, from auction.Id) error {
	n, err := r.Repo.Count(c)
	if err != nil {
		return err
	}
	for id := from; uint64(id) < n; id++ {
		r.evict(c, id)
	}
	return r.Repo.DiscardFrom(c, from)
}

func (r *cachedRepo) store(c ctx.Ctx, a *auction.Auction) {
	raw, err := json.Marshal(a)
	if err != nil {
		c.WithField("err", err).Error("json.Marshal failed")
		return
	}
	if err := r.cache.Set(c, settledKey(a.Id), raw, settledTTL); err != nil {
		c.WithField("err", err).Warn("cache.Set failed")
	}
}

func (r *cachedRepo) evict(c ctx.Ctx, id auction.Id) {
	if err := r.cache.Del(c, settledKey(id)); err != nil {
		c.WithField("err", err).Warn("cache.Del failed")
	}
}
