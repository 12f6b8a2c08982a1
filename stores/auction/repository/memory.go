package repository

import (
	"sync"

	"golang.org/x/xerrors"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/auction"
)

type memoryRepo struct {
	mu       sync.RWMutex
	auctions []*auction.Auction
}

// NewMemory keeps the auctions in an arena indexed by id
func NewMemory() auction.Repo {
	return &memoryRepo{}
}

func (r *memoryRepo) Create(c ctx.Ctx, a *auction.Auction) (auction.Id, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := auction.Id(len(r.auctions))
	stored := a.Clone()
	stored.Id = id
	r.auctions = append(r.auctions, stored)
	return id, nil
}

func (r *memoryRepo) FindOne(c ctx.Ctx, id auction.Id) (*auction.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if uint64(id) >= uint64(len(r.auctions)) {
		return nil, xerrors.Errorf("auction %d: %w", id, domain.ErrAuctionNotFound)
	}
	return r.auctions[id].Clone(), nil
}

func (r *memoryRepo) Update(c ctx.Ctx, a *auction.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if uint64(a.Id) >= uint64(len(r.auctions)) {
		return xerrors.Errorf("auction %d: %w", a.Id, domain.ErrAuctionNotFound)
	}
	r.auctions[a.Id] = a.Clone()
	return nil
}

func (r *memoryRepo) Count(c ctx.Ctx) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(len(r.auctions)), nil
}

func (r *memoryRepo) DiscardFrom(c ctx.Ctx, from auction.Id) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if uint64(from) < uint64(len(r.auctions)) {
		for i := int(from); i < len(r.auctions); i++ {
			r.auctions[i] = nil
		}
		r.auctions = r.auctions[:from]
	}
	return nil
}
