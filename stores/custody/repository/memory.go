package repository

import (
	"sort"
	"sync"

	"golang.org/x/xerrors"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/auction"
	"github.com/x-xyz/auctionhouse/domain/custody"
)

type memoryLedger struct {
	mu       sync.RWMutex
	holdings map[auction.Id]custody.Holding
}

func NewMemory() custody.Ledger {
	return &memoryLedger{holdings: map[auction.Id]custody.Holding{}}
}

func (l *memoryLedger) Record(c ctx.Ctx, h custody.Holding) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.holdings[h.AuctionId]; ok {
		return xerrors.Errorf("auction %d: %w", h.AuctionId, domain.ErrAlreadyInCustody)
	}
	if h.Standard.IsSingleUnit() {
		for _, held := range l.holdings {
			if held.Registry.Equals(h.Registry) && held.TokenId == h.TokenId {
				return xerrors.Errorf("token %s of %s held for auction %d: %w", h.TokenId, h.Registry, held.AuctionId, domain.ErrAlreadyInCustody)
			}
		}
	}
	h.Registry = h.Registry.ToLower()
	l.holdings[h.AuctionId] = h
	return nil
}

func (l *memoryLedger) Release(c ctx.Ctx, auctionId auction.Id) (*custody.Holding, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.holdings[auctionId]
	if !ok {
		return nil, xerrors.Errorf("holding of auction %d: %w", auctionId, domain.ErrNotFound)
	}
	delete(l.holdings, auctionId)
	return &h, nil
}

func (l *memoryLedger) FindOne(c ctx.Ctx, auctionId auction.Id) (*custody.Holding, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	h, ok := l.holdings[auctionId]
	if !ok {
		return nil, xerrors.Errorf("holding of auction %d: %w", auctionId, domain.ErrNotFound)
	}
	return &h, nil
}

func (l *memoryLedger) HoldingOf(c ctx.Ctx, registry domain.Address, tokenId domain.TokenId) (*custody.Summary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	res := []*custody.Holding{}
	for _, h := range l.holdings {
		if h.Registry.Equals(registry) && h.TokenId == tokenId {
			h := h
			res = append(res, &h)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].AuctionId < res[j].AuctionId })
	return custody.Summarize(registry, tokenId, res), nil
}
