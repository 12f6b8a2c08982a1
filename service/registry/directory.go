package registry

import (
	"sync"

	"golang.org/x/xerrors"

	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/asset"
)

// Directory is the set of registries the auction house accepts deposits from
type Directory struct {
	mu         sync.RWMutex
	registries map[domain.Address]asset.Registry
}

func NewDirectory(registries ...asset.Registry) *Directory {
	d := &Directory{registries: map[domain.Address]asset.Registry{}}
	for _, r := range registries {
		d.Add(r)
	}
	return d
}

// Add registers r, replacing a registry with the same address
func (d *Directory) Add(r asset.Registry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registries[r.Address().ToLower()] = r
}

func (d *Directory) Get(address domain.Address) (asset.Registry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.registries[address.ToLower()]
	if !ok {
		return nil, xerrors.Errorf("registry %s: %w", address, domain.ErrUnknownRegistry)
	}
	return r, nil
}

func (d *Directory) List() []asset.Registry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	res := make([]asset.Registry, 0, len(d.registries))
	for _, r := range d.registries {
		res = append(res, r)
	}
	return res
}
