package memory

import (
	"sync"

	"golang.org/x/xerrors"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/asset"
)

// Registry is an in-process erc721 or erc1155 collection. Addresses with a registered
// receiver behave like contracts: safe transfers to them must be acknowledged.
type Registry struct {
	mu        sync.Mutex
	address   domain.Address
	standard  domain.TokenType
	balances  map[domain.TokenId]map[domain.Address]uint64
	receivers map[domain.Address]asset.Receiver
}

func New(address domain.Address, standard domain.TokenType) *Registry {
	return &Registry{
		address:   address.ToLower(),
		standard:  standard,
		balances:  map[domain.TokenId]map[domain.Address]uint64{},
		receivers: map[domain.Address]asset.Receiver{},
	}
}

func (r *Registry) Address() domain.Address {
	return r.address
}

func (r *Registry) Standard() domain.TokenType {
	return r.standard
}

// RegisterReceiver makes addr a contract account notified of incoming safe transfers
func (r *Registry) RegisterReceiver(addr domain.Address, recv asset.Receiver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receivers[addr.ToLower()] = recv
}

func (r *Registry) Mint(to domain.Address, tokenId domain.TokenId, quantity uint64) error {
	tokenId, err := tokenId.Canonical()
	if err != nil {
		return err
	}
	if quantity == 0 || (r.standard.IsSingleUnit() && quantity != 1) {
		return xerrors.Errorf("mint %d of %s: %w", quantity, tokenId, domain.ErrBadParamInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.standard.IsSingleUnit() && len(r.balances[tokenId]) > 0 {
		return xerrors.Errorf("token %s: %w", tokenId, domain.ErrConflict)
	}
	r.credit(to.ToLower(), tokenId, quantity)
	return nil
}

func (r *Registry) OwnerOf(tokenId domain.TokenId) (domain.Address, error) {
	tokenId, err := tokenId.Canonical()
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for owner, n := range r.balances[tokenId] {
		if n > 0 {
			return owner, nil
		}
	}
	return "", xerrors.Errorf("token %s: %w", tokenId, domain.ErrNotFound)
}

func (r *Registry) BalanceOf(c ctx.Ctx, owner domain.Address, tokenId domain.TokenId) (uint64, error) {
	tokenId, err := tokenId.Canonical()
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[tokenId][owner.ToLower()], nil
}

// Transfer moves tokens held by from, notifying the recipient like a safe transfer
func (r *Registry) Transfer(c ctx.Ctx, from, to domain.Address, tokenId domain.TokenId, quantity uint64) error {
	return r.SafeTransferFrom(c, from, from, to, tokenId, quantity, nil)
}

// Revert takes back a Transfer without notifying anyone
func (r *Registry) Revert(c ctx.Ctx, from, to domain.Address, tokenId domain.TokenId, quantity uint64) error {
	ids, err := canonical([]domain.TokenId{tokenId})
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.move(to.ToLower(), from.ToLower(), ids, []uint64{quantity})
}

func (r *Registry) SafeTransferFrom(c ctx.Ctx, operator, from, to domain.Address, tokenId domain.TokenId, quantity uint64, data []byte) error {
	return r.safeTransfer(c, operator, from, to, []domain.TokenId{tokenId}, []uint64{quantity}, data, false)
}

// SafeBatchTransferFrom moves several token ids at once, erc1155 only
func (r *Registry) SafeBatchTransferFrom(c ctx.Ctx, operator, from, to domain.Address, ids []domain.TokenId, quantities []uint64, data []byte) error {
	if r.standard.IsSingleUnit() {
		return xerrors.Errorf("batch transfer on erc%s: %w", r.standard, domain.ErrBadParamInput)
	}
	if len(ids) != len(quantities) {
		return xerrors.Errorf("%d ids and %d quantities: %w", len(ids), len(quantities), domain.ErrBadParamInput)
	}
	return r.safeTransfer(c, operator, from, to, ids, quantities, data, true)
}

func (r *Registry) safeTransfer(c ctx.Ctx, operator, from, to domain.Address, ids []domain.TokenId, quantities []uint64, data []byte, batch bool) error {
	from, to = from.ToLower(), to.ToLower()
	if to.IsEmpty() {
		return xerrors.Errorf("transfer to zero address: %w", domain.ErrBadParamInput)
	}
	ids, err := canonical(ids)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if err := r.move(from, to, ids, quantities); err != nil {
		r.mu.Unlock()
		return err
	}
	recv := r.receivers[to]
	r.mu.Unlock()

	if recv == nil {
		return nil
	}

	// the receiver may call back into the registry, the lock is released
	ack, expected, err := r.notify(c, recv, operator, from, ids, quantities, data, batch)
	if err == nil && ack != expected {
		err = xerrors.Errorf("ack %x: %w", ack, domain.ErrInvalidReceiver)
	}
	if err != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if undoErr := r.move(to, from, ids, quantities); undoErr != nil {
			c.WithField("err", undoErr).Error("registry undo failed")
		}
		return xerrors.Errorf("%s rejected transfer: %w", to, err)
	}
	return nil
}

func (r *Registry) notify(c ctx.Ctx, recv asset.Receiver, operator, from domain.Address, ids []domain.TokenId, quantities []uint64, data []byte, batch bool) (ack, expected asset.Ack, err error) {
	switch {
	case batch:
		ack, err = recv.OnErc1155BatchReceived(c, r.address, operator.ToLower(), from, ids, quantities, data)
		return ack, asset.Erc1155BatchReceivedAck, err
	case r.standard.IsSingleUnit():
		ack, err = recv.OnErc721Received(c, r.address, operator.ToLower(), from, ids[0], data)
		return ack, asset.Erc721ReceivedAck, err
	default:
		ack, err = recv.OnErc1155Received(c, r.address, operator.ToLower(), from, ids[0], quantities[0], data)
		return ack, asset.Erc1155ReceivedAck, err
	}
}

// move must be called with mu held, it changes nothing unless every id can be moved
func (r *Registry) move(from, to domain.Address, ids []domain.TokenId, quantities []uint64) error {
	need := map[domain.TokenId]uint64{}
	for i, id := range ids {
		if quantities[i] == 0 || (r.standard.IsSingleUnit() && quantities[i] != 1) {
			return xerrors.Errorf("quantity %d of %s: %w", quantities[i], id, domain.ErrBadParamInput)
		}
		need[id] += quantities[i]
	}
	for id, n := range need {
		if r.balances[id][from] < n {
			return xerrors.Errorf("%s holds %d of %s, needs %d: %w", from, r.balances[id][from], id, n, domain.ErrTransferFailed)
		}
	}
	for i, id := range ids {
		r.balances[id][from] -= quantities[i]
		if r.balances[id][from] == 0 {
			delete(r.balances[id], from)
		}
		r.credit(to, id, quantities[i])
	}
	return nil
}

func (r *Registry) credit(to domain.Address, id domain.TokenId, quantity uint64) {
	if r.balances[id] == nil {
		r.balances[id] = map[domain.Address]uint64{}
	}
	r.balances[id][to] += quantity
}

// canonical returns a copy of ids in their canonical form
func canonical(ids []domain.TokenId) ([]domain.TokenId, error) {
	out := make([]domain.TokenId, len(ids))
	for i, id := range ids {
		c, err := id.Canonical()
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
