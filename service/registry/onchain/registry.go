package onchain

import (
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/xerrors"

	baseabi "github.com/x-xyz/auctionhouse/base/abi"
	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/log"
	"github.com/x-xyz/auctionhouse/base/metrics"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/service/chain"
	"github.com/x-xyz/auctionhouse/service/chain/contract"
)

const defaultMineTimeout = 3 * time.Minute

// Registry releases assets held by the engine key on an evm chain
type Registry struct {
	chain       chain.Client
	chainId     domain.ChainId
	address     domain.Address
	standard    domain.TokenType
	erc721      *contract.Erc721
	erc1155     *contract.Erc1155
	mineTimeout time.Duration
	met         metrics.Service
}

func New(client chain.Client, chainId domain.ChainId, address domain.Address, standard domain.TokenType, mineTimeout time.Duration) *Registry {
	if mineTimeout <= 0 {
		mineTimeout = defaultMineTimeout
	}
	return &Registry{
		chain:       client,
		chainId:     chainId,
		address:     address.ToLower(),
		standard:    standard,
		erc721:      contract.NewErc721(client),
		erc1155:     contract.NewErc1155(client),
		mineTimeout: mineTimeout,
		met:         metrics.New("registry.onchain"),
	}
}

func (r *Registry) Address() domain.Address {
	return r.address
}

func (r *Registry) Standard() domain.TokenType {
	return r.standard
}

// BalanceOf reads ownerOf for erc721 and balanceOf for erc1155, balances beyond uint64 are capped
func (r *Registry) BalanceOf(c ctx.Ctx, owner domain.Address, tokenId domain.TokenId) (uint64, error) {
	id, err := tokenId.ToBigInt()
	if err != nil {
		return 0, err
	}
	chainId := int32(r.chainId)
	if r.standard.IsSingleUnit() {
		holder, err := r.erc721.OwnerOf(c, chainId, r.address.ToCommon(), id)
		if err != nil {
			return 0, xerrors.Errorf("ownerOf %s: %w", tokenId, err)
		}
		if domain.AddressFromCommon(holder).Equals(owner) {
			return 1, nil
		}
		return 0, nil
	}
	n, err := r.erc1155.BalanceOf(c, chainId, r.address.ToCommon(), owner.ToCommon(), id)
	if err != nil {
		return 0, xerrors.Errorf("balanceOf %s: %w", tokenId, err)
	}
	if !n.IsUint64() {
		return math.MaxUint64, nil
	}
	return n.Uint64(), nil
}

// Transfer sends safeTransferFrom and waits until it is mined with the expected transfer log
func (r *Registry) Transfer(c ctx.Ctx, from, to domain.Address, tokenId domain.TokenId, quantity uint64) error {
	defer r.met.BumpTime("transfer.time", "standard", r.standard.String()).End()

	if !from.Equals(domain.AddressFromCommon(r.chain.Sender())) {
		return xerrors.Errorf("%s is not the signer: %w", from, domain.ErrTransferFailed)
	}
	id, err := tokenId.ToBigInt()
	if err != nil {
		return err
	}
	value := new(big.Int).SetUint64(quantity)

	chainId := int32(r.chainId)
	var hash common.Hash
	if r.standard.IsSingleUnit() {
		hash, err = r.erc721.SafeTransferFrom(c, chainId, r.address.ToCommon(), from.ToCommon(), to.ToCommon(), id)
	} else {
		hash, err = r.erc1155.SafeTransferFrom(c, chainId, r.address.ToCommon(), from.ToCommon(), to.ToCommon(), id, value, nil)
	}
	if err != nil {
		r.met.BumpSum("transfer.err", 1, "reason", "send")
		return xerrors.Errorf("send transfer: %v: %w", err, domain.ErrTransferFailed)
	}

	wc, cancel := ctx.WithTimeout(c, r.mineTimeout)
	defer cancel()
	receipt, err := r.chain.WaitMined(wc, chainId, hash)
	if err != nil {
		r.met.BumpSum("transfer.err", 1, "reason", "wait")
		return xerrors.Errorf("wait %s: %v: %w", hash.Hex(), err, domain.ErrTransferFailed)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		r.met.BumpSum("transfer.err", 1, "reason", "reverted")
		return xerrors.Errorf("tx %s reverted: %w", hash.Hex(), domain.ErrTransferFailed)
	}
	if !r.hasTransferLog(receipt, from, to, id, value) {
		r.met.BumpSum("transfer.err", 1, "reason", "nolog")
		return xerrors.Errorf("tx %s has no transfer log: %w", hash.Hex(), domain.ErrTransferFailed)
	}

	c.WithFields(log.Fields{"tx": hash.Hex(), "tokenId": tokenId, "to": to}).Info("asset transferred")
	return nil
}

func (r *Registry) hasTransferLog(receipt *types.Receipt, from, to domain.Address, id, value *big.Int) bool {
	for _, l := range receipt.Logs {
		if !domain.AddressFromCommon(l.Address).Equals(r.address) {
			continue
		}
		switch {
		case r.standard.IsSingleUnit() && baseabi.IsErc721TransferLog(l):
			t := baseabi.ToErc721TransferLog(l)
			if domain.AddressFromCommon(t.From).Equals(from) && domain.AddressFromCommon(t.To).Equals(to) && t.TokenId.Cmp(id) == 0 {
				return true
			}
		case !r.standard.IsSingleUnit() && baseabi.IsErc1155TransferSingleLog(l):
			t, err := baseabi.ToErc1155TransferSingleLog(l)
			if err != nil {
				continue
			}
			if domain.AddressFromCommon(t.From).Equals(from) && domain.AddressFromCommon(t.To).Equals(to) && t.Id.Cmp(id) == 0 && t.Value.Cmp(value) == 0 {
				return true
			}
		}
	}
	return false
}
