package contract

import (
	"math/big"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	baseabi "github.com/x-xyz/auctionhouse/base/abi"
	bCtx "github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/service/chain"
)

type Erc721 struct {
	chainService      chain.Client
	abi               ethabi.ABI
	erc721InterfaceId [4]byte
}

func NewErc721(chainService chain.Client) *Erc721 {
	var interfaceId [4]byte
	copy(interfaceId[:], common.Hex2Bytes("80ac58cd"))
	return &Erc721{
		abi:               baseabi.ERC721TokenABI,
		chainService:      chainService,
		erc721InterfaceId: interfaceId,
	}
}

func (e *Erc721) Supports721Interface(ctx bCtx.Ctx, chainId int32, addr common.Address) (bool, error) {
	unpacked, err := e.chainService.Call(ctx, chainId, addr, nil, e.abi, "supportsInterface", e.erc721InterfaceId)
	if err != nil {
		return false, err
	}
	return unpacked[0].(bool), nil
}

func (e *Erc721) OwnerOf(ctx bCtx.Ctx, chainId int32, addr common.Address, tokenId *big.Int) (common.Address, error) {
	unpacked, err := e.chainService.Call(ctx, chainId, addr, nil, e.abi, "ownerOf", tokenId)
	if err != nil {
		return common.Address{}, err
	}
	return unpacked[0].(common.Address), nil
}

// SafeTransferFrom sends the transfer signed by the chain client key, from must be its sender
// or an address that approved it.
func (e *Erc721) SafeTransferFrom(ctx bCtx.Ctx, chainId int32, addr, from, to common.Address, tokenId *big.Int) (common.Hash, error) {
	return e.chainService.Transact(ctx, chainId, addr, e.abi, "safeTransferFrom", from, to, tokenId)
}
