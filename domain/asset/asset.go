package asset

import (
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/domain"
)

// Ack is the selector a receiver returns to accept a safe transfer
type Ack [4]byte

var (
	Erc721ReceivedAck       = selector("onERC721Received(address,address,uint256,bytes)")
	Erc1155ReceivedAck      = selector("onERC1155Received(address,address,uint256,uint256,bytes)")
	Erc1155BatchReceivedAck = selector("onERC1155BatchReceived(address,address,uint256[],uint256[],bytes)")
)

var emptyAck Ack

func selector(sig string) Ack {
	var ack Ack
	copy(ack[:], crypto.Keccak256([]byte(sig))[:4])
	return ack
}

// Registry is the ownership ledger of one collection, erc721 or erc1155 alike
type Registry interface {
	Address() domain.Address
	Standard() domain.TokenType
	// BalanceOf is the quantity of tokenId owner holds, 0 or 1 for erc721
	BalanceOf(c ctx.Ctx, owner domain.Address, tokenId domain.TokenId) (uint64, error)
	// Transfer moves quantity units of tokenId, quantity is always 1 for erc721
	Transfer(c ctx.Ctx, from, to domain.Address, tokenId domain.TokenId, quantity uint64) error
}

// Reverter is implemented by registries that can take back a Transfer of an unfinished
// call. The move back does not notify receivers.
type Reverter interface {
	Revert(c ctx.Ctx, from, to domain.Address, tokenId domain.TokenId, quantity uint64) error
}

type Directory interface {
	// Get returns domain.ErrUnknownRegistry for addresses that are not registered
	Get(address domain.Address) (Registry, error)
}

// Receiver is notified by a registry when tokens are safely transferred to it.
// A registry must undo the transfer unless the matching ack is returned without error.
type Receiver interface {
	OnErc721Received(c ctx.Ctx, registry, operator, from domain.Address, tokenId domain.TokenId, data []byte) (Ack, error)
	OnErc1155Received(c ctx.Ctx, registry, operator, from domain.Address, id domain.TokenId, value uint64, data []byte) (Ack, error)
	OnErc1155BatchReceived(c ctx.Ctx, registry, operator, from domain.Address, ids []domain.TokenId, values []uint64, data []byte) (Ack, error)
}

func (a Ack) IsEmpty() bool {
	return a == emptyAck
}
