package abi

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func TestErc721TransferLog(t *testing.T) {
	req := require.New(t)
	from := common.HexToAddress("0x00000000000000000000000000000000000000d1")
	to := common.HexToAddress("0x00000000000000000000000000000000000000b1")
	log := &types.Log{Topics: []common.Hash{
		ERC721TokenABI.Events["Transfer"].ID,
		common.BytesToHash(from.Bytes()),
		common.BytesToHash(to.Bytes()),
		common.BigToHash(big.NewInt(19)),
	}}

	req.True(IsErc721TransferLog(log))
	req.False(IsErc1155TransferSingleLog(log))
	parsed := ToErc721TransferLog(log)
	req.Equal(from, parsed.From)
	req.Equal(to, parsed.To)
	req.Equal(int64(19), parsed.TokenId.Int64())
}

func TestErc1155TransferSingleLog(t *testing.T) {
	req := require.New(t)
	operator := common.HexToAddress("0x00000000000000000000000000000000000000e0")
	from := common.HexToAddress("0x00000000000000000000000000000000000000d1")
	to := common.HexToAddress("0x00000000000000000000000000000000000000b1")
	data, err := ERC1155TokenABI.Events["TransferSingle"].Inputs.NonIndexed().Pack(big.NewInt(4), big.NewInt(2))
	req.NoError(err)
	log := &types.Log{
		Topics: []common.Hash{
			ERC1155TokenABI.Events["TransferSingle"].ID,
			common.BytesToHash(operator.Bytes()),
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data: data,
	}

	req.True(IsErc1155TransferSingleLog(log))
	parsed, err := ToErc1155TransferSingleLog(log)
	req.NoError(err)
	req.Equal(operator, parsed.Operator)
	req.Equal(to, parsed.To)
	req.Equal(int64(4), parsed.Id.Int64())
	req.Equal(int64(2), parsed.Value.Int64())
}

func TestSafeTransferFromPack(t *testing.T) {
	req := require.New(t)
	from := common.HexToAddress("0x00000000000000000000000000000000000000d1")
	to := common.HexToAddress("0x00000000000000000000000000000000000000b1")

	data, err := ERC721TokenABI.Pack("safeTransferFrom", from, to, big.NewInt(1))
	req.NoError(err)
	req.Equal(common.Hex2Bytes("42842e0e"), data[:4])

	data, err = ERC1155TokenABI.Pack("safeTransferFrom", from, to, big.NewInt(1), big.NewInt(2), []byte{})
	req.NoError(err)
	req.Equal(common.Hex2Bytes("f242432a"), data[:4])
}
