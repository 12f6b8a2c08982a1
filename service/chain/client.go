package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/x-xyz/auctionhouse/base/backoff"
	bCtx "github.com/x-xyz/auctionhouse/base/ctx"
	baseeth "github.com/x-xyz/auctionhouse/base/ethereum"
	"github.com/x-xyz/auctionhouse/base/log"
)

var (
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrNoSigner         = errors.New("no signing key configured")
)

const defaultMaxConcurrent = 8

type ClientCfg struct {
	RpcUrls map[int32]string
	// PrivateKey signs the transactions, hex encoded
	PrivateKey    string
	MaxConcurrent int
}

type Client interface {
	Call(bCtx.Ctx, int32, common.Address, *big.Int, abi.ABI, string, ...interface{}) ([]interface{}, error)
	// Transact sends a signed transaction calling method and returns its hash without waiting
	Transact(bCtx.Ctx, int32, common.Address, abi.ABI, string, ...interface{}) (common.Hash, error)
	WaitMined(bCtx.Ctx, int32, common.Hash) (*types.Receipt, error)
	// Sender is the address of the signing key
	Sender() common.Address
}

// backend is the part of ethclient the client relies on
type backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, number *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

type clientImpl struct {
	backends map[int32]backend
	key      *ecdsa.PrivateKey
	sender   common.Address
	// nonces are assigned one transaction at a time
	sendMu sync.Mutex
	// clock paces the receipt polling
	clock clock.Clock
}

func NewClient(ctx bCtx.Ctx, cfg *ClientCfg) (Client, error) {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	var anyerr error
	backends := make(map[int32]backend)
	for chainId, url := range cfg.RpcUrls {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			anyerr = err
			ctx.WithFields(log.Fields{
				"err":     err,
				"chainId": chainId,
				"url":     url,
			}).Warn("failed to dial rpc")
			// soft warning, still let the server start
			continue
		}
		backends[chainId] = baseeth.NewThrottledClient(client, maxConcurrent)
	}

	c, err := newClient(backends, cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	return c, anyerr
}

func newClient(backends map[int32]backend, privateKey string) (*clientImpl, error) {
	c := &clientImpl{backends: backends, clock: clock.New()}
	if privateKey != "" {
		key, sender, err := baseeth.LoadKey(privateKey)
		if err != nil {
			return nil, err
		}
		c.key, c.sender = key, sender
	}
	return c, nil
}

func (c *clientImpl) Sender() common.Address {
	return c.sender
}

func (c *clientImpl) backend(chainId int32) (backend, error) {
	b, ok := c.backends[chainId]
	if !ok {
		return nil, ErrUnsupportedChain
	}
	return b, nil
}

func (c *clientImpl) Call(ctx bCtx.Ctx, chainId int32, addr common.Address, blk *big.Int, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	b, err := c.backend(chainId)
	if err != nil {
		return nil, err
	}

	data, err := _abi.Pack(method, params...)
	if err != nil {
		ctx.WithFields(log.Fields{
			"method": method,
			"params": params,
			"err":    err,
		}).Error("abi.Pack failed")
		return nil, err
	}
	res, err := b.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, blk)
	if err != nil {
		ctx.WithField("err", err).Error("client.CallContract failed")
		return nil, err
	}
	unpacked, err := _abi.Unpack(method, res)
	if err != nil {
		ctx.WithField("err", err).Error("abi.Unpack failed")
		return nil, err
	}
	return unpacked, nil
}

func (c *clientImpl) Transact(ctx bCtx.Ctx, chainId int32, to common.Address, _abi abi.ABI, method string, params ...interface{}) (common.Hash, error) {
	if c.key == nil {
		return common.Hash{}, ErrNoSigner
	}
	b, err := c.backend(chainId)
	if err != nil {
		return common.Hash{}, err
	}
	data, err := _abi.Pack(method, params...)
	if err != nil {
		ctx.WithFields(log.Fields{"method": method, "err": err}).Error("abi.Pack failed")
		return common.Hash{}, err
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	nonce, err := b.PendingNonceAt(ctx, c.sender)
	if err != nil {
		ctx.WithField("err", err).Error("client.PendingNonceAt failed")
		return common.Hash{}, err
	}
	gasPrice, err := b.SuggestGasPrice(ctx)
	if err != nil {
		ctx.WithField("err", err).Error("client.SuggestGasPrice failed")
		return common.Hash{}, err
	}
	gas, err := b.EstimateGas(ctx, ethereum.CallMsg{From: c.sender, To: &to, Data: data})
	if err != nil {
		ctx.WithFields(log.Fields{"method": method, "err": err}).Error("client.EstimateGas failed")
		return common.Hash{}, err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    new(big.Int),
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(int64(chainId))), c.key)
	if err != nil {
		ctx.WithField("err", err).Error("types.SignTx failed")
		return common.Hash{}, err
	}
	if err := b.SendTransaction(ctx, signed); err != nil {
		ctx.WithFields(log.Fields{"method": method, "err": err}).Error("client.SendTransaction failed")
		return common.Hash{}, err
	}
	ctx.WithFields(log.Fields{"method": method, "tx": signed.Hash().Hex(), "nonce": nonce}).Info("transaction sent")
	return signed.Hash(), nil
}

func (c *clientImpl) WaitMined(ctx bCtx.Ctx, chainId int32, hash common.Hash) (*types.Receipt, error) {
	b, err := c.backend(chainId)
	if err != nil {
		return nil, err
	}
	bo := backoff.NewExponential(500*time.Millisecond, 15*time.Second, backoff.WithClock(c.clock))
	for {
		receipt, err := b.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			ctx.WithFields(log.Fields{"tx": hash.Hex(), "err": err}).Warn("client.TransactionReceipt failed")
		}
		if err := bo.Wait(ctx); err != nil {
			return nil, err
		}
	}
}
