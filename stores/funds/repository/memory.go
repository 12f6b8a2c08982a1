package repository

import (
	"math/big"
	"sync"

	"golang.org/x/xerrors"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/funds"
)

type account struct {
	balance *big.Int
	frozen  bool
}

type memoryLedger struct {
	mu       sync.Mutex
	accounts map[domain.Address]*account
}

func NewMemory() funds.Ledger {
	return &memoryLedger{accounts: map[domain.Address]*account{}}
}

// get must be called with mu held
func (l *memoryLedger) get(addr domain.Address) *account {
	key := addr.ToLower()
	acc, ok := l.accounts[key]
	if !ok {
		acc = &account{balance: new(big.Int)}
		l.accounts[key] = acc
	}
	return acc
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return xerrors.Errorf("amount %v: %w", amount, domain.ErrBadParamInput)
	}
	return nil
}

func (l *memoryLedger) Credit(c ctx.Ctx, addr domain.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.get(addr)
	acc.balance.Add(acc.balance, amount)
	return nil
}

func (l *memoryLedger) Transfer(c ctx.Ctx, from, to domain.Address, amount *big.Int) error {
	return l.move(from, to, amount, true)
}

func (l *memoryLedger) Revert(c ctx.Ctx, from, to domain.Address, amount *big.Int) error {
	return l.move(to, from, amount, false)
}

func (l *memoryLedger) move(from, to domain.Address, amount *big.Int, checkFrozen bool) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	src, dst := l.get(from), l.get(to)
	if checkFrozen && dst.frozen {
		return xerrors.Errorf("%s: %w", to, domain.ErrRecipientRejected)
	}
	if src.balance.Cmp(amount) < 0 {
		return xerrors.Errorf("%s has %s, needs %s: %w", from, src.balance, amount, domain.ErrInsufficientFunds)
	}
	src.balance.Sub(src.balance, amount)
	dst.balance.Add(dst.balance, amount)
	return nil
}

func (l *memoryLedger) BalanceOf(c ctx.Ctx, addr domain.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.get(addr).balance), nil
}

func (l *memoryLedger) Freeze(c ctx.Ctx, addr domain.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.get(addr).frozen = true
	return nil
}

func (l *memoryLedger) Unfreeze(c ctx.Ctx, addr domain.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.get(addr).frozen = false
	return nil
}
