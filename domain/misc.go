package domain

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/xerrors"
)

type Table string

const (
	TableAuctions        Table = "auctions"
	TableCustodyHoldings Table = "custody_holdings"
	TableFundsAccounts   Table = "funds_accounts"
)

type TokenType int

const (
	TokenType721  TokenType = 721
	TokenType1155 TokenType = 1155
)

func (t TokenType) IsValid() bool {
	return t == TokenType721 || t == TokenType1155
}

func (t TokenType) String() string {
	return strconv.Itoa(int(t))
}

// IsSingleUnit reports whether every token id has exactly one unit, as in erc721
func (t TokenType) IsSingleUnit() bool {
	return t == TokenType721
}

type ChainId int32

// Address is a hex encoded account or contract address, kept in lower case
type Address string

const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

func AddressFromCommon(a common.Address) Address {
	return Address(strings.ToLower(a.Hex()))
}

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0 || a.Equals(EmptyAddress)
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

func (a Address) ToCommon() common.Address {
	return common.HexToAddress(string(a))
}

// TokenId is the base 10 representation of an uint256 token id
type TokenId string

func TokenIdFromBigInt(i *big.Int) TokenId {
	return TokenId(i.String())
}

func (i TokenId) String() string {
	return string(i)
}

func (i TokenId) ToBigInt() (*big.Int, error) {
	id, ok := new(big.Int).SetString(i.String(), 10)
	if !ok || id.Sign() < 0 {
		return nil, xerrors.Errorf("invalid token id %q: %w", i, ErrInvalidNumberFormat)
	}
	return id, nil
}

// Canonical is the id without sign or leading zeros, so "01" and "+1" name token "1"
func (i TokenId) Canonical() (TokenId, error) {
	n, err := i.ToBigInt()
	if err != nil {
		return "", err
	}
	return TokenIdFromBigInt(n), nil
}

// ParseWei parses a base 10, non negative amount of wei
func ParseWei(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, xerrors.Errorf("invalid amount %q: %w", s, ErrInvalidNumberFormat)
	}
	return n, nil
}

// CopyBig returns a copy of n, treating nil as zero
func CopyBig(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n)
}
