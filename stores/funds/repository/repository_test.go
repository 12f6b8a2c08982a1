package repository

import (
	"math/big"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/database/mongoclient"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/funds"
	"github.com/x-xyz/auctionhouse/service/query"
)

const (
	alice = domain.Address("0x00000000000000000000000000000000000000a1")
	bob   = domain.Address("0x00000000000000000000000000000000000000b0")
)

type ledgerSuite struct {
	suite.Suite
	newLedger func() funds.Ledger
	ledger    funds.Ledger
}

func TestMemoryLedgerSuite(t *testing.T) {
	suite.Run(t, &ledgerSuite{newLedger: NewMemory})
}

func TestMongoLedgerSuite(t *testing.T) {
	uri := os.Getenv("AUCTIONHOUSE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("AUCTIONHOUSE_TEST_MONGO_URI not set")
	}
	client := mongoclient.MustConnect(mongoclient.Config{URI: uri, AuthDBName: "admin", DbName: "test", PoolSizeMultiplier: 2})
	q := query.New(client)
	suite.Run(t, &ledgerSuite{newLedger: func() funds.Ledger {
		c := ctx.Background()
		if err := client.Database("test").Drop(c); err != nil {
			t.Fatal(err)
		}
		if err := EnsureIndexes(c, q); err != nil {
			t.Fatal(err)
		}
		return NewMongo(q)
	}})
}

func (s *ledgerSuite) SetupTest() {
	s.ledger = s.newLedger()
}

func (s *ledgerSuite) balance(addr domain.Address) int64 {
	b, err := s.ledger.BalanceOf(ctx.Background(), addr)
	s.Require().NoError(err)
	return b.Int64()
}

func (s *ledgerSuite) TestCredit() {
	c := ctx.Background()
	s.Equal(int64(0), s.balance(alice))
	s.NoError(s.ledger.Credit(c, alice, big.NewInt(100)))
	s.NoError(s.ledger.Credit(c, "0x00000000000000000000000000000000000000A1", big.NewInt(5)))
	s.Equal(int64(105), s.balance(alice))
	s.ErrorIs(s.ledger.Credit(c, alice, big.NewInt(-1)), domain.ErrBadParamInput)
}

func (s *ledgerSuite) TestTransfer() {
	c := ctx.Background()
	s.Require().NoError(s.ledger.Credit(c, alice, big.NewInt(100)))

	s.NoError(s.ledger.Transfer(c, alice, bob, big.NewInt(60)))
	s.Equal(int64(40), s.balance(alice))
	s.Equal(int64(60), s.balance(bob))

	s.ErrorIs(s.ledger.Transfer(c, alice, bob, big.NewInt(41)), domain.ErrInsufficientFunds)
	s.Equal(int64(40), s.balance(alice))
	s.Equal(int64(60), s.balance(bob))
}

func (s *ledgerSuite) TestFrozenRecipient() {
	c := ctx.Background()
	s.Require().NoError(s.ledger.Credit(c, alice, big.NewInt(100)))
	s.Require().NoError(s.ledger.Freeze(c, bob))

	s.ErrorIs(s.ledger.Transfer(c, alice, bob, big.NewInt(10)), domain.ErrRecipientRejected)
	s.Equal(int64(100), s.balance(alice))

	s.Require().NoError(s.ledger.Unfreeze(c, bob))
	s.NoError(s.ledger.Transfer(c, alice, bob, big.NewInt(10)))
	s.Equal(int64(10), s.balance(bob))
}

func (s *ledgerSuite) TestRevertIgnoresFreeze() {
	c := ctx.Background()
	s.Require().NoError(s.ledger.Credit(c, alice, big.NewInt(100)))
	s.Require().NoError(s.ledger.Transfer(c, alice, bob, big.NewInt(30)))
	s.Require().NoError(s.ledger.Freeze(c, alice))

	s.NoError(s.ledger.Revert(c, alice, bob, big.NewInt(30)))
	s.Equal(int64(100), s.balance(alice))
	s.Equal(int64(0), s.balance(bob))

	s.ErrorIs(s.ledger.Revert(c, alice, bob, big.NewInt(1)), domain.ErrInsufficientFunds)
}
