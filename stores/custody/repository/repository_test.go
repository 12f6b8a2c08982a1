package repository

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/database/mongoclient"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/auction"
	"github.com/x-xyz/auctionhouse/domain/custody"
	"github.com/x-xyz/auctionhouse/service/query"
)

const (
	mockRegistry  = domain.Address("0x00000000000000000000000000000000000000aa")
	mockDepositor = domain.Address("0x00000000000000000000000000000000000000d1")
)

type ledgerSuite struct {
	suite.Suite
	newLedger func() custody.Ledger
	ledger    custody.Ledger
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
	suite.Run(t, &ledgerSuite{newLedger: func() custody.Ledger {
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

func holding(id auction.Id, tokenId string, standard domain.TokenType, qty uint64) custody.Holding {
	return custody.Holding{
		AuctionId: id,
		Registry:  mockRegistry,
		TokenId:   domain.TokenId(tokenId),
		Standard:  standard,
		Quantity:  qty,
		Depositor: mockDepositor,
		CreatedAt: time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *ledgerSuite) TestRecordAndRelease() {
	c := ctx.Background()
	h := holding(0, "1", domain.TokenType721, 1)
	s.Require().NoError(s.ledger.Record(c, h))

	got, err := s.ledger.FindOne(c, 0)
	s.Require().NoError(err)
	s.Equal(h, *got)

	released, err := s.ledger.Release(c, 0)
	s.Require().NoError(err)
	s.Equal(h, *released)

	_, err = s.ledger.Release(c, 0)
	s.ErrorIs(err, domain.ErrNotFound)
	_, err = s.ledger.FindOne(c, 0)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *ledgerSuite) TestSingleUnitHeldOnce() {
	c := ctx.Background()
	s.Require().NoError(s.ledger.Record(c, holding(0, "1", domain.TokenType721, 1)))
	s.ErrorIs(s.ledger.Record(c, holding(1, "1", domain.TokenType721, 1)), domain.ErrAlreadyInCustody)
	s.ErrorIs(s.ledger.Record(c, holding(0, "2", domain.TokenType721, 1)), domain.ErrAlreadyInCustody)

	_, err := s.ledger.Release(c, 0)
	s.Require().NoError(err)
	s.NoError(s.ledger.Record(c, holding(1, "1", domain.TokenType721, 1)))
}

func (s *ledgerSuite) TestHoldingOf() {
	c := ctx.Background()
	s.Require().NoError(s.ledger.Record(c, holding(2, "5", domain.TokenType1155, 3)))
	s.Require().NoError(s.ledger.Record(c, holding(0, "5", domain.TokenType1155, 10)))
	s.Require().NoError(s.ledger.Record(c, holding(1, "6", domain.TokenType1155, 1)))

	sum, err := s.ledger.HoldingOf(c, "0x00000000000000000000000000000000000000AA", "5")
	s.Require().NoError(err)
	s.Equal(&custody.Summary{
		Registry:   mockRegistry,
		TokenId:    "5",
		Quantity:   13,
		AuctionIds: []auction.Id{0, 2},
	}, sum)

	empty, err := s.ledger.HoldingOf(c, mockRegistry, "9")
	s.Require().NoError(err)
	s.Equal(uint64(0), empty.Quantity)
	s.Empty(empty.AuctionIds)
}
