package usecase

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/asset"
	"github.com/x-xyz/auctionhouse/domain/auction"
	"github.com/x-xyz/auctionhouse/domain/custody"
	"github.com/x-xyz/auctionhouse/domain/funds"
	"github.com/x-xyz/auctionhouse/service/notify"
	"github.com/x-xyz/auctionhouse/service/registry"
	"github.com/x-xyz/auctionhouse/service/registry/memory"
	auctionrepo "github.com/x-xyz/auctionhouse/stores/auction/repository"
	custodyrepo "github.com/x-xyz/auctionhouse/stores/custody/repository"
	fundsrepo "github.com/x-xyz/auctionhouse/stores/funds/repository"
)

const (
	engineAddr = domain.Address("0x00000000000000000000000000000000000000e0")
	depositor  = domain.Address("0x00000000000000000000000000000000000000d1")
	alice      = domain.Address("0x00000000000000000000000000000000000000a1")
	bob        = domain.Address("0x00000000000000000000000000000000000000b2")
	carol      = domain.Address("0x00000000000000000000000000000000000000c3")
	token721   = domain.Address("0x0000000000000000000000000000000000000721")
	token1155  = domain.Address("0x0000000000000000000000000000000000001155")
	unknownReg = domain.Address("0x0000000000000000000000000000000000000bad")
)

var startTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// finney is a thousandth of an ether
func finney(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e15))
}

// contract is an account that runs code when it receives an erc721 token
type contract struct {
	onReceive func(c ctx.Ctx) error
}

func (r *contract) OnErc721Received(c ctx.Ctx, registry, operator, from domain.Address, tokenId domain.TokenId, data []byte) (asset.Ack, error) {
	if err := r.onReceive(c); err != nil {
		return asset.Ack{}, err
	}
	return asset.Erc721ReceivedAck, nil
}

func (r *contract) OnErc1155Received(ctx.Ctx, domain.Address, domain.Address, domain.Address, domain.TokenId, uint64, []byte) (asset.Ack, error) {
	return asset.Ack{}, errors.New("unsupported")
}

func (r *contract) OnErc1155BatchReceived(ctx.Ctx, domain.Address, domain.Address, domain.Address, []domain.TokenId, []uint64, []byte) (asset.Ack, error) {
	return asset.Ack{}, errors.New("unsupported")
}

type engineSuite struct {
	suite.Suite
	c        ctx.Ctx
	clock    *clock.Mock
	repo     auction.Repo
	custody  custody.Ledger
	funds    funds.Ledger
	erc721   *memory.Registry
	erc1155  *memory.Registry
	recorder *notify.Recorder
	im       Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, &engineSuite{c: ctx.Background()})
}

func (s *engineSuite) SetupTest() {
	s.clock = clock.NewMock()
	s.clock.Set(startTime)
	s.repo = auctionrepo.NewMemory()
	s.custody = custodyrepo.NewMemory()
	s.funds = fundsrepo.NewMemory()
	s.erc721 = memory.New(token721, domain.TokenType721)
	s.erc1155 = memory.New(token1155, domain.TokenType1155)
	s.recorder = notify.NewRecorder()

	s.im = New(&Config{
		Repo:       s.repo,
		Custody:    s.custody,
		Funds:      s.funds,
		Registries: registry.NewDirectory(s.erc721, s.erc1155),
		Publisher:  s.recorder,
		Clock:      s.clock,
		Address:    engineAddr,
	})
	s.erc721.RegisterReceiver(engineAddr, s.im)
	s.erc1155.RegisterReceiver(engineAddr, s.im)

	s.Require().NoError(s.erc721.Mint(depositor, "1", 1))
	s.Require().NoError(s.erc721.Mint(depositor, "2", 1))
	s.Require().NoError(s.erc1155.Mint(depositor, "7", 10))
	s.Require().NoError(s.erc1155.Mint(depositor, "8", 5))
	for _, addr := range []domain.Address{alice, bob} {
		s.Require().NoError(s.funds.Credit(s.c, addr, finney(10000)))
	}
}

func (s *engineSuite) deposit721(tokenId domain.TokenId, data []byte) auction.Id {
	s.Require().NoError(s.erc721.SafeTransferFrom(s.c, depositor, depositor, engineAddr, tokenId, 1, data))
	n, err := s.repo.Count(s.c)
	s.Require().NoError(err)
	s.recorder.Reset()
	return auction.Id(n - 1)
}

func (s *engineSuite) balance(addr domain.Address) *big.Int {
	b, err := s.funds.BalanceOf(s.c, addr)
	s.Require().NoError(err)
	return b
}

// held is the registry balance of addr
func (s *engineSuite) held(r *memory.Registry, addr domain.Address, id domain.TokenId) uint64 {
	n, err := r.BalanceOf(s.c, addr, id)
	s.Require().NoError(err)
	return n
}

func (s *engineSuite) count() uint64 {
	n, err := s.repo.Count(s.c)
	s.Require().NoError(err)
	return n
}

func (s *engineSuite) TestDepositErc721() {
	s.Require().NoError(s.erc721.SafeTransferFrom(s.c, depositor, depositor, engineAddr, "1", 1, nil))

	a, err := s.im.GetAuction(s.c, 0)
	s.Require().NoError(err)
	s.Equal(&auction.Auction{
		Id:            0,
		Registry:      token721,
		TokenId:       "1",
		Standard:      domain.TokenType721,
		Quantity:      1,
		StartingPrice: finney(50),
		Depositor:     depositor,
		LatestBidder:  depositor,
		LatestBid:     new(big.Int),
		CreatedAt:     startTime,
		EndTime:       startTime.Add(24 * time.Hour),
	}, a)

	owner, err := s.erc721.OwnerOf("1")
	s.Require().NoError(err)
	s.Equal(engineAddr, owner)

	summary, err := s.im.HoldingOf(s.c, token721, "1")
	s.Require().NoError(err)
	s.Equal(uint64(1), summary.Quantity)
	s.Equal([]auction.Id{0}, summary.AuctionIds)

	events := s.recorder.Events()
	s.Require().Len(events, 1)
	s.Equal(auction.EventAuctionCreated, events[0].Type)
	s.Equal(auction.Id(0), events[0].AuctionId)
	s.NotEmpty(events[0].EventId)
	s.Equal(startTime, events[0].Time)
}

func (s *engineSuite) TestDepositStartingPrice() {
	tests := []struct {
		Desc  string
		Data  []byte
		Price *big.Int
	}{
		{Desc: "empty", Data: nil, Price: finney(50)},
		{Desc: "zero", Data: []byte{0}, Price: finney(50)},
		{Desc: "one ether", Data: finney(1000).Bytes(), Price: finney(1000)},
		{Desc: "max uint64", Data: new(big.Int).SetUint64(^uint64(0)).Bytes(), Price: new(big.Int).SetUint64(^uint64(0))},
	}
	for i, t := range tests {
		id := s.deposit721(domain.TokenId("1"), t.Data)
		s.Equal(auction.Id(i), id, t.Desc)
		price, err := s.im.CurrentBidPrice(s.c, id)
		s.Require().NoError(err, t.Desc)
		s.Equal(t.Price, price, t.Desc)

		// bring the token back for the next deposit
		s.Require().NoError(s.erc721.Revert(s.c, depositor, engineAddr, "1", 1))
		_, err = s.custody.Release(s.c, id)
		s.Require().NoError(err)
	}
}

func (s *engineSuite) TestDepositOutOfRange() {
	err := s.erc721.SafeTransferFrom(s.c, depositor, depositor, engineAddr, "1", 1, finney(19000).Bytes())
	s.ErrorIs(err, domain.ErrOutOfRange)

	owner, err := s.erc721.OwnerOf("1")
	s.Require().NoError(err)
	s.Equal(depositor, owner)
	s.Zero(s.count())
	s.Empty(s.recorder.Events())
}

func (s *engineSuite) TestDepositErc1155() {
	s.Require().NoError(s.erc1155.SafeTransferFrom(s.c, depositor, depositor, engineAddr, "7", 4, nil))

	a, err := s.im.GetAuction(s.c, 0)
	s.Require().NoError(err)
	s.Equal(uint64(4), a.Quantity)
	s.Equal(domain.TokenType1155, a.Standard)
	s.Equal(uint64(4), s.held(s.erc1155, engineAddr, "7"))
	s.Equal(uint64(6), s.held(s.erc1155, depositor, "7"))
}

func (s *engineSuite) TestDepositBatch() {
	s.Require().NoError(s.erc1155.SafeBatchTransferFrom(s.c, depositor, depositor, engineAddr, []domain.TokenId{"7", "8"}, []uint64{3, 5}, finney(100).Bytes()))

	s.Equal(uint64(2), s.count())
	for i, want := range []struct {
		TokenId  domain.TokenId
		Quantity uint64
	}{{"7", 3}, {"8", 5}} {
		a, err := s.im.GetAuction(s.c, auction.Id(i))
		s.Require().NoError(err)
		s.Equal(want.TokenId, a.TokenId)
		s.Equal(want.Quantity, a.Quantity)
		s.Equal(finney(100), a.StartingPrice)
	}

	events := s.recorder.Events()
	s.Require().Len(events, 2)
	s.Equal(auction.Id(0), events[0].AuctionId)
	s.Equal(auction.Id(1), events[1].AuctionId)
}

func (s *engineSuite) TestDepositBatchAllOrNothing() {
	_, err := s.im.OnErc1155BatchReceived(s.c, token1155, depositor, depositor, []domain.TokenId{"7", "8"}, []uint64{3, 0}, nil)
	s.ErrorIs(err, domain.ErrBadParamInput)

	s.Zero(s.count())
	summary, err := s.im.HoldingOf(s.c, token1155, "7")
	s.Require().NoError(err)
	s.Zero(summary.Quantity)
	s.Empty(s.recorder.Events())

	_, err = s.im.OnErc1155BatchReceived(s.c, token1155, depositor, depositor, []domain.TokenId{"7"}, []uint64{3, 1}, nil)
	s.ErrorIs(err, domain.ErrBadParamInput)
}

func (s *engineSuite) TestDepositRejected() {
	tests := []struct {
		Desc string
		Call func() (asset.Ack, error)
		Err  error
	}{
		{
			Desc: "unknown registry",
			Call: func() (asset.Ack, error) {
				return s.im.OnErc721Received(s.c, unknownReg, depositor, depositor, "1", nil)
			},
			Err: domain.ErrUnknownRegistry,
		},
		{
			Desc: "standard mismatch",
			Call: func() (asset.Ack, error) {
				return s.im.OnErc721Received(s.c, token1155, depositor, depositor, "7", nil)
			},
			Err: domain.ErrUnknownRegistry,
		},
		{
			Desc: "zero quantity",
			Call: func() (asset.Ack, error) {
				return s.im.OnErc1155Received(s.c, token1155, depositor, depositor, "7", 0, nil)
			},
			Err: domain.ErrBadParamInput,
		},
		{
			Desc: "bad token id",
			Call: func() (asset.Ack, error) {
				return s.im.OnErc721Received(s.c, token721, depositor, depositor, "abc", nil)
			},
			Err: domain.ErrBadParamInput,
		},
	}
	for _, t := range tests {
		ack, err := t.Call()
		s.ErrorIs(err, t.Err, t.Desc)
		s.True(ack.IsEmpty(), t.Desc)
	}
	s.Zero(s.count())
}

func (s *engineSuite) TestDepositTwiceInCustody() {
	s.deposit721("1", nil)

	for _, id := range []domain.TokenId{"1", "01", "+1"} {
		ack, err := s.im.OnErc721Received(s.c, token721, depositor, depositor, id, nil)
		s.ErrorIs(err, domain.ErrAlreadyInCustody, id)
		s.True(ack.IsEmpty(), id)
	}
	s.Equal(uint64(1), s.count())
	s.Empty(s.recorder.Events())
}

func (s *engineSuite) TestDepositNotHeld() {
	ack, err := s.im.OnErc721Received(s.c, token721, depositor, depositor, "1", nil)
	s.ErrorIs(err, domain.ErrAssetNotHeld)
	s.True(ack.IsEmpty())

	s.Require().NoError(s.erc1155.SafeTransferFrom(s.c, depositor, depositor, engineAddr, "7", 4, nil))
	s.recorder.Reset()
	_, err = s.im.OnErc1155Received(s.c, token1155, depositor, depositor, "7", 1, nil)
	s.ErrorIs(err, domain.ErrAssetNotHeld)
	_, err = s.im.OnErc1155BatchReceived(s.c, token1155, depositor, depositor, []domain.TokenId{"8", "7"}, []uint64{1, 1}, nil)
	s.ErrorIs(err, domain.ErrAssetNotHeld)

	s.Equal(uint64(1), s.count())
	summary, err := s.im.HoldingOf(s.c, token1155, "7")
	s.Require().NoError(err)
	s.Equal(uint64(4), summary.Quantity)
	summary, err = s.im.HoldingOf(s.c, token1155, "8")
	s.Require().NoError(err)
	s.Zero(summary.Quantity)
	s.Empty(s.recorder.Events())

	// nothing to settle for a notification that was refused
	_, err = s.im.Settle(s.c, 1)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *engineSuite) TestDepositCanonicalTokenId() {
	s.Require().NoError(s.erc1155.SafeTransferFrom(s.c, depositor, depositor, engineAddr, "+7", 4, nil))

	a, err := s.im.GetAuction(s.c, 0)
	s.Require().NoError(err)
	s.Equal(domain.TokenId("7"), a.TokenId)

	for _, id := range []domain.TokenId{"7", "07", "+7"} {
		summary, err := s.im.HoldingOf(s.c, token1155, id)
		s.Require().NoError(err, id)
		s.Equal(domain.TokenId("7"), summary.TokenId, id)
		s.Equal(uint64(4), summary.Quantity, id)
	}

	_, err = s.im.HoldingOf(s.c, token1155, "seven")
	s.ErrorIs(err, domain.ErrBadParamInput)
}

func (s *engineSuite) TestBidRejected() {
	id := s.deposit721("1", nil)

	_, err := s.im.Bid(s.c, id+1, alice, finney(50))
	s.ErrorIs(err, domain.ErrNotFound)

	_, err = s.im.Bid(s.c, id, alice, finney(49))
	s.ErrorIs(err, domain.ErrBidTooLow)

	_, err = s.im.Bid(s.c, id, carol, finney(50))
	s.ErrorIs(err, domain.ErrInsufficientFunds)

	s.clock.Add(auction.Duration)
	_, err = s.im.Bid(s.c, id, alice, finney(49))
	s.ErrorIs(err, domain.ErrAuctionInactive)

	s.Equal(finney(10000), s.balance(alice))
	s.Zero(s.balance(engineAddr).Sign())
	s.Empty(s.recorder.Events())
}

func (s *engineSuite) TestBidRefundsPreviousBidder() {
	id := s.deposit721("1", nil)

	a, err := s.im.Bid(s.c, id, alice, finney(100))
	s.Require().NoError(err)
	s.Equal(alice, a.LatestBidder)
	s.Equal(finney(9900), s.balance(alice))
	s.Equal(finney(100), s.balance(engineAddr))

	_, err = s.im.Bid(s.c, id, bob, finney(109))
	s.ErrorIs(err, domain.ErrBidTooLow)

	a, err = s.im.Bid(s.c, id, bob, finney(110))
	s.Require().NoError(err)
	s.Equal(bob, a.LatestBidder)
	s.Equal(finney(110), a.LatestBid)
	s.Equal(finney(10000), s.balance(alice))
	s.Equal(finney(9890), s.balance(bob))
	s.Equal(finney(110), s.balance(engineAddr))

	s.Equal([]auction.EventType{auction.EventBidAccepted, auction.EventBidAccepted}, s.recorder.Types())
	last := s.recorder.Events()[1]
	s.Equal(finney(110).String(), last.Amount)
	s.Equal(bob, last.Bidder)
}

func (s *engineSuite) TestCurrentBidPrice() {
	id := s.deposit721("1", nil)

	price, err := s.im.CurrentBidPrice(s.c, id)
	s.Require().NoError(err)
	s.Equal(finney(50), price)

	_, err = s.im.Bid(s.c, id, alice, finney(200))
	s.Require().NoError(err)
	price, err = s.im.CurrentBidPrice(s.c, id)
	s.Require().NoError(err)
	s.Equal(finney(220), price)

	_, err = s.im.CurrentBidPrice(s.c, id+1)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *engineSuite) TestBidAntiSnipe() {
	id := s.deposit721("1", nil)
	end := startTime.Add(auction.Duration)

	// exactly the grace period left
	s.clock.Set(end.Add(-auction.BiddingGracePeriod))
	a, err := s.im.Bid(s.c, id, alice, finney(100))
	s.Require().NoError(err)
	s.Equal(end, a.EndTime)
	s.Equal([]auction.EventType{auction.EventBidAccepted}, s.recorder.Types())

	s.recorder.Reset()
	s.clock.Add(time.Second)
	a, err = s.im.Bid(s.c, id, bob, finney(110))
	s.Require().NoError(err)
	s.Equal(end.Add(time.Second), a.EndTime)
	s.Equal([]auction.EventType{auction.EventAuctionExtended, auction.EventBidAccepted}, s.recorder.Types())
	s.Equal(end.Add(time.Second), *s.recorder.Events()[0].EndTime)

	// the extension keeps the auction open past its original end
	s.clock.Set(end)
	_, err = s.im.Bid(s.c, id, alice, finney(121))
	s.Require().NoError(err)
	_, err = s.im.Settle(s.c, id)
	s.ErrorIs(err, domain.ErrNotComplete)
}

func (s *engineSuite) TestBidRefundRejected() {
	id := s.deposit721("1", nil)
	_, err := s.im.Bid(s.c, id, alice, finney(100))
	s.Require().NoError(err)
	s.recorder.Reset()

	s.Require().NoError(s.funds.Freeze(s.c, alice))
	s.clock.Set(startTime.Add(auction.Duration - time.Minute))
	_, err = s.im.Bid(s.c, id, bob, finney(200))
	s.ErrorIs(err, domain.ErrRefundFailed)

	a, err := s.im.GetAuction(s.c, id)
	s.Require().NoError(err)
	s.Equal(alice, a.LatestBidder)
	s.Equal(finney(100), a.LatestBid)
	s.Equal(startTime.Add(auction.Duration), a.EndTime)
	s.Equal(finney(9900), s.balance(alice))
	s.Equal(finney(10000), s.balance(bob))
	s.Equal(finney(100), s.balance(engineAddr))
	s.Empty(s.recorder.Events())
}

func (s *engineSuite) TestSettleRejected() {
	id := s.deposit721("1", nil)

	_, err := s.im.Settle(s.c, id+1)
	s.ErrorIs(err, domain.ErrNotFound)

	s.clock.Set(startTime.Add(auction.Duration - time.Second))
	_, err = s.im.Settle(s.c, id)
	s.ErrorIs(err, domain.ErrNotComplete)

	s.clock.Add(time.Second)
	_, err = s.im.Settle(s.c, id)
	s.Require().NoError(err)

	_, err = s.im.Settle(s.c, id)
	s.ErrorIs(err, domain.ErrAlreadySettled)
	_, err = s.im.Bid(s.c, id, alice, finney(100))
	s.ErrorIs(err, domain.ErrAuctionInactive)
}

func (s *engineSuite) TestSettleWithBid() {
	id := s.deposit721("1", nil)
	_, err := s.im.Bid(s.c, id, alice, finney(1000))
	s.Require().NoError(err)
	s.recorder.Reset()

	s.clock.Add(auction.Duration)
	a, err := s.im.Settle(s.c, id)
	s.Require().NoError(err)
	s.True(a.Settled)

	owner, err := s.erc721.OwnerOf("1")
	s.Require().NoError(err)
	s.Equal(alice, owner)
	s.Equal(finney(1000), s.balance(auction.CharityAddress))
	s.Zero(s.balance(engineAddr).Sign())

	summary, err := s.im.HoldingOf(s.c, token721, "1")
	s.Require().NoError(err)
	s.Zero(summary.Quantity)
	s.Empty(summary.AuctionIds)

	s.Equal([]auction.EventType{auction.EventAuctionSettled}, s.recorder.Types())
}

func (s *engineSuite) TestSettleWithoutBid() {
	s.Require().NoError(s.erc1155.SafeTransferFrom(s.c, depositor, depositor, engineAddr, "7", 4, nil))

	s.clock.Add(auction.Duration)
	_, err := s.im.Settle(s.c, 0)
	s.Require().NoError(err)

	s.Equal(uint64(10), s.held(s.erc1155, depositor, "7"))
	s.Zero(s.held(s.erc1155, engineAddr, "7"))
	s.Zero(s.balance(auction.CharityAddress).Sign())
}

func (s *engineSuite) TestSettleSeparateLots() {
	s.Require().NoError(s.erc1155.SafeBatchTransferFrom(s.c, depositor, depositor, engineAddr, []domain.TokenId{"7", "7"}, []uint64{2, 3}, nil))
	_, err := s.im.Bid(s.c, 1, bob, finney(50))
	s.Require().NoError(err)

	summary, err := s.im.HoldingOf(s.c, token1155, "7")
	s.Require().NoError(err)
	s.Equal(uint64(5), summary.Quantity)
	s.Equal([]auction.Id{0, 1}, summary.AuctionIds)

	s.clock.Add(auction.Duration)
	_, err = s.im.Settle(s.c, 1)
	s.Require().NoError(err)
	s.Equal(uint64(3), s.held(s.erc1155, bob, "7"))
	s.Equal(uint64(2), s.held(s.erc1155, engineAddr, "7"))

	summary, err = s.im.HoldingOf(s.c, token1155, "7")
	s.Require().NoError(err)
	s.Equal(uint64(2), summary.Quantity)
	s.Equal([]auction.Id{0}, summary.AuctionIds)
}

func (s *engineSuite) TestReentrantSettleSwallowed() {
	id := s.deposit721("1", nil)
	_, err := s.im.Bid(s.c, id, alice, finney(500))
	s.Require().NoError(err)
	s.recorder.Reset()

	var inner error
	s.erc721.RegisterReceiver(alice, &contract{onReceive: func(c ctx.Ctx) error {
		_, inner = s.im.Settle(c, id)
		return nil
	}})

	s.clock.Add(auction.Duration)
	_, err = s.im.Settle(s.c, id)
	s.Require().NoError(err)
	s.ErrorIs(inner, domain.ErrAlreadySettled)

	owner, err := s.erc721.OwnerOf("1")
	s.Require().NoError(err)
	s.Equal(alice, owner)
	s.Equal(finney(500), s.balance(auction.CharityAddress))
	s.Equal([]auction.EventType{auction.EventAuctionSettled}, s.recorder.Types())
}

func (s *engineSuite) TestReentrantSettlePropagated() {
	id := s.deposit721("1", nil)
	_, err := s.im.Bid(s.c, id, alice, finney(500))
	s.Require().NoError(err)
	s.recorder.Reset()

	s.erc721.RegisterReceiver(alice, &contract{onReceive: func(c ctx.Ctx) error {
		_, err := s.im.Settle(c, id)
		return err
	}})

	s.clock.Add(auction.Duration)
	_, err = s.im.Settle(s.c, id)
	s.ErrorIs(err, domain.ErrAlreadySettled)

	a, err := s.im.GetAuction(s.c, id)
	s.Require().NoError(err)
	s.False(a.Settled)
	owner, err := s.erc721.OwnerOf("1")
	s.Require().NoError(err)
	s.Equal(engineAddr, owner)
	s.Equal(finney(500), s.balance(engineAddr))
	s.Zero(s.balance(auction.CharityAddress).Sign())
	summary, err := s.im.HoldingOf(s.c, token721, "1")
	s.Require().NoError(err)
	s.Equal([]auction.Id{id}, summary.AuctionIds)
	s.Empty(s.recorder.Events())

	// the auction can be settled once the winner accepts the token
	s.erc721.RegisterReceiver(alice, &contract{onReceive: func(ctx.Ctx) error { return nil }})
	_, err = s.im.Settle(s.c, id)
	s.Require().NoError(err)
	s.Equal(finney(500), s.balance(auction.CharityAddress))
}

func (s *engineSuite) TestSettlePayoutRejected() {
	id := s.deposit721("1", nil)
	_, err := s.im.Bid(s.c, id, alice, finney(500))
	s.Require().NoError(err)
	s.Require().NoError(s.funds.Freeze(s.c, auction.CharityAddress))

	s.clock.Add(auction.Duration)
	_, err = s.im.Settle(s.c, id)
	s.ErrorIs(err, domain.ErrRecipientRejected)

	a, err := s.im.GetAuction(s.c, id)
	s.Require().NoError(err)
	s.False(a.Settled)
	owner, err := s.erc721.OwnerOf("1")
	s.Require().NoError(err)
	s.Equal(engineAddr, owner)
	s.Equal(finney(500), s.balance(engineAddr))
}
