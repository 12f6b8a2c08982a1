package http

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/labstack/echo/v4"
	"golang.org/x/xerrors"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/delivery"
	baseeth "github.com/x-xyz/auctionhouse/base/ethereum"
	"github.com/x-xyz/auctionhouse/base/metrics"
	pricefomatter "github.com/x-xyz/auctionhouse/base/price_fomatter"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/asset"
	"github.com/x-xyz/auctionhouse/domain/auction"
	"github.com/x-xyz/auctionhouse/middleware"
	"github.com/x-xyz/auctionhouse/service/cache/provider"
)

// HeaderWebhookToken authenticates the registry webhooks
const HeaderWebhookToken = middleware.HeaderWebhookToken

var met metrics.Service

type Config struct {
	// WebhookToken is required on the registry webhooks, they are closed without one
	WebhookToken string
	// AllowUnsignedBids accepts bids without a signature of auction.BidMessage by the bidder.
	// A signature that is present is always checked.
	AllowUnsignedBids bool
	// Payout is published by /constants
	Payout domain.Address
	// Cache holds the /constants response, optional
	Cache provider.Provider
}

type handler struct {
	auction   auction.Usecase
	formatter pricefomatter.PriceFormatter
	cfg       Config
}

func New(e *echo.Echo, us auction.Usecase, cfg Config) {
	met = metrics.New("auction.http")

	if cfg.Payout.IsEmpty() {
		cfg.Payout = auction.CharityAddress
	}
	h := &handler{us, pricefomatter.NewNative(), cfg}

	rg := e.Group("/registries/:address", middleware.IsValidAddress("address"), middleware.TokenAuth(HeaderWebhookToken, cfg.WebhookToken))

	rg.POST("/erc721-received", h.erc721Received)

	rg.POST("/erc1155-received", h.erc1155Received)

	rg.POST("/erc1155-batch-received", h.erc1155BatchReceived)

	g := e.Group("/auctions/:id")

	g.GET("", h.get)

	g.GET("/price", h.price)

	g.POST("/bids", h.bid)

	g.POST("/settle", h.settle)

	if cfg.Cache != nil {
		e.GET("/constants", h.constants, middleware.CacheHttp(cfg.Cache, time.Hour))
	} else {
		e.GET("/constants", h.constants)
	}
}

type erc721ReceivedReq struct {
	Operator string `json:"operator" validate:"required,eth_addr"`
	From     string `json:"from" validate:"required,eth_addr"`
	TokenId  string `json:"tokenId" validate:"required,wei"`
	Data     string `json:"data"`
}

type erc1155ReceivedReq struct {
	Operator string `json:"operator" validate:"required,eth_addr"`
	From     string `json:"from" validate:"required,eth_addr"`
	Id       string `json:"id" validate:"required,wei"`
	Value    uint64 `json:"value"`
	Data     string `json:"data"`
}

type erc1155BatchReceivedReq struct {
	Operator string   `json:"operator" validate:"required,eth_addr"`
	From     string   `json:"from" validate:"required,eth_addr"`
	Ids      []string `json:"ids" validate:"required,min=1,dive,wei"`
	Values   []uint64 `json:"values" validate:"required,min=1"`
	Data     string   `json:"data"`
}

type ackResp struct {
	Ack string `json:"ack"`
}

type bidReq struct {
	Bidder    string `json:"bidder" validate:"required,eth_addr"`
	Amount    string `json:"amount" validate:"required,wei"`
	Signature string `json:"signature"`
}

// bind decodes and validates the body, answering 400 itself on failure
func bind(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(req); err != nil {
		return false, delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	return true, nil
}

func decodeData(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	data, err := hexutil.Decode(s)
	if err != nil {
		return nil, xerrors.Errorf("data %q: %w", s, domain.ErrBadParamInput)
	}
	return data, nil
}

func (h *handler) ack(c echo.Context, ack asset.Ack, err error) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	if err != nil {
		ctx.WithField("err", err).Warn("deposit rejected")
		return delivery.MakeErrorResp(c, err)
	}
	met.BumpSum("deposit.accepted", 1)
	return delivery.MakeJsonResp(c, http.StatusOK, ackResp{hexutil.Encode(ack[:])})
}

func (h *handler) erc721Received(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	req := &erc721ReceivedReq{}
	if ok, err := bind(c, req); !ok {
		return err
	}
	data, err := decodeData(req.Data)
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}

	tokenId, err := domain.TokenId(req.TokenId).Canonical()
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}

	ack, err := h.auction.OnErc721Received(ctx, domain.Address(c.Param("address")), domain.Address(req.Operator), domain.Address(req.From), tokenId, data)
	return h.ack(c, ack, err)
}

func (h *handler) erc1155Received(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	req := &erc1155ReceivedReq{}
	if ok, err := bind(c, req); !ok {
		return err
	}
	data, err := decodeData(req.Data)
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}

	id, err := domain.TokenId(req.Id).Canonical()
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}

	ack, err := h.auction.OnErc1155Received(ctx, domain.Address(c.Param("address")), domain.Address(req.Operator), domain.Address(req.From), id, req.Value, data)
	return h.ack(c, ack, err)
}

func (h *handler) erc1155BatchReceived(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	req := &erc1155BatchReceivedReq{}
	if ok, err := bind(c, req); !ok {
		return err
	}
	data, err := decodeData(req.Data)
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}
	ids := make([]domain.TokenId, len(req.Ids))
	for i, id := range req.Ids {
		if ids[i], err = domain.TokenId(id).Canonical(); err != nil {
			return delivery.MakeErrorResp(c, err)
		}
	}

	ack, err := h.auction.OnErc1155BatchReceived(ctx, domain.Address(c.Param("address")), domain.Address(req.Operator), domain.Address(req.From), ids, req.Values, data)
	return h.ack(c, ack, err)
}

func (h *handler) parseId(c echo.Context) (auction.Id, error) {
	return auction.ParseId(c.Param("id"))
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := h.parseId(c)
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}
	a, err := h.auction.GetAuction(ctx, id)
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, toAuctionView(h.formatter, a))
}

func (h *handler) price(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := h.parseId(c)
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}
	price, err := h.auction.CurrentBidPrice(ctx, id)
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, toPriceView(h.formatter, price))
}

func (h *handler) bid(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := h.parseId(c)
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}
	req := &bidReq{}
	if ok, err := bind(c, req); !ok {
		return err
	}
	amount, err := domain.ParseWei(req.Amount)
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}

	if req.Signature != "" || !h.cfg.AllowUnsignedBids {
		ok, err := baseeth.ValidateMsgSignature(auction.BidMessage(id, amount), req.Signature, req.Bidder)
		if err != nil || !ok {
			met.BumpSum("bid.badSignature", 1)
			return delivery.MakeJsonResp(c, http.StatusUnauthorized, "invalid signature")
		}
	}

	a, err := h.auction.Bid(ctx, id, domain.Address(req.Bidder), amount)
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, toAuctionView(h.formatter, a))
}

func (h *handler) settle(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := h.parseId(c)
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}
	a, err := h.auction.Settle(ctx, id)
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, toAuctionView(h.formatter, a))
}

func (h *handler) constants(c echo.Context) error {
	return delivery.MakeJsonResp(c, http.StatusOK, constantsView{
		PayoutAddress:         h.cfg.Payout,
		DefaultStartingPrice:  auction.DefaultStartingPrice.String(),
		DisplayStartingPrice:  h.formatter.ToDisplay(auction.DefaultStartingPrice),
		BidPercentageIncrease: auction.BidPercentageIncrease,
		BiddingGracePeriod:    int64(auction.BiddingGracePeriod / time.Second),
		Duration:              int64(auction.Duration / time.Second),
	})
}
