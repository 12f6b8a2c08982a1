package http

import (
	"math/big"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/delivery"
	"github.com/x-xyz/auctionhouse/base/log"
	pricefomatter "github.com/x-xyz/auctionhouse/base/price_fomatter"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/funds"
	"github.com/x-xyz/auctionhouse/middleware"
)

type handler struct {
	funds     funds.Ledger
	formatter pricefomatter.PriceFormatter
}

type creditReq struct {
	Amount string `json:"amount" validate:"required,wei"`
}

type balanceView struct {
	Address        domain.Address  `json:"address"`
	Balance        string          `json:"balance"`
	DisplayBalance decimal.Decimal `json:"displayBalance"`
}

// New serves the native currency accounts. Credits stand for value sent along with bids,
// only the payment watcher holding token may post them.
func New(e *echo.Echo, ledger funds.Ledger, token string) {
	h := &handler{ledger, pricefomatter.NewNative()}

	g := e.Group("/accounts/:address", middleware.IsValidAddress("address"))

	g.POST("/credits", h.credit, middleware.TokenAuth(middleware.HeaderWebhookToken, token))

	g.GET("/balance", h.balance)
}

func (h *handler) view(addr domain.Address, balance *big.Int) *balanceView {
	return &balanceView{addr.ToLower(), balance.String(), h.formatter.ToDisplay(balance)}
}

func (h *handler) credit(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	addr := domain.Address(c.Param("address"))

	req := &creditReq{}
	if err := c.Bind(req); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := c.Validate(req); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err.Error())
	}
	amount, err := domain.ParseWei(req.Amount)
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}

	if err := h.funds.Credit(ctx, addr, amount); err != nil {
		ctx.WithFields(log.Fields{"err": err, "address": addr}).Error("funds.Credit failed")
		return delivery.MakeErrorResp(c, err)
	}
	balance, err := h.funds.BalanceOf(ctx, addr)
	if err != nil {
		ctx.WithFields(log.Fields{"err": err, "address": addr}).Error("funds.BalanceOf failed")
		return delivery.MakeErrorResp(c, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, h.view(addr, balance))
}

func (h *handler) balance(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	addr := domain.Address(c.Param("address"))

	balance, err := h.funds.BalanceOf(ctx, addr)
	if err != nil {
		ctx.WithFields(log.Fields{"err": err, "address": addr}).Error("funds.BalanceOf failed")
		return delivery.MakeErrorResp(c, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, h.view(addr, balance))
}
