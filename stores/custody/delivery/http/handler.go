package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/delivery"
	"github.com/x-xyz/auctionhouse/domain"
	"github.com/x-xyz/auctionhouse/domain/custody"
	"github.com/x-xyz/auctionhouse/middleware"
)

type handler struct {
	custody custody.Usecase
}

func New(e *echo.Echo, us custody.Usecase) {
	h := &handler{us}

	e.GET("/custody/:registry/:tokenId", h.holdingOf, middleware.IsValidAddress("registry"))
}

func (h *handler) holdingOf(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	tokenId, err := domain.TokenId(c.Param("tokenId")).Canonical()
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}
	summary, err := h.custody.HoldingOf(ctx, domain.Address(c.Param("registry")), tokenId)
	if err != nil {
		return delivery.MakeErrorResp(c, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, summary)
}
