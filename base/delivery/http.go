package delivery

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/auctionhouse/domain"
)

type JsonResponseStatus string

const (
	JsonResponseStatusSuccess JsonResponseStatus = "success"
	JsonResponseStatusFail    JsonResponseStatus = "fail"
)

type JsonResponse struct {
	Data   interface{}        `json:"data"`
	Status JsonResponseStatus `json:"status"`
}

// errStatus is checked in order, the first match wins
var errStatus = []struct {
	err    error
	status int
}{
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrUnknownRegistry, http.StatusNotFound},
	{domain.ErrBidTooLow, http.StatusBadRequest},
	{domain.ErrOutOfRange, http.StatusBadRequest},
	{domain.ErrBadParamInput, http.StatusBadRequest},
	{domain.ErrInvalidNumberFormat, http.StatusBadRequest},
	{domain.ErrInvalidAddress, http.StatusBadRequest},
	{domain.ErrAuctionInactive, http.StatusConflict},
	{domain.ErrNotComplete, http.StatusConflict},
	{domain.ErrAlreadySettled, http.StatusConflict},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrAlreadyInCustody, http.StatusConflict},
	{domain.ErrAssetNotHeld, http.StatusUnprocessableEntity},
	{domain.ErrRefundFailed, http.StatusUnprocessableEntity},
	{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
	{domain.ErrRecipientRejected, http.StatusUnprocessableEntity},
	{domain.ErrTransferFailed, http.StatusBadGateway},
	{domain.ErrInvalidReceiver, http.StatusBadGateway},
}

// StatusOf maps a domain error to its http status, unknown errors are internal ones
func StatusOf(err error) int {
	for _, e := range errStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func MakeJsonResp(c echo.Context, status int, data interface{}) error {
	if err, ok := data.(error); ok {
		if s := StatusOf(err); s != http.StatusInternalServerError {
			status = s
		}
		data = err.Error()
	}

	if status >= 400 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusFail})
	}

	if status >= 200 && status < 300 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusSuccess})
	}

	return c.JSON(status, data)
}

// MakeErrorResp answers with the status of err
func MakeErrorResp(c echo.Context, err error) error {
	return MakeJsonResp(c, StatusOf(err), err)
}
