package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/validator"
	"github.com/x-xyz/auctionhouse/middleware"
	"github.com/x-xyz/auctionhouse/stores/funds/repository"
)

const (
	alice = "0x00000000000000000000000000000000000000a1"
	token = "secret"
)

type handlerSuite struct {
	suite.Suite
	e *echo.Echo
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(handlerSuite))
}

func (s *handlerSuite) SetupTest() {
	s.e = echo.New()
	s.e.Validator = validator.NewCustomValidator(govalidator.New())
	s.e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("ctx", ctx.Background())
			return next(c)
		}
	})
	New(s.e, repository.NewMemory(), token)
}

func (s *handlerSuite) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *handlerSuite) TestCreditAndBalance() {
	rec := s.do(http.MethodGet, "/accounts/"+alice+"/balance", "")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"data":{"address":"`+alice+`","balance":"0","displayBalance":"0"},"status":"success"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/accounts/"+alice+"/credits", `{"amount":"1500000000000000000"}`, middleware.HeaderWebhookToken, token)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"data":{"address":"`+alice+`","balance":"1500000000000000000","displayBalance":"1.5"},"status":"success"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/accounts/"+alice+"/credits", `{"amount":"500000000000000000"}`, middleware.HeaderWebhookToken, token)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/accounts/"+alice+"/balance", "")
	s.JSONEq(`{"data":{"address":"`+alice+`","balance":"2000000000000000000","displayBalance":"2"},"status":"success"}`, rec.Body.String())
}

func (s *handlerSuite) TestCreditRejected() {
	auth := []string{middleware.HeaderWebhookToken, token}
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/accounts/"+alice+"/credits", `{"amount":"-1"}`, auth...).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/accounts/"+alice+"/credits", `{"amount":"1.5"}`, auth...).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/accounts/"+alice+"/credits", `{}`, auth...).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/accounts/0xabc/credits", `{"amount":"1"}`, auth...).Code)
}

func (s *handlerSuite) TestCreditRequiresToken() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/accounts/"+alice+"/credits", `{"amount":"1"}`).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/accounts/"+alice+"/credits", `{"amount":"1"}`, middleware.HeaderWebhookToken, "guess").Code)

	rec := s.do(http.MethodGet, "/accounts/"+alice+"/balance", "")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"data":{"address":"`+alice+`","balance":"0","displayBalance":"0"},"status":"success"}`, rec.Body.String())
}
