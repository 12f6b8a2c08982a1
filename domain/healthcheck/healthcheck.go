package healthcheck

import (
	"github.com/x-xyz/auctionhouse/base/ctx"
)

// HealthCheckUsecase represents the healthCheck's usecases
type HealthCheckUsecase interface {
	Check(context ctx.Ctx) error
}

// HealthCheckRepo is repository layer of healthCheck
type HealthCheckRepo interface {
	// PingDB pings the backends the service was started with, the memory driver has none
	PingDB(context ctx.Ctx) error
}
