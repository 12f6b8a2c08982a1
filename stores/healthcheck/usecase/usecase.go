package usecase

import (
	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/metrics"
	hcdomain "github.com/x-xyz/auctionhouse/domain/healthcheck"
)

type impl struct {
	repo hcdomain.HealthCheckRepo
	met  metrics.Service
}

// New creates new healthCheckUsecase object representation of HealthCheckUsecase interface
func New(repo hcdomain.HealthCheckRepo) hcdomain.HealthCheckUsecase {
	return &impl{
		repo: repo,
		met:  metrics.New("healthcheck"),
	}
}

func (im *impl) Check(context ctx.Ctx) error {
	if err := im.repo.PingDB(context); err != nil {
		im.met.BumpSum("check.err", 1)
		return err
	}
	return nil
}
