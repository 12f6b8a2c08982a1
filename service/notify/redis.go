package notify

import (
	"encoding/json"

	"golang.org/x/xerrors"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/log"
	"github.com/x-xyz/auctionhouse/base/metrics"
	"github.com/x-xyz/auctionhouse/domain/auction"
	"github.com/x-xyz/auctionhouse/domain/keys"
	"github.com/x-xyz/auctionhouse/service/redis"
)

type redisPublisher struct {
	redis redis.Service
	met   metrics.Service
}

// NewRedis publishes each event as json on the channel of its type
func NewRedis(r redis.Service) auction.Publisher {
	return &redisPublisher{
		redis: r,
		met:   metrics.New("notify.redis"),
	}
}

func (p *redisPublisher) Publish(c ctx.Ctx, events []auction.Event) error {
	for _, e := range events {
		msg, err := json.Marshal(e)
		if err != nil {
			return xerrors.Errorf("marshal event %s: %w", e.EventId, err)
		}
		channel := keys.AuctionEventChannel(string(e.Type))
		n, err := p.redis.Publish(c, channel, msg)
		if err != nil {
			p.met.BumpSum("publish.err", 1, "type", string(e.Type))
			c.WithFields(log.Fields{"err": err, "channel": channel}).Error("redis.Publish failed")
			return err
		}
		p.met.BumpSum("publish.receivers", float64(n), "type", string(e.Type))
	}
	return nil
}
