package compound

import (
	"time"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/log"
	"github.com/x-xyz/auctionhouse/service/cache/provider"
)

type impl struct {
	layers  []provider.Provider
	fillTTL time.Duration
}

// NewCompound stacks layers from the nearest to the farthest. A hit returns at once
// and fills the nearer layers for fillTTL, since layers don't report remaining ttl.
func NewCompound(fillTTL time.Duration, layers ...provider.Provider) provider.Provider {
	return &impl{layers: layers, fillTTL: fillTTL}
}

func (im *impl) Get(c ctx.Ctx, key string) ([]byte, error) {
	var (
		val    []byte
		err    error
		hitIdx = -1
	)

	for idx, lyr := range im.layers {
		if val, err = lyr.Get(c, key); err == provider.ErrNotFound {
			continue
		} else if err != nil {
			return nil, err
		}
		hitIdx = idx
		break
	}

	if hitIdx == -1 {
		return nil, provider.ErrNotFound
	}

	// fill layers which missing cache
	for idx := 0; idx < hitIdx; idx++ {
		if err := im.layers[idx].Set(c, key, val, im.fillTTL); err != nil {
			c.WithFields(log.Fields{"key": key, "layer": idx, "err": err}).Warn("cache fill failed")
		}
	}

	return val, nil
}

func (im *impl) Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error {
	for _, lyr := range im.layers {
		if err := lyr.Set(c, key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (im *impl) Del(c ctx.Ctx, key string) error {
	for _, lyr := range im.layers {
		if err := lyr.Del(c, key); err != nil {
			return err
		}
	}
	return nil
}
