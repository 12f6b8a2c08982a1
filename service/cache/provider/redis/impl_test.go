package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/service/cache/provider"
	"github.com/x-xyz/auctionhouse/service/redis"
)

type fakeRedis struct {
	vals map[string][]byte
	ttls map[string]time.Duration
}

func (f *fakeRedis) Get(_ ctx.Ctx, key string) ([]byte, error) {
	v, ok := f.vals[key]
	if !ok {
		return nil, redis.ErrNotFound
	}
	return v, nil
}

func (f *fakeRedis) Set(_ ctx.Ctx, key string, val []byte, expire time.Duration) error {
	f.vals[key] = val
	f.ttls[key] = expire
	return nil
}

func (f *fakeRedis) Del(_ ctx.Ctx, keys ...string) (int, error) {
	for _, k := range keys {
		delete(f.vals, k)
	}
	return len(keys), nil
}

func (f *fakeRedis) Publish(ctx.Ctx, string, []byte) (int, error) {
	return 0, nil
}

func (f *fakeRedis) Ping(ctx.Ctx) error {
	return nil
}

func TestRedisProvider(t *testing.T) {
	c := ctx.Background()
	f := &fakeRedis{vals: map[string][]byte{}, ttls: map[string]time.Duration{}}
	p := NewRedis(f)

	_, err := p.Get(c, "k")
	assert.Equal(t, provider.ErrNotFound, err)

	assert.NoError(t, p.Set(c, "k", []byte("v"), 0))
	assert.Equal(t, redis.Forever, f.ttls["k"])
	v, err := p.Get(c, "k")
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	assert.NoError(t, p.Set(c, "k", []byte("v2"), time.Minute))
	assert.Equal(t, time.Minute, f.ttls["k"])

	assert.NoError(t, p.Del(c, "k"))
	_, err = p.Get(c, "k")
	assert.Equal(t, provider.ErrNotFound, err)
}
