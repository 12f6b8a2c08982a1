package provider

import (
	"errors"
	"time"

	"github.com/x-xyz/auctionhouse/base/ctx"
)

var (
	ErrNotFound = errors.New("Cache not found")
)

// Provider is a raw byte cache, local or shared
type Provider interface {
	Get(c ctx.Ctx, key string) ([]byte, error)
	// Set stores value for ttl, ttl 0 means no expiration
	Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error
	Del(c ctx.Ctx, key string) error
}
