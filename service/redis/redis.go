package redis

import (
	"errors"
	"time"

	"github.com/x-xyz/auctionhouse/base/ctx"
)

const (
	// Forever keeps a key without expiration
	Forever time.Duration = -1
)

var (
	// ErrNotFound is returned when the key does not exist
	ErrNotFound = errors.New("redis key not found")
)

// Service is the subset of redis commands used by the auction house
type Service interface {
	Get(context ctx.Ctx, key string) ([]byte, error)
	Set(context ctx.Ctx, key string, val []byte, expire time.Duration) error
	Del(context ctx.Ctx, keys ...string) (int, error)
	// Publish returns the number of subscribers that received the message
	Publish(context ctx.Ctx, channel string, msg []byte) (int, error)
	Ping(context ctx.Ctx) error
}
