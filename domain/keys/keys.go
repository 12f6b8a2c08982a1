package keys

import (
	"strings"
)

const (
	// PfxHealthCheck is used for prefixing health check redis key
	PfxHealthCheck = "healthcheck"
	// PfxAuctionEvents is used for prefixing the auction event channels
	PfxAuctionEvents = "auctionEvents"
)

// RedisKey is used to join the redis key by componets
func RedisKey(components ...string) string {
	return strings.Join(components, ":")
}

// AuctionEventChannel is the pub/sub channel of one event type
func AuctionEventChannel(eventType string) string {
	return RedisKey(PfxAuctionEvents, eventType)
}

// GetPrefix extracts the prefix of a key, at most two components, for metric tags
func GetPrefix(key string) string {
	s := strings.Split(key, ":")
	switch {
	case len(s) > 2:
		return strings.Join(s[:2], ":")
	case len(s) > 1:
		return s[0]
	}
	return ""
}
