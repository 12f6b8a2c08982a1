package auction

import (
	"time"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/domain"
)

type EventType string

const (
	EventAuctionCreated  EventType = "AuctionCreated"
	EventBidAccepted     EventType = "BidAccepted"
	EventAuctionExtended EventType = "AuctionExtended"
	EventAuctionSettled  EventType = "AuctionSettled"
)

type Event struct {
	EventId   string         `json:"eventId"`
	Type      EventType      `json:"type"`
	AuctionId Id             `json:"auctionId"`
	Amount    string         `json:"amount,omitempty"`
	Bidder    domain.Address `json:"bidder,omitempty"`
	EndTime   *time.Time     `json:"endTime,omitempty"`
	Time      time.Time      `json:"time"`
}

// Publisher delivers the events of a committed call, in emission order.
// The engine calls it with its lock held: it must not call back into the engine,
// and slow publishers belong behind notify.Async.
type Publisher interface {
	Publish(c ctx.Ctx, events []Event) error
}
