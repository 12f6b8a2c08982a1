// Package notify delivers committed auction events to observers
package notify

import (
	"sync"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/log"
	"github.com/x-xyz/auctionhouse/domain/auction"
)

type logPublisher struct{}

// NewLog writes every event to the call logger
func NewLog() auction.Publisher {
	return &logPublisher{}
}

func (p *logPublisher) Publish(c ctx.Ctx, events []auction.Event) error {
	for _, e := range events {
		fields := log.Fields{
			"eventId":   e.EventId,
			"type":      e.Type,
			"auctionId": e.AuctionId,
		}
		if e.Amount != "" {
			fields["amount"] = e.Amount
			fields["bidder"] = e.Bidder
		}
		if e.EndTime != nil {
			fields["endTime"] = e.EndTime.Unix()
		}
		c.WithFields(fields).Info("auction event")
	}
	return nil
}

// Recorder keeps every published event in memory
type Recorder struct {
	mu     sync.Mutex
	events []auction.Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ ctx.Ctx, events []auction.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of what was recorded so far
func (r *Recorder) Events() []auction.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]auction.Event{}, r.events...)
}

// Types lists the recorded event types in order
func (r *Recorder) Types() []auction.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]auction.EventType, 0, len(r.events))
	for _, e := range r.events {
		res = append(res, e.Type)
	}
	return res
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type fanout struct {
	publishers []auction.Publisher
}

// NewFanout publishes to every publisher in turn. A failing publisher does not stop the others,
// the first error is returned.
func NewFanout(publishers ...auction.Publisher) auction.Publisher {
	return &fanout{publishers: publishers}
}

func (f *fanout) Publish(c ctx.Ctx, events []auction.Event) error {
	var first error
	for _, p := range f.publishers {
		if err := p.Publish(c, events); err != nil {
			c.WithField("err", err).Error("publish failed")
			if first == nil {
				first = err
			}
		}
	}
	return first
}
