package notify

import (
	"context"
	"sync"

	"github.com/viney-shih/goroutines"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/metrics"
	"github.com/x-xyz/auctionhouse/domain/auction"
)

const asyncQueueLength = 1024

// Async hands event batches to a single worker so that callers never wait on slow
// observers. Batches are delivered one at a time in submission order.
type Async struct {
	next    auction.Publisher
	pool    *goroutines.Pool
	pending sync.WaitGroup
	met     metrics.Service
}

func NewAsync(next auction.Publisher) *Async {
	return &Async{
		next: next,
		pool: goroutines.NewPool(1, goroutines.WithTaskQueueLength(asyncQueueLength), goroutines.WithPreAllocWorkers(1)),
		met:  metrics.New("notify.async"),
	}
}

func (a *Async) Publish(c ctx.Ctx, events []auction.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := append([]auction.Event{}, events...)
	// the worker outlives the request
	bg := ctx.WithContext(c, context.Background())

	a.pending.Add(1)
	err := a.pool.Schedule(func() {
		defer a.pending.Done()
		if err := a.next.Publish(bg, batch); err != nil {
			a.met.BumpSum("publish.err", 1)
		}
	})
	if err != nil {
		a.pending.Done()
		a.met.BumpSum("schedule.err", 1)
		c.WithField("err", err).Error("pool.Schedule failed")
		return err
	}
	return nil
}

// Close waits for the scheduled batches and stops the worker
func (a *Async) Close() {
	a.pending.Wait()
	a.pool.Release()
}
