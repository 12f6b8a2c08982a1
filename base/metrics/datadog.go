package metrics

import (
	"fmt"
	"sync"

	"github.com/DataDog/datadog-go/statsd"

	"github.com/x-xyz/auctionhouse/base/log"
)

const (
	// sampleRate is the rate to pass metrics to datadog agent. 1 means always
	sampleRate = 1
	// buffer 10 counters before sending to statsd
	bufferMetrics = 10
)

var (
	mu  sync.RWMutex
	cli statsCli = &LogClient{}
)

type statsCli interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	TimeInMilliseconds(name string, value float64, tags []string, rate float64) error
}

// Setup connects to the datadog agent at host:port. Without a host, metrics are only logged at debug level.
func Setup(host string, port int) error {
	if host == "" {
		log.Log().Info("datadog host not set, metrics go to log")
		return nil
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	c, err := statsd.NewBuffered(addr, bufferMetrics)
	if err != nil {
		log.Log().WithFields(log.Fields{"addr": addr, "err": err}).Error("can't talk to datadog agent")
		return err
	}
	log.Log().WithField("addr", addr).Info("connected to datadog agent")

	mu.Lock()
	cli = c
	mu.Unlock()
	return nil
}

func client() statsCli {
	mu.RLock()
	defer mu.RUnlock()
	return cli
}

func report(err error, key string) {
	if err != nil {
		log.Log().WithFields(log.Fields{"err": err, "key": key}).Error("Bump fail")
	}
}

func parseTag(tags []string) []string {
	if tags == nil {
		return nil
	}
	if len(tags)%2 != 0 {
		log.Log().WithField("tags", tags).Panic("tag length needs to be multiple of 2")
	}
	arr := make([]string, len(tags)/2)
	for i := 0; i < len(tags); i += 2 {
		arr[i/2] = tags[i] + ":" + tags[i+1]
	}
	return arr
}
