/*Package metrics wraps datadog-go to faciliate metric recording
Following are naming convention of metric:
- Internal process time: *.time
- External latency: *.latency
- Error: *.err
- Warning: *.warn
*/
package metrics

import (
	"strings"
	"time"

	"github.com/x-xyz/auctionhouse/base/env"
)

// Ender provides interface for BumpTime
type Ender interface {
	End()
}

// Service provides interface for metrics
type Service interface {
	BumpAvg(key string, val float64, tags ...string)
	BumpSum(key string, val float64, tags ...string)
	BumpHistogram(key string, val float64, tags ...string)

	BumpTime(key string, tags ...string) Ender
}

// Option is functional parameter for metrics option
type Option func(*opt)

type opt struct {
	withPodName bool
}

// WithoutPodName means the metrics sent by the Service will not contain pod name
func WithoutPodName() Option {
	return func(o *opt) {
		o.withPodName = false
	}
}

// New creates a metric client with package name as prefix
func New(pkgName string, options ...Option) Service {
	o := opt{
		withPodName: true,
	}
	for _, option := range options {
		option(&o)
	}

	// using host removes all tags associated with host
	// ref: https://docs.datadoghq.com/developers/dogstatsd/data_types/#host-tag-key
	tags := []string{"host:", "env:" + env.EnvName(), "app:" + env.AppName()}
	if o.withPodName {
		tags = append(tags, "pod:"+env.PodName())
	}

	return &Metrics{
		pkgName: pkgName,
		tags:    tags,
	}
}

// Metrics sends every bump to the statsd client configured by Setup,
// prefixing keys with the package name.
type Metrics struct {
	pkgName string
	tags    []string
}

func (mt *Metrics) key(key string) string {
	return mt.pkgName + "." + key
}

func (mt *Metrics) recoverBump(key string, tags []string) {
	if err := recover(); err != nil {
		_ = client().Count("bump.panic", 1, []string{"tag:" + mt.key(key) + "#" + strings.Join(tags, "#")}, 1)
	}
}

// BumpAvg bumps the average for the given key.
func (mt *Metrics) BumpAvg(key string, val float64, tags ...string) {
	defer mt.recoverBump(key, tags)
	report(client().Gauge(mt.key(key), val, mt.withTags(tags), sampleRate), key)
}

// BumpSum bumps the sum for the given key.
func (mt *Metrics) BumpSum(key string, val float64, tags ...string) {
	defer mt.recoverBump(key, tags)
	report(client().Count(mt.key(key), int64(val), mt.withTags(tags), sampleRate), key)
}

// BumpHistogram bumps the histogram for the given key.
func (mt *Metrics) BumpHistogram(key string, val float64, tags ...string) {
	defer mt.recoverBump(key, tags)
	report(client().Histogram(mt.key(key), val, mt.withTags(tags), sampleRate), key)
}

// BumpTime is a special version of BumpHistogram which is specialized for
// timers. Calling it starts the timer, and it returns a value on which End()
// can be called to indicate finishing the timer:
//
//     defer s.BumpTime("my.function").End()
func (mt *Metrics) BumpTime(key string, tags ...string) Ender {
	return &timeTracker{
		start: time.Now(),
		key:   mt.key(key),
		tags:  mt.withTags(tags),
	}
}

func (mt *Metrics) withTags(tags []string) []string {
	return append(append([]string{}, mt.tags...), parseTag(tags)...)
}

type timeTracker struct {
	start time.Time
	key   string
	tags  []string
}

func (t *timeTracker) End() {
	d := time.Since(t.start)
	msec := float64(d) / float64(time.Millisecond)
	report(client().TimeInMilliseconds(t.key, msec, t.tags, sampleRate), t.key)
}
