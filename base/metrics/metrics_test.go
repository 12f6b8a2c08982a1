package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingClient struct {
	LogClient
	counts map[string]int64
	tags   map[string][]string
}

func (r *recordingClient) Count(name string, value int64, tags []string, rate float64) error {
	r.counts[name] += value
	r.tags[name] = tags
	return nil
}

func TestBumpSumPrefixesPackageName(t *testing.T) {
	rec := &recordingClient{counts: map[string]int64{}, tags: map[string][]string{}}
	mu.Lock()
	prev := cli
	cli = rec
	mu.Unlock()
	defer func() {
		mu.Lock()
		cli = prev
		mu.Unlock()
	}()

	m := New("auction", WithoutPodName())
	m.BumpSum("bid.accepted", 1, "standard", "721")
	m.BumpSum("bid.accepted", 2, "standard", "721")

	assert.Equal(t, int64(3), rec.counts["auction.bid.accepted"])
	assert.Contains(t, rec.tags["auction.bid.accepted"], "standard:721")
}

func TestParseTag(t *testing.T) {
	assert.Nil(t, parseTag(nil))
	assert.Equal(t, []string{"a:b", "c:d"}, parseTag([]string{"a", "b", "c", "d"}))
	assert.Panics(t, func() { parseTag([]string{"a"}) })
}
