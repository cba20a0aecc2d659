package metrics

import (
	"sync/atomic"
	"time"
)

// Counter is a monotonically increasing value safe for concurrent use.
type Counter struct {
	v atomic.Uint64
}

func (c *Counter) Inc()         { c.v.Add(1) }
func (c *Counter) Add(n uint64) { c.v.Add(n) }
func (c *Counter) Load() uint64 { return c.v.Load() }

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Latency accumulates observations so a mean can be reported without
// keeping samples.
type Latency struct {
	count   atomic.Uint64
	totalNs atomic.Int64
}

func (l *Latency) Observe(d time.Duration) {
	l.count.Add(1)
	l.totalNs.Add(int64(d))
}

func (l *Latency) Mean() time.Duration {
	n := l.count.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(l.totalNs.Load() / int64(n))
}

// Webhook counts payment-provider deliveries by outcome.
type Webhook struct {
	Received   Counter
	Rejected   Counter
	Duplicates Counter
	Processed  Counter
	Failed     Counter
	Ignored    Counter
	Latency    Latency
}

type WebhookSnapshot struct {
	Received      uint64  `json:"received"`
	Rejected      uint64  `json:"rejected"`
	Duplicates    uint64  `json:"duplicates"`
	Processed     uint64  `json:"processed"`
	Failed        uint64  `json:"failed"`
	Ignored       uint64  `json:"ignored"`
	MeanLatencyMs float64 `json:"meanLatencyMs"`
}

func (w *Webhook) Snapshot() WebhookSnapshot {
	return WebhookSnapshot{
		Received:      w.Received.Load(),
		Rejected:      w.Rejected.Load(),
		Duplicates:    w.Duplicates.Load(),
		Processed:     w.Processed.Load(),
		Failed:        w.Failed.Load(),
		Ignored:       w.Ignored.Load(),
		MeanLatencyMs: float64(w.Latency.Mean()) / float64(time.Millisecond),
	}
}
