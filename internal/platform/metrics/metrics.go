package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	dispatchOK      uint64
	dispatchFailed  uint64
	totalDurationMs uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordDispatch tracks push fan-out outcomes; failures here never fail the
// request that triggered them, so the counters are the only place they show.
func (c *Collector) RecordDispatch(success, failure int) {
	atomic.AddUint64(&c.dispatchOK, uint64(success))
	atomic.AddUint64(&c.dispatchFailed, uint64(failure))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      atomic.LoadUint64(&c.errorRequests),
		"rateLimitedTotal": atomic.LoadUint64(&c.rateLimited),
		"dispatchSuccess":  atomic.LoadUint64(&c.dispatchOK),
		"dispatchFailure":  atomic.LoadUint64(&c.dispatchFailed),
		"avgDurationMs":    avg,
	}
}
