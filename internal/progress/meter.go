package progress

import (
	"sync"
	"time"
)

// DefaultInterval is the minimum time between two samples of a Meter
const DefaultInterval = 200 * time.Millisecond

// Meter counts bytes written through it and emits throttled ByteStats.
// It is meant to sit behind io.Copy or io.TeeReader.
type Meter struct {
	total    int64
	interval time.Duration
	onSample func(ByteStats)
	now      func() time.Time

	mu          sync.Mutex
	transferred int64
	started     time.Time
	lastSample  time.Time
	finished    bool
}

// NewMeter creates a meter for a transfer of total bytes (non-positive when unknown)
func NewMeter(total int64, interval time.Duration, onSample func(ByteStats)) *Meter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return newMeterAt(total, interval, onSample, time.Now)
}

func newMeterAt(total int64, interval time.Duration, onSample func(ByteStats), now func() time.Time) *Meter {
	start := now()
	return &Meter{
		total:      total,
		interval:   interval,
		onSample:   onSample,
		now:        now,
		started:    start,
		lastSample: start,
	}
}

// Write implements io.Writer
func (m *Meter) Write(p []byte) (int, error) {
	m.mu.Lock()
	m.transferred += int64(len(p))
	now := m.now()
	var stats *ByteStats
	if !m.finished && now.Sub(m.lastSample) >= m.interval {
		m.lastSample = now
		s := FromBytes(m.transferred, m.total, now.Sub(m.started))
		stats = &s
	}
	m.mu.Unlock()

	if stats != nil && m.onSample != nil {
		m.onSample(*stats)
	}
	return len(p), nil
}

// Transferred returns the number of bytes seen so far
func (m *Meter) Transferred() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transferred
}

// Finish emits the final sample once and stops further sampling
func (m *Meter) Finish() ByteStats {
	m.mu.Lock()
	total := m.total
	if total <= 0 {
		// The full length is known once the stream ends
		total = m.transferred
	}
	stats := FromBytes(m.transferred, total, m.now().Sub(m.started))
	already := m.finished
	m.finished = true
	m.mu.Unlock()

	if !already && m.onSample != nil {
		m.onSample(stats)
	}
	return stats
}
