package progress

import (
	"fmt"
	"math"
	"time"
)

// ByteStats is the normalized form of a byte-based progress sample.
// Total, Speed and ETA are negative when unknown.
type ByteStats struct {
	Transferred int64
	Total       int64
	Percent     float64 // 0..100
	Speed       float64 // bytes per second
	ETA         float64 // seconds
}

// TimeStats is the normalized form of a time-based progress sample, in seconds
type TimeStats struct {
	Current float64
	Total   float64
	Percent float64 // 0..100
}

// FromBytes normalizes a byte sample. A non-positive total means the
// expected length is unknown and the percentage stays at 0.
func FromBytes(transferred, total int64, elapsed time.Duration) ByteStats {
	stats := ByteStats{
		Transferred: transferred,
		Total:       total,
		Speed:       -1,
		ETA:         -1,
	}
	if total <= 0 {
		stats.Total = -1
	} else {
		stats.Percent = clampPercent(float64(transferred) / float64(total) * 100)
	}

	if secs := elapsed.Seconds(); secs > 0 {
		stats.Speed = float64(transferred) / secs
	}
	if stats.Speed > 0 && total > 0 {
		remaining := total - transferred
		if remaining < 0 {
			remaining = 0
		}
		stats.ETA = float64(remaining) / stats.Speed
	}
	return stats
}

// FromTime normalizes a time sample. A non-positive total is treated as one
// second so the percentage is always defined.
func FromTime(current, total float64) TimeStats {
	if total <= 0 || math.IsNaN(total) {
		total = 1
	}
	if current < 0 || math.IsNaN(current) {
		current = 0
	}
	return TimeStats{
		Current: current,
		Total:   total,
		Percent: clampPercent(current / total * 100),
	}
}

// Detail renders the byte stats the way the console presenter shows them
func (s ByteStats) Detail() string {
	return fmt.Sprintf("%s/%s | Speed: %s/s | ETA: %s",
		Size(float64(s.Transferred)), Size(float64(s.Total)), Size(s.Speed), Duration(s.ETA))
}

// Detail renders the time stats as "<current>/<total>"
func (s TimeStats) Detail() string {
	return fmt.Sprintf("%s/%s", Duration(s.Current), Duration(s.Total))
}

func clampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
