package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromBytes(t *testing.T) {
	stats := FromBytes(500, 1000, 2*time.Second)

	assert.Equal(t, 50.0, stats.Percent)
	assert.Equal(t, 250.0, stats.Speed)
	assert.Equal(t, 2.0, stats.ETA)
}

func TestFromBytes_UnknownTotal(t *testing.T) {
	stats := FromBytes(500, 0, time.Second)

	assert.Equal(t, 0.0, stats.Percent)
	assert.Equal(t, int64(-1), stats.Total)
	assert.Equal(t, -1.0, stats.ETA)
	assert.Equal(t, "500byte/??? | Speed: 500byte/s | ETA: ???", stats.Detail())
}

func TestFromBytes_ClampsOverrun(t *testing.T) {
	stats := FromBytes(1500, 1000, time.Second)

	assert.Equal(t, 100.0, stats.Percent)
	assert.Equal(t, 0.0, stats.ETA)
}

func TestFromBytes_NoElapsedTime(t *testing.T) {
	stats := FromBytes(0, 1000, 0)

	assert.Equal(t, 0.0, stats.Percent)
	assert.Equal(t, -1.0, stats.Speed)
	assert.Equal(t, "0byte/1000byte | Speed: ???/s | ETA: ???", stats.Detail())
}

func TestFromTime(t *testing.T) {
	tests := []struct {
		name          string
		current       float64
		total         float64
		wantPercent   float64
		wantTotalSecs float64
	}{
		{"halfway", 30, 60, 50, 60},
		{"zero total treated as one", 0, 0, 0, 1},
		{"position past total", 90, 60, 100, 60},
		{"negative total", 5, -3, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := FromTime(tt.current, tt.total)
			assert.Equal(t, tt.wantPercent, stats.Percent)
			assert.Equal(t, tt.wantTotalSecs, stats.Total)
		})
	}
}

func TestTimeStats_Detail(t *testing.T) {
	assert.Equal(t, "30s/2m0s", FromTime(30, 120).Detail())
}
