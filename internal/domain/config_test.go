package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8090, config.Server.Port)
	assert.Equal(t, ".", config.Download.OutputDir)
	assert.Equal(t, 5, config.Download.MaxRedirects)
	assert.Equal(t, 200*time.Millisecond, config.Download.ProgressInterval)
	assert.Equal(t, 250*time.Millisecond, config.Download.SettleDelay)
	assert.Zero(t, config.Download.Timeout)
	assert.Equal(t, "ffmpeg", config.Transcode.FFmpegBinary)
	assert.Equal(t, "128k", config.Transcode.AudioBitrate)
	assert.Equal(t, "mp3", config.Transcode.AudioFormat)
	assert.Equal(t, 128, config.Selection.MinAudioBitrate)
	assert.Equal(t, []string{"1080p", "720p", "hd1080", "hd720"}, config.Selection.VideoQualities)
	assert.True(t, config.History.Enabled)
	assert.Equal(t, 1, config.Queue.ConcurrentLimit)
	assert.False(t, config.Notification.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestSelectionConfig_Criteria(t *testing.T) {
	criteria := SelectionConfig{}.Criteria()
	assert.Equal(t, DefaultCriteria(), criteria)

	criteria = SelectionConfig{MinAudioBitrate: 160, VideoQualities: []string{"720p"}}.Criteria()
	assert.Equal(t, 160, criteria.MinAudioBitrateKbps)
	assert.Equal(t, []string{"720p"}, criteria.VideoQualities)
	assert.Equal(t, "mp4", criteria.Container)
}
