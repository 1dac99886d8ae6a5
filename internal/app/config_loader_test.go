package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytb/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
download:
  output_dir: /srv/media
  settle_delay: 1s
transcode:
  audio_bitrate: 192k
selection:
  min_audio_bitrate: 160
  video_qualities: [hd1080]
queue:
  concurrent_limit: 2
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/media", config.Download.OutputDir)
	assert.Equal(t, time.Second, config.Download.SettleDelay)
	assert.Equal(t, "192k", config.Transcode.AudioBitrate)
	assert.Equal(t, 160, config.Selection.MinAudioBitrate)
	assert.Equal(t, []string{"hd1080"}, config.Selection.VideoQualities)
	assert.Equal(t, 2, config.Queue.ConcurrentLimit)

	// Unset keys keep their defaults
	assert.Equal(t, 5, config.Download.MaxRedirects)
	assert.Equal(t, "mp3", config.Transcode.AudioFormat)
	assert.Equal(t, 8090, config.Server.Port)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, "download:\n  output_dir: /srv/media\n")
	t.Setenv("YTB_DOWNLOAD_OUTPUT_DIR", "/tmp/override")
	t.Setenv("YTB_SERVER_PORT", "9100")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override", config.Download.OutputDir)
	assert.Equal(t, 9100, config.Server.Port)
}

func TestLoadConfig_ExpandsPaths(t *testing.T) {
	path := writeConfig(t, "history:\n  database_path: $YTB_TEST_ROOT/history.db\n")
	t.Setenv("YTB_TEST_ROOT", "/var/lib/ytb")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/ytb/history.db", config.History.DatabasePath)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"negative redirects", "download:\n  max_redirects: -1\n"},
		{"zero concurrency", "queue:\n  concurrent_limit: 0\n"},
		{"history without path", "history:\n  enabled: true\n  database_path: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	config := domain.DefaultConfig()
	config.Download.OutputDir = "/srv/media"
	config.Queue.ConcurrentLimit = 3
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/media", loaded.Download.OutputDir)
	assert.Equal(t, 3, loaded.Queue.ConcurrentLimit)
}
