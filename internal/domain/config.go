package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Transcode    TranscodeConfig    `mapstructure:"transcode"`
	Selection    SelectionConfig    `mapstructure:"selection"`
	History      HistoryConfig      `mapstructure:"history"`
	Queue        QueueConfig        `mapstructure:"queue"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	OutputDir        string        `mapstructure:"output_dir"`
	MaxRedirects     int           `mapstructure:"max_redirects"`
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
	SettleDelay      time.Duration `mapstructure:"settle_delay"`
	Timeout          time.Duration `mapstructure:"timeout"` // 0 disables the per-stage deadline
}

// TranscodeConfig contains configuration for the external transcoder
type TranscodeConfig struct {
	FFmpegBinary string        `mapstructure:"ffmpeg_binary"`
	AudioBitrate string        `mapstructure:"audio_bitrate"`
	AudioFormat  string        `mapstructure:"audio_format"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// SelectionConfig tunes the format selection criteria
type SelectionConfig struct {
	MinAudioBitrate int      `mapstructure:"min_audio_bitrate"`
	VideoQualities  []string `mapstructure:"video_qualities"`
}

// HistoryConfig contains run history persistence configuration
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// QueueConfig contains queue-related configuration for server mode
type QueueConfig struct {
	CheckInterval   time.Duration `mapstructure:"check_interval"`
	ConcurrentLimit int           `mapstructure:"concurrent_limit"`
	AutoExitOnEmpty bool          `mapstructure:"auto_exit_on_empty"`
	EmptyWaitTime   time.Duration `mapstructure:"empty_wait_time"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	Dir        string `mapstructure:"dir"`         // directory for categorized run/error logs
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Download: DownloadConfig{
			OutputDir:        ".",
			MaxRedirects:     5,
			ProgressInterval: 200 * time.Millisecond,
			SettleDelay:      250 * time.Millisecond,
		},
		Transcode: TranscodeConfig{
			FFmpegBinary: "ffmpeg",
			AudioBitrate: "128k",
			AudioFormat:  "mp3",
		},
		Selection: SelectionConfig{
			MinAudioBitrate: MinAudioBitrateKbps,
			VideoQualities:  append([]string(nil), AcceptedVideoQualities...),
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.ytb/history.db",
		},
		Queue: QueueConfig{
			CheckInterval:   2 * time.Second,
			ConcurrentLimit: 1,
			AutoExitOnEmpty: false,
			EmptyWaitTime:   5 * time.Minute,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
			Dir:        "$HOME/.ytb/logs",
		},
	}
}

// Criteria builds the selection criteria described by the configuration
func (c SelectionConfig) Criteria() SelectionCriteria {
	criteria := DefaultCriteria()
	if c.MinAudioBitrate > 0 {
		criteria.MinAudioBitrateKbps = c.MinAudioBitrate
	}
	if len(c.VideoQualities) > 0 {
		criteria.VideoQualities = append([]string(nil), c.VideoQualities...)
	}
	return criteria
}
