package infrastructure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/yourusername/ytb/internal/domain"
)

func TestNotificationService_DisabledIsNoop(t *testing.T) {
	n := NewNotificationService(&domain.NotificationConfig{Enabled: false, Method: "osascript"}, zap.NewNop())

	assert.NoError(t, n.Send("title", "message"))
}

func TestNotificationService_UnknownMethod(t *testing.T) {
	n := NewNotificationService(&domain.NotificationConfig{Enabled: true, Method: "pigeon"}, zap.NewNop())

	assert.NoError(t, n.Send("title", "message"))
}

func TestNotificationService_RunHelpersDoNotPanic(t *testing.T) {
	n := NewNotificationService(&domain.NotificationConfig{Enabled: false}, zap.NewNop())
	run := domain.NewRun(domain.Request{Action: domain.ActionDownload, Kind: domain.KindAudio, URL: "https://www.youtube.com/watch?v=abc"})

	n.NotifyRunQueued(run)
	run.Title = "A very long title that needs truncating before display"
	n.NotifyRunCompleted(run)
	n.NotifyRunFailed(run, errors.New("format not found"))
	n.NotifyQueueEmpty()
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "0123456789...", truncateString("0123456789abc", 10))
}

func TestDescribeRun(t *testing.T) {
	run := &domain.Run{URL: "https://www.youtube.com/watch?v=abc"}
	assert.Equal(t, run.URL, describeRun(run))

	run.Title = "Clip"
	assert.Equal(t, "Clip", describeRun(run))
}
