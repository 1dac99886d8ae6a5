package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytb/internal/domain"
)

func newTestQueueManager(t *testing.T, repo *mockRepo, config *domain.QueueConfig) *QueueManager {
	t.Helper()
	rm, _ := newTestRunManager(t, repo, &fakeSource{})
	if config == nil {
		config = &domain.QueueConfig{
			CheckInterval:   5 * time.Millisecond,
			ConcurrentLimit: 1,
		}
	}
	return NewQueueManager(repo, rm, nil, config, nil, nil)
}

func TestQueueManager_Enqueue(t *testing.T) {
	repo := newMockRepo()
	qm := newTestQueueManager(t, repo, nil)

	run, err := qm.Enqueue(domain.Request{Action: domain.ActionDownload, Kind: domain.KindAudio, URL: testURL})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, run.Status)

	got, err := qm.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.URL, got.URL)

	stats, err := qm.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Queued)

	_, err = qm.Enqueue(domain.Request{Action: "stream", Kind: domain.KindAudio, URL: testURL})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueueManager_ProcessesQueuedRuns(t *testing.T) {
	repo := newMockRepo()
	qm := newTestQueueManager(t, repo, nil)

	first, err := qm.Enqueue(domain.Request{Action: domain.ActionDownload, Kind: domain.KindAudio, URL: testURL})
	require.NoError(t, err)
	second, err := qm.Enqueue(domain.Request{Action: domain.ActionCheck, Kind: domain.KindVideo, URL: testURL})
	require.NoError(t, err)

	require.NoError(t, qm.Start(context.Background()))
	assert.True(t, qm.IsRunning())

	require.Eventually(t, func() bool {
		return repo.status(t, first.ID) == domain.StatusCompleted &&
			repo.status(t, second.ID) == domain.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, qm.Stop())
	assert.False(t, qm.IsRunning())

	runs, err := qm.ListRuns(map[string]interface{}{"status": domain.StatusCompleted})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestQueueManager_StartStopTwice(t *testing.T) {
	qm := newTestQueueManager(t, newMockRepo(), nil)

	require.NoError(t, qm.Start(context.Background()))
	assert.Error(t, qm.Start(context.Background()))
	require.NoError(t, qm.Stop())
	assert.Error(t, qm.Stop())
}

func TestQueueManager_StartFailsOrphanedRuns(t *testing.T) {
	repo := newMockRepo()
	stale := domain.NewRun(domain.Request{Action: domain.ActionDownload, Kind: domain.KindAudio, URL: testURL})
	stale.MarkProcessing()
	require.NoError(t, repo.Create(stale))

	qm := newTestQueueManager(t, repo, nil)
	require.NoError(t, qm.Start(context.Background()))
	defer qm.Stop()

	assert.Equal(t, domain.StatusFailed, repo.status(t, stale.ID))
}

func TestQueueManager_AutoExitOnEmpty(t *testing.T) {
	qm := newTestQueueManager(t, newMockRepo(), &domain.QueueConfig{
		CheckInterval:   5 * time.Millisecond,
		ConcurrentLimit: 1,
		AutoExitOnEmpty: true,
		EmptyWaitTime:   10 * time.Millisecond,
	})

	require.NoError(t, qm.Start(context.Background()))

	select {
	case <-qm.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("queue manager did not exit on empty queue")
	}
	require.NoError(t, qm.Stop())
}
