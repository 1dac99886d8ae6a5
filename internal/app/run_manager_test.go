package app

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytb/internal/domain"
)

// mockRepo implements domain.RunRepository in memory. Runs are stored by
// value so callers never share state with the store.
type mockRepo struct {
	mu   sync.Mutex
	runs map[string]domain.Run
}

func newMockRepo() *mockRepo {
	return &mockRepo{runs: make(map[string]domain.Run)}
}

func (m *mockRepo) Create(run *domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = *run
	return nil
}

func (m *mockRepo) Update(run *domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		return domain.ErrRunNotFound
	}
	m.runs[run.ID] = *run
	return nil
}

func (m *mockRepo) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; !ok {
		return domain.ErrRunNotFound
	}
	delete(m.runs, id)
	return nil
}

func (m *mockRepo) FindByID(id string) (*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return &run, nil
}

func (m *mockRepo) FindPending() ([]*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var runs []*domain.Run
	for _, run := range m.runs {
		if run.Status == domain.StatusQueued {
			run := run
			runs = append(runs, &run)
		}
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.Before(runs[j].CreatedAt) })
	return runs, nil
}

func (m *mockRepo) FindAll(filters map[string]interface{}) ([]*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var runs []*domain.Run
	for _, run := range m.runs {
		if status, ok := filters["status"]; ok && status != run.Status {
			continue
		}
		run := run
		runs = append(runs, &run)
	}
	return runs, nil
}

func (m *mockRepo) GetStats() (*domain.RunStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.RunStats{Total: int64(len(m.runs))}
	for _, run := range m.runs {
		switch run.Status {
		case domain.StatusQueued:
			stats.Queued++
		case domain.StatusProcessing:
			stats.Processing++
		case domain.StatusCompleted:
			stats.Completed++
		case domain.StatusFailed:
			stats.Failed++
		case domain.StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

func (m *mockRepo) FailOrphaned(reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, run := range m.runs {
		if run.Status == domain.StatusProcessing {
			run.Status = domain.StatusFailed
			run.ErrorMessage = reason
			m.runs[id] = run
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) status(t *testing.T, id string) domain.RunStatus {
	t.Helper()
	run, err := m.FindByID(id)
	require.NoError(t, err)
	return run.Status
}

// fakeSource resolves every YouTube URL to the test video
type fakeSource struct {
	err   error
	block bool // wait for cancellation before returning
}

func (s *fakeSource) Validate(url string) error {
	if !strings.Contains(url, "youtube.com") {
		return domain.ErrInvalidInput
	}
	return nil
}

func (s *fakeSource) Fetch(ctx context.Context, _ string) (*domain.VideoInfo, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return testVideoInfo(), nil
}

const testURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func newTestRunManager(t *testing.T, repo domain.RunRepository, source *fakeSource) (*RunManager, *orchestratorFixture) {
	t.Helper()
	f := newOrchestratorFixture(t)
	rm := NewRunManager(repo, source, f.orch, nil, f.fs, 1, nil, nil)
	rm.SetProgressSink(f.sink)
	return rm, f
}

func TestRunManager_RunNow(t *testing.T) {
	repo := newMockRepo()
	rm, f := newTestRunManager(t, repo, &fakeSource{})

	run, result, err := rm.RunNow(context.Background(),
		domain.Request{Action: domain.ActionDownload, Kind: domain.KindAudio, URL: testURL})

	require.NoError(t, err)
	assert.Equal(t, "/out/My Song.mp4", result.OutputPath)
	assert.Equal(t, domain.StatusCompleted, run.Status)
	assert.Equal(t, "dQw4w9WgXcQ", run.VideoID)
	assert.Equal(t, "My Song", run.Title)
	assert.Equal(t, int64(len(audioPayload)), run.FileSize)
	assert.Equal(t, domain.StatusCompleted, repo.status(t, run.ID))

	// Reports carry the run ID
	require.NotEmpty(t, f.sink.reports)
	assert.Equal(t, run.ID, f.sink.reports[0].RunID)
}

func TestRunManager_RunNowWithoutHistory(t *testing.T) {
	rm, _ := newTestRunManager(t, nil, &fakeSource{})

	run, result, err := rm.RunNow(context.Background(),
		domain.Request{Action: domain.ActionCheck, Kind: domain.KindVideo, URL: testURL})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, run.Status)
	assert.Empty(t, run.FilePath)
	assert.Len(t, result.Formats, 2)
}

func TestRunManager_SubmitRejectsInvalidRequests(t *testing.T) {
	repo := newMockRepo()
	rm, _ := newTestRunManager(t, repo, &fakeSource{})

	_, err := rm.Submit(domain.Request{Action: domain.ActionCheck, Kind: domain.KindAudio, Convert: true, URL: testURL})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = rm.Submit(domain.Request{Action: domain.ActionDownload, Kind: domain.KindAudio, URL: "https://vimeo.com/1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	stats, _ := repo.GetStats()
	assert.Zero(t, stats.Total)
}

func TestRunManager_FetchFailureMarksRunFailed(t *testing.T) {
	repo := newMockRepo()
	rm, _ := newTestRunManager(t, repo, &fakeSource{err: errors.New("video unavailable")})

	run, _, err := rm.RunNow(context.Background(),
		domain.Request{Action: domain.ActionDownload, Kind: domain.KindVideo, URL: testURL})

	require.Error(t, err)
	assert.Equal(t, domain.StatusFailed, run.Status)
	assert.Equal(t, "video unavailable", run.ErrorMessage)
	assert.Equal(t, domain.StatusFailed, repo.status(t, run.ID))
}

func TestRunManager_FormatNotFoundMarksRunFailed(t *testing.T) {
	repo := newMockRepo()
	rm, _ := newTestRunManager(t, repo, &fakeSource{})

	info := testVideoInfo()
	rm.source = &staticSource{info: &domain.VideoInfo{ID: info.ID, Title: info.Title, Formats: info.Formats[:2]}}

	run, _, err := rm.RunNow(context.Background(),
		domain.Request{Action: domain.ActionDownload, Kind: domain.KindAudio, URL: testURL})

	assert.ErrorIs(t, err, domain.ErrFormatNotFound)
	assert.Equal(t, domain.StatusFailed, repo.status(t, run.ID))
}

// staticSource always returns the same metadata
type staticSource struct {
	info *domain.VideoInfo
}

func (s *staticSource) Validate(string) error { return nil }

func (s *staticSource) Fetch(context.Context, string) (*domain.VideoInfo, error) {
	return s.info, nil
}

func TestRunManager_CancelQueued(t *testing.T) {
	repo := newMockRepo()
	rm, _ := newTestRunManager(t, repo, &fakeSource{})

	run, err := rm.Submit(domain.Request{Action: domain.ActionDownload, Kind: domain.KindAudio, URL: testURL})
	require.NoError(t, err)

	require.NoError(t, rm.Cancel(run.ID))
	assert.Equal(t, domain.StatusCancelled, repo.status(t, run.ID))

	// A cancelled run is not executed afterwards
	_, err = rm.Execute(context.Background(), run)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.ErrorIs(t, rm.Cancel(run.ID), domain.ErrInvalidInput)
	assert.ErrorIs(t, rm.Cancel("missing"), domain.ErrRunNotFound)
}

func TestRunManager_CancelProcessing(t *testing.T) {
	repo := newMockRepo()
	rm, _ := newTestRunManager(t, repo, &fakeSource{block: true})

	run, err := rm.Submit(domain.Request{Action: domain.ActionDownload, Kind: domain.KindVideo, URL: testURL})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := rm.Execute(context.Background(), run)
		done <- err
	}()

	require.Eventually(t, func() bool { return rm.IsActive(run.ID) }, time.Second, 5*time.Millisecond)
	require.NoError(t, rm.Cancel(run.ID))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("run did not stop after cancel")
	}
	assert.Equal(t, domain.StatusCancelled, repo.status(t, run.ID))
	assert.False(t, rm.IsActive(run.ID))
}

func TestRunManager_CancelRacingExecuteAlwaysWins(t *testing.T) {
	repo := newMockRepo()
	rm, _ := newTestRunManager(t, repo, &fakeSource{block: true})

	for i := 0; i < 50; i++ {
		run, err := rm.Submit(domain.Request{Action: domain.ActionDownload, Kind: domain.KindVideo, URL: testURL})
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() {
			_, err := rm.Execute(context.Background(), run)
			done <- err
		}()
		require.NoError(t, rm.Cancel(run.ID))

		select {
		case err := <-done:
			assert.Error(t, err)
		case <-time.After(time.Second):
			t.Fatal("run kept executing after cancel")
		}
		assert.Equal(t, domain.StatusCancelled, repo.status(t, run.ID))
		assert.False(t, rm.IsActive(run.ID))
	}
}

func TestRunManager_Delete(t *testing.T) {
	repo := newMockRepo()
	rm, _ := newTestRunManager(t, repo, &fakeSource{})

	processing := domain.NewRun(domain.Request{Action: domain.ActionDownload, Kind: domain.KindAudio, URL: testURL})
	processing.MarkProcessing()
	require.NoError(t, repo.Create(processing))
	assert.ErrorIs(t, rm.Delete(processing.ID), domain.ErrInvalidInput)

	done := domain.NewRun(domain.Request{Action: domain.ActionDownload, Kind: domain.KindAudio, URL: testURL})
	done.MarkCompleted("/out/a.mp4", 1)
	require.NoError(t, repo.Create(done))
	require.NoError(t, rm.Delete(done.ID))

	_, err := repo.FindByID(done.ID)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}
