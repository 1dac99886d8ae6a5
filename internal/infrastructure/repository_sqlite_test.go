package infrastructure

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ytb/internal/domain"
)

func setupTestRepo(t *testing.T) *SQLiteRunRepository {
	t.Helper()
	repo, err := NewSQLiteRunRepository(filepath.Join(t.TempDir(), "history", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestRun(url string, kind domain.MediaKind) *domain.Run {
	return domain.NewRun(domain.Request{Action: domain.ActionDownload, Kind: kind, URL: url})
}

func TestSQLiteRunRepository_CreateAndFind(t *testing.T) {
	repo := setupTestRepo(t)

	run := newTestRun("https://www.youtube.com/watch?v=abc", domain.KindAudio)
	require.NoError(t, repo.Create(run))

	found, err := repo.FindByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.URL, found.URL)
	assert.Equal(t, domain.StatusQueued, found.Status)
	assert.Equal(t, domain.KindAudio, found.Kind)
}

func TestSQLiteRunRepository_FindByIDNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.FindByID("missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestSQLiteRunRepository_Update(t *testing.T) {
	repo := setupTestRepo(t)

	run := newTestRun("https://www.youtube.com/watch?v=abc", domain.KindVideo)
	require.NoError(t, repo.Create(run))

	run.Title = "Clip"
	run.MarkCompleted("/out/Clip.mp4", 2048)
	require.NoError(t, repo.Update(run))

	found, err := repo.FindByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, found.Status)
	assert.Equal(t, "Clip", found.Title)
	assert.Equal(t, "/out/Clip.mp4", found.FilePath)
	assert.Equal(t, int64(2048), found.FileSize)
	require.NotNil(t, found.CompletedAt)
}

func TestSQLiteRunRepository_Delete(t *testing.T) {
	repo := setupTestRepo(t)

	run := newTestRun("https://www.youtube.com/watch?v=abc", domain.KindVideo)
	require.NoError(t, repo.Create(run))

	require.NoError(t, repo.Delete(run.ID))
	assert.ErrorIs(t, repo.Delete(run.ID), domain.ErrRunNotFound)
}

func TestSQLiteRunRepository_FindPendingOrdersOldestFirst(t *testing.T) {
	repo := setupTestRepo(t)

	older := newTestRun("https://www.youtube.com/watch?v=one", domain.KindAudio)
	older.CreatedAt = time.Now().Add(-time.Minute)
	newer := newTestRun("https://www.youtube.com/watch?v=two", domain.KindAudio)
	done := newTestRun("https://www.youtube.com/watch?v=three", domain.KindAudio)
	done.MarkCompleted("/x.mp3", 1)

	require.NoError(t, repo.Create(newer))
	require.NoError(t, repo.Create(older))
	require.NoError(t, repo.Create(done))

	pending, err := repo.FindPending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, older.ID, pending[0].ID)
	assert.Equal(t, newer.ID, pending[1].ID)
}

func TestSQLiteRunRepository_FindAllFilters(t *testing.T) {
	repo := setupTestRepo(t)

	audio := newTestRun("https://www.youtube.com/watch?v=one", domain.KindAudio)
	video := newTestRun("https://www.youtube.com/watch?v=two", domain.KindVideo)
	video.MarkFailed(assert.AnError)
	require.NoError(t, repo.Create(audio))
	require.NoError(t, repo.Create(video))

	all, err := repo.FindAll(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	failed, err := repo.FindAll(map[string]interface{}{"status": domain.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, video.ID, failed[0].ID)

	_, err = repo.FindAll(map[string]interface{}{"1=1; --": "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSQLiteRunRepository_GetStats(t *testing.T) {
	repo := setupTestRepo(t)

	queued := newTestRun("https://www.youtube.com/watch?v=one", domain.KindAudio)
	completed := newTestRun("https://www.youtube.com/watch?v=two", domain.KindAudio)
	completed.MarkCompleted("/a.mp3", 10)
	failed := newTestRun("https://www.youtube.com/watch?v=three", domain.KindVideo)
	failed.MarkFailed(assert.AnError)
	cancelled := newTestRun("https://www.youtube.com/watch?v=four", domain.KindVideo)
	cancelled.MarkCancelled()

	for _, r := range []*domain.Run{queued, completed, failed, cancelled} {
		require.NoError(t, repo.Create(r))
	}

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(1), stats.Queued)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Cancelled)
	assert.Equal(t, int64(0), stats.Processing)
}

func TestSQLiteRunRepository_FailOrphaned(t *testing.T) {
	repo := setupTestRepo(t)

	stale := newTestRun("https://www.youtube.com/watch?v=one", domain.KindAudio)
	stale.MarkProcessing()
	queued := newTestRun("https://www.youtube.com/watch?v=two", domain.KindAudio)
	require.NoError(t, repo.Create(stale))
	require.NoError(t, repo.Create(queued))

	n, err := repo.FailOrphaned("interrupted")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.FindByID(stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, "interrupted", got.ErrorMessage)
	assert.NotNil(t, got.CompletedAt)

	got, err = repo.FindByID(queued.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, got.Status)
}
