package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/ytb/internal/domain"
	"github.com/yourusername/ytb/internal/infrastructure"
	"github.com/yourusername/ytb/pkg/logger"
)

// RunManager executes runs and records them in history
type RunManager struct {
	repo         domain.RunRepository // nil disables history
	source       domain.MetadataSource
	orchestrator *Orchestrator
	notifier     *infrastructure.NotificationService
	fs           afero.Fs
	multiLogger  *logger.MultiLogger
	logger       *zap.Logger
	sink         domain.ProgressSink
	semaphore    chan struct{}
	claimMu      sync.Mutex

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// NewRunManager creates a new run manager. concurrentLimit bounds how many
// runs execute at once; values below one mean one.
func NewRunManager(
	repo domain.RunRepository,
	source domain.MetadataSource,
	orchestrator *Orchestrator,
	notifier *infrastructure.NotificationService,
	fs afero.Fs,
	concurrentLimit int,
	multiLogger *logger.MultiLogger,
	log *zap.Logger,
) *RunManager {
	if concurrentLimit < 1 {
		concurrentLimit = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RunManager{
		repo:         repo,
		source:       source,
		orchestrator: orchestrator,
		notifier:     notifier,
		fs:           fs,
		multiLogger:  multiLogger,
		logger:       log,
		sink:         domain.NopSink{},
		semaphore:    make(chan struct{}, concurrentLimit),
		active:       make(map[string]context.CancelFunc),
	}
}

// SetProgressSink sets where run progress is reported
func (rm *RunManager) SetProgressSink(sink domain.ProgressSink) {
	if sink == nil {
		sink = domain.NopSink{}
	}
	rm.sink = sink
}

// Submit validates a request and records it as a queued run
func (rm *RunManager) Submit(req domain.Request) (*domain.Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := rm.source.Validate(req.URL); err != nil {
		return nil, err
	}

	run := domain.NewRun(req)
	if err := rm.create(run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	rm.multiLogger.LogRunEvent("run_queued",
		zap.String("id", run.ID),
		zap.String("url", run.URL),
		zap.String("action", string(run.Action)),
		zap.String("kind", string(run.Kind)),
		zap.Bool("convert", run.Convert))
	if rm.notifier != nil {
		rm.notifier.NotifyRunQueued(run)
	}
	return run, nil
}

// RunNow submits a request and executes it immediately
func (rm *RunManager) RunNow(ctx context.Context, req domain.Request) (*domain.Run, *domain.Result, error) {
	run, err := rm.Submit(req)
	if err != nil {
		return nil, nil, err
	}
	result, err := rm.Execute(ctx, run)
	return run, result, err
}

// Execute processes a queued run: fetch metadata, run the pipeline and
// record the outcome. Nothing is retried.
func (rm *RunManager) Execute(ctx context.Context, run *domain.Run) (*domain.Result, error) {
	select {
	case rm.semaphore <- struct{}{}:
		defer func() { <-rm.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := rm.claim(run, cancel); err != nil {
		return nil, err
	}
	defer rm.untrack(run.ID)

	rm.logger.Info("Processing run",
		zap.String("id", run.ID),
		zap.String("url", run.URL),
		zap.String("action", string(run.Action)),
		zap.String("kind", string(run.Kind)))
	rm.multiLogger.LogRunEvent("run_started", zap.String("id", run.ID), zap.String("url", run.URL))

	info, err := rm.source.Fetch(ctx, run.URL)
	if err != nil {
		return nil, rm.fail(ctx, run, err)
	}
	run.VideoID = info.ID
	run.Title = info.Title

	sink := domain.RunSink{RunID: run.ID, Sink: rm.sink}
	result, err := rm.orchestrator.Execute(ctx, run.Request(), info, sink)
	if err != nil {
		return nil, rm.fail(ctx, run, err)
	}

	var size int64
	if result.OutputPath != "" {
		if fi, err := rm.fs.Stat(result.OutputPath); err == nil {
			size = fi.Size()
		}
	}
	run.MarkCompleted(result.OutputPath, size)
	if err := rm.update(run); err != nil {
		rm.logger.Error("Failed to update run status", zap.Error(err))
	}

	rm.logger.Info("Run completed",
		zap.String("id", run.ID),
		zap.String("title", run.Title),
		zap.String("file", run.FilePath))
	rm.multiLogger.LogRunEvent("run_completed",
		zap.String("id", run.ID),
		zap.String("file_path", run.FilePath),
		zap.Int64("file_size", run.FileSize))
	if rm.notifier != nil && run.Action == domain.ActionDownload {
		rm.notifier.NotifyRunCompleted(run)
	}
	return result, nil
}

// claim moves a queued run to processing and registers its cancel func.
// It holds claimMu so a concurrent Cancel either sees the run active or
// lands before the status check.
func (rm *RunManager) claim(run *domain.Run, cancel context.CancelFunc) error {
	rm.claimMu.Lock()
	defer rm.claimMu.Unlock()

	// The run may have been cancelled while waiting for a slot
	if current, err := rm.find(run.ID); err == nil && current.IsTerminal() {
		return fmt.Errorf("%w: run %s is %s", domain.ErrInvalidInput, run.ID, current.Status)
	}

	rm.track(run.ID, cancel)
	run.MarkProcessing()
	if err := rm.update(run); err != nil {
		rm.untrack(run.ID)
		return fmt.Errorf("failed to update run status: %w", err)
	}
	return nil
}

// fail records a failed run, or a cancelled one when ctx was cancelled,
// and returns err
func (rm *RunManager) fail(ctx context.Context, run *domain.Run, err error) error {
	if ctx.Err() != nil {
		run.MarkCancelled()
		rm.multiLogger.LogRunEvent("run_cancelled", zap.String("id", run.ID))
	} else {
		run.MarkFailed(err)
		rm.multiLogger.LogRunEvent("run_failed", zap.String("id", run.ID), zap.Error(err))
		if !errors.Is(err, domain.ErrFormatNotFound) {
			rm.multiLogger.LogAppError("Run failed", zap.String("id", run.ID), zap.Error(err))
		}
		if rm.notifier != nil {
			rm.notifier.NotifyRunFailed(run, err)
		}
	}

	if updateErr := rm.update(run); updateErr != nil {
		rm.logger.Error("Failed to update run status", zap.Error(updateErr))
	}
	return err
}

// Cancel cancels a queued run, or interrupts it if it is processing
func (rm *RunManager) Cancel(id string) error {
	rm.claimMu.Lock()
	defer rm.claimMu.Unlock()

	run, err := rm.find(id)
	if err != nil {
		return err
	}

	if run.IsTerminal() {
		return fmt.Errorf("%w: run already in terminal state: %s", domain.ErrInvalidInput, run.Status)
	}

	rm.mu.Lock()
	cancel, running := rm.active[id]
	rm.mu.Unlock()
	if running {
		// Execute records the cancellation once the pipeline unwinds
		cancel()
		rm.logger.Info("Run interrupted", zap.String("id", id))
		return nil
	}

	run.MarkCancelled()
	if err := rm.update(run); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rm.multiLogger.LogRunEvent("run_cancelled", zap.String("id", id))
	rm.logger.Info("Run cancelled", zap.String("id", id))
	return nil
}

// Delete removes a run from history unless it is processing
func (rm *RunManager) Delete(id string) error {
	run, err := rm.find(id)
	if err != nil {
		return err
	}
	if run.IsProcessing() {
		return fmt.Errorf("%w: cannot delete a processing run", domain.ErrInvalidInput)
	}
	return rm.repo.Delete(id)
}

// IsActive reports whether a run is currently executing
func (rm *RunManager) IsActive(id string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	_, ok := rm.active[id]
	return ok
}

func (rm *RunManager) track(id string, cancel context.CancelFunc) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.active[id] = cancel
}

func (rm *RunManager) untrack(id string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.active, id)
}

func (rm *RunManager) create(run *domain.Run) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Create(run)
}

func (rm *RunManager) update(run *domain.Run) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Update(run)
}

func (rm *RunManager) find(id string) (*domain.Run, error) {
	if rm.repo == nil {
		return nil, domain.ErrRunNotFound
	}
	return rm.repo.FindByID(id)
}
