package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ytb/internal/domain"
	"github.com/yourusername/ytb/internal/infrastructure"
	"github.com/yourusername/ytb/pkg/logger"
)

// QueueManager feeds queued runs to the run manager in server mode
type QueueManager struct {
	repo        domain.RunRepository
	runMgr      *RunManager
	notifier    *infrastructure.NotificationService
	config      *domain.QueueConfig
	multiLogger *logger.MultiLogger
	logger      *zap.Logger

	mu         sync.RWMutex
	running    bool
	dispatched map[string]struct{}
	stopChan   chan struct{}
	doneChan   chan struct{}
	workerWg   sync.WaitGroup
}

// NewQueueManager creates a new queue manager
func NewQueueManager(
	repo domain.RunRepository,
	runMgr *RunManager,
	notifier *infrastructure.NotificationService,
	config *domain.QueueConfig,
	multiLogger *logger.MultiLogger,
	log *zap.Logger,
) *QueueManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &QueueManager{
		repo:        repo,
		runMgr:      runMgr,
		notifier:    notifier,
		config:      config,
		multiLogger: multiLogger,
		logger:      log,
		dispatched:  make(map[string]struct{}),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Start starts the queue processor
func (qm *QueueManager) Start(ctx context.Context) error {
	qm.mu.Lock()
	if qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager already running")
	}
	qm.running = true
	qm.mu.Unlock()

	if n, err := qm.repo.FailOrphaned("interrupted by restart"); err != nil {
		qm.logger.Warn("Failed to reset orphaned runs", zap.Error(err))
	} else if n > 0 {
		qm.logger.Info("Marked orphaned runs as failed", zap.Int64("count", n))
	}

	qm.multiLogger.LogRunEvent("queue_started")

	qm.workerWg.Add(1)
	go qm.processQueue(ctx)

	return nil
}

// Stop stops the queue processor and waits for in-flight runs
func (qm *QueueManager) Stop() error {
	qm.mu.Lock()
	if !qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager not running")
	}
	qm.running = false
	qm.mu.Unlock()

	qm.multiLogger.LogRunEvent("queue_stopped")
	close(qm.stopChan)
	qm.workerWg.Wait()

	return nil
}

// IsRunning returns whether the queue manager is running
func (qm *QueueManager) IsRunning() bool {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return qm.running
}

// Done is closed when the processor exits on its own after the queue
// stayed empty for the configured wait time
func (qm *QueueManager) Done() <-chan struct{} {
	return qm.doneChan
}

// Enqueue validates a request and adds it to the queue
func (qm *QueueManager) Enqueue(req domain.Request) (*domain.Run, error) {
	return qm.runMgr.Submit(req)
}

// GetRun retrieves a run by ID
func (qm *QueueManager) GetRun(id string) (*domain.Run, error) {
	return qm.repo.FindByID(id)
}

// ListRuns lists all runs with optional filters
func (qm *QueueManager) ListRuns(filters map[string]interface{}) ([]*domain.Run, error) {
	return qm.repo.FindAll(filters)
}

// GetStats returns queue statistics
func (qm *QueueManager) GetStats() (*domain.RunStats, error) {
	return qm.repo.GetStats()
}

// processQueue polls for queued runs until stopped
func (qm *QueueManager) processQueue(ctx context.Context) {
	defer qm.workerWg.Done()

	ticker := time.NewTicker(qm.config.CheckInterval)
	defer ticker.Stop()

	emptyStartTime := time.Time{}

	for {
		select {
		case <-ctx.Done():
			qm.multiLogger.LogRunEvent("queue_processor_stopped", zap.String("reason", "context_cancelled"))
			return
		case <-qm.stopChan:
			qm.multiLogger.LogRunEvent("queue_processor_stopped", zap.String("reason", "stop_signal"))
			return
		case <-ticker.C:
			pending, err := qm.repo.FindPending()
			if err != nil {
				qm.multiLogger.LogAppError("Failed to fetch queued runs", zap.Error(err))
				continue
			}

			started := qm.dispatch(ctx, pending)
			if started > 0 || qm.inFlight() > 0 {
				emptyStartTime = time.Time{}
				continue
			}

			if emptyStartTime.IsZero() {
				emptyStartTime = time.Now()
				qm.multiLogger.LogRunEvent("queue_empty")
				if qm.notifier != nil {
					qm.notifier.NotifyQueueEmpty()
				}
			} else if qm.config.AutoExitOnEmpty && time.Since(emptyStartTime) > qm.config.EmptyWaitTime {
				qm.multiLogger.LogRunEvent("queue_auto_exit", zap.String("reason", "empty_timeout"))
				close(qm.doneChan)
				return
			}
		}
	}
}

// dispatch starts a worker for every queued run not already handed over.
// The run manager's semaphore bounds how many execute at once.
func (qm *QueueManager) dispatch(ctx context.Context, pending []*domain.Run) int {
	started := 0
	for _, run := range pending {
		qm.mu.Lock()
		if _, ok := qm.dispatched[run.ID]; ok {
			qm.mu.Unlock()
			continue
		}
		qm.dispatched[run.ID] = struct{}{}
		qm.mu.Unlock()
		started++

		qm.workerWg.Add(1)
		go func(run *domain.Run) {
			defer qm.workerWg.Done()
			defer func() {
				qm.mu.Lock()
				delete(qm.dispatched, run.ID)
				qm.mu.Unlock()
			}()

			if _, err := qm.runMgr.Execute(ctx, run); err != nil {
				qm.logger.Warn("Run did not complete",
					zap.String("id", run.ID),
					zap.Error(err))
			}
		}(run)
	}
	return started
}

func (qm *QueueManager) inFlight() int {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return len(qm.dispatched)
}
