package main

import (
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/ytb/internal/app"
	"github.com/yourusername/ytb/internal/domain"
	"github.com/yourusername/ytb/internal/infrastructure"
	"github.com/yourusername/ytb/internal/pipeline"
	"github.com/yourusername/ytb/pkg/logger"
)

// services holds the components shared by the commands
type services struct {
	repo        *infrastructure.SQLiteRunRepository // nil when history is disabled
	transcoder  *infrastructure.FFmpegTranscoder
	notifier    *infrastructure.NotificationService
	multiLogger *logger.MultiLogger
	runMgr      *app.RunManager
}

// newServices wires the pipeline from the loaded configuration
func newServices(cfg *domain.Config, log *zap.Logger) (*services, error) {
	rt := &services{}

	var repo domain.RunRepository
	if cfg.History.Enabled {
		sqliteRepo, err := infrastructure.NewSQLiteRunRepository(cfg.History.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		rt.repo = sqliteRepo
		repo = sqliteRepo
	}

	if cfg.Logging.Dir != "" {
		ml, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
			Level:   cfg.Logging.Level,
			LogsDir: cfg.Logging.Dir,
		})
		if err != nil {
			log.Warn("Run logs disabled", zap.Error(err))
		} else {
			rt.multiLogger = ml
		}
	}

	fs := afero.NewOsFs()
	if err := fs.MkdirAll(cfg.Download.OutputDir, 0755); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	rt.transcoder = infrastructure.NewFFmpegTranscoder(&cfg.Transcode, log)
	rt.notifier = infrastructure.NewNotificationService(&cfg.Notification, log)

	downloader := pipeline.NewDownloader(fs, pipeline.NewHTTPOpener(cfg.Download.MaxRedirects), cfg.Download, log)
	transcodePipeline := pipeline.NewTranscodePipeline(fs, rt.transcoder, cfg.Transcode, log)
	orchestrator := app.NewOrchestrator(fs, downloader, transcodePipeline, cfg, log)
	source := infrastructure.NewYouTubeSource(cfg.Download.Timeout, log)

	rt.runMgr = app.NewRunManager(repo, source, orchestrator, rt.notifier, fs,
		cfg.Queue.ConcurrentLimit, rt.multiLogger, log)
	return rt, nil
}

// requireHistory fails when run history is disabled
func (rt *services) requireHistory() error {
	if rt.repo == nil {
		return fmt.Errorf("%w: run history is disabled (history.enabled)", domain.ErrInvalidInput)
	}
	return nil
}

// Close releases the database and log files
func (rt *services) Close() {
	if rt.repo != nil {
		rt.repo.Close()
	}
	rt.multiLogger.Close()
}
