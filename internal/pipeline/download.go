package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/ytb/internal/domain"
	"github.com/yourusername/ytb/internal/progress"
)

// DownloadTask is one stream to copy to a local file
type DownloadTask struct {
	Source         domain.FormatDescriptor
	Destination    string
	ExpectedLength int64 // non-positive falls back to the reported stream length
}

// Downloader copies remote streams to the filesystem with throttled progress
type Downloader struct {
	fs          afero.Fs
	opener      StreamOpener
	interval    time.Duration
	settleDelay time.Duration
	logger      *zap.Logger
}

// NewDownloader creates a downloader using the download configuration
func NewDownloader(fs afero.Fs, opener StreamOpener, cfg domain.DownloadConfig, logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opener == nil {
		opener = NewHTTPOpener(cfg.MaxRedirects)
	}
	return &Downloader{
		fs:          fs,
		opener:      opener,
		interval:    cfg.ProgressInterval,
		settleDelay: cfg.SettleDelay,
		logger:      logger,
	}
}

// Download streams task.Source into task.Destination, calling onProgress at
// most once per interval and once more when the copy completes. The partial
// file is removed on failure.
func (d *Downloader) Download(ctx context.Context, task DownloadTask, onProgress func(progress.ByteStats)) (path string, err error) {
	scope := NewScope(d.fs)
	defer func() {
		if err != nil {
			if cleanupErr := scope.Cleanup(); cleanupErr != nil {
				d.logger.Warn("Failed to remove partial download",
					zap.String("path", task.Destination),
					zap.Error(cleanupErr))
			}
		}
	}()

	body, reported, err := d.opener.Open(ctx, task.Source)
	if err != nil {
		return "", &domain.TransferError{Path: task.Destination, Err: err}
	}
	defer body.Close()

	expected := task.ExpectedLength
	if expected <= 0 {
		expected = reported
	}
	if expected <= 0 {
		expected = task.Source.ContentLength
	}

	d.logger.Debug("Starting stream copy",
		zap.String("format", task.Source.ID),
		zap.String("destination", task.Destination),
		zap.Int64("expected_bytes", expected))

	file, err := d.fs.Create(task.Destination)
	if err != nil {
		return "", &domain.TransferError{Path: task.Destination, Err: err}
	}
	scope.Track(task.Destination)

	meter := progress.NewMeter(expected, d.interval, onProgress)
	_, copyErr := io.Copy(io.MultiWriter(file, meter), &ctxReader{ctx: ctx, r: body})
	closeErr := file.Close()
	if copyErr != nil {
		return "", &domain.TransferError{Path: task.Destination, Err: copyErr}
	}
	if closeErr != nil {
		return "", &domain.TransferError{Path: task.Destination, Err: closeErr}
	}

	final := meter.Finish()

	// Let the last progress frame render before the next stage starts
	if d.settleDelay > 0 {
		timer := time.NewTimer(d.settleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", &domain.TransferError{Path: task.Destination, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	scope.Release(task.Destination)
	d.logger.Debug("Stream copy finished",
		zap.String("destination", task.Destination),
		zap.Int64("bytes", final.Transferred))
	return task.Destination, nil
}

// ctxReader stops a copy once its context is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
