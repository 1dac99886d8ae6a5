package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/ytb/internal/domain"
	"github.com/yourusername/ytb/internal/pipeline"
	"github.com/yourusername/ytb/internal/progress"
)

// Orchestrator drives one request through format selection, download and
// optional transcoding
type Orchestrator struct {
	fs               afero.Fs
	criteria         domain.SelectionCriteria
	downloader       *pipeline.Downloader
	transcoder       *pipeline.TranscodePipeline
	outputDir        string
	downloadTimeout  time.Duration
	transcodeTimeout time.Duration
	logger           *zap.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	fs afero.Fs,
	downloader *pipeline.Downloader,
	transcoder *pipeline.TranscodePipeline,
	config *domain.Config,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	outputDir := config.Download.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	return &Orchestrator{
		fs:               fs,
		criteria:         config.Selection.Criteria(),
		downloader:       downloader,
		transcoder:       transcoder,
		outputDir:        outputDir,
		downloadTimeout:  config.Download.Timeout,
		transcodeTimeout: config.Transcode.Timeout,
		logger:           logger,
	}
}

// Execute runs the request against already-resolved video metadata.
// Every stage opens its progress channel on sink before it starts.
func (o *Orchestrator) Execute(ctx context.Context, req domain.Request, info *domain.VideoInfo, sink domain.ProgressSink) (*domain.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%w: missing video metadata", domain.ErrInvalidInput)
	}
	if sink == nil {
		sink = domain.NopSink{}
	}

	o.logger.Info(fmt.Sprintf("Id: [%s]", info.ID))
	o.logger.Info(fmt.Sprintf("Url: [%s]", info.URL))
	o.logger.Info(fmt.Sprintf("Title: [%s]", info.Title))
	o.logger.Info(fmt.Sprintf("Length: [%s]", progress.Duration(info.Duration.Seconds())))

	if req.Action == domain.ActionCheck {
		return o.check(req, info), nil
	}

	// Intermediate files of this run are removed if any stage fails
	scope := pipeline.NewScope(o.fs)
	var (
		output string
		err    error
	)
	if req.Kind == domain.KindAudio {
		output, err = o.downloadAudio(ctx, req, info, sink, scope)
	} else {
		output, err = o.downloadVideo(ctx, req, info, sink, scope)
	}
	if err != nil {
		if cleanupErr := scope.Cleanup(); cleanupErr != nil {
			o.logger.Warn("Failed to remove intermediate files", zap.Error(cleanupErr))
		}
		return nil, err
	}

	return &domain.Result{Action: domain.ActionDownload, OutputPath: output}, nil
}

// check lists the descriptors of the requested kind without any I/O
func (o *Orchestrator) check(req domain.Request, info *domain.VideoInfo) *domain.Result {
	formats := o.criteria.ListMatching(info.Formats, req.Kind)

	o.logger.Info("Format:")
	for _, f := range formats {
		video := "None"
		if f.HasVideo {
			video = fmt.Sprintf("%s (%s)", f.VideoQuality, f.VideoCodec)
		}
		audio := "NONE"
		if f.HasAudio {
			audio = fmt.Sprintf("%dbit (%s)", f.AudioBitrateKbps, f.AudioCodec)
		}
		o.logger.Info(fmt.Sprintf("    Tag=%s Type=%s Video=%s Audio=%s Size=%s",
			f.ID, f.MimeBase(), video, audio, sizeOf(f)))
	}

	return &domain.Result{Action: domain.ActionCheck, Formats: formats}
}

func (o *Orchestrator) downloadAudio(ctx context.Context, req domain.Request, info *domain.VideoInfo, sink domain.ProgressSink, scope *pipeline.Scope) (string, error) {
	audio, ok := o.criteria.SelectAudio(info.Formats)
	if !ok {
		return "", domain.ErrFormatNotFound
	}
	o.logger.Info("Format:")
	o.logAudioFormat(audio)

	base := pipeline.SanitizeFilename(info.Title)
	destination := filepath.Join(o.outputDir, base+".mp4")

	sink.Open(domain.ChannelDownload, domain.LabelDownload)
	if req.Convert {
		sink.Open(domain.ChannelConvert, domain.LabelConvert)
	}

	path, err := o.download(ctx, audio, destination, domain.ChannelDownload, domain.LabelDownload, sink)
	if err != nil {
		return "", err
	}
	if !req.Convert {
		return path, nil
	}

	scope.Track(path)
	return o.extractAudio(ctx, path, sink)
}

func (o *Orchestrator) downloadVideo(ctx context.Context, req domain.Request, info *domain.VideoInfo, sink domain.ProgressSink, scope *pipeline.Scope) (string, error) {
	// Audio is selected first even when it is not downloaded
	audio, ok := o.criteria.SelectAudio(info.Formats)
	if !ok {
		return "", domain.ErrFormatNotFound
	}
	video, ok := o.criteria.SelectVideo(info.Formats)
	if !ok {
		return "", domain.ErrFormatNotFound
	}
	o.logger.Info("Format:")
	o.logAudioFormat(audio)
	o.logger.Info(fmt.Sprintf("    Video: %s %s (%s) Size=%s",
		video.MimeBase(), video.VideoQuality, video.VideoCodec, sizeOf(video)))

	base := pipeline.SanitizeFilename(info.Title)
	output := filepath.Join(o.outputDir, base+".mp4")
	videoPath := filepath.Join(o.outputDir, "video_"+base+".mp4")
	audioPath := filepath.Join(o.outputDir, "audio_"+base+".mp4")

	sink.Open(domain.ChannelDownload, domain.LabelDownload)
	if !req.Convert {
		path, err := o.download(ctx, video, videoPath, domain.ChannelDownload, domain.LabelDownload, sink)
		if err != nil {
			return "", err
		}
		scope.Track(path)
		if err := o.fs.Rename(path, output); err != nil {
			return "", &domain.TransferError{Path: output, Err: err}
		}
		return output, nil
	}

	sink.Open(domain.ChannelDownloadAudio, domain.LabelDownloadAudio)
	sink.Open(domain.ChannelConvert, domain.LabelConvert)

	// Both streams are fetched concurrently; the first failure cancels the other
	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		path, err := o.download(ctx, video, videoPath, domain.ChannelDownload, domain.LabelDownload, sink)
		if err == nil {
			scope.Track(path)
		}
		return err
	})
	p.Go(func(ctx context.Context) error {
		path, err := o.download(ctx, audio, audioPath, domain.ChannelDownloadAudio, domain.LabelDownloadAudio, sink)
		if err == nil {
			scope.Track(path)
		}
		return err
	})
	if err := p.Wait(); err != nil {
		return "", err
	}

	return o.mux(ctx, videoPath, audioPath, output, sink)
}

// download runs one download stage under the configured deadline
func (o *Orchestrator) download(ctx context.Context, format domain.FormatDescriptor, destination, channelID, label string, sink domain.ProgressSink) (string, error) {
	ctx, cancel := withOptionalTimeout(ctx, o.downloadTimeout)
	defer cancel()

	task := pipeline.DownloadTask{
		Source:         format,
		Destination:    destination,
		ExpectedLength: format.ContentLength,
	}
	return o.downloader.Download(ctx, task, func(stats progress.ByteStats) {
		sink.Report(domain.ProgressReport{
			ChannelID: channelID,
			Label:     label,
			Percent:   roundPercent(stats.Percent),
			Detail:    stats.Detail(),
		})
	})
}

func (o *Orchestrator) extractAudio(ctx context.Context, input string, sink domain.ProgressSink) (string, error) {
	ctx, cancel := withOptionalTimeout(ctx, o.transcodeTimeout)
	defer cancel()
	return o.transcoder.ExtractAudio(ctx, input, o.convertReporter(sink))
}

func (o *Orchestrator) mux(ctx context.Context, video, audio, output string, sink domain.ProgressSink) (string, error) {
	ctx, cancel := withOptionalTimeout(ctx, o.transcodeTimeout)
	defer cancel()
	return o.transcoder.Mux(ctx, video, audio, output, o.convertReporter(sink))
}

func (o *Orchestrator) convertReporter(sink domain.ProgressSink) func(progress.TimeStats) {
	return func(stats progress.TimeStats) {
		sink.Report(domain.ProgressReport{
			ChannelID: domain.ChannelConvert,
			Label:     domain.LabelConvert,
			Percent:   roundPercent(stats.Percent),
			Detail:    stats.Detail(),
		})
	}
}

func (o *Orchestrator) logAudioFormat(f domain.FormatDescriptor) {
	o.logger.Info(fmt.Sprintf("    Audio: %s %dbit (%s) Size=%s",
		f.MimeBase(), f.AudioBitrateKbps, f.AudioCodec, sizeOf(f)))
}

// sizeOf renders the descriptor length, unknown when absent
func sizeOf(f domain.FormatDescriptor) string {
	if f.ContentLength <= 0 {
		return progress.Unknown
	}
	return progress.Size(float64(f.ContentLength))
}

// roundPercent keeps two decimals
func roundPercent(p float64) float64 {
	return float64(int64(p*100+0.5)) / 100
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
