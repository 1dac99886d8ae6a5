package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yourusername/ytb/internal/domain"
	"github.com/yourusername/ytb/internal/progress"
)

const (
	opExtract = "extract"
	opMux     = "mux"
)

// muxOptions keep the video stream of the first input and the audio of the second
var muxOptions = []string{"-map", "0:v", "-map", "1:a", "-c:v", "copy"}

// TranscodePipeline runs audio extraction and muxing through a Transcoder
type TranscodePipeline struct {
	fs           afero.Fs
	transcoder   domain.Transcoder
	audioBitrate string
	audioFormat  string
	logger       *zap.Logger
}

// NewTranscodePipeline creates a transcode pipeline using the transcode configuration
func NewTranscodePipeline(fs afero.Fs, transcoder domain.Transcoder, cfg domain.TranscodeConfig, logger *zap.Logger) *TranscodePipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	bitrate := cfg.AudioBitrate
	if bitrate == "" {
		bitrate = "128k"
	}
	format := cfg.AudioFormat
	if format == "" {
		format = "mp3"
	}
	return &TranscodePipeline{
		fs:           fs,
		transcoder:   transcoder,
		audioBitrate: bitrate,
		audioFormat:  format,
		logger:       logger,
	}
}

// ExtractAudio converts input into an audio-only file next to it. The
// result is written to converted_<name>.<format> first; on success the input
// is removed and the temporary file is renamed to <name>.<format>.
func (p *TranscodePipeline) ExtractAudio(ctx context.Context, input string, onProgress func(progress.TimeStats)) (string, error) {
	dir, name := filepath.Dir(input), stem(input)
	temp := filepath.Join(dir, fmt.Sprintf("converted_%s.%s", name, p.audioFormat))
	output := filepath.Join(dir, fmt.Sprintf("%s.%s", name, p.audioFormat))

	job := domain.TranscodeJob{
		Inputs:       []string{input},
		Output:       temp,
		Format:       p.audioFormat,
		NoVideo:      true,
		AudioBitrate: p.audioBitrate,
	}
	if err := p.run(ctx, opExtract, job, onProgress); err != nil {
		return "", err
	}
	if err := p.finalize(opExtract, temp, output, input); err != nil {
		return "", err
	}
	return output, nil
}

// Mux combines the video stream of video with the audio stream of audio
// without re-encoding the video. The result is written to merged_<output>
// first; on success both inputs are removed and the temporary file is
// renamed to output.
func (p *TranscodePipeline) Mux(ctx context.Context, video, audio, output string, onProgress func(progress.TimeStats)) (string, error) {
	temp := filepath.Join(filepath.Dir(output), "merged_"+filepath.Base(output))

	job := domain.TranscodeJob{
		Inputs:  []string{video, audio},
		Output:  temp,
		Format:  strings.TrimPrefix(filepath.Ext(output), "."),
		Options: append([]string(nil), muxOptions...),
	}
	if job.Format == "" {
		job.Format = domain.RequiredContainer
	}
	if err := p.run(ctx, opMux, job, onProgress); err != nil {
		return "", err
	}
	if err := p.finalize(opMux, temp, output, video, audio); err != nil {
		return "", err
	}
	return output, nil
}

// run invokes the transcoder and removes the temporary output on failure
func (p *TranscodePipeline) run(ctx context.Context, op string, job domain.TranscodeJob, onProgress func(progress.TimeStats)) error {
	scope := NewScope(p.fs)
	scope.Track(job.Output)

	tracker := &timeTracker{onProgress: onProgress}
	p.logger.Info("Transcoding",
		zap.String("op", op),
		zap.Strings("inputs", job.Inputs),
		zap.String("output", job.Output))

	err := p.transcoder.Transcode(ctx, job, tracker.handle)
	if err == nil {
		scope.Release(job.Output)
		return nil
	}

	if cleanupErr := scope.Cleanup(); cleanupErr != nil {
		p.logger.Warn("Failed to remove transcoder output", zap.String("path", job.Output), zap.Error(cleanupErr))
	}

	var transcodeErr *domain.TranscodeError
	if errors.As(err, &transcodeErr) {
		if transcodeErr.Op == "" {
			transcodeErr.Op = op
		}
		if transcodeErr.Output == "" {
			transcodeErr.Output = job.Output
		}
		return err
	}
	return &domain.TranscodeError{Op: op, Output: job.Output, Err: err}
}

// finalize removes the consumed inputs and moves temp to output
func (p *TranscodePipeline) finalize(op, temp, output string, inputs ...string) error {
	var errs error
	for _, in := range inputs {
		errs = multierr.Append(errs, p.fs.Remove(in))
	}
	if errs != nil {
		p.logger.Warn("Failed to remove transcoder inputs", zap.Strings("inputs", inputs), zap.Error(errs))
	}

	if err := p.fs.Rename(temp, output); err != nil {
		return &domain.TranscodeError{Op: op, Output: output, Err: fmt.Errorf("rename %s: %w", temp, err)}
	}
	return nil
}

// timeTracker folds transcoder events into time-based progress.
// Malformed timecodes are ignored and the previous values kept.
type timeTracker struct {
	total      float64
	current    float64
	onProgress func(progress.TimeStats)
}

func (t *timeTracker) handle(ev domain.TranscodeEvent) {
	secs, err := progress.ParseTimecode(ev.Timecode)
	if err != nil {
		return
	}
	switch ev.Kind {
	case domain.EventDuration:
		t.total = secs
	case domain.EventProgress:
		t.current = secs
		if t.onProgress != nil {
			t.onProgress(progress.FromTime(t.current, t.total))
		}
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
