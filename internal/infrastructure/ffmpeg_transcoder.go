package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"

	"github.com/alessio/shellescape"
	"go.uber.org/zap"

	"github.com/yourusername/ytb/internal/domain"
)

// stderrTailLines is how many diagnostic lines are kept for error reports
const stderrTailLines = 8

// maxStderrLine bounds a single diagnostic line
const maxStderrLine = 1 << 20

var (
	durationPattern = regexp.MustCompile(`Duration:\s*(\d+:\d+:\d+(?:\.\d+)?)`)
	timemarkPattern = regexp.MustCompile(`time=\s*(\d+:\d+:\d+(?:\.\d+)?)`)
)

// FFmpegTranscoder implements domain.Transcoder with the ffmpeg executable
type FFmpegTranscoder struct {
	binary string
	logger *zap.Logger
}

// NewFFmpegTranscoder creates a transcoder for the configured executable
func NewFFmpegTranscoder(config *domain.TranscodeConfig, logger *zap.Logger) *FFmpegTranscoder {
	binary := config.FFmpegBinary
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegTranscoder{
		binary: binary,
		logger: logger,
	}
}

// Available checks if the ffmpeg executable can be found
func (t *FFmpegTranscoder) Available() bool {
	_, err := exec.LookPath(t.binary)
	return err == nil
}

// BuildArgs builds the ffmpeg command arguments for a job
func BuildArgs(job domain.TranscodeJob) []string {
	args := []string{"-y"}
	for _, in := range job.Inputs {
		args = append(args, "-i", in)
	}
	args = append(args, job.Options...)
	if job.NoVideo {
		args = append(args, "-vn")
	}
	if job.AudioBitrate != "" {
		args = append(args, "-b:a", job.AudioBitrate)
	}
	if job.Format != "" {
		args = append(args, "-f", job.Format)
	}
	return append(args, job.Output)
}

// Transcode runs ffmpeg for the job and reports codec duration and timemarks
func (t *FFmpegTranscoder) Transcode(ctx context.Context, job domain.TranscodeJob, onEvent func(domain.TranscodeEvent)) error {
	args := BuildArgs(job)
	t.logger.Debug("Running ffmpeg",
		zap.String("command", shellescape.QuoteCommand(append([]string{t.binary}, args...))))

	cmd := exec.CommandContext(ctx, t.binary, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &domain.TranscodeError{Output: job.Output, Err: fmt.Errorf("failed to create stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		return &domain.TranscodeError{Output: job.Output, Err: fmt.Errorf("failed to start ffmpeg: %w", err)}
	}

	// Stderr must be drained before Wait
	tail := scanProgress(stderr, onEvent)

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &domain.TranscodeError{Output: job.Output, Stderr: tail, Err: err}
	}
	return nil
}

// scanProgress parses ffmpeg diagnostics, emitting the first reported input
// duration once and every timemark after it. It returns the last lines read.
func scanProgress(r io.Reader, onEvent func(domain.TranscodeEvent)) string {
	if onEvent == nil {
		onEvent = func(domain.TranscodeEvent) {}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStderrLine)
	scanner.Split(splitLines)

	var tail []string
	durationSeen := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tail = append(tail, line)
		if len(tail) > stderrTailLines {
			tail = tail[1:]
		}

		if !durationSeen {
			if m := durationPattern.FindStringSubmatch(line); m != nil {
				durationSeen = true
				onEvent(domain.TranscodeEvent{Kind: domain.EventDuration, Timecode: m[1]})
				continue
			}
		}
		if m := timemarkPattern.FindStringSubmatch(line); m != nil {
			onEvent(domain.TranscodeEvent{Kind: domain.EventProgress, Timecode: m[1]})
		}
	}
	if scanner.Err() != nil {
		// keep the pipe empty so ffmpeg never blocks on a full stderr
		_, _ = io.Copy(io.Discard, r)
	}
	return strings.Join(tail, "\n")
}

// splitLines is bufio.ScanLines that also breaks on carriage returns,
// which ffmpeg uses to redraw its status line
func splitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
