package domain

import "context"

// TranscodeEventKind distinguishes transcoder progress events
type TranscodeEventKind int

const (
	// EventDuration carries the total media duration, reported once from codec metadata
	EventDuration TranscodeEventKind = iota
	// EventProgress carries the current position (timemark) of the transcoder
	EventProgress
)

// TranscodeEvent is a progress event emitted by the transcoder.
// Timecode is in the transcoder's HH:MM:SS(.ff) form.
type TranscodeEvent struct {
	Kind     TranscodeEventKind
	Timecode string
}

// TranscodeJob is a declarative description of one transcoder invocation
type TranscodeJob struct {
	Inputs       []string
	Output       string
	Format       string   // output container, e.g. mp3 or mp4
	NoVideo      bool     // drop video streams
	AudioBitrate string   // e.g. 128k; empty keeps the transcoder default
	Options      []string // extra output options, e.g. stream mapping
}

// Transcoder runs an external transcoding process
type Transcoder interface {
	// Transcode runs the job to completion, invoking onEvent for progress events
	Transcode(ctx context.Context, job TranscodeJob, onEvent func(TranscodeEvent)) error
}

// MetadataSource resolves a video URL into its metadata and format catalog
type MetadataSource interface {
	// Validate checks that the URL can be handled by the source
	Validate(url string) error

	// Fetch retrieves the video metadata
	Fetch(ctx context.Context, url string) (*VideoInfo, error)
}
