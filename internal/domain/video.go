package domain

import (
	"fmt"
	"strings"
	"time"
)

// MediaKind is the kind of media a run produces
type MediaKind string

const (
	KindAudio MediaKind = "audio"
	KindVideo MediaKind = "video"
)

// Action is what a run does with the format catalog
type Action string

const (
	ActionCheck    Action = "check"    // List matching formats only
	ActionDownload Action = "download" // Download and optionally transcode
)

// VideoInfo is the already-resolved metadata of one remote video
type VideoInfo struct {
	ID       string
	URL      string
	Title    string
	Duration time.Duration
	Formats  []FormatDescriptor
}

// FormatDescriptor is one concrete encoding offered for a video.
// Zero values of the numeric fields mean the value is unknown.
type FormatDescriptor struct {
	ID               string `json:"id"`
	Container        string `json:"container"`
	HasAudio         bool   `json:"has_audio"`
	HasVideo         bool   `json:"has_video"`
	AudioBitrateKbps int    `json:"audio_bitrate_kbps,omitempty"`
	AudioCodec       string `json:"audio_codec,omitempty"`
	VideoQuality     string `json:"video_quality,omitempty"`
	VideoCodec       string `json:"video_codec,omitempty"`
	ContentLength    int64  `json:"content_length,omitempty"`
	MimeType         string `json:"mime_type"`
	URL              string `json:"-"`
}

// MimeBase returns the mime type without its parameters
func (f FormatDescriptor) MimeBase() string {
	base, _, _ := strings.Cut(f.MimeType, ";")
	return strings.TrimSpace(base)
}

// Validate checks the descriptor invariants
func (f FormatDescriptor) Validate() error {
	if !f.HasAudio && !f.HasVideo {
		return fmt.Errorf("%w: format %s carries neither audio nor video", ErrInvalidInput, f.ID)
	}
	return nil
}

// Request describes what the caller wants done with a video
type Request struct {
	Action  Action
	Kind    MediaKind
	Convert bool
	URL     string
}

// Validate checks that the action and kind combination is supported
func (r Request) Validate() error {
	if !ValidateAction(r.Action) {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidInput, r.Action)
	}
	if !ValidateKind(r.Kind) {
		return fmt.Errorf("%w: unknown format %q, expected audio or video", ErrInvalidInput, r.Kind)
	}
	if r.Action == ActionCheck && r.Convert {
		return fmt.Errorf("%w: convert is only valid for downloads", ErrInvalidInput)
	}
	return nil
}

// ValidateAction checks if an action is valid
func ValidateAction(action Action) bool {
	return action == ActionCheck || action == ActionDownload
}

// ValidateKind checks if a media kind is valid
func ValidateKind(kind MediaKind) bool {
	return kind == KindAudio || kind == KindVideo
}

// Result is the successful outcome of a run
type Result struct {
	Action     Action
	OutputPath string
	Formats    []FormatDescriptor
}
