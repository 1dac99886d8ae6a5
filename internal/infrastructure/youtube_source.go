package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"go.uber.org/zap"

	"github.com/yourusername/ytb/internal/domain"
)

// itagAudioBitrates lists the audio bitrate in kbps of well-known itags.
// The catalog does not always report it for muxed and legacy formats.
var itagAudioBitrates = map[int]int{
	18:  96,
	22:  192,
	37:  192,
	38:  192,
	139: 48,
	140: 128,
	141: 256,
}

// YouTubeSource implements domain.MetadataSource on top of the YouTube player API
type YouTubeSource struct {
	client *youtube.Client
	logger *zap.Logger
}

// NewYouTubeSource creates a metadata source. A zero timeout leaves requests unbounded.
func NewYouTubeSource(timeout time.Duration, logger *zap.Logger) *YouTubeSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YouTubeSource{
		client: &youtube.Client{
			HTTPClient: &http.Client{Timeout: timeout},
		},
		logger: logger,
	}
}

// Validate validates if the source can handle the given URL
func (s *YouTubeSource) Validate(url string) error {
	if _, err := youtube.ExtractVideoID(url); err != nil {
		return fmt.Errorf("%w: invalid YouTube URL %q: %v", domain.ErrInvalidInput, url, err)
	}
	return nil
}

// Fetch retrieves the video metadata and its format catalog. Stream URLs
// are resolved for mp4 formats only since no other container is downloaded.
func (s *YouTubeSource) Fetch(ctx context.Context, url string) (*domain.VideoInfo, error) {
	if err := s.Validate(url); err != nil {
		return nil, err
	}

	video, err := s.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, wrapFetchError(err)
	}

	info := &domain.VideoInfo{
		ID:       video.ID,
		URL:      url,
		Title:    video.Title,
		Duration: video.Duration,
		Formats:  make([]domain.FormatDescriptor, 0, len(video.Formats)),
	}

	for i := range video.Formats {
		format := &video.Formats[i]
		descriptor := convertFormat(format)
		if descriptor.Container == domain.RequiredContainer {
			streamURL, err := s.client.GetStreamURLContext(ctx, video, format)
			if err != nil {
				s.logger.Debug("Failed to resolve stream URL",
					zap.String("video_id", video.ID),
					zap.Int("itag", format.ItagNo),
					zap.Error(err))
			}
			descriptor.URL = streamURL
		}
		info.Formats = append(info.Formats, descriptor)
	}

	s.logger.Debug("Fetched video metadata",
		zap.String("video_id", info.ID),
		zap.Int("formats", len(info.Formats)))

	return info, nil
}

// convertFormat maps a player format onto a FormatDescriptor
func convertFormat(f *youtube.Format) domain.FormatDescriptor {
	mime, params, _ := strings.Cut(f.MimeType, ";")
	mime = strings.TrimSpace(mime)
	_, container, _ := strings.Cut(mime, "/")

	descriptor := domain.FormatDescriptor{
		ID:            strconv.Itoa(f.ItagNo),
		Container:     container,
		HasVideo:      strings.HasPrefix(mime, "video/"),
		HasAudio:      f.AudioChannels > 0,
		ContentLength: f.ContentLength,
		MimeType:      f.MimeType,
		URL:           f.URL,
	}

	videoCodec, audioCodec := splitCodecs(params, descriptor.HasVideo, descriptor.HasAudio)
	if descriptor.HasVideo {
		descriptor.VideoCodec = videoCodec
		descriptor.VideoQuality = f.Quality
		if descriptor.VideoQuality == "" {
			descriptor.VideoQuality = f.QualityLabel
		}
	}
	if descriptor.HasAudio {
		descriptor.AudioCodec = audioCodec
		descriptor.AudioBitrateKbps = audioBitrate(f)
	}
	return descriptor
}

// splitCodecs reads the codecs parameter of a mime type. Muxed formats list
// the video codec first.
func splitCodecs(params string, hasVideo, hasAudio bool) (videoCodec, audioCodec string) {
	_, codecs, found := strings.Cut(params, "codecs=")
	if !found {
		return "", ""
	}
	parts := strings.Split(strings.Trim(strings.TrimSpace(codecs), `"`), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch {
	case hasVideo && hasAudio && len(parts) > 1:
		return parts[0], parts[1]
	case hasVideo:
		return parts[0], ""
	default:
		return "", parts[0]
	}
}

func audioBitrate(f *youtube.Format) int {
	if kbps, ok := itagAudioBitrates[f.ItagNo]; ok {
		return kbps
	}
	if f.AverageBitrate > 0 {
		return f.AverageBitrate / 1000
	}
	return f.Bitrate / 1000
}

func wrapFetchError(err error) error {
	switch {
	case errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return fmt.Errorf("restricted content (login/age/private): %w", err)
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return fmt.Errorf("failed to get video info: %w", err)
}
