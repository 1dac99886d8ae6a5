package domain

// MinAudioBitrateKbps is the lowest audio bitrate accepted for downloads
const MinAudioBitrateKbps = 128

// RequiredContainer is the only container the pipeline handles
const RequiredContainer = "mp4"

// AcceptedVideoQualities lists the video qualities eligible for download
var AcceptedVideoQualities = []string{"1080p", "720p", "hd1080", "hd720"}

// SelectionCriteria decides which descriptors of a catalog are eligible
type SelectionCriteria struct {
	MinAudioBitrateKbps int
	VideoQualities      []string
	Container           string
}

// DefaultCriteria returns the standard selection criteria
func DefaultCriteria() SelectionCriteria {
	return SelectionCriteria{
		MinAudioBitrateKbps: MinAudioBitrateKbps,
		VideoQualities:      append([]string(nil), AcceptedVideoQualities...),
		Container:           RequiredContainer,
	}
}

// SelectAudio returns the first audio-only descriptor in catalog order that
// meets the container and bitrate constraints. The boolean is false when no
// descriptor qualifies.
func (c SelectionCriteria) SelectAudio(formats []FormatDescriptor) (FormatDescriptor, bool) {
	for _, f := range formats {
		if c.isAudioOnly(f) && f.AudioBitrateKbps >= c.MinAudioBitrateKbps {
			return f, true
		}
	}
	return FormatDescriptor{}, false
}

// SelectVideo returns the first video descriptor in catalog order whose
// quality is one of the accepted qualities. Catalog order wins over the
// order of the quality list.
func (c SelectionCriteria) SelectVideo(formats []FormatDescriptor) (FormatDescriptor, bool) {
	for _, f := range formats {
		if f.HasVideo && f.Container == c.container() && c.acceptsQuality(f.VideoQuality) {
			return f, true
		}
	}
	return FormatDescriptor{}, false
}

// ListMatching returns the descriptors of the requested kind in the required
// container. It is meant for display and never drives a download.
func (c SelectionCriteria) ListMatching(formats []FormatDescriptor, kind MediaKind) []FormatDescriptor {
	var matching []FormatDescriptor
	for _, f := range formats {
		if f.Container != c.container() {
			continue
		}
		if kind == KindVideo && f.HasVideo || kind == KindAudio && f.HasAudio && !f.HasVideo {
			matching = append(matching, f)
		}
	}
	return matching
}

func (c SelectionCriteria) isAudioOnly(f FormatDescriptor) bool {
	return f.HasAudio && !f.HasVideo && f.Container == c.container()
}

func (c SelectionCriteria) acceptsQuality(quality string) bool {
	for _, q := range c.VideoQualities {
		if q == quality {
			return true
		}
	}
	return false
}

func (c SelectionCriteria) container() string {
	if c.Container == "" {
		return RequiredContainer
	}
	return c.Container
}
