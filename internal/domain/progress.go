package domain

// Progress channel identities. The orchestrator owns them; each stage owns its cadence.
const (
	ChannelDownload      = "download"
	ChannelDownloadAudio = "download-audio"
	ChannelConvert       = "convert"
)

// Labels shown next to each progress channel
const (
	LabelDownload      = "Download"
	LabelDownloadAudio = "Download-audio"
	LabelConvert       = "Convert"
)

// ProgressReport is one UI-facing progress update
type ProgressReport struct {
	RunID     string  `json:"run_id,omitempty"`
	ChannelID string  `json:"channel_id"`
	Label     string  `json:"label"`
	Percent   float64 `json:"percent"` // 0..100
	Detail    string  `json:"detail"`
}

// ProgressSink receives progress reports for rendering or forwarding
type ProgressSink interface {
	// Open registers a channel before its stage starts
	Open(channelID, label string)

	// Report delivers an update for a previously opened channel
	Report(report ProgressReport)
}

// RunOpener is implemented by sinks that keep channels apart per run
type RunOpener interface {
	OpenRun(runID, channelID, label string)
}

// openRun opens the channel on sink, passing the run ID when the sink takes one
func openRun(sink ProgressSink, runID, channelID, label string) {
	if o, ok := sink.(RunOpener); ok {
		o.OpenRun(runID, channelID, label)
		return
	}
	sink.Open(channelID, label)
}

// NopSink discards all progress
type NopSink struct{}

func (NopSink) Open(string, string)   {}
func (NopSink) Report(ProgressReport) {}

// MultiSink fans progress out to several sinks
type MultiSink []ProgressSink

// Open opens the channel on every sink
func (m MultiSink) Open(channelID, label string) {
	for _, s := range m {
		s.Open(channelID, label)
	}
}

// OpenRun opens the channel on every sink with the run ID attached
func (m MultiSink) OpenRun(runID, channelID, label string) {
	for _, s := range m {
		openRun(s, runID, channelID, label)
	}
}

// Report forwards the report to every sink
func (m MultiSink) Report(report ProgressReport) {
	for _, s := range m {
		s.Report(report)
	}
}

// RunSink stamps every open and report with a run ID
type RunSink struct {
	RunID string
	Sink  ProgressSink
}

// Open opens the channel on the wrapped sink under the run ID
func (s RunSink) Open(channelID, label string) {
	openRun(s.Sink, s.RunID, channelID, label)
}

// Report forwards the report with the run ID set
func (s RunSink) Report(report ProgressReport) {
	report.RunID = s.RunID
	s.Sink.Report(report)
}
