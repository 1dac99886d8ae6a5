package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"check video", Request{Action: ActionCheck, Kind: KindVideo}, false},
		{"download audio convert", Request{Action: ActionDownload, Kind: KindAudio, Convert: true}, false},
		{"unknown action", Request{Action: "stream", Kind: KindAudio}, true},
		{"unknown kind", Request{Action: ActionDownload, Kind: "subtitles"}, true},
		{"check with convert", Request{Action: ActionCheck, Kind: KindAudio, Convert: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsKnownError(t *testing.T) {
	cause := errors.New("connection reset")

	assert.True(t, IsKnownError(fmt.Errorf("select: %w", ErrFormatNotFound)))
	assert.True(t, IsKnownError(ErrInvalidInput))
	assert.True(t, IsKnownError(&TransferError{Path: "a.mp4", Err: cause}))
	assert.True(t, IsKnownError(fmt.Errorf("stage: %w", &TranscodeError{Op: "mux", Err: cause})))
	assert.False(t, IsKnownError(cause))
}

func TestTransferError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &TransferError{Path: "video_a.mp4", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "video_a.mp4")
}

func TestTranscodeError_Message(t *testing.T) {
	err := &TranscodeError{Op: "extract", Output: "converted_a.mp3", Stderr: "Invalid data found", Err: errors.New("exit status 1")}

	assert.Equal(t, "extract to converted_a.mp3 failed: exit status 1: Invalid data found", err.Error())
}

type recordingSink struct {
	opened  []string
	reports []ProgressReport
}

func (s *recordingSink) Open(channelID, label string) { s.opened = append(s.opened, channelID) }
func (s *recordingSink) Report(r ProgressReport)      { s.reports = append(s.reports, r) }

type runOpenRecorder struct {
	recordingSink
	runIDs []string
}

func (s *runOpenRecorder) OpenRun(runID, channelID, label string) {
	s.runIDs = append(s.runIDs, runID)
	s.Open(channelID, label)
}

func TestRunSink_OpensWithRunID(t *testing.T) {
	plain, aware := &recordingSink{}, &runOpenRecorder{}
	sink := RunSink{RunID: "run-2", Sink: MultiSink{plain, aware}}

	sink.Open(ChannelDownloadAudio, LabelDownloadAudio)

	assert.Equal(t, []string{ChannelDownloadAudio}, plain.opened)
	assert.Equal(t, []string{ChannelDownloadAudio}, aware.opened)
	assert.Equal(t, []string{"run-2"}, aware.runIDs)
}

func TestRunSink_StampsRunID(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	sink := RunSink{RunID: "run-1", Sink: MultiSink{a, b}}

	sink.Open(ChannelDownload, LabelDownload)
	sink.Report(ProgressReport{ChannelID: ChannelDownload, Percent: 50})

	for _, s := range []*recordingSink{a, b} {
		assert.Equal(t, []string{ChannelDownload}, s.opened)
		assert.Len(t, s.reports, 1)
		assert.Equal(t, "run-1", s.reports[0].RunID)
	}
}
