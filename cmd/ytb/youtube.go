package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/ytb/internal/domain"
	"github.com/yourusername/ytb/internal/infrastructure"
)

var youtubeCmd = &cobra.Command{
	Use:     "youtube",
	Aliases: []string{"yt"},
	Short:   "Check or download YouTube media",
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "List the formats that qualify for download",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runYouTube(cmd, domain.ActionCheck)
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download audio or video, optionally converting it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runYouTube(cmd, domain.ActionDownload)
	},
}

func init() {
	for _, c := range []*cobra.Command{checkCmd, downloadCmd} {
		c.Flags().StringP("url", "u", "", "Video URL")
		c.Flags().StringP("format", "f", string(domain.KindVideo), "Media format (audio, video)")
		c.MarkFlagRequired("url")
	}
	downloadCmd.Flags().BoolP("convert", "c", false, "Convert audio to mp3, or merge video with the best audio")

	youtubeCmd.AddCommand(checkCmd)
	youtubeCmd.AddCommand(downloadCmd)
}

func runYouTube(cmd *cobra.Command, action domain.Action) error {
	url, _ := cmd.Flags().GetString("url")
	format, _ := cmd.Flags().GetString("format")
	convert := false
	if action == domain.ActionDownload {
		convert, _ = cmd.Flags().GetBool("convert")
	}

	req := domain.Request{
		Action:  action,
		Kind:    domain.MediaKind(format),
		Convert: convert,
		URL:     url,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	rt, err := newServices(config, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	if convert && !rt.transcoder.Available() {
		return fmt.Errorf("%w: ffmpeg binary %q not found", domain.ErrInvalidInput, config.Transcode.FFmpegBinary)
	}

	rt.runMgr.SetProgressSink(infrastructure.NewConsoleProgress(os.Stderr))

	run, result, err := rt.runMgr.RunNow(cmd.Context(), req)
	if err != nil {
		return err
	}

	if action == domain.ActionDownload {
		log.Info("Download complete",
			zap.String("id", run.ID),
			zap.String("file", result.OutputPath))
		fmt.Println(result.OutputPath)
	}
	return nil
}
