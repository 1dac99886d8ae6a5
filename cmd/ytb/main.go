package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/yourusername/ytb/internal/app"
	"github.com/yourusername/ytb/internal/domain"
	"github.com/yourusername/ytb/pkg/logger"
)

var (
	configPath string
	config     *domain.Config
	log        *zap.Logger

	rootCmd = &cobra.Command{
		Use:               "ytb",
		Short:             "ytb - YouTube media downloader and transcoder",
		Long:              `Inspect the formats of a YouTube video, download its audio or video stream and optionally transcode the result with ffmpeg.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./configs, $HOME/.ytb or /etc/ytb)")

	rootCmd.AddCommand(youtubeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(remoteCmd)
}

// setup loads the environment, the configuration and the logger
func setup(cmd *cobra.Command, args []string) error {
	if err := loadDotEnv(); err != nil {
		return err
	}

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	config = cfg

	l, err := logger.New(logger.Config{
		Level:      logger.ResolveLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log = l
	return nil
}

// loadDotEnv loads .env.$YTB_ENV and .env from the working directory.
// Variables already set in the environment win.
func loadDotEnv() error {
	files := []string{".env"}
	if env := os.Getenv("YTB_ENV"); env != "" {
		files = append([]string{".env." + env}, files...)
	}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := gotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// reportError logs a command failure. A missing format is an expected
// outcome and gets a short message.
func reportError(err error) {
	if log == nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return
	}

	switch {
	case errors.Is(err, domain.ErrFormatNotFound):
		log.Error("Format not found.")
	case errors.Is(err, context.Canceled):
		log.Warn("Interrupted")
	default:
		log.Error("Command failed", zap.Error(err))
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		reportError(err)
	}
	if log != nil {
		log.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}
